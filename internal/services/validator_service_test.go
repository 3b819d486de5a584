package services

import (
	"testing"

	"lumberjack-engine/internal/config"
	"lumberjack-engine/internal/models"
)

func testTournamentConfig() config.TournamentConfig {
	return config.TournamentConfig{
		ClosedEvents:   map[string]bool{"Stock Saw": true, "Single Buck": true},
		ChoppingEvents: map[string]bool{"Standing Block Speed": true},
		StandConfigs: map[string]config.StandConfig{
			"standard":  {Total: 8},
			"saw_hand":  {Total: 4},
			"stock_saw": {Total: 8, SpecificStands: []int{7, 8}},
		},
	}
}

func makeMembers(genders ...models.Gender) []*models.CollegeCompetitor {
	members := make([]*models.CollegeCompetitor, len(genders))
	for i, g := range genders {
		members[i] = &models.CollegeCompetitor{ID: string(rune('a' + i)), Gender: g, Status: models.CompetitorStatusActive}
	}
	return members
}

func TestValidateTeamRosterSize(t *testing.T) {
	cases := []struct {
		name    string
		members []*models.CollegeCompetitor
		valid   bool
	}{
		{"too few", makeMembers(models.GenderMale, models.GenderMale, models.GenderFemale), false},
		{"minimum valid", makeMembers(models.GenderMale, models.GenderMale, models.GenderFemale, models.GenderFemale), true},
		{"too many", makeMembers(models.GenderMale, models.GenderMale, models.GenderMale, models.GenderMale, models.GenderMale,
			models.GenderFemale, models.GenderFemale, models.GenderFemale, models.GenderFemale), false},
		{"gender imbalance", makeMembers(models.GenderMale, models.GenderMale, models.GenderMale, models.GenderFemale), false},
	}
	team := &models.Team{ID: "t1"}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := ValidateTeam(team, tc.members)
			if result.Valid() != tc.valid {
				t.Errorf("got valid=%v, want %v (errors: %+v)", result.Valid(), tc.valid, result.Errors)
			}
		})
	}
}

func TestValidateTeamIgnoresInactiveMembers(t *testing.T) {
	members := makeMembers(models.GenderMale, models.GenderMale, models.GenderFemale, models.GenderFemale)
	members = append(members, &models.CollegeCompetitor{ID: "z", Gender: models.GenderMale, Status: models.CompetitorStatusInactive})
	result := ValidateTeam(&models.Team{ID: "t1"}, members)
	if !result.Valid() {
		t.Fatalf("expected valid team, got errors: %+v", result.Errors)
	}
}

func TestValidateCollegeCompetitorEventCaps(t *testing.T) {
	cfg := testTournamentConfig()
	c := &models.CollegeCompetitor{
		ID:     "c1",
		TeamID: "t1",
		FirstName: "Pat", LastName: "Sawyer",
		Gender: models.GenderFemale,
		EventsEntered: []string{"Stock Saw", "Single Buck"},
	}
	result := ValidateCollegeCompetitor(c, cfg)
	if !result.Valid() {
		t.Fatalf("expected valid, got errors: %+v", result.Errors)
	}
}

func TestValidateCollegeCompetitorMissingFields(t *testing.T) {
	cfg := testTournamentConfig()
	c := &models.CollegeCompetitor{ID: "c1"}
	result := ValidateCollegeCompetitor(c, cfg)
	if result.Valid() {
		t.Fatalf("expected validation errors for missing required fields")
	}
}

func TestValidateProCompetitorWarningsNonBlocking(t *testing.T) {
	p := &models.ProCompetitor{ID: "p1", FirstName: "Jess", LastName: "Cutter", Gender: models.GenderMale}
	result := ValidateProCompetitor(p)
	if !result.Valid() {
		t.Fatalf("expected a valid result despite warnings, got errors: %+v", result.Errors)
	}
	if len(result.Warnings) == 0 {
		t.Errorf("expected warnings for missing ALA membership and no events entered")
	}
}

func TestValidateHeatCapacityAndCollisions(t *testing.T) {
	cfg := testTournamentConfig()
	event := &models.Event{StandType: models.StandTypeStandard}
	heat := &models.Heat{
		ID:          "h1",
		Competitors: []string{"a", "b", "c"},
		StandAssignments: map[string]int{"a": 1, "b": 1, "c": 2},
	}
	result := ValidateHeat(heat, event, cfg)
	if result.Valid() {
		t.Fatalf("expected a stand collision error")
	}
}

func TestGearSharingConflict(t *testing.T) {
	aSharing := map[string]string{"Stock Saw": "teamB-bob"}
	bSharing := map[string]string{"stock saw": "teamB-bob"}
	if !gearSharingConflict("Stock Saw", "a1", aSharing, "teamB-bob", bSharing) {
		t.Errorf("expected a shared-token conflict to be detected across normalized keys")
	}
	if gearSharingConflict("Single Buck", "a1", aSharing, "teamB-bob", bSharing) {
		t.Errorf("expected no conflict for an event neither competitor listed")
	}
}

func TestGearSharingConflictOneSidedDeclaration(t *testing.T) {
	// Only a declares the sharing; b has no gear_sharing entry at all.
	aSharing := map[string]string{"Single Buck": "b1"}
	if !gearSharingConflict("Single Buck", "a1", aSharing, "b1", nil) {
		t.Errorf("expected a one-sided declaration naming the other competitor to conflict")
	}
	if !gearSharingConflict("Single Buck", "b1", nil, "a1", aSharing) {
		t.Errorf("expected the one-sided check to be symmetric in argument order")
	}
	if gearSharingConflict("Single Buck", "a1", aSharing, "c1", nil) {
		t.Errorf("expected no conflict when the entry names someone else")
	}
}

func TestGearSharingConflictByCategory(t *testing.T) {
	aSharing := map[string]string{"crosscut": "family-saw"}
	bSharing := map[string]string{"crosscut": "family-saw"}
	if !gearSharingConflict("Single Buck", "a1", aSharing, "b1", bSharing) {
		t.Errorf("expected a crosscut category entry to conflict on a crosscut event")
	}
	if gearSharingConflict("Stock Saw", "a1", aSharing, "b1", bSharing) {
		t.Errorf("crosscut category entry should not conflict on a chainsaw event")
	}
}

func TestValidateHeatStandOutOfRange(t *testing.T) {
	cfg := testTournamentConfig()
	event := &models.Event{StandType: models.StandTypeSawHand}
	heat := &models.Heat{
		ID:          "h1",
		Competitors: []string{"a", "b"},
		StandAssignments: map[string]int{"a": 1, "b": 9},
	}
	result := ValidateHeat(heat, event, cfg)
	if result.Valid() {
		t.Fatalf("expected an error for a stand outside the event's stand set")
	}
}

func TestValidateHeatCollegeStockSawStands(t *testing.T) {
	cfg := testTournamentConfig()
	event := &models.Event{StandType: models.StandTypeStockSaw, Division: models.DivisionCollege}
	heat := &models.Heat{
		ID:          "h1",
		Competitors: []string{"a", "b"},
		StandAssignments: map[string]int{"a": 7, "b": 8},
	}
	if result := ValidateHeat(heat, event, cfg); !result.Valid() {
		t.Fatalf("stands 7 and 8 should be valid for college stock saw: %+v", result.Errors)
	}
	heat.StandAssignments = map[string]int{"a": 1, "b": 8}
	if result := ValidateHeat(heat, event, cfg); result.Valid() {
		t.Fatalf("stand 1 should be rejected for college stock saw")
	}
}
