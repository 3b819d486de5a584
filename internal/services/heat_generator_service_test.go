package services

import (
	"fmt"
	"testing"

	"lumberjack-engine/internal/config"
	"lumberjack-engine/internal/models"
)

func testHeatConfig() config.TournamentConfig {
	return config.TournamentConfig{
		StandConfigs: map[string]config.StandConfig{
			"saw_hand":    {Total: 4},
			"springboard": {Total: 6},
			"stock_saw":   {Total: 8, SpecificStands: []int{7, 8}},
			"standard":    {Total: 8},
		},
	}
}

func heatGenerator() *HeatGeneratorService {
	return &HeatGeneratorService{cfg: testHeatConfig()}
}

func TestGenerateSnakeDraftWithByes(t *testing.T) {
	event := &models.Event{Name: "Double Buck", StandType: models.StandTypeSawHand, Division: models.DivisionPro}
	entrants := make([]HeatEntrant, 17)
	for i := range entrants {
		entrants[i] = HeatEntrant{CompetitorID: fmt.Sprintf("c%02d", i+1)}
	}

	heats, err := heatGenerator().Generate(event, entrants)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if len(heats) != 5 {
		t.Fatalf("got %d heats, want 5", len(heats))
	}
	wantSizes := []int{4, 4, 4, 4, 1}
	for i, h := range heats {
		if h.HeatNumber != i+1 {
			t.Errorf("heat %d: got heat_number %d", i, h.HeatNumber)
		}
		if h.RunNumber != 1 {
			t.Errorf("heat %d: got run_number %d, want 1", i, h.RunNumber)
		}
		if len(h.Competitors) != wantSizes[i] {
			t.Errorf("heat %d: got %d competitors, want %d", i, len(h.Competitors), wantSizes[i])
		}
	}
	if heats[0].Competitors[0] != "c01" || heats[4].Competitors[0] != "c17" {
		t.Errorf("competitor order does not follow the draft sequence: %v ... %v", heats[0].Competitors, heats[4].Competitors)
	}
}

func TestGenerateKeepsGearSharersApart(t *testing.T) {
	event := &models.Event{Name: "Single Buck", StandType: models.StandTypeSawHand, Division: models.DivisionPro}
	sharing := map[string]string{"crosscut": "smith-family-saw"}
	entrants := []HeatEntrant{
		{CompetitorID: "a", GearSharing: sharing},
		{CompetitorID: "b", GearSharing: sharing},
		{CompetitorID: "c"}, {CompetitorID: "d"},
		{CompetitorID: "e"}, {CompetitorID: "f"},
		{CompetitorID: "g"}, {CompetitorID: "h"},
	}

	heats, err := heatGenerator().Generate(event, entrants)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(heats) != 2 {
		t.Fatalf("got %d heats, want 2", len(heats))
	}
	for _, h := range heats {
		hasA, hasB := false, false
		for _, c := range h.Competitors {
			if c == "a" {
				hasA = true
			}
			if c == "b" {
				hasB = true
			}
		}
		if hasA && hasB {
			t.Errorf("gear-sharing competitors a and b landed in the same heat: %v", h.Competitors)
		}
	}
}

func TestGenerateKeepsOneSidedGearSharersApart(t *testing.T) {
	// Only a declares the sharing, naming b; b carries no entry.
	event := &models.Event{Name: "Single Buck", StandType: models.StandTypeSawHand, Division: models.DivisionPro}
	entrants := []HeatEntrant{
		{CompetitorID: "a", GearSharing: map[string]string{"Single Buck": "b"}},
		{CompetitorID: "b"},
		{CompetitorID: "c"}, {CompetitorID: "d"},
		{CompetitorID: "e"}, {CompetitorID: "f"},
		{CompetitorID: "g"}, {CompetitorID: "h"},
	}

	heats, err := heatGenerator().Generate(event, entrants)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	for _, h := range heats {
		hasA, hasB := false, false
		for _, c := range h.Competitors {
			if c == "a" {
				hasA = true
			}
			if c == "b" {
				hasB = true
			}
		}
		if hasA && hasB {
			t.Errorf("one-sided gear declaration did not keep a and b apart: %v", h.Competitors)
		}
	}
}

func TestGenerateKeepsReciprocalPairsTogether(t *testing.T) {
	eventName := "Jack & Jill Sawing"
	event := &models.Event{Name: eventName, StandType: models.StandTypeSawHand, Division: models.DivisionCollege, IsPartnered: true}
	entrants := []HeatEntrant{
		{CompetitorID: "a", Partners: map[string]string{eventName: "b"}},
		{CompetitorID: "b", Partners: map[string]string{eventName: "a"}},
		{CompetitorID: "c"}, {CompetitorID: "d"},
		{CompetitorID: "e"}, {CompetitorID: "f"},
	}

	heats, err := heatGenerator().Generate(event, entrants)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	for _, h := range heats {
		hasA, hasB := false, false
		for _, c := range h.Competitors {
			if c == "a" {
				hasA = true
			}
			if c == "b" {
				hasB = true
			}
		}
		if hasA != hasB {
			t.Fatalf("pair a/b was split across heats")
		}
	}
}

func TestGenerateDualRunReversesStands(t *testing.T) {
	event := &models.Event{Name: "Chokerman's Race", StandType: models.StandTypeStandard, Division: models.DivisionPro, RequiresDualRuns: true}
	entrants := []HeatEntrant{{CompetitorID: "a"}, {CompetitorID: "b"}, {CompetitorID: "c"}}

	heats, err := heatGenerator().Generate(event, entrants)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(heats) != 2 {
		t.Fatalf("got %d heats, want run-1 plus mirrored run-2", len(heats))
	}
	run1, run2 := heats[0], heats[1]
	if run2.RunNumber != 2 {
		t.Fatalf("second heat has run_number %d, want 2", run2.RunNumber)
	}
	for _, c := range run1.Competitors {
		want := 4 - run1.StandAssignments[c]
		if run2.StandAssignments[c] != want {
			t.Errorf("competitor %s: run-1 stand %d mirrored to %d, want %d", c, run1.StandAssignments[c], run2.StandAssignments[c], want)
		}
	}
}

func TestGenerateCollegeStockSawUsesReservedStands(t *testing.T) {
	event := &models.Event{Name: "Stock Saw", StandType: models.StandTypeStockSaw, Division: models.DivisionCollege}
	entrants := []HeatEntrant{{CompetitorID: "a"}, {CompetitorID: "b"}, {CompetitorID: "c"}}

	heats, err := heatGenerator().Generate(event, entrants)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(heats) != 2 {
		t.Fatalf("got %d heats, want 2 (two reserved stands per heat)", len(heats))
	}
	for _, h := range heats {
		for c, stand := range h.StandAssignments {
			if stand != 7 && stand != 8 {
				t.Errorf("competitor %s on stand %d, want 7 or 8", c, stand)
			}
		}
	}
}

func TestGenerateSpringboardReservesLeftyStand(t *testing.T) {
	event := &models.Event{Name: "1-Board Springboard", StandType: models.StandTypeSpringboard, Division: models.DivisionPro}
	entrants := []HeatEntrant{
		{CompetitorID: "a"},
		{CompetitorID: "b"},
		{CompetitorID: "lefty", LeftHanded: true},
		{CompetitorID: "c"},
	}

	heats, err := heatGenerator().Generate(event, entrants)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(heats) != 1 {
		t.Fatalf("got %d heats, want 1", len(heats))
	}
	stands := heats[0].StandAssignments
	if stands["lefty"] != 6 {
		t.Errorf("left-handed cutter on stand %d, want the reserved stand 6", stands["lefty"])
	}
	for _, c := range []string{"a", "b", "c"} {
		if stands[c] == 6 {
			t.Errorf("right-handed cutter %s landed on the reserved stand", c)
		}
	}
}
