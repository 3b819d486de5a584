package services

import (
	"testing"

	"lumberjack-engine/internal/models"
)

func genderPtr(g models.Gender) *models.Gender { return &g }

func TestSortCollegeCanonicalOrdering(t *testing.T) {
	events := []*models.Event{
		{ID: "birling", Name: "Birling"},
		{ID: "closed-f", Name: "Underhand Speed", Gender: genderPtr(models.GenderFemale)},
		{ID: "closed-m", Name: "Underhand Speed", Gender: genderPtr(models.GenderMale)},
		{ID: "open", Name: "Axe Throw", IsOpen: true},
	}
	sortCollegeCanonical(events)

	want := []string{"open", "closed-m", "closed-f", "birling"}
	for i, id := range want {
		if events[i].ID != id {
			t.Errorf("position %d: got %s, want %s", i, events[i].ID, id)
		}
	}
}

func TestInterleaveEveryThirdSlot(t *testing.T) {
	pro := []*models.Event{
		{ID: "p1", Division: models.DivisionPro}, {ID: "p2", Division: models.DivisionPro},
		{ID: "p3", Division: models.DivisionPro}, {ID: "p4", Division: models.DivisionPro},
		{ID: "p5", Division: models.DivisionPro}, {ID: "p6", Division: models.DivisionPro},
	}
	college := []*models.Event{
		{ID: "c1", Division: models.DivisionCollege},
		{ID: "c2", Division: models.DivisionCollege},
	}

	slots := interleave(pro, []string{"c1", "c2"}, college)

	wantOrder := []string{"p1", "p2", "p3", "c1", "p4", "p5", "p6", "c2"}
	if len(slots) != len(wantOrder) {
		t.Fatalf("got %d slots, want %d", len(slots), len(wantOrder))
	}
	for i, want := range wantOrder {
		if slots[i].EventID != want {
			t.Errorf("slot %d: got %s, want %s", i, slots[i].EventID, want)
		}
		if slots[i].Slot != i+1 {
			t.Errorf("slot %d: got slot number %d, want %d", i, slots[i].Slot, i+1)
		}
	}
}

func TestInterleaveAppendsLeftoverSpillover(t *testing.T) {
	pro := []*models.Event{{ID: "p1"}, {ID: "p2"}}
	college := []*models.Event{{ID: "c1"}}

	slots := interleave(pro, []string{"c1"}, college)
	if len(slots) != 3 || slots[2].EventID != "c1" {
		t.Fatalf("spillover not appended after the pro block: %+v", slots)
	}
}

func TestGenderRankOrdersMaleBeforeFemale(t *testing.T) {
	if genderRank(genderPtr(models.GenderMale)) >= genderRank(genderPtr(models.GenderFemale)) {
		t.Errorf("male events should sort before female events")
	}
	if genderRank(genderPtr(models.GenderFemale)) >= genderRank(nil) {
		t.Errorf("gendered events should sort before ungendered ones")
	}
}

func TestCollegeNameRankFollowsCanonicalOrder(t *testing.T) {
	// Canonical order is not alphabetical: Axe Throw opens the day and
	// Birling closes it.
	if collegeNameRank("Axe Throw") >= collegeNameRank("Underhand Hard Hit") {
		t.Errorf("Axe Throw should rank before Underhand Hard Hit")
	}
	if collegeNameRank("Stock Saw") >= collegeNameRank("Chokerman's Race") {
		t.Errorf("Stock Saw should rank before Chokerman's Race")
	}
	if collegeNameRank("Birling") != len(collegeEventOrder)-1 {
		t.Errorf("Birling should carry the last canonical rank")
	}
	// Punctuation and case fold away during matching.
	if collegeNameRank("chokermans race") != collegeNameRank("Chokerman's Race") {
		t.Errorf("name matching should fold case and punctuation")
	}
	if rank := collegeNameRank("Not An Event"); rank <= len(collegeEventOrder) {
		t.Errorf("unknown names should sort after every listed event, got rank %d", rank)
	}
}

func TestProNameRankFollowsCanonicalOrder(t *testing.T) {
	if proNameRank("Springboard") >= proNameRank("Hot Saw") {
		t.Errorf("Springboard should rank before Hot Saw")
	}
	if proNameRank("Partnered Axe Throw") >= proNameRank("3-Board Jigger") {
		t.Errorf("Partnered Axe Throw should rank before 3-Board Jigger")
	}
}

func TestSortSpilloverUsesSaturdayPriority(t *testing.T) {
	events := []*models.Event{
		{ID: "op-m", Name: "Obstacle Pole", Gender: genderPtr(models.GenderMale)},
		{ID: "sbhh-f", Name: "Standing Block Hard Hit", Gender: genderPtr(models.GenderFemale)},
		{ID: "sbs-m", Name: "Standing Block Speed", Gender: genderPtr(models.GenderMale)},
		{ID: "other", Name: "Pulp Toss"},
	}
	sortSpillover(events)

	want := []string{"sbs-m", "sbhh-f", "op-m", "other"}
	for i, id := range want {
		if events[i].ID != id {
			t.Errorf("position %d: got %s, want %s", i, events[i].ID, id)
		}
	}
}
