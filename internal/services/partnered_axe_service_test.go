package services

import (
	"testing"

	"lumberjack-engine/internal/models"
)

func TestAssignPartneredAxePositionsRanksFinalistsByFinalScore(t *testing.T) {
	state := &models.PartneredAxeState{
		Finalists: []string{"p1", "p2", "p3", "p4"},
		Pairs: []models.PartneredAxePair{
			{ID: "p1", PrelimScore: floatPtr(90), FinalScore: floatPtr(40)},
			{ID: "p2", PrelimScore: floatPtr(80), FinalScore: floatPtr(60)},
			{ID: "p3", PrelimScore: floatPtr(70), FinalScore: floatPtr(55)},
			{ID: "p4", PrelimScore: floatPtr(60), FinalScore: floatPtr(30)},
			{ID: "p5", PrelimScore: floatPtr(50)},
			{ID: "p6", PrelimScore: floatPtr(45)},
		},
	}
	assignPartneredAxePositions(state)

	want := map[string]int{"p2": 1, "p3": 2, "p1": 3, "p4": 4, "p5": 5, "p6": 6}
	for _, p := range state.Pairs {
		if p.FinalPosition == nil || *p.FinalPosition != want[p.ID] {
			got := -1
			if p.FinalPosition != nil {
				got = *p.FinalPosition
			}
			t.Errorf("pair %s: got position %d, want %d", p.ID, got, want[p.ID])
		}
	}
}

func TestFindPair(t *testing.T) {
	pairs := []models.PartneredAxePair{{ID: "a"}, {ID: "b"}}
	if findPair(pairs, "b") == nil {
		t.Errorf("expected to find pair b")
	}
	if findPair(pairs, "missing") != nil {
		t.Errorf("expected nil for an unknown pair id")
	}
}

func TestContainsString(t *testing.T) {
	if !containsString([]string{"x", "y"}, "y") {
		t.Errorf("expected containsString to find y")
	}
	if containsString([]string{"x", "y"}, "z") {
		t.Errorf("expected containsString to not find z")
	}
}

func TestEnsurePartneredAxeStateInitializesFreshState(t *testing.T) {
	event := &models.Event{}
	state := ensurePartneredAxeState(event)
	if state.Stage != models.PartneredAxeStagePrelims {
		t.Errorf("expected a fresh event to start in prelims, got %s", state.Stage)
	}
	if event.Bracket == nil || event.Bracket.Kind != models.BracketKindPartneredAxe {
		t.Errorf("expected event.Bracket to be tagged BracketKindPartneredAxe")
	}

	// Calling again on an already-initialized event must return the same state, not reset it.
	state.Stage = models.PartneredAxeStageFinals
	again := ensurePartneredAxeState(event)
	if again.Stage != models.PartneredAxeStageFinals {
		t.Errorf("expected ensurePartneredAxeState to be idempotent once state exists")
	}
}
