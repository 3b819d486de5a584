package services

import (
	"testing"

	"lumberjack-engine/internal/config"
	"lumberjack-engine/internal/models"
)

func flightBuilder() *FlightBuilderService {
	return &FlightBuilderService{cfg: config.TournamentConfig{MinHeatSpacing: 4, TargetHeatSpacing: 5}}
}

func TestScoreCandidateAllNewCompetitors(t *testing.T) {
	h := &models.Heat{Competitors: []string{"a", "b"}}
	if got := scoreCandidate(h, map[string]int{}, 3, 4, 5); got != 1000 {
		t.Errorf("got score %v, want 1000 for a heat of unseen competitors", got)
	}
}

func TestScoreCandidatePenalizesSubMinimumSpacing(t *testing.T) {
	h := &models.Heat{Competitors: []string{"x"}}
	last := map[string]int{"x": 0}
	// spacing 1 with min 4: 50 - 3*100 clamps to 0.
	if got := scoreCandidate(h, last, 1, 4, 5); got != 0 {
		t.Errorf("got score %v, want 0", got)
	}
	// spacing 3 with min 4: 50 - 1*100 clamps to 0 as well.
	if got := scoreCandidate(h, last, 3, 4, 5); got != 0 {
		t.Errorf("got score %v, want 0", got)
	}
}

func TestScoreCandidateRewardsTargetSpacing(t *testing.T) {
	h := &models.Heat{Competitors: []string{"x"}}
	last := map[string]int{"x": 0}
	// spacing 5: 5*10 + avg 5 + target bonus 50 = 105.
	if got := scoreCandidate(h, last, 5, 4, 5); got != 105 {
		t.Errorf("got score %v, want 105", got)
	}
}

func TestOrderKeepsRepeatCompetitorsApart(t *testing.T) {
	heats := []*models.Heat{
		{ID: "h1", Competitors: []string{"x", "a"}},
		{ID: "h2", Competitors: []string{"b", "c"}},
		{ID: "h3", Competitors: []string{"d", "e"}},
		{ID: "h4", Competitors: []string{"f", "g"}},
		{ID: "h5", Competitors: []string{"h", "i"}},
		{ID: "h6", Competitors: []string{"x", "j"}},
	}
	fb := flightBuilder()
	ordered := fb.Order(heats)
	if len(ordered) != len(heats) {
		t.Fatalf("order dropped heats: got %d, want %d", len(ordered), len(heats))
	}
	if violations := fb.Verify(ordered); len(violations) != 0 {
		t.Errorf("spacing violations in an order where none are necessary: %+v", violations)
	}
}

func TestVerifyReportsCloseAppearances(t *testing.T) {
	ordered := []*models.Heat{
		{ID: "h1", Competitors: []string{"x"}},
		{ID: "h2", Competitors: []string{"y"}},
		{ID: "h3", Competitors: []string{"x"}},
	}
	violations := flightBuilder().Verify(ordered)
	if len(violations) != 1 {
		t.Fatalf("got %d violations, want 1", len(violations))
	}
	v := violations[0]
	if v.CompetitorID != "x" || v.Spacing != 2 || v.FirstIndex != 0 || v.SecondIndex != 2 {
		t.Errorf("unexpected violation: %+v", v)
	}
}
