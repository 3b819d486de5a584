package services

import (
	"testing"

	"lumberjack-engine/internal/models"
)

func TestBuildBirlingBracketNoByesStructure(t *testing.T) {
	competitors := []string{"A", "B", "C", "D"}
	state := buildBirlingBracket(competitors, 4)

	var winnersR1, winnersR2, losersR1, losersR2, final int
	for _, m := range state.Matches {
		switch {
		case m.Bracket == models.BirlingBracketWinners && m.Round == 1:
			winnersR1++
		case m.Bracket == models.BirlingBracketWinners && m.Round == 2:
			winnersR2++
		case m.Bracket == models.BirlingBracketLosers && m.Round == 1:
			losersR1++
		case m.Bracket == models.BirlingBracketLosers && m.Round == 2:
			losersR2++
		case m.Bracket == models.BirlingBracketFinal:
			final++
		}
	}
	if winnersR1 != 2 || winnersR2 != 1 || losersR1 != 1 || losersR2 != 1 || final != 1 {
		t.Fatalf("unexpected bracket shape: winnersR1=%d winnersR2=%d losersR1=%d losersR2=%d final=%d",
			winnersR1, winnersR2, losersR1, losersR2, final)
	}
	if state.TotalEntrants != 4 || state.BracketSize != 4 {
		t.Errorf("got TotalEntrants=%d BracketSize=%d, want 4, 4", state.TotalEntrants, state.BracketSize)
	}
}

func TestBuildBirlingBracketSeedsStandardOrder(t *testing.T) {
	competitors := []string{"A", "B", "C", "D"}
	state := buildBirlingBracket(competitors, 4)
	r1 := matchesInRound(state, models.BirlingBracketWinners, 1)
	if len(r1) != 2 {
		t.Fatalf("expected 2 round-1 matches, got %d", len(r1))
	}
	// standard seeding: slot 0 is seed0 vs seed3, slot 1 is seed1 vs seed2.
	if *r1[0].CompetitorAID != "A" || *r1[0].CompetitorBID != "D" {
		t.Errorf("slot 0 got %s vs %s, want A vs D", *r1[0].CompetitorAID, *r1[0].CompetitorBID)
	}
	if *r1[1].CompetitorAID != "B" || *r1[1].CompetitorBID != "C" {
		t.Errorf("slot 1 got %s vs %s, want B vs C", *r1[1].CompetitorAID, *r1[1].CompetitorBID)
	}
}

func TestBuildBirlingBracketWithByes(t *testing.T) {
	// 3 entrants forces a bracket size of 4 with one bye.
	competitors := []string{"A", "B", "C"}
	state := buildBirlingBracket(competitors, 4)
	r1 := matchesInRound(state, models.BirlingBracketWinners, 1)

	byeCount := 0
	for _, m := range r1 {
		if m.IsBye {
			byeCount++
			if !m.Completed || m.WinnerID == nil {
				t.Errorf("bye match should be completed with a winner set")
			}
		}
	}
	if byeCount != 1 {
		t.Fatalf("expected exactly one bye in a 3-entrant/4-slot bracket, got %d", byeCount)
	}
}

func TestGrandFinalSlotConventionWinnersAlwaysSlotZero(t *testing.T) {
	state := buildBirlingBracket([]string{"A", "B", "C", "D"}, 4)
	final := matchesInRound(state, models.BirlingBracketFinal, 1)[0]

	winnersFinal := matchesInRound(state, models.BirlingBracketWinners, 2)[0]
	if winnersFinal.NextMatchID == nil || *winnersFinal.NextMatchID != final.ID || winnersFinal.NextSlot != 0 {
		t.Errorf("winners-bracket final should feed the grand final's slot 0")
	}

	lastLosersRound := matchesInRound(state, models.BirlingBracketLosers, 2)[0]
	if lastLosersRound.NextMatchID == nil || *lastLosersRound.NextMatchID != final.ID || lastLosersRound.NextSlot != 1 {
		t.Errorf("losers-bracket final should feed the grand final's slot 1")
	}
}

func TestAdvanceBirlingWinnerPlacesIntoCorrectSlot(t *testing.T) {
	targetID := "target"
	target := models.BirlingMatch{ID: targetID}
	state := &models.BirlingState{Matches: []models.BirlingMatch{target}}

	winnerID := "W"
	source := &models.BirlingMatch{ID: "source", WinnerID: &winnerID, NextMatchID: &targetID, NextSlot: 1}
	advanceBirlingWinner(state, source)

	got := findBirlingMatch(state, targetID)
	if got.CompetitorBID == nil || *got.CompetitorBID != "W" {
		t.Fatalf("expected winner placed into slot 1 (CompetitorBID), got %+v", got)
	}
	if got.CompetitorAID != nil {
		t.Errorf("slot 0 should remain empty")
	}
}

func TestDropBirlingLoserPlacesIntoCorrectSlot(t *testing.T) {
	targetID := "target"
	target := models.BirlingMatch{ID: targetID}
	state := &models.BirlingState{Matches: []models.BirlingMatch{target}}

	source := &models.BirlingMatch{ID: "source", NextLoserMatchID: &targetID, NextLoserSlot: 0}
	dropBirlingLoser(state, source, "L")

	got := findBirlingMatch(state, targetID)
	if got.CompetitorAID == nil || *got.CompetitorAID != "L" {
		t.Fatalf("expected loser dropped into slot 0 (CompetitorAID), got %+v", got)
	}
}

func TestSetFinalPositionFirstRecordingWins(t *testing.T) {
	state := &models.BirlingState{}
	setFinalPosition(state, "X", 3)
	setFinalPosition(state, "X", 7)

	if got := state.Placements["X"]; got != 3 {
		t.Errorf("got placement %d, want the first recording (3) to stick", got)
	}
}

func TestRecordEliminationPositionsCountDown(t *testing.T) {
	// 4 entrants: the two losers-bracket eliminations take positions 4
	// and 3, leaving 2 and 1 for the grand final.
	state := &models.BirlingState{TotalEntrants: 4}
	state.EliminationCount++
	setFinalPosition(state, "first-out", state.TotalEntrants-state.EliminationCount+1)
	state.EliminationCount++
	setFinalPosition(state, "second-out", state.TotalEntrants-state.EliminationCount+1)

	if state.Placements["first-out"] != 4 || state.Placements["second-out"] != 3 {
		t.Errorf("got placements %v, want first-out=4 second-out=3", state.Placements)
	}
}

func TestFeederStillPendingBlocksByeResolution(t *testing.T) {
	loserMatchID := "losers-match"
	loser := models.BirlingMatch{ID: loserMatchID}
	feederNotDone := models.BirlingMatch{ID: "feeder", NextLoserMatchID: &loserMatchID, Completed: false}
	state := &models.BirlingState{Matches: []models.BirlingMatch{loser, feederNotDone}}

	if !feederStillPending(state, &state.Matches[0]) {
		t.Errorf("expected a still-incomplete feeder to block bye resolution")
	}
}

func matchesInRound(state *models.BirlingState, bracket models.BirlingBracketType, round int) []*models.BirlingMatch {
	var out []*models.BirlingMatch
	for i := range state.Matches {
		if state.Matches[i].Bracket == bracket && state.Matches[i].Round == round {
			out = append(out, &state.Matches[i])
		}
	}
	return out
}
