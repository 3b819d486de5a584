package services

import (
	"testing"

	"lumberjack-engine/internal/models"
)

func TestRankCompetitorsDenseRanksAndIgnoresInactive(t *testing.T) {
	competitors := []*models.CollegeCompetitor{
		{ID: "a", FirstName: "A", LastName: "One", IndividualPoints: 50, Status: models.CompetitorStatusActive},
		{ID: "b", FirstName: "B", LastName: "Two", IndividualPoints: 50, Status: models.CompetitorStatusActive},
		{ID: "c", FirstName: "C", LastName: "Three", IndividualPoints: 30, Status: models.CompetitorStatusActive},
		{ID: "d", FirstName: "D", LastName: "Four", IndividualPoints: 999, Status: models.CompetitorStatusInactive},
	}
	out := rankCompetitors(competitors)
	if len(out) != 3 {
		t.Fatalf("expected inactive competitor excluded, got %d entries", len(out))
	}
	want := map[string]int{"a": 1, "b": 1, "c": 3}
	for _, e := range out {
		if e.Rank != want[e.ID] {
			t.Errorf("competitor %s: got rank %d, want %d", e.ID, e.Rank, want[e.ID])
		}
	}
}

func TestRankTeamsDenseRanksAndIgnoresInactive(t *testing.T) {
	teams := []*models.Team{
		{ID: "t1", SchoolName: "Alpha", TotalPoints: 100, Status: models.TeamStatusActive},
		{ID: "t2", SchoolName: "Beta", TotalPoints: 100, Status: models.TeamStatusActive},
		{ID: "t3", SchoolName: "Gamma", TotalPoints: 40, Status: models.TeamStatusActive},
		{ID: "t4", SchoolName: "Hidden", TotalPoints: 500, Status: models.TeamStatusInactive},
	}
	out := rankTeams(teams)
	if len(out) != 3 {
		t.Fatalf("expected inactive team excluded, got %d entries", len(out))
	}
	want := map[string]int{"t1": 1, "t2": 1, "t3": 3}
	for _, e := range out {
		if e.Rank != want[e.ID] {
			t.Errorf("team %s: got rank %d, want %d", e.ID, e.Rank, want[e.ID])
		}
	}
}

func TestFillEventCountsSeparatesActiveFromUpcoming(t *testing.T) {
	events := []*models.Event{
		{DisplayName: "Underhand Chop", Status: models.EventStatusInProgress},
		{DisplayName: "Springboard", Status: models.EventStatusScheduled},
		{DisplayName: "Stock Saw", Status: models.EventStatusScheduled},
		{DisplayName: "Standing Block", Status: models.EventStatusCompleted},
	}
	var summary SpectatorSummary
	fillEventCounts(&summary, events)

	if len(summary.ActiveEvents) != 1 || summary.ActiveEvents[0] != "Underhand Chop" {
		t.Errorf("got active events %v, want [Underhand Chop]", summary.ActiveEvents)
	}
	if summary.UpcomingCount != 2 {
		t.Errorf("got upcoming count %d, want 2", summary.UpcomingCount)
	}
}

func TestTopNTruncatesOrReturnsAll(t *testing.T) {
	entries := []StandingEntry{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	if got := topN(entries, 2); len(got) != 2 {
		t.Errorf("expected truncation to 2, got %d", len(got))
	}
	if got := topN(entries, 10); len(got) != 3 {
		t.Errorf("expected all 3 entries when n exceeds length, got %d", len(got))
	}
}

func TestPayoutsToEntriesAssignsSequentialRank(t *testing.T) {
	payouts := []PayoutSummaryEntry{{ID: "x", Name: "Xavier", Earnings: 500}, {ID: "y", Name: "Yara", Earnings: 250}}
	entries := payoutsToEntries(payouts)
	if entries[0].Rank != 1 || entries[1].Rank != 2 {
		t.Fatalf("expected sequential ranks 1, 2, got %d, %d", entries[0].Rank, entries[1].Rank)
	}
	if entries[0].Points != 500 || entries[0].ID != "x" {
		t.Errorf("expected payout earnings carried through as Points")
	}
}

func TestSplitCacheKey(t *testing.T) {
	cases := []struct {
		key          string
		tournamentID string
		viewName     string
	}{
		{"reports:t1:college_standings", "t1", "reports:college_standings"},
		{"portal:college:t1", "college", "portal:t1"},
		{"nosplit", "", "nosplit"},
	}
	for _, tc := range cases {
		gotTID, gotView := splitCacheKey(tc.key)
		if gotTID != tc.tournamentID || gotView != tc.viewName {
			t.Errorf("splitCacheKey(%q) = (%q, %q), want (%q, %q)", tc.key, gotTID, gotView, tc.tournamentID, tc.viewName)
		}
	}
}
