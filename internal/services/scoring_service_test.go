package services

import (
	"testing"

	"lumberjack-engine/internal/models"
)

func floatPtr(v float64) *float64 { return &v }

func TestAssignDensePositionsTies(t *testing.T) {
	results := []*models.EventResult{
		{ID: "a", ResultValue: floatPtr(10)},
		{ID: "b", ResultValue: floatPtr(10)},
		{ID: "c", ResultValue: floatPtr(8)},
		{ID: "d", ResultValue: floatPtr(5)},
	}
	// already sorted descending (as sortResults would leave it for HighestWins)
	assignDensePositions(results)

	want := map[string]int{"a": 1, "b": 1, "c": 3, "d": 4}
	for _, r := range results {
		if *r.FinalPosition != want[r.ID] {
			t.Errorf("result %s: got position %d, want %d", r.ID, *r.FinalPosition, want[r.ID])
		}
	}
}

func TestSortResultsLowestWins(t *testing.T) {
	results := []*models.EventResult{
		{ID: "slow", ResultValue: floatPtr(12.4)},
		{ID: "fast", ResultValue: floatPtr(9.1)},
		{ID: "mid", ResultValue: floatPtr(10.0)},
	}
	sortResults(results, models.ScoringOrderLowestWins)
	if results[0].ID != "fast" || results[1].ID != "mid" || results[2].ID != "slow" {
		t.Fatalf("unexpected order: %v, %v, %v", results[0].ID, results[1].ID, results[2].ID)
	}
}

func TestSortResultsHighestWins(t *testing.T) {
	results := []*models.EventResult{
		{ID: "low", ResultValue: floatPtr(3)},
		{ID: "high", ResultValue: floatPtr(9)},
	}
	sortResults(results, models.ScoringOrderHighestWins)
	if results[0].ID != "high" {
		t.Fatalf("expected high to sort first, got %s", results[0].ID)
	}
}

func TestBestOfTwo(t *testing.T) {
	if got := bestOfTwo(models.ScoringOrderLowestWins, 5.0, 3.0); got != 3.0 {
		t.Errorf("lowest wins: got %v, want 3.0", got)
	}
	if got := bestOfTwo(models.ScoringOrderHighestWins, 5.0, 3.0); got != 5.0 {
		t.Errorf("highest wins: got %v, want 5.0", got)
	}
}

func TestFlagOutliers(t *testing.T) {
	results := []*models.EventResult{
		{ID: "a", ResultValue: floatPtr(10)},
		{ID: "b", ResultValue: floatPtr(11)},
		{ID: "c", ResultValue: floatPtr(9)},
		{ID: "d", ResultValue: floatPtr(500)},
		{ID: "e", ResultValue: floatPtr(10)},
		{ID: "f", ResultValue: floatPtr(11)},
		{ID: "g", ResultValue: floatPtr(9)},
	}
	// With only four values no point can sit more than sqrt(3) standard
	// deviations from the mean, so the cluster holds six values: mean 80,
	// stddev about 171, and 500 lies 420 (> 2 stddev) from the mean.
	flagOutliers(results)
	if !results[3].IsFlagged {
		t.Errorf("expected the far outlier to be flagged")
	}
	if results[0].IsFlagged || results[1].IsFlagged || results[2].IsFlagged ||
		results[4].IsFlagged || results[5].IsFlagged || results[6].IsFlagged {
		t.Errorf("expected the clustered values to not be flagged")
	}
}

func TestFlagOutliersTooFewResults(t *testing.T) {
	results := []*models.EventResult{
		{ID: "a", ResultValue: floatPtr(1)},
		{ID: "b", ResultValue: floatPtr(1000)},
	}
	flagOutliers(results)
	for _, r := range results {
		if r.IsFlagged {
			t.Errorf("expected no flags with fewer than 3 results")
		}
	}
}
