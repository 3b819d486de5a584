package services

import (
	"testing"

	"lumberjack-engine/internal/models"
)

func TestCapacityOfIsLimitedByScarcestPool(t *testing.T) {
	proM := []string{"1", "2", "3", "4"}
	proF := []string{"1", "2"}
	collM := []string{"1", "2", "3", "4", "5", "6"}
	collF := []string{"1", "2", "3"}
	// proF has 2 -> 1 team; collF has 3 -> 1 team; proM has 4 -> 2 teams; collM has 6 -> 3 teams.
	if got := capacityOf(proM, proF, collM, collF); got != 1 {
		t.Errorf("got capacity %d, want 1 (bound by proF/collF)", got)
	}
}

func TestCapacityOfZeroWhenAnyPoolEmpty(t *testing.T) {
	if got := capacityOf(nil, []string{"1", "2"}, []string{"1", "2"}, []string{"1", "2"}); got != 0 {
		t.Errorf("got capacity %d, want 0", got)
	}
}

func TestAssignRelayPlacementsRanksByAscendingTime(t *testing.T) {
	state := &models.ProAmRelayState{
		Teams: []models.ProAmRelayTeam{
			{ID: "slow", TotalTime: floatPtr(120.5)},
			{ID: "fast", TotalTime: floatPtr(98.2)},
			{ID: "mid", TotalTime: floatPtr(110.0)},
		},
	}
	assignRelayPlacements(state)

	want := map[string]int{"fast": 1, "mid": 2, "slow": 3}
	for _, tm := range state.Teams {
		if tm.Placement == nil || *tm.Placement != want[tm.ID] {
			t.Errorf("team %s: got placement %v, want %d", tm.ID, tm.Placement, want[tm.ID])
		}
	}
}
