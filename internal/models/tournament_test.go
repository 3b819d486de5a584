package models

import "testing"

func TestRoleCapabilities(t *testing.T) {
	cases := []struct {
		role        Role
		canRegister bool
		canScore    bool
		canReport   bool
		manageUsers bool
	}{
		{RoleAdmin, true, true, true, true},
		{RoleJudge, true, true, true, false},
		{RoleScorer, false, true, true, false},
		{RoleRegistrar, true, false, true, false},
		{RoleCompetitor, false, false, false, false},
		{RoleSpectator, false, false, true, false},
		{RoleViewer, false, false, true, false},
		{RoleSystem, true, true, true, true},
	}
	for _, tc := range cases {
		t.Run(string(tc.role), func(t *testing.T) {
			if got := tc.role.CanRegister(); got != tc.canRegister {
				t.Errorf("CanRegister() = %v, want %v", got, tc.canRegister)
			}
			if got := tc.role.CanScore(); got != tc.canScore {
				t.Errorf("CanScore() = %v, want %v", got, tc.canScore)
			}
			if got := tc.role.CanReport(); got != tc.canReport {
				t.Errorf("CanReport() = %v, want %v", got, tc.canReport)
			}
			if got := tc.role.CanManageUsers(); got != tc.manageUsers {
				t.Errorf("CanManageUsers() = %v, want %v", got, tc.manageUsers)
			}
		})
	}
}

func TestScheduleAndScoreGrantMatch(t *testing.T) {
	// Scheduling and scoring are granted to the same roles.
	for _, r := range []Role{RoleAdmin, RoleJudge, RoleScorer, RoleRegistrar, RoleCompetitor, RoleSpectator, RoleViewer, RoleSystem} {
		if r.CanSchedule() != r.CanScore() {
			t.Errorf("role %s: CanSchedule()=%v but CanScore()=%v", r, r.CanSchedule(), r.CanScore())
		}
	}
}
