// internal/models/team.go
package models

import "time"

// TeamStatus tracks whether a team is actively competing or was
// withdrawn/disqualified after registration.
type TeamStatus string

const (
	TeamStatusActive   TeamStatus = "active"
	TeamStatusInactive TeamStatus = "inactive"
)

// Team is a college school's roster for the Friday competition. Two or
// more teams may share SchoolName (e.g. two squads from the same
// school); TeamCode is the unique-per-tournament identifier callers use.
// Validity requires 4-8 active members with at least 2 male and 2 female
// competitors; enforced by the validation service, not here.
type Team struct {
	ID            string
	TournamentID  string
	TeamCode      string
	SchoolName    string
	SchoolAbbrev  string
	TotalPoints   int
	Status        TeamStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Version       int
}
