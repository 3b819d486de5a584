// internal/models/heat.go
package models

import "time"

// HeatStatus tracks a heat through scoring.
type HeatStatus string

const (
	HeatStatusScheduled HeatStatus = "scheduled"
	HeatStatusCompleted HeatStatus = "completed"
)

// Heat is one run of an event; list-only events never generate heats.
// EventID identifies which event this heat belongs to; RunNumber
// distinguishes dual-run events' first and second passes. Competitors
// holds the ordered entrant list and StandAssignments the competitor ->
// stand-number map; both are denormalized onto HeatAssignment rows at
// write time and must stay reconcilable.
type Heat struct {
	ID                string
	TournamentID      string
	EventID           string
	HeatNumber        int
	RunNumber         int
	Competitors       []string
	StandAssignments  map[string]int
	Status            HeatStatus
	FlightID          *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
	Version           int
}

// HeatAssignment places one competitor into one stand within a heat. The
// Heat<->HeatAssignment set must stay in sync: every assignment's HeatID
// must reference an existing heat for the same event, and stand numbers
// must be distinct within a heat; college stock_saw heats hold at most
// two competitors, on stands 7 and 8.
type HeatAssignment struct {
	ID                  string
	HeatID              string
	CollegeCompetitorID *string
	ProCompetitorID     *string
	Stand               int
}

// CompetitorID returns whichever competitor reference is set.
func (a HeatAssignment) CompetitorID() string {
	if a.CollegeCompetitorID != nil {
		return *a.CollegeCompetitorID
	}
	if a.ProCompetitorID != nil {
		return *a.ProCompetitorID
	}
	return ""
}
