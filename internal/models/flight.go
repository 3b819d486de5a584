// internal/models/flight.go
package models

import "time"

// FlightStatus tracks a flight's run state on show day.
type FlightStatus string

const (
	FlightStatusScheduled FlightStatus = "scheduled"
	FlightStatusRunning   FlightStatus = "running"
	FlightStatusCompleted FlightStatus = "completed"
)

// Flight groups an ordered run of pro run-1 heats for scheduling display;
// the flight builder packs heats into flights to maximize the spacing
// between a competitor's consecutive appearances.
type Flight struct {
	ID           string
	TournamentID string
	FlightNumber int
	Status       FlightStatus
	Notes        string
	HeatIDs      []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Version      int
}
