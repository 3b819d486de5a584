// internal/repositories/container.go
// Repository container for dependency injection

package repositories

import (
	"context"
	"database/sql"

	"lumberjack-engine/internal/database"
)

// Container holds all repository instances
type Container struct {
	Tournament        *TournamentRepository
	Team              *TeamRepository
	CollegeCompetitor *CollegeCompetitorRepository
	ProCompetitor     *ProCompetitorRepository
	Event             *EventRepository
	Heat              *HeatRepository
	Flight            *FlightRepository
	EventResult       *EventResultRepository
	Captain           *SchoolCaptainRepository
	User              *UserRepository
	Audit             *AuditRepository
	ReadView          *ReadViewStore
	db                *sql.DB
}

// NewContainer creates a new repository container
func NewContainer(conn *database.Connections) *Container {
	return &Container{
		Tournament:        NewTournamentRepository(conn.MySQL),
		Team:              NewTeamRepository(conn.MySQL),
		CollegeCompetitor: NewCollegeCompetitorRepository(conn.MySQL),
		ProCompetitor:     NewProCompetitorRepository(conn.MySQL),
		Event:             NewEventRepository(conn.MySQL),
		Heat:              NewHeatRepository(conn.MySQL),
		Flight:            NewFlightRepository(conn.MySQL),
		EventResult:       NewEventResultRepository(conn.MySQL),
		Captain:           NewSchoolCaptainRepository(conn.MySQL),
		User:              NewUserRepository(conn.MySQL),
		Audit:             NewAuditRepository(conn.MySQL),
		ReadView:          NewReadViewStore(conn.MongoDB),
		db:                conn.MySQL,
	}
}

// BeginTx starts a new database transaction
func (c *Container) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return c.db.BeginTx(ctx, nil)
}
