// internal/repositories/captain_repository.go
package repositories

import (
	"context"
	"database/sql"

	"lumberjack-engine/internal/apperr"
	"lumberjack-engine/internal/models"
)

// SchoolCaptainRepository handles school captain profile data access. One
// captain profile per school per tournament (unique school_name).
type SchoolCaptainRepository struct {
	db *sql.DB
}

func NewSchoolCaptainRepository(db *sql.DB) *SchoolCaptainRepository {
	return &SchoolCaptainRepository{db: db}
}

const captainColumns = `id, tournament_id, school_name, pin_hash, contact_name,
	contact_email, contact_phone, created_at`

func (r *SchoolCaptainRepository) Create(ctx context.Context, c *models.SchoolCaptain) error {
	query := `
		INSERT INTO school_captains (id, tournament_id, school_name, pin_hash, contact_name,
			contact_email, contact_phone, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		c.ID, c.TournamentID, c.SchoolName, c.PINHash, c.ContactName, c.ContactEmail, c.ContactPhone, c.CreatedAt,
	)
	return err
}

func (r *SchoolCaptainRepository) scan(row interface{ Scan(...interface{}) error }) (*models.SchoolCaptain, error) {
	var c models.SchoolCaptain
	err := row.Scan(
		&c.ID, &c.TournamentID, &c.SchoolName, &c.PINHash, &c.ContactName, &c.ContactEmail, &c.ContactPhone, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetBySchool looks up the one captain profile for a school within a
// tournament.
func (r *SchoolCaptainRepository) GetBySchool(ctx context.Context, tournamentID, schoolName string) (*models.SchoolCaptain, error) {
	query := `SELECT ` + captainColumns + ` FROM school_captains WHERE tournament_id = ? AND school_name = ?`
	c, err := r.scan(r.db.QueryRowContext(ctx, query, tournamentID, schoolName))
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("school_captain", schoolName)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}
