// internal/repositories/tournament_repository.go
// Tournament data access layer

package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"lumberjack-engine/internal/apperr"
	"lumberjack-engine/internal/models"
)

// TournamentRepository handles tournament data access
type TournamentRepository struct {
	db *sql.DB
}

// NewTournamentRepository creates a new tournament repository
func NewTournamentRepository(db *sql.DB) *TournamentRepository {
	return &TournamentRepository{db: db}
}

// Create inserts a new tournament
func (r *TournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	query := `
		INSERT INTO tournaments (id, name, year, status, start_date, end_date, created_at, updated_at, version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1)
	`
	_, err := r.db.ExecContext(ctx, query, t.ID, t.Name, t.Year, t.Status, t.StartDate, t.EndDate, t.CreatedAt, t.UpdatedAt)
	return err
}

// GetByID retrieves a tournament by ID
func (r *TournamentRepository) GetByID(ctx context.Context, id string) (*models.Tournament, error) {
	query := `
		SELECT id, name, year, status, start_date, end_date, created_at, updated_at, version
		FROM tournaments WHERE id = ?
	`
	var t models.Tournament
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&t.ID, &t.Name, &t.Year, &t.Status, &t.StartDate, &t.EndDate, &t.CreatedAt, &t.UpdatedAt, &t.Version,
	)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("tournament", id)
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ListAll returns every tournament, used by admin dashboards.
func (r *TournamentRepository) ListAll(ctx context.Context) ([]*models.Tournament, error) {
	query := `
		SELECT id, name, year, status, start_date, end_date, created_at, updated_at, version
		FROM tournaments ORDER BY year DESC, start_date DESC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*models.Tournament, 0)
	for rows.Next() {
		var t models.Tournament
		if err := rows.Scan(&t.ID, &t.Name, &t.Year, &t.Status, &t.StartDate, &t.EndDate, &t.CreatedAt, &t.UpdatedAt, &t.Version); err != nil {
			return nil, err
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}

// UpdateWithVersion applies an optimistic-concurrency update: the WHERE
// clause pins both id and the version the caller last read, and a zero
// RowsAffected means someone else wrote first.
func (r *TournamentRepository) UpdateWithVersion(ctx context.Context, t *models.Tournament) error {
	query := `
		UPDATE tournaments SET name = ?, year = ?, status = ?, start_date = ?, end_date = ?,
			updated_at = ?, version = version + 1
		WHERE id = ? AND version = ?
	`
	res, err := r.db.ExecContext(ctx, query, t.Name, t.Year, t.Status, t.StartDate, t.EndDate, t.UpdatedAt, t.ID, t.Version)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperr.Conflict(fmt.Sprintf("tournament %s was modified by another write", t.ID))
	}
	return nil
}
