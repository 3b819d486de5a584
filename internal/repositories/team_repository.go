// internal/repositories/team_repository.go
package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"lumberjack-engine/internal/apperr"
	"lumberjack-engine/internal/models"
)

// TeamRepository handles college team data access
type TeamRepository struct {
	db *sql.DB
}

func NewTeamRepository(db *sql.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

const teamColumns = `id, tournament_id, team_code, school_name, school_abbrev,
	total_points, status, created_at, updated_at, version`

func (r *TeamRepository) Create(ctx context.Context, t *models.Team) error {
	query := `
		INSERT INTO teams (id, tournament_id, team_code, school_name, school_abbrev,
			total_points, status, created_at, updated_at, version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 1)
	`
	_, err := r.db.ExecContext(ctx, query,
		t.ID, t.TournamentID, t.TeamCode, t.SchoolName, t.SchoolAbbrev,
		t.TotalPoints, t.Status, t.CreatedAt, t.UpdatedAt,
	)
	return err
}

func (r *TeamRepository) scan(row interface{ Scan(...interface{}) error }) (*models.Team, error) {
	var t models.Team
	err := row.Scan(
		&t.ID, &t.TournamentID, &t.TeamCode, &t.SchoolName, &t.SchoolAbbrev,
		&t.TotalPoints, &t.Status, &t.CreatedAt, &t.UpdatedAt, &t.Version,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TeamRepository) GetByID(ctx context.Context, id string) (*models.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams WHERE id = ?`
	t, err := r.scan(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("team", id)
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// GetByCode looks up a team by its unique-per-tournament team code.
func (r *TeamRepository) GetByCode(ctx context.Context, tournamentID, teamCode string) (*models.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams WHERE tournament_id = ? AND team_code = ?`
	t, err := r.scan(r.db.QueryRowContext(ctx, query, tournamentID, teamCode))
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("team", teamCode)
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// ListByTournament returns every team registered for a tournament.
func (r *TeamRepository) ListByTournament(ctx context.Context, tournamentID string) ([]*models.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams WHERE tournament_id = ? ORDER BY school_name`
	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	teams := make([]*models.Team, 0)
	for rows.Next() {
		t, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

func (r *TeamRepository) UpdateWithVersion(ctx context.Context, t *models.Team) error {
	query := `
		UPDATE teams SET school_name = ?, school_abbrev = ?, total_points = ?,
			status = ?, updated_at = ?, version = version + 1
		WHERE id = ? AND version = ?
	`
	res, err := r.db.ExecContext(ctx, query,
		t.SchoolName, t.SchoolAbbrev, t.TotalPoints, t.Status, t.UpdatedAt, t.ID, t.Version,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperr.Conflict(fmt.Sprintf("team %s was modified by another write", t.ID))
	}
	return nil
}

// UpdateWithVersionTx runs the same update against an open transaction, used
// by the scoring engine to recompute team totals alongside result writes.
func (r *TeamRepository) UpdateWithVersionTx(ctx context.Context, tx *sql.Tx, t *models.Team) error {
	query := `
		UPDATE teams SET school_name = ?, school_abbrev = ?, total_points = ?,
			status = ?, updated_at = ?, version = version + 1
		WHERE id = ? AND version = ?
	`
	res, err := tx.ExecContext(ctx, query,
		t.SchoolName, t.SchoolAbbrev, t.TotalPoints, t.Status, t.UpdatedAt, t.ID, t.Version,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperr.Conflict(fmt.Sprintf("team %s was modified by another write", t.ID))
	}
	return nil
}
