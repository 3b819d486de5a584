// internal/repositories/flight_repository.go
package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"lumberjack-engine/internal/apperr"
	"lumberjack-engine/internal/models"
)

// FlightRepository handles flight data access.
type FlightRepository struct {
	db *sql.DB
}

func NewFlightRepository(db *sql.DB) *FlightRepository {
	return &FlightRepository{db: db}
}

const flightColumns = `id, tournament_id, flight_number, status, notes, heat_ids,
	created_at, updated_at, version`

// ReplaceAllTx deletes every existing flight for a tournament and inserts
// the flight builder's fresh output, the same regenerate-in-place pattern
// the heat generator uses for an event's heats.
func (r *FlightRepository) ReplaceAllTx(ctx context.Context, tx *sql.Tx, tournamentID string, flights []*models.Flight) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM flights WHERE tournament_id = ?`, tournamentID); err != nil {
		return err
	}
	for _, f := range flights {
		heatIDsJSON, err := json.Marshal(f.HeatIDs)
		if err != nil {
			return fmt.Errorf("failed to marshal heat_ids: %w", err)
		}
		query := `
			INSERT INTO flights (id, tournament_id, flight_number, status, notes, heat_ids,
				created_at, updated_at, version)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1)
		`
		if _, err := tx.ExecContext(ctx, query,
			f.ID, f.TournamentID, f.FlightNumber, f.Status, f.Notes, heatIDsJSON, f.CreatedAt, f.UpdatedAt,
		); err != nil {
			return err
		}
	}
	return nil
}

func (r *FlightRepository) scan(row interface{ Scan(...interface{}) error }) (*models.Flight, error) {
	var f models.Flight
	var heatIDsJSON []byte
	err := row.Scan(
		&f.ID, &f.TournamentID, &f.FlightNumber, &f.Status, &f.Notes, &heatIDsJSON,
		&f.CreatedAt, &f.UpdatedAt, &f.Version,
	)
	if err != nil {
		return nil, err
	}
	if len(heatIDsJSON) > 0 {
		if err := json.Unmarshal(heatIDsJSON, &f.HeatIDs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal heat_ids: %w", err)
		}
	}
	return &f, nil
}

func (r *FlightRepository) GetByID(ctx context.Context, id string) (*models.Flight, error) {
	query := `SELECT ` + flightColumns + ` FROM flights WHERE id = ?`
	f, err := r.scan(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("flight", id)
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

// ListByTournament returns every flight ordered for display.
func (r *FlightRepository) ListByTournament(ctx context.Context, tournamentID string) ([]*models.Flight, error) {
	query := `SELECT ` + flightColumns + ` FROM flights WHERE tournament_id = ? ORDER BY flight_number`
	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*models.Flight, 0)
	for rows.Next() {
		f, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *FlightRepository) UpdateWithVersion(ctx context.Context, f *models.Flight) error {
	heatIDsJSON, err := json.Marshal(f.HeatIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal heat_ids: %w", err)
	}
	query := `
		UPDATE flights SET status = ?, notes = ?, heat_ids = ?, updated_at = ?, version = version + 1
		WHERE id = ? AND version = ?
	`
	res, err := r.db.ExecContext(ctx, query, f.Status, f.Notes, heatIDsJSON, f.UpdatedAt, f.ID, f.Version)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperr.Conflict(fmt.Sprintf("flight %s was modified by another write", f.ID))
	}
	return nil
}
