// internal/repositories/heat_repository.go
// Heat and HeatAssignment data access. Heat.Competitors/StandAssignments
// and the HeatAssignment rows for the same heat must always describe the
// same set; every method that writes a heat also rewrites its
// assignment rows in the same statement batch so the two never drift.

package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"lumberjack-engine/internal/apperr"
	"lumberjack-engine/internal/models"
)

// HeatRepository handles heat and heat-assignment data access.
type HeatRepository struct {
	db *sql.DB
}

func NewHeatRepository(db *sql.DB) *HeatRepository {
	return &HeatRepository{db: db}
}

const heatColumns = `id, tournament_id, event_id, heat_number, run_number,
	competitors, stand_assignments, status, flight_id, created_at, updated_at, version`

// CreateWithAssignmentsTx inserts a heat and its denormalized assignment
// rows atomically. Callers (the heat generator) always run this inside a
// transaction they opened for the whole event's heat set.
func (r *HeatRepository) CreateWithAssignmentsTx(ctx context.Context, tx *sql.Tx, h *models.Heat, assignments []models.HeatAssignment) error {
	competitorsJSON, err := json.Marshal(h.Competitors)
	if err != nil {
		return fmt.Errorf("failed to marshal competitors: %w", err)
	}
	standsJSON, err := json.Marshal(h.StandAssignments)
	if err != nil {
		return fmt.Errorf("failed to marshal stand_assignments: %w", err)
	}
	query := `
		INSERT INTO heats (
			id, tournament_id, event_id, heat_number, run_number,
			competitors, stand_assignments, status, flight_id, created_at, updated_at, version
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)
	`
	if _, err := tx.ExecContext(ctx, query,
		h.ID, h.TournamentID, h.EventID, h.HeatNumber, h.RunNumber,
		competitorsJSON, standsJSON, h.Status, h.FlightID, h.CreatedAt, h.UpdatedAt,
	); err != nil {
		return err
	}
	for _, a := range assignments {
		if err := r.insertAssignmentTx(ctx, tx, &a); err != nil {
			return err
		}
	}
	return nil
}

func (r *HeatRepository) insertAssignmentTx(ctx context.Context, tx *sql.Tx, a *models.HeatAssignment) error {
	query := `
		INSERT INTO heat_assignments (id, heat_id, college_competitor_id, pro_competitor_id, stand)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := tx.ExecContext(ctx, query, a.ID, a.HeatID, a.CollegeCompetitorID, a.ProCompetitorID, a.Stand)
	return err
}

// DeleteByEventTx removes every existing heat (and cascade-deletes its
// assignments) for an event, used by the heat generator's "delete existing
// heats for the event" regeneration step.
func (r *HeatRepository) DeleteByEventTx(ctx context.Context, tx *sql.Tx, eventID string) error {
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM heat_assignments WHERE heat_id IN (SELECT id FROM heats WHERE event_id = ?)
	`, eventID); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, `DELETE FROM heats WHERE event_id = ?`, eventID)
	return err
}

func (r *HeatRepository) scan(row interface{ Scan(...interface{}) error }) (*models.Heat, error) {
	var h models.Heat
	var competitorsJSON, standsJSON []byte
	err := row.Scan(
		&h.ID, &h.TournamentID, &h.EventID, &h.HeatNumber, &h.RunNumber,
		&competitorsJSON, &standsJSON, &h.Status, &h.FlightID, &h.CreatedAt, &h.UpdatedAt, &h.Version,
	)
	if err != nil {
		return nil, err
	}
	if len(competitorsJSON) > 0 {
		if err := json.Unmarshal(competitorsJSON, &h.Competitors); err != nil {
			return nil, fmt.Errorf("failed to unmarshal competitors: %w", err)
		}
	}
	if len(standsJSON) > 0 {
		if err := json.Unmarshal(standsJSON, &h.StandAssignments); err != nil {
			return nil, fmt.Errorf("failed to unmarshal stand_assignments: %w", err)
		}
	}
	return &h, nil
}

func (r *HeatRepository) GetByID(ctx context.Context, id string) (*models.Heat, error) {
	query := `SELECT ` + heatColumns + ` FROM heats WHERE id = ?`
	h, err := r.scan(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("heat", id)
	}
	if err != nil {
		return nil, err
	}
	return h, nil
}

// ListByEvent returns every heat for an event ordered for display
// (run_number then heat_number).
func (r *HeatRepository) ListByEvent(ctx context.Context, eventID string) ([]*models.Heat, error) {
	query := `SELECT ` + heatColumns + ` FROM heats WHERE event_id = ? ORDER BY run_number, heat_number`
	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*models.Heat, 0)
	for rows.Next() {
		h, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// ListRunOneByTournament returns every run-1 heat for pro events in a
// tournament, the flight builder's input set.
func (r *HeatRepository) ListRunOneByTournament(ctx context.Context, tournamentID string) ([]*models.Heat, error) {
	query := `
		SELECT h.` + heatColumnsAliased() + `
		FROM heats h
		JOIN events e ON e.id = h.event_id
		WHERE h.tournament_id = ? AND e.division = 'pro' AND h.run_number = 1
		ORDER BY e.name, h.heat_number
	`
	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*models.Heat, 0)
	for rows.Next() {
		h, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func heatColumnsAliased() string {
	return "id, h.tournament_id, h.event_id, h.heat_number, h.run_number, " +
		"h.competitors, h.stand_assignments, h.status, h.flight_id, h.created_at, h.updated_at, h.version"
}

// ListByIDs fetches a batch of heats, used by flight hydration.
func (r *HeatRepository) ListByIDs(ctx context.Context, ids []string) ([]*models.Heat, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	out := make([]*models.Heat, 0, len(ids))
	for _, id := range ids {
		h, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, nil
}

// UpdateWithVersionTx applies an optimistic-concurrency update to a heat
// and rewrites its assignment rows, used by the scoring engine (marking a
// heat completed) and by the flight builder (assigning flight_id).
// Division tells the reconciliation step which HeatAssignment foreign key
// (college vs pro) to populate for this heat's competitors.
func (r *HeatRepository) UpdateWithVersionTx(ctx context.Context, tx *sql.Tx, h *models.Heat, division models.Division) error {
	competitorsJSON, err := json.Marshal(h.Competitors)
	if err != nil {
		return fmt.Errorf("failed to marshal competitors: %w", err)
	}
	standsJSON, err := json.Marshal(h.StandAssignments)
	if err != nil {
		return fmt.Errorf("failed to marshal stand_assignments: %w", err)
	}
	query := `
		UPDATE heats SET competitors = ?, stand_assignments = ?, status = ?,
			flight_id = ?, updated_at = ?, version = version + 1
		WHERE id = ? AND version = ?
	`
	res, err := tx.ExecContext(ctx, query,
		competitorsJSON, standsJSON, h.Status, h.FlightID, h.UpdatedAt, h.ID, h.Version,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperr.Conflict(fmt.Sprintf("heat %s was modified by another write", h.ID))
	}
	return r.reconcileAssignmentsTx(ctx, tx, h, division)
}

// UpdateWithVersion is the non-transactional counterpart used by the
// scoring handler when no broader transaction is already open.
func (r *HeatRepository) UpdateWithVersion(ctx context.Context, db *sql.DB, h *models.Heat, division models.Division) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := r.UpdateWithVersionTx(ctx, tx, h, division); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// reconcileAssignmentsTx rewrites heat_assignments to match h.Competitors/
// StandAssignments exactly, the repair invoked by every commit that
// changes heat membership so drift cannot occur.
func (r *HeatRepository) reconcileAssignmentsTx(ctx context.Context, tx *sql.Tx, h *models.Heat, division models.Division) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM heat_assignments WHERE heat_id = ?`, h.ID); err != nil {
		return err
	}
	for _, competitorID := range h.Competitors {
		id := competitorID
		assignment := models.HeatAssignment{
			ID:     uuid.New().String(),
			HeatID: h.ID,
			Stand:  h.StandAssignments[competitorID],
		}
		if division == models.DivisionCollege {
			assignment.CollegeCompetitorID = &id
		} else {
			assignment.ProCompetitorID = &id
		}
		if err := r.insertAssignmentTx(ctx, tx, &assignment); err != nil {
			return err
		}
	}
	return nil
}

// ListAssignments returns the denormalized HeatAssignment rows for a heat,
// used by the assignment reconciliation check and by stand-sheet read
// views.
func (r *HeatRepository) ListAssignments(ctx context.Context, heatID string) ([]*models.HeatAssignment, error) {
	query := `
		SELECT id, heat_id, college_competitor_id, pro_competitor_id, stand
		FROM heat_assignments WHERE heat_id = ? ORDER BY stand
	`
	rows, err := r.db.QueryContext(ctx, query, heatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*models.HeatAssignment, 0)
	for rows.Next() {
		var a models.HeatAssignment
		if err := rows.Scan(&a.ID, &a.HeatID, &a.CollegeCompetitorID, &a.ProCompetitorID, &a.Stand); err != nil {
			return nil, err
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}
