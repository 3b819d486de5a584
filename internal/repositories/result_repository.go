// internal/repositories/result_repository.go
package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"lumberjack-engine/internal/apperr"
	"lumberjack-engine/internal/models"
)

// EventResultRepository handles EventResult data access. Inserts are
// upserts keyed on the (event_id, competitor_id, competitor_type) unique
// constraint so the scoring engine's submit path is safe to call
// repeatedly for a not-yet-scored competitor.
type EventResultRepository struct {
	db *sql.DB
}

func NewEventResultRepository(db *sql.DB) *EventResultRepository {
	return &EventResultRepository{db: db}
}

const resultColumns = `id, tournament_id, event_id, college_competitor_id, pro_competitor_id,
	competitor_name, partner_name, result_value, result_unit, run1_value, run2_value,
	best_run, final_position, points_awarded, payout_amount, is_flagged, status,
	finalized_at, created_at, updated_at, version`

// UpsertPendingTx inserts a `pending` placeholder row for a competitor
// entered in an event, used at import/registration time before any heat
// runs (the import flow creates pending EventResult rows).
func (r *EventResultRepository) UpsertPendingTx(ctx context.Context, tx *sql.Tx, res *models.EventResult) error {
	query := `
		INSERT INTO event_results (
			id, tournament_id, event_id, college_competitor_id, pro_competitor_id,
			competitor_name, partner_name, status, created_at, updated_at, version
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)
		ON DUPLICATE KEY UPDATE competitor_name = VALUES(competitor_name),
			partner_name = VALUES(partner_name), updated_at = VALUES(updated_at)
	`
	_, err := tx.ExecContext(ctx, query,
		res.ID, res.TournamentID, res.EventID, res.CollegeCompetitorID, res.ProCompetitorID,
		res.CompetitorName, res.PartnerName, res.Status, res.CreatedAt, res.UpdatedAt,
	)
	return err
}

func (r *EventResultRepository) scan(row interface{ Scan(...interface{}) error }) (*models.EventResult, error) {
	var res models.EventResult
	err := row.Scan(
		&res.ID, &res.TournamentID, &res.EventID, &res.CollegeCompetitorID, &res.ProCompetitorID,
		&res.CompetitorName, &res.PartnerName, &res.ResultValue, &res.ResultUnit, &res.Run1Value, &res.Run2Value,
		&res.BestRun, &res.FinalPosition, &res.PointsAwarded, &res.PayoutAmount, &res.IsFlagged, &res.Status,
		&res.FinalizedAt, &res.CreatedAt, &res.UpdatedAt, &res.Version,
	)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *EventResultRepository) GetByID(ctx context.Context, id string) (*models.EventResult, error) {
	query := `SELECT ` + resultColumns + ` FROM event_results WHERE id = ?`
	res, err := r.scan(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("event_result", id)
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

// ListByEvent returns every result row for an event, in no particular
// order; callers sort per the event's scoring_order.
func (r *EventResultRepository) ListByEvent(ctx context.Context, eventID string) ([]*models.EventResult, error) {
	query := `SELECT ` + resultColumns + ` FROM event_results WHERE event_id = ?`
	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*models.EventResult, 0)
	for rows.Next() {
		res, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// ListByEventTx is the same query run inside an open transaction, used by
// finalization so the read and the subsequent writes observe a single
// consistent snapshot.
func (r *EventResultRepository) ListByEventTx(ctx context.Context, tx *sql.Tx, eventID string) ([]*models.EventResult, error) {
	query := `SELECT ` + resultColumns + ` FROM event_results WHERE event_id = ?`
	rows, err := tx.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*models.EventResult, 0)
	for rows.Next() {
		res, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// GetByEventAndCompetitorTx looks up one competitor's result row for an
// event within a transaction, used by the per-heat scoring submit path.
func (r *EventResultRepository) GetByEventAndCompetitorTx(ctx context.Context, tx *sql.Tx, eventID, competitorID, competitorType string) (*models.EventResult, error) {
	var query string
	if competitorType == "college" {
		query = `SELECT ` + resultColumns + ` FROM event_results WHERE event_id = ? AND college_competitor_id = ?`
	} else {
		query = `SELECT ` + resultColumns + ` FROM event_results WHERE event_id = ? AND pro_competitor_id = ?`
	}
	res, err := r.scan(tx.QueryRowContext(ctx, query, eventID, competitorID))
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("event_result", competitorID)
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

// UpdateWithVersionTx applies an optimistic-concurrency update to a
// result row, used by both the per-heat submit path and finalization.
func (r *EventResultRepository) UpdateWithVersionTx(ctx context.Context, tx *sql.Tx, res *models.EventResult) error {
	query := `
		UPDATE event_results SET competitor_name = ?, partner_name = ?, result_value = ?,
			result_unit = ?, run1_value = ?, run2_value = ?, best_run = ?, final_position = ?,
			points_awarded = ?, payout_amount = ?, is_flagged = ?, status = ?, finalized_at = ?,
			updated_at = ?, version = version + 1
		WHERE id = ? AND version = ?
	`
	r2, err := tx.ExecContext(ctx, query,
		res.CompetitorName, res.PartnerName, res.ResultValue, res.ResultUnit,
		res.Run1Value, res.Run2Value, res.BestRun, res.FinalPosition,
		res.PointsAwarded, res.PayoutAmount, res.IsFlagged, res.Status, res.FinalizedAt,
		res.UpdatedAt, res.ID, res.Version,
	)
	if err != nil {
		return err
	}
	affected, err := r2.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperr.Conflict(fmt.Sprintf("event result %s was modified by another write", res.ID))
	}
	return nil
}
