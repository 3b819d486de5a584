// internal/repositories/event_repository.go
package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"lumberjack-engine/internal/apperr"
	"lumberjack-engine/internal/models"
)

// EventRepository handles event data access, including the bracket and
// relay state columns that piggyback on the same row.
type EventRepository struct {
	db *sql.DB
}

func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{db: db}
}

const eventColumns = `id, tournament_id, name, display_name, division, gender,
	scoring_type, scoring_order, stand_type, max_stands,
	is_open, is_closed, is_list_only, is_chopping, is_partnered,
	partner_gender_requirement, requires_dual_runs, has_prelims, status,
	payouts, bracket_state, relay_state, created_at, updated_at, version`

func (r *EventRepository) Create(ctx context.Context, e *models.Event) error {
	return r.create(ctx, r.db, e)
}

// CreateTx inserts an event inside the caller's transaction, used by the
// configuration upsert so a whole setup pass commits atomically.
func (r *EventRepository) CreateTx(ctx context.Context, tx *sql.Tx, e *models.Event) error {
	return r.create(ctx, tx, e)
}

func (r *EventRepository) create(ctx context.Context, ex execer, e *models.Event) error {
	payoutsJSON, err := json.Marshal(e.Payouts)
	if err != nil {
		return fmt.Errorf("failed to marshal payouts: %w", err)
	}
	query := `
		INSERT INTO events (
			id, tournament_id, name, display_name, division, gender,
			scoring_type, scoring_order, stand_type, max_stands,
			is_open, is_closed, is_list_only, is_chopping, is_partnered,
			partner_gender_requirement, requires_dual_runs, has_prelims, status,
			payouts, bracket_state, relay_state, created_at, updated_at, version
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)
	`
	_, err = ex.ExecContext(ctx, query,
		e.ID, e.TournamentID, e.Name, e.DisplayName, e.Division, e.Gender,
		e.ScoringType, e.ScoringOrder, e.StandType, e.MaxStands,
		e.IsOpen, e.IsClosed, e.IsListOnly, e.IsChopping, e.IsPartnered,
		e.PartnerGenderRequirement, e.RequiresDualRuns, e.HasPrelims, e.Status,
		payoutsJSON, e.Bracket, e.Relay, e.CreatedAt, e.UpdatedAt,
	)
	return err
}

func (r *EventRepository) scan(row interface{ Scan(...interface{}) error }) (*models.Event, error) {
	var e models.Event
	var payoutsJSON []byte
	e.Bracket = &models.BracketState{}
	e.Relay = &models.ProAmRelayState{}
	err := row.Scan(
		&e.ID, &e.TournamentID, &e.Name, &e.DisplayName, &e.Division, &e.Gender,
		&e.ScoringType, &e.ScoringOrder, &e.StandType, &e.MaxStands,
		&e.IsOpen, &e.IsClosed, &e.IsListOnly, &e.IsChopping, &e.IsPartnered,
		&e.PartnerGenderRequirement, &e.RequiresDualRuns, &e.HasPrelims, &e.Status,
		&payoutsJSON, e.Bracket, e.Relay, &e.CreatedAt, &e.UpdatedAt, &e.Version,
	)
	if err != nil {
		return nil, err
	}
	if len(payoutsJSON) > 0 {
		if err := json.Unmarshal(payoutsJSON, &e.Payouts); err != nil {
			return nil, fmt.Errorf("failed to unmarshal payouts: %w", err)
		}
	}
	if e.Bracket.Kind == "" {
		e.Bracket = nil
	}
	if e.Relay.Status == "" {
		e.Relay = nil
	}
	return &e, nil
}

func (r *EventRepository) GetByID(ctx context.Context, id string) (*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = ?`
	e, err := r.scan(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("event", id)
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// GetByName looks up an event by its canonical name within a tournament,
// used to find the singleton "Pro-Am Relay" event.
func (r *EventRepository) GetByName(ctx context.Context, tournamentID, name string) (*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE tournament_id = ? AND name = ?`
	e, err := r.scan(r.db.QueryRowContext(ctx, query, tournamentID, name))
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("event", name)
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (r *EventRepository) ListByTournament(ctx context.Context, tournamentID string, division models.Division) ([]*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE tournament_id = ? AND division = ? ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query, tournamentID, division)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*models.Event, 0)
	for rows.Next() {
		e, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// UpdateWithVersion persists payouts, bracket and relay state together;
// every finalization/bracket-advance path touches exactly one of the
// three, but the repository always writes all three columns to keep the
// row shape simple.
func (r *EventRepository) UpdateWithVersion(ctx context.Context, e *models.Event) error {
	return r.update(ctx, r.db, e)
}

// UpdateWithVersionTx is the same update run against an open transaction,
// used by the scoring/bracket services so the result rows and the event's
// bracket/relay state commit atomically.
func (r *EventRepository) UpdateWithVersionTx(ctx context.Context, tx *sql.Tx, e *models.Event) error {
	return r.update(ctx, tx, e)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func (r *EventRepository) update(ctx context.Context, ex execer, e *models.Event) error {
	payoutsJSON, err := json.Marshal(e.Payouts)
	if err != nil {
		return fmt.Errorf("failed to marshal payouts: %w", err)
	}
	query := `
		UPDATE events SET display_name = ?, status = ?,
			scoring_type = ?, scoring_order = ?, stand_type = ?, max_stands = ?,
			is_open = ?, is_closed = ?, is_list_only = ?, is_chopping = ?, is_partnered = ?,
			partner_gender_requirement = ?, requires_dual_runs = ?, has_prelims = ?,
			payouts = ?, bracket_state = ?, relay_state = ?, updated_at = ?,
			version = version + 1
		WHERE id = ? AND version = ?
	`
	res, err := ex.ExecContext(ctx, query,
		e.DisplayName, e.Status,
		e.ScoringType, e.ScoringOrder, e.StandType, e.MaxStands,
		e.IsOpen, e.IsClosed, e.IsListOnly, e.IsChopping, e.IsPartnered,
		e.PartnerGenderRequirement, e.RequiresDualRuns, e.HasPrelims,
		payoutsJSON, e.Bracket, e.Relay,
		e.UpdatedAt, e.ID, e.Version,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperr.Conflict(fmt.Sprintf("event %s was modified by another write", e.ID))
	}
	return nil
}

// GetBySignature looks up an event by the (name, division, gender) triple
// the configuration upsert keys on; gendered events store "M"/"F", the
// rest NULL.
func (r *EventRepository) GetBySignature(ctx context.Context, tournamentID, name string, division models.Division, gender *models.Gender) (*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events
		WHERE tournament_id = ? AND name = ? AND division = ? AND (gender = ? OR (gender IS NULL AND ? IS NULL))`
	e, err := r.scan(r.db.QueryRowContext(ctx, query, tournamentID, name, division, gender, gender))
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("event", name)
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// DeleteTx removes an event row inside the caller's transaction; the
// caller is responsible for verifying no heats or results reference it.
func (r *EventRepository) DeleteTx(ctx context.Context, tx *sql.Tx, id string) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	return err
}
