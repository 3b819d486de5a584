// internal/repositories/competitor_repository.go
package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"lumberjack-engine/internal/apperr"
	"lumberjack-engine/internal/models"
)

// CollegeCompetitorRepository handles Friday-roster competitor data access.
type CollegeCompetitorRepository struct {
	db *sql.DB
}

func NewCollegeCompetitorRepository(db *sql.DB) *CollegeCompetitorRepository {
	return &CollegeCompetitorRepository{db: db}
}

const collegeCompetitorColumns = `id, tournament_id, team_id, first_name, last_name, gender,
	events_entered, partners, gear_sharing, individual_points, lottery_opt_in,
	status, created_at, updated_at, version`

func (r *CollegeCompetitorRepository) Create(ctx context.Context, c *models.CollegeCompetitor) error {
	eventsJSON, err := json.Marshal(c.EventsEntered)
	if err != nil {
		return fmt.Errorf("failed to marshal events_entered: %w", err)
	}
	partnersJSON, err := json.Marshal(c.Partners)
	if err != nil {
		return fmt.Errorf("failed to marshal partners: %w", err)
	}
	gearJSON, err := json.Marshal(c.GearSharing)
	if err != nil {
		return fmt.Errorf("failed to marshal gear_sharing: %w", err)
	}
	query := `
		INSERT INTO college_competitors (
			id, tournament_id, team_id, first_name, last_name, gender,
			events_entered, partners, gear_sharing, individual_points,
			lottery_opt_in, status, created_at, updated_at, version
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)
	`
	_, err = r.db.ExecContext(ctx, query,
		c.ID, c.TournamentID, c.TeamID, c.FirstName, c.LastName, c.Gender,
		eventsJSON, partnersJSON, gearJSON, c.IndividualPoints,
		c.LotteryOptIn, c.Status, c.CreatedAt, c.UpdatedAt,
	)
	return err
}

func (r *CollegeCompetitorRepository) scan(row interface{ Scan(...interface{}) error }) (*models.CollegeCompetitor, error) {
	var c models.CollegeCompetitor
	var eventsJSON, partnersJSON, gearJSON []byte
	err := row.Scan(
		&c.ID, &c.TournamentID, &c.TeamID, &c.FirstName, &c.LastName, &c.Gender,
		&eventsJSON, &partnersJSON, &gearJSON, &c.IndividualPoints,
		&c.LotteryOptIn, &c.Status, &c.CreatedAt, &c.UpdatedAt, &c.Version,
	)
	if err != nil {
		return nil, err
	}
	if len(eventsJSON) > 0 {
		if err := json.Unmarshal(eventsJSON, &c.EventsEntered); err != nil {
			return nil, fmt.Errorf("failed to unmarshal events_entered: %w", err)
		}
	}
	if len(partnersJSON) > 0 {
		if err := json.Unmarshal(partnersJSON, &c.Partners); err != nil {
			return nil, fmt.Errorf("failed to unmarshal partners: %w", err)
		}
	}
	if len(gearJSON) > 0 {
		if err := json.Unmarshal(gearJSON, &c.GearSharing); err != nil {
			return nil, fmt.Errorf("failed to unmarshal gear_sharing: %w", err)
		}
	}
	return &c, nil
}

func (r *CollegeCompetitorRepository) GetByID(ctx context.Context, id string) (*models.CollegeCompetitor, error) {
	query := `SELECT ` + collegeCompetitorColumns + ` FROM college_competitors WHERE id = ?`
	c, err := r.scan(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("college_competitor", id)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *CollegeCompetitorRepository) ListByTeam(ctx context.Context, teamID string) ([]*models.CollegeCompetitor, error) {
	query := `SELECT ` + collegeCompetitorColumns + ` FROM college_competitors WHERE team_id = ? ORDER BY last_name, first_name`
	rows, err := r.db.QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*models.CollegeCompetitor, 0)
	for rows.Next() {
		c, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListByTournament returns every college competitor in a tournament, used
// by standings/Bull-and-Belle read views.
func (r *CollegeCompetitorRepository) ListByTournament(ctx context.Context, tournamentID string) ([]*models.CollegeCompetitor, error) {
	query := `SELECT ` + collegeCompetitorColumns + ` FROM college_competitors WHERE tournament_id = ? ORDER BY last_name, first_name`
	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*models.CollegeCompetitor, 0)
	for rows.Next() {
		c, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListByIDs fetches a batch of competitors, used by the heat generator
// when hydrating an event's full entry list.
func (r *CollegeCompetitorRepository) ListByIDs(ctx context.Context, ids []string) ([]*models.CollegeCompetitor, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	query := fmt.Sprintf(`SELECT %s FROM college_competitors WHERE id IN (%s)`, collegeCompetitorColumns, placeholders)
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*models.CollegeCompetitor, 0, len(ids))
	for rows.Next() {
		c, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *CollegeCompetitorRepository) UpdateWithVersion(ctx context.Context, c *models.CollegeCompetitor) error {
	return r.update(ctx, r.db, c)
}

// UpdateWithVersionTx runs the same update against an open transaction,
// used by the scoring engine to adjust individual_points alongside the
// EventResult write.
func (r *CollegeCompetitorRepository) UpdateWithVersionTx(ctx context.Context, tx *sql.Tx, c *models.CollegeCompetitor) error {
	return r.update(ctx, tx, c)
}

func (r *CollegeCompetitorRepository) update(ctx context.Context, ex execer, c *models.CollegeCompetitor) error {
	eventsJSON, err := json.Marshal(c.EventsEntered)
	if err != nil {
		return fmt.Errorf("failed to marshal events_entered: %w", err)
	}
	partnersJSON, err := json.Marshal(c.Partners)
	if err != nil {
		return fmt.Errorf("failed to marshal partners: %w", err)
	}
	gearJSON, err := json.Marshal(c.GearSharing)
	if err != nil {
		return fmt.Errorf("failed to marshal gear_sharing: %w", err)
	}
	query := `
		UPDATE college_competitors SET first_name = ?, last_name = ?, gender = ?,
			events_entered = ?, partners = ?, gear_sharing = ?, individual_points = ?,
			lottery_opt_in = ?, status = ?, updated_at = ?, version = version + 1
		WHERE id = ? AND version = ?
	`
	res, err := ex.ExecContext(ctx, query,
		c.FirstName, c.LastName, c.Gender, eventsJSON, partnersJSON, gearJSON,
		c.IndividualPoints, c.LotteryOptIn, c.Status, c.UpdatedAt, c.ID, c.Version,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperr.Conflict(fmt.Sprintf("college competitor %s was modified by another write", c.ID))
	}
	return nil
}

// ProCompetitorRepository handles Saturday show entrant data access.
type ProCompetitorRepository struct {
	db *sql.DB
}

func NewProCompetitorRepository(db *sql.DB) *ProCompetitorRepository {
	return &ProCompetitorRepository{db: db}
}

const proCompetitorColumns = `id, tournament_id, first_name, last_name, gender, contact,
	events_entered, partners, gear_sharing, entry_fees, fees_paid,
	is_left_handed_springboard, is_ala_member, lottery_opt_in,
	total_earnings, payout_settled, status, created_at, updated_at, version`

func (r *ProCompetitorRepository) Create(ctx context.Context, p *models.ProCompetitor) error {
	eventsJSON, err := json.Marshal(p.EventsEntered)
	if err != nil {
		return fmt.Errorf("failed to marshal events_entered: %w", err)
	}
	partnersJSON, err := json.Marshal(p.Partners)
	if err != nil {
		return fmt.Errorf("failed to marshal partners: %w", err)
	}
	gearJSON, err := json.Marshal(p.GearSharing)
	if err != nil {
		return fmt.Errorf("failed to marshal gear_sharing: %w", err)
	}
	feesJSON, err := json.Marshal(p.EntryFees)
	if err != nil {
		return fmt.Errorf("failed to marshal entry_fees: %w", err)
	}
	paidJSON, err := json.Marshal(p.FeesPaid)
	if err != nil {
		return fmt.Errorf("failed to marshal fees_paid: %w", err)
	}
	query := `
		INSERT INTO pro_competitors (
			id, tournament_id, first_name, last_name, gender, contact, events_entered,
			partners, gear_sharing, entry_fees, fees_paid,
			is_left_handed_springboard, is_ala_member, lottery_opt_in,
			total_earnings, payout_settled, status, created_at, updated_at, version
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)
	`
	_, err = r.db.ExecContext(ctx, query,
		p.ID, p.TournamentID, p.FirstName, p.LastName, p.Gender, p.Contact, eventsJSON,
		partnersJSON, gearJSON, feesJSON, paidJSON,
		p.IsLeftHandedSpringboard, p.IsALAMember, p.LotteryOptIn,
		p.TotalEarnings, p.PayoutSettled, p.Status, p.CreatedAt, p.UpdatedAt,
	)
	return err
}

func (r *ProCompetitorRepository) scan(row interface{ Scan(...interface{}) error }) (*models.ProCompetitor, error) {
	var p models.ProCompetitor
	var eventsJSON, partnersJSON, gearJSON, feesJSON, paidJSON []byte
	err := row.Scan(
		&p.ID, &p.TournamentID, &p.FirstName, &p.LastName, &p.Gender, &p.Contact, &eventsJSON,
		&partnersJSON, &gearJSON, &feesJSON, &paidJSON,
		&p.IsLeftHandedSpringboard, &p.IsALAMember, &p.LotteryOptIn,
		&p.TotalEarnings, &p.PayoutSettled, &p.Status, &p.CreatedAt, &p.UpdatedAt, &p.Version,
	)
	if err != nil {
		return nil, err
	}
	if len(eventsJSON) > 0 {
		if err := json.Unmarshal(eventsJSON, &p.EventsEntered); err != nil {
			return nil, fmt.Errorf("failed to unmarshal events_entered: %w", err)
		}
	}
	if len(partnersJSON) > 0 {
		if err := json.Unmarshal(partnersJSON, &p.Partners); err != nil {
			return nil, fmt.Errorf("failed to unmarshal partners: %w", err)
		}
	}
	if len(gearJSON) > 0 {
		if err := json.Unmarshal(gearJSON, &p.GearSharing); err != nil {
			return nil, fmt.Errorf("failed to unmarshal gear_sharing: %w", err)
		}
	}
	if len(feesJSON) > 0 {
		if err := json.Unmarshal(feesJSON, &p.EntryFees); err != nil {
			return nil, fmt.Errorf("failed to unmarshal entry_fees: %w", err)
		}
	}
	if len(paidJSON) > 0 {
		if err := json.Unmarshal(paidJSON, &p.FeesPaid); err != nil {
			return nil, fmt.Errorf("failed to unmarshal fees_paid: %w", err)
		}
	}
	return &p, nil
}

func (r *ProCompetitorRepository) GetByID(ctx context.Context, id string) (*models.ProCompetitor, error) {
	query := `SELECT ` + proCompetitorColumns + ` FROM pro_competitors WHERE id = ?`
	p, err := r.scan(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("pro_competitor", id)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// GetByContact looks up a pro competitor by their contact (email), used by
// the pro-entry re-import path to update rather than duplicate.
func (r *ProCompetitorRepository) GetByContact(ctx context.Context, tournamentID, contact string) (*models.ProCompetitor, error) {
	query := `SELECT ` + proCompetitorColumns + ` FROM pro_competitors WHERE tournament_id = ? AND contact = ?`
	p, err := r.scan(r.db.QueryRowContext(ctx, query, tournamentID, contact))
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("pro_competitor", contact)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *ProCompetitorRepository) ListByTournament(ctx context.Context, tournamentID string) ([]*models.ProCompetitor, error) {
	query := `SELECT ` + proCompetitorColumns + ` FROM pro_competitors WHERE tournament_id = ? ORDER BY last_name, first_name`
	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*models.ProCompetitor, 0)
	for rows.Next() {
		p, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *ProCompetitorRepository) ListByIDs(ctx context.Context, ids []string) ([]*models.ProCompetitor, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	query := fmt.Sprintf(`SELECT %s FROM pro_competitors WHERE id IN (%s)`, proCompetitorColumns, placeholders)
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*models.ProCompetitor, 0, len(ids))
	for rows.Next() {
		p, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *ProCompetitorRepository) UpdateWithVersion(ctx context.Context, p *models.ProCompetitor) error {
	return r.update(ctx, r.db, p)
}

// UpdateWithVersionTx runs the same update against an open transaction,
// used by the scoring engine to adjust total_earnings alongside the
// EventResult write.
func (r *ProCompetitorRepository) UpdateWithVersionTx(ctx context.Context, tx *sql.Tx, p *models.ProCompetitor) error {
	return r.update(ctx, tx, p)
}

func (r *ProCompetitorRepository) update(ctx context.Context, ex execer, p *models.ProCompetitor) error {
	eventsJSON, err := json.Marshal(p.EventsEntered)
	if err != nil {
		return fmt.Errorf("failed to marshal events_entered: %w", err)
	}
	partnersJSON, err := json.Marshal(p.Partners)
	if err != nil {
		return fmt.Errorf("failed to marshal partners: %w", err)
	}
	gearJSON, err := json.Marshal(p.GearSharing)
	if err != nil {
		return fmt.Errorf("failed to marshal gear_sharing: %w", err)
	}
	feesJSON, err := json.Marshal(p.EntryFees)
	if err != nil {
		return fmt.Errorf("failed to marshal entry_fees: %w", err)
	}
	paidJSON, err := json.Marshal(p.FeesPaid)
	if err != nil {
		return fmt.Errorf("failed to marshal fees_paid: %w", err)
	}
	query := `
		UPDATE pro_competitors SET first_name = ?, last_name = ?, gender = ?, contact = ?,
			events_entered = ?, partners = ?, gear_sharing = ?, entry_fees = ?, fees_paid = ?,
			is_left_handed_springboard = ?, is_ala_member = ?, lottery_opt_in = ?,
			total_earnings = ?, payout_settled = ?, status = ?, updated_at = ?, version = version + 1
		WHERE id = ? AND version = ?
	`
	res, err := ex.ExecContext(ctx, query,
		p.FirstName, p.LastName, p.Gender, p.Contact, eventsJSON, partnersJSON, gearJSON,
		feesJSON, paidJSON, p.IsLeftHandedSpringboard, p.IsALAMember, p.LotteryOptIn,
		p.TotalEarnings, p.PayoutSettled, p.Status, p.UpdatedAt, p.ID, p.Version,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperr.Conflict(fmt.Sprintf("pro competitor %s was modified by another write", p.ID))
	}
	return nil
}
