// internal/repositories/audit_repository.go
// Append-only audit log storage. Rows are written inside the same
// transaction as the state change they describe and are never
// updated or deleted.

package repositories

import (
	"context"
	"database/sql"

	"lumberjack-engine/internal/models"
)

// AuditRepository handles audit log data access.
type AuditRepository struct {
	db *sql.DB
}

func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

const auditColumns = `id, tournament_id, actor_user_id, action, entity_type, entity_id,
	detail, ip_address, user_agent, created_at`

// InsertTx writes an audit row as part of an already-open transaction.
func (r *AuditRepository) InsertTx(ctx context.Context, tx *sql.Tx, a *models.AuditLog) error {
	query := `
		INSERT INTO audit_logs (id, tournament_id, actor_user_id, action, entity_type, entity_id,
			detail, ip_address, user_agent, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := tx.ExecContext(ctx, query,
		a.ID, a.TournamentID, a.ActorUserID, a.Action, a.EntityType, a.EntityID,
		a.Detail, a.IPAddress, a.UserAgent, a.CreatedAt,
	)
	return err
}

func (r *AuditRepository) scan(row interface{ Scan(...interface{}) error }) (*models.AuditLog, error) {
	var a models.AuditLog
	err := row.Scan(
		&a.ID, &a.TournamentID, &a.ActorUserID, &a.Action, &a.EntityType, &a.EntityID,
		&a.Detail, &a.IPAddress, &a.UserAgent, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ListByEntity returns audit rows referencing one entity, newest first.
func (r *AuditRepository) ListByEntity(ctx context.Context, entityType, entityID string) ([]*models.AuditLog, error) {
	query := `SELECT ` + auditColumns + ` FROM audit_logs WHERE entity_type = ? AND entity_id = ? ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, entityType, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*models.AuditLog, 0)
	for rows.Next() {
		a, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ListByActor returns an actor's recent write history, newest first,
// bounded by limit.
func (r *AuditRepository) ListByActor(ctx context.Context, actorUserID string, limit int) ([]*models.AuditLog, error) {
	query := `SELECT ` + auditColumns + ` FROM audit_logs WHERE actor_user_id = ? ORDER BY created_at DESC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, query, actorUserID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*models.AuditLog, 0)
	for rows.Next() {
		a, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
