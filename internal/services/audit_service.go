// internal/services/audit_service.go
// Writes one AuditLog row per state-changing operation, always inside the
// caller's already-open transaction so a rollback discards the audit row
// along with the data change it describes.

package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"lumberjack-engine/internal/models"
	"lumberjack-engine/internal/reqcontext"
	"lumberjack-engine/internal/repositories"
)

// AuditService wraps AuditRepository.InsertTx with the RequestContext
// plumbing every write path needs.
type AuditService struct {
	repos *repositories.Container
}

func NewAuditService(repos *repositories.Container) *AuditService {
	return &AuditService{repos: repos}
}

// LogTx records one audit row. detail is stored as-is if it is already
// JSON, otherwise wrapped as a JSON string.
func (s *AuditService) LogTx(ctx context.Context, tx *sql.Tx, rc reqcontext.RequestContext, action, entityType, entityID, detail string) error {
	d := detail
	if !json.Valid([]byte(detail)) {
		encoded, err := json.Marshal(detail)
		if err != nil {
			return err
		}
		d = string(encoded)
	}

	log := &models.AuditLog{
		ID:           uuid.New().String(),
		TournamentID: rc.TournamentID,
		ActorUserID:  rc.ActorUserID,
		Action:       action,
		EntityType:   entityType,
		EntityID:     entityID,
		Detail:       d,
		IPAddress:    rc.IPAddress,
		UserAgent:    rc.UserAgent,
		CreatedAt:    time.Now(),
	}
	return s.repos.Audit.InsertTx(ctx, tx, log)
}
