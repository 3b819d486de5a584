// internal/reqcontext/context.go
// RequestContext carries actor and request metadata as an explicit value
// threaded through every write-path service call, rather than any
// ambient request-scoped global.

package reqcontext

import (
	"time"

	"lumberjack-engine/internal/models"
)

// RequestContext carries the actor and request metadata a write operation
// needs for permission checks and audit logging.
type RequestContext struct {
	ActorUserID  *string
	Role         models.Role
	TournamentID string
	IPAddress    string
	UserAgent    string
	Deadline     time.Time
}

// System returns a RequestContext for engine-initiated writes that have no
// human actor (background jobs, migrations).
func System(tournamentID string) RequestContext {
	return RequestContext{
		Role:         models.RoleSystem,
		TournamentID: tournamentID,
	}
}
