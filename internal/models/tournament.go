// internal/models/tournament.go
package models

import "time"

// TournamentStatus tracks which competition day is live.
type TournamentStatus string

const (
	TournamentStatusSetup         TournamentStatus = "setup"
	TournamentStatusCollegeActive TournamentStatus = "college_active"
	TournamentStatusProActive     TournamentStatus = "pro_active"
	TournamentStatusCompleted     TournamentStatus = "completed"
)

// Tournament is the top-level container every other entity scopes to.
type Tournament struct {
	ID        string
	Name      string
	Year      int
	Status    TournamentStatus
	StartDate time.Time
	EndDate   time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	Version   int
}

// SchoolCaptain is a per-school point of contact for the college
// competition, PIN-guarded rather than holding a full User login.
type SchoolCaptain struct {
	ID           string
	TournamentID string
	SchoolName   string
	PINHash      string
	ContactName  string
	ContactEmail string
	ContactPhone string
	CreatedAt    time.Time
}

// Role enumerates the capability-bearing account kinds a User can be.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleJudge      Role = "judge"
	RoleScorer     Role = "scorer"
	RoleRegistrar  Role = "registrar"
	RoleCompetitor Role = "competitor"
	RoleSpectator  Role = "spectator"
	RoleViewer     Role = "viewer"

	// RoleSystem marks engine-initiated writes (background jobs) that
	// have no human actor; it passes every capability check.
	RoleSystem Role = "system"
)

// IsAdmin reports whether the role has administrator rights: the admin
// role or the internal system role.
func (r Role) IsAdmin() bool { return r == RoleAdmin || r == RoleSystem }

// IsJudge gates the management views.
func (r Role) IsJudge() bool {
	return r == RoleAdmin || r == RoleJudge || r == RoleSystem
}

// CanRegister gates team/competitor registration and roster imports.
func (r Role) CanRegister() bool {
	return r == RoleAdmin || r == RoleJudge || r == RoleRegistrar || r == RoleSystem
}

// CanSchedule gates heat generation, flight building, and schedule edits.
func (r Role) CanSchedule() bool {
	return r == RoleAdmin || r == RoleJudge || r == RoleScorer || r == RoleSystem
}

// CanScore gates heat scoring, finalization, brackets, and the relay.
func (r Role) CanScore() bool {
	return r == RoleAdmin || r == RoleJudge || r == RoleScorer || r == RoleSystem
}

// CanReport gates report exports; every role except competitor may report.
func (r Role) CanReport() bool {
	switch r {
	case RoleAdmin, RoleJudge, RoleScorer, RoleRegistrar, RoleViewer, RoleSpectator, RoleSystem:
		return true
	}
	return false
}

// CanManageUsers gates account administration.
func (r Role) CanManageUsers() bool { return r.IsAdmin() }

// User is an authenticated operator account. Credential hashing is out of
// scope for the engine; PasswordHash is treated as an opaque string
// produced and verified by the collaborator that owns auth. TournamentID
// and CompetitorID are set for role-scoped accounts (competitor portals);
// nil for global roles (admin, judge). Capabilities are derived from Role,
// never stored.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	Role         Role
	TournamentID *string
	CompetitorID *string
	CreatedAt    time.Time
}

// AuditLog is an append-only record of every write operation.
type AuditLog struct {
	ID           string
	TournamentID string
	ActorUserID  *string
	Action       string
	EntityType   string
	EntityID     string
	Detail       string
	IPAddress    string
	UserAgent    string
	CreatedAt    time.Time
}
