// internal/repositories/user_repository.go
package repositories

import (
	"context"
	"database/sql"

	"lumberjack-engine/internal/apperr"
	"lumberjack-engine/internal/models"
)

// UserRepository handles operator account data access. Credential
// hashing/verification is a collaborator outside the engine's scope; this
// repository only stores and retrieves the opaque PasswordHash.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, username, password_hash, role, tournament_id, competitor_id, created_at`

func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	query := `
		INSERT INTO users (id, username, password_hash, role, tournament_id, competitor_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		u.ID, u.Username, u.PasswordHash, u.Role, u.TournamentID, u.CompetitorID, u.CreatedAt,
	)
	return err
}

func (r *UserRepository) scan(row interface{ Scan(...interface{}) error }) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.TournamentID, &u.CompetitorID, &u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	u, err := r.scan(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("user", id)
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// GetByUsername looks up a user by the global-unique username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = ?`
	u, err := r.scan(r.db.QueryRowContext(ctx, query, username))
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("user", username)
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}
