package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/orbit-hub/orbit-student-hub/internal/domain/identity"
	"github.com/orbit-hub/orbit-student-hub/internal/domain/shared"
)

// UserRepository implements identity.Repository for PostgreSQL.
type UserRepository struct {
	conn *Connection
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(conn *Connection) *UserRepository {
	return &UserRepository{conn: conn}
}

// Create creates a new user. Guest accounts store NULL credentials.
func (r *UserRepository) Create(ctx context.Context, u *identity.User) error {
	query := `
		INSERT INTO users (id, email, password_hash, guest, created_at, last_login_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.conn.Exec(ctx, query,
		u.ID,
		nullableString(string(u.Email)),
		nullableString(u.PasswordHash),
		u.Guest,
		u.CreatedAt,
		u.LastLoginAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrUserAlreadyExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// Update updates a user's mutable fields.
func (r *UserRepository) Update(ctx context.Context, u *identity.User) error {
	query := `
		UPDATE users SET
			email = $1,
			password_hash = $2,
			last_login_at = $3
		WHERE id = $4
	`

	result, err := r.conn.Exec(ctx, query,
		nullableString(string(u.Email)),
		nullableString(u.PasswordHash),
		u.LastLoginAt,
		u.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return shared.ErrUserNotFound
	}
	return nil
}

// Delete removes a user. Cascades remove the user's collections and profile.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	result, err := r.conn.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return shared.ErrUserNotFound
	}
	return nil
}

// GetByID returns a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*identity.User, error) {
	query := `
		SELECT id, email, password_hash, guest, created_at, last_login_at
		FROM users
		WHERE id = $1
	`
	return r.scanUser(r.conn.QueryRow(ctx, query, id))
}

// GetByEmail returns a registered user by normalized email.
func (r *UserRepository) GetByEmail(ctx context.Context, email identity.Email) (*identity.User, error) {
	query := `
		SELECT id, email, password_hash, guest, created_at, last_login_at
		FROM users
		WHERE email = $1
	`
	return r.scanUser(r.conn.QueryRow(ctx, query, string(email)))
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *UserRepository) scanUser(row rowScanner) (*identity.User, error) {
	var u identity.User
	var email, passwordHash sql.NullString

	err := row.Scan(&u.ID, &email, &passwordHash, &u.Guest, &u.CreatedAt, &u.LastLoginAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	u.Email = identity.Email(email.String)
	u.PasswordHash = passwordHash.String
	return &u, nil
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
