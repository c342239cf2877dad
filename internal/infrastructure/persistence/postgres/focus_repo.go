package postgres

import (
	"context"
	"fmt"

	"github.com/orbit-hub/orbit-student-hub/internal/domain/focus"
	"github.com/orbit-hub/orbit-student-hub/internal/domain/shared"
)

// FocusRepository implements focus.Repository for PostgreSQL.
type FocusRepository struct {
	conn *Connection
}

// NewFocusRepository creates a new FocusRepository.
func NewFocusRepository(conn *Connection) *FocusRepository {
	return &FocusRepository{conn: conn}
}

// Create persists a completed focus session.
func (r *FocusRepository) Create(ctx context.Context, s *focus.Session) error {
	query := `
		INSERT INTO focus_sessions (id, user_id, duration_minutes, completed_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.conn.Exec(ctx, query, s.ID, s.UserID, s.DurationMinutes, s.CompletedAt)
	if err != nil {
		return fmt.Errorf("failed to create focus session: %w", err)
	}
	return nil
}

// Delete removes a session by ID.
func (r *FocusRepository) Delete(ctx context.Context, id string) error {
	result, err := r.conn.Exec(ctx, `DELETE FROM focus_sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete focus session: %w", err)
	}
	if result.RowsAffected() == 0 {
		return shared.ErrSessionNotFound
	}
	return nil
}

// ListByUser returns all sessions owned by the user.
func (r *FocusRepository) ListByUser(ctx context.Context, userID string) ([]*focus.Session, error) {
	query := `
		SELECT id, user_id, duration_minutes, completed_at
		FROM focus_sessions
		WHERE user_id = $1
	`

	rows, err := r.conn.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list focus sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*focus.Session
	for rows.Next() {
		var s focus.Session
		if err := rows.Scan(&s.ID, &s.UserID, &s.DurationMinutes, &s.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan focus session: %w", err)
		}
		sessions = append(sessions, &s)
	}
	return sessions, rows.Err()
}
