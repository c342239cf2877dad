package focus

import "context"

// Repository defines persistence operations for focus sessions.
type Repository interface {
	// Create persists a completed focus session.
	Create(ctx context.Context, s *Session) error

	// Delete removes a session by ID.
	Delete(ctx context.Context, id string) error

	// ListByUser returns all sessions owned by the user, unordered.
	ListByUser(ctx context.Context, userID string) ([]*Session, error)
}
