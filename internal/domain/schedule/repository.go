package schedule

import "context"

// Repository defines persistence operations for schedule entries.
type Repository interface {
	// Create persists a new schedule entry.
	Create(ctx context.Context, e *Entry) error

	// Delete removes a schedule entry by ID.
	Delete(ctx context.Context, id string) error

	// GetByID returns a schedule entry by ID.
	GetByID(ctx context.Context, id string) (*Entry, error)

	// ListByUser returns all schedule entries owned by the user, unordered.
	ListByUser(ctx context.Context, userID string) ([]*Entry, error)
}
