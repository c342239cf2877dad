package grade

import "context"

// Repository defines persistence operations for grade records.
type Repository interface {
	// Create persists a new grade record.
	Create(ctx context.Context, r *Record) error

	// Delete removes a grade record by ID.
	Delete(ctx context.Context, id string) error

	// GetByID returns a grade record by ID.
	GetByID(ctx context.Context, id string) (*Record, error)

	// ListByUser returns all grade records owned by the user, unordered.
	ListByUser(ctx context.Context, userID string) ([]*Record, error)
}
