package task

import "context"

// Repository defines persistence operations for tasks.
type Repository interface {
	// Create persists a new task.
	Create(ctx context.Context, t *Task) error

	// Update persists changes to an existing task.
	Update(ctx context.Context, t *Task) error

	// Delete removes a task by ID.
	Delete(ctx context.Context, id string) error

	// GetByID returns a task by ID.
	GetByID(ctx context.Context, id string) (*Task, error)

	// ListByUser returns all tasks owned by the user, unordered.
	ListByUser(ctx context.Context, userID string) ([]*Task, error)
}
