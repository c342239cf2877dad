package note

import "context"

// Repository defines persistence operations for notes.
type Repository interface {
	// Create persists a new note.
	Create(ctx context.Context, n *Note) error

	// Update persists changes to an existing note.
	Update(ctx context.Context, n *Note) error

	// Delete removes a note by ID.
	Delete(ctx context.Context, id string) error

	// GetByID returns a note by ID.
	GetByID(ctx context.Context, id string) (*Note, error)

	// ListByUser returns all notes owned by the user, unordered.
	// Display ordering is imposed by SortForDisplay after each read.
	ListByUser(ctx context.Context, userID string) ([]*Note, error)
}
