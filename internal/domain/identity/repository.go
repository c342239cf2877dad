package identity

import "context"

// Repository defines persistence operations for user accounts.
type Repository interface {
	// Create persists a new user.
	Create(ctx context.Context, u *User) error

	// Update persists changes to an existing user.
	Update(ctx context.Context, u *User) error

	// Delete removes a user by ID. Used for onboarding compensation.
	Delete(ctx context.Context, id string) error

	// GetByID returns a user by ID.
	GetByID(ctx context.Context, id string) (*User, error)

	// GetByEmail returns a registered user by normalized email.
	GetByEmail(ctx context.Context, email Email) (*User, error)
}
