package profile

import "context"

// Repository defines persistence operations for profiles.
// Profiles are keyed by user ID; there is exactly one per user.
type Repository interface {
	// Create persists a new profile.
	Create(ctx context.Context, p *Profile) error

	// Update persists changes to an existing profile.
	Update(ctx context.Context, p *Profile) error

	// GetByUserID returns the profile for a user.
	GetByUserID(ctx context.Context, userID string) (*Profile, error)
}
