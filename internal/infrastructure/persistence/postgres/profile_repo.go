package postgres

import (
	"context"
	"fmt"

	"github.com/orbit-hub/orbit-student-hub/internal/domain/profile"
	"github.com/orbit-hub/orbit-student-hub/internal/domain/shared"
)

// ProfileRepository implements profile.Repository for PostgreSQL.
type ProfileRepository struct {
	conn *Connection
}

// NewProfileRepository creates a new ProfileRepository.
func NewProfileRepository(conn *Connection) *ProfileRepository {
	return &ProfileRepository{conn: conn}
}

// Create persists a new profile.
func (r *ProfileRepository) Create(ctx context.Context, p *profile.Profile) error {
	query := `
		INSERT INTO profiles (
			user_id, display_name, major, current_focus, learning_style,
			xp, level, badges, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.conn.Exec(ctx, query,
		p.UserID, p.DisplayName, p.Major, p.CurrentFocus, string(p.LearningStyle),
		int(p.CurrentXP), int(p.StoredLevel), p.Badges, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrAlreadyExists
		}
		return fmt.Errorf("failed to create profile: %w", err)
	}
	return nil
}

// Update persists changes to an existing profile, including the stored
// level that gates level-up emission.
func (r *ProfileRepository) Update(ctx context.Context, p *profile.Profile) error {
	query := `
		UPDATE profiles SET
			display_name = $1,
			major = $2,
			current_focus = $3,
			learning_style = $4,
			xp = $5,
			level = $6,
			badges = $7,
			updated_at = $8
		WHERE user_id = $9
	`

	result, err := r.conn.Exec(ctx, query,
		p.DisplayName, p.Major, p.CurrentFocus, string(p.LearningStyle),
		int(p.CurrentXP), int(p.StoredLevel), p.Badges, p.UpdatedAt, p.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	if result.RowsAffected() == 0 {
		return shared.ErrProfileNotFound
	}
	return nil
}

// GetByUserID returns the profile for a user.
func (r *ProfileRepository) GetByUserID(ctx context.Context, userID string) (*profile.Profile, error) {
	query := `
		SELECT user_id, display_name, major, current_focus, learning_style,
		       xp, level, badges, created_at, updated_at
		FROM profiles
		WHERE user_id = $1
	`

	var p profile.Profile
	var style string
	var xp, level int
	err := r.conn.QueryRow(ctx, query, userID).Scan(
		&p.UserID, &p.DisplayName, &p.Major, &p.CurrentFocus, &style,
		&xp, &level, &p.Badges, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	p.LearningStyle = profile.LearningStyle(style)
	p.CurrentXP = profile.XP(xp)
	p.StoredLevel = profile.Level(level)
	if p.Badges == nil {
		p.Badges = []string{}
	}
	return &p, nil
}
