// Package profile contains the user profile and gamification domain model.
// A profile is a per-user singleton holding display information plus the
// accumulated experience counter, the stored level, and the badge set.
package profile

import (
	"fmt"
	"time"

	"github.com/orbit-hub/orbit-student-hub/internal/domain/shared"
)

// Collection is the synced collection name for profiles.
const Collection = "profiles"

// XPPerLevel is the experience span of one level.
const XPPerLevel = 100

// XP represents accumulated experience points.
type XP int

// IsValid checks that XP is non-negative.
func (x XP) IsValid() bool {
	return x >= 0
}

// Add returns the XP increased by delta.
func (x XP) Add(delta XP) XP {
	return x + delta
}

// Level represents a user's level, derived from XP.
type Level int

// LevelFor computes the level for an XP value: level = xp/100 + 1.
// level(0)=1, level(99)=1, level(100)=2.
func LevelFor(xp XP) Level {
	if xp < 0 {
		return 1
	}
	return Level(int(xp)/XPPerLevel + 1)
}

// XPToNextLevel returns how many points remain until the next level.
func XPToNextLevel(xp XP) XP {
	return XP(int(LevelFor(xp))*XPPerLevel) - xp
}

// LearningStyle tunes the tone of assistant-generated content.
type LearningStyle string

const (
	StyleCasual   LearningStyle = "Casual"
	StyleFormal   LearningStyle = "Formal"
	StyleCreative LearningStyle = "Creative"
	StyleAcademic LearningStyle = "Academic"
)

// IsValid checks that the style is one of the known values.
func (s LearningStyle) IsValid() bool {
	switch s {
	case StyleCasual, StyleFormal, StyleCreative, StyleAcademic:
		return true
	default:
		return false
	}
}

// Profile is the per-user singleton carrying identity display fields and
// gamification state.
type Profile struct {
	// UserID - the owning user; also the profile's identity.
	UserID string

	// DisplayName - name shown in greetings and assistant prompts.
	DisplayName string

	// Major - field of study, used as assistant context.
	Major string

	// CurrentFocus - what the user is studying right now, free text.
	CurrentFocus string

	// LearningStyle - tone preference for generated content.
	LearningStyle LearningStyle

	// CurrentXP - accumulated experience points.
	CurrentXP XP

	// StoredLevel - the last level persisted to the store. Level-up fires
	// only when the computed level exceeds this value, which makes the
	// check idempotent under repeated snapshot delivery.
	StoredLevel Level

	// Badges - unlocked badge identifiers; never contains duplicates.
	Badges []string

	// CreatedAt - time of creation.
	CreatedAt time.Time

	// UpdatedAt - time of last update.
	UpdatedAt time.Time
}

// NewProfile creates a fresh profile at level 1 with no XP or badges.
func NewProfile(userID, displayName string) (*Profile, error) {
	if userID == "" {
		return nil, shared.NewDomainError("profile", "Create", shared.ErrInvalidID, "user id is required")
	}

	now := time.Now().UTC()
	return &Profile{
		UserID:        userID,
		DisplayName:   displayName,
		LearningStyle: StyleCasual,
		CurrentXP:     0,
		StoredLevel:   1,
		Badges:        []string{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// Level returns the level computed from the current XP.
func (p *Profile) Level() Level {
	return LevelFor(p.CurrentXP)
}

// AddXP adds experience points and returns the new total.
func (p *Profile) AddXP(amount XP) (XP, error) {
	if amount < 0 {
		return p.CurrentXP, shared.ErrInvalidXP
	}
	p.CurrentXP = p.CurrentXP.Add(amount)
	p.UpdatedAt = time.Now().UTC()
	return p.CurrentXP, nil
}

// SyncLevel reconciles the stored level with the level computed from XP.
// It returns leveledUp=true only when the computed level is strictly greater
// than the stored one, and records the new level so that re-delivery of the
// same XP value does not fire again. The stored level never decreases.
func (p *Profile) SyncLevel() (leveledUp bool, oldLevel, newLevel Level) {
	oldLevel = p.StoredLevel
	newLevel = p.Level()
	if newLevel > p.StoredLevel {
		p.StoredLevel = newLevel
		p.UpdatedAt = time.Now().UTC()
		return true, oldLevel, newLevel
	}
	return false, oldLevel, p.StoredLevel
}

// HasBadge reports whether the badge is already unlocked.
func (p *Profile) HasBadge(badgeID string) bool {
	for _, b := range p.Badges {
		if b == badgeID {
			return true
		}
	}
	return false
}

// UnlockBadge adds a badge to the set. Unlocking an already-held badge
// returns ErrBadgeUnlocked and leaves the set unchanged.
func (p *Profile) UnlockBadge(badgeID string) error {
	if badgeID == "" {
		return shared.NewDomainError("profile", "UnlockBadge", shared.ErrEmptyValue, "badge id is required")
	}
	if p.HasBadge(badgeID) {
		return shared.ErrBadgeUnlocked
	}
	p.Badges = append(p.Badges, badgeID)
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// UpdateDetails replaces the display fields. An invalid learning style
// falls back to the current one.
func (p *Profile) UpdateDetails(displayName, major, currentFocus string, style LearningStyle) {
	p.DisplayName = displayName
	p.Major = major
	p.CurrentFocus = currentFocus
	if style.IsValid() {
		p.LearningStyle = style
	}
	p.UpdatedAt = time.Now().UTC()
}

// String returns a loggable representation of the profile.
func (p *Profile) String() string {
	return fmt.Sprintf("Profile{UserID: %s, XP: %d, Level: %d, Badges: %d}",
		p.UserID, p.CurrentXP, p.Level(), len(p.Badges))
}

// Clone creates a deep copy of the profile.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	clone := *p
	clone.Badges = append([]string(nil), p.Badges...)
	return &clone
}
