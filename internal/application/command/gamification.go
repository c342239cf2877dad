package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/orbit-hub/orbit-student-hub/internal/domain/profile"
	"github.com/orbit-hub/orbit-student-hub/internal/domain/shared"
	"github.com/orbit-hub/orbit-student-hub/pkg/logger"
)

// XP awards per source action.
const (
	XPPerTaskCompleted = 10
	XPPerFocusSession  = 20
)

// AwardXPCommand grants experience points to a user.
type AwardXPCommand struct {
	UserID string
	Amount int

	// Source labels what earned the XP, e.g. "task_completion".
	Source string
}

// AwardXPResult reports the new totals and whether a level boundary was
// crossed by this award.
type AwardXPResult struct {
	NewTotal  int
	LeveledUp bool
	OldLevel  int
	NewLevel  int
}

// UnlockBadgeCommand adds a badge to a user's badge set.
type UnlockBadgeCommand struct {
	UserID  string
	BadgeID string
}

// GamificationHandler handles XP, level, and badge write commands.
type GamificationHandler struct {
	profileRepo profile.Repository
	publisher   shared.EventPublisher
	log         *logger.Logger
}

// NewGamificationHandler creates a new GamificationHandler.
func NewGamificationHandler(profileRepo profile.Repository, publisher shared.EventPublisher, log *logger.Logger) *GamificationHandler {
	return &GamificationHandler{
		profileRepo: profileRepo,
		publisher:   publisher,
		log:         log.With(logger.Component("command.gamification")),
	}
}

// AwardXP grants XP and reconciles the stored level. The level comparison
// runs against the persisted level, so delivering the same profile state
// twice fires at most one level-up per boundary crossed.
func (h *GamificationHandler) AwardXP(ctx context.Context, cmd AwardXPCommand) (*AwardXPResult, error) {
	if cmd.UserID == "" {
		return nil, shared.NewDomainError("profile", "AwardXP", shared.ErrInvalidID, "user id is required")
	}

	p, err := h.profileRepo.GetByUserID(ctx, cmd.UserID)
	if err != nil {
		return nil, fmt.Errorf("award xp: %w", err)
	}

	newTotal, err := p.AddXP(profile.XP(cmd.Amount))
	if err != nil {
		return nil, err
	}

	leveledUp, oldLevel, newLevel := p.SyncLevel()

	if err := h.profileRepo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("award xp: persist profile: %w", err)
	}

	h.publish(shared.NewXPGainedEvent(cmd.UserID, cmd.Amount, int(newTotal), cmd.Source))
	if leveledUp {
		h.log.Info("level up",
			logger.UserID(cmd.UserID),
			logger.LevelValue(int(newLevel)),
			logger.XPAmount(int(newTotal)),
		)
		h.publish(shared.NewLevelUpEvent(cmd.UserID, int(oldLevel), int(newLevel)))
	}
	h.notifyChanged(cmd.UserID)

	return &AwardXPResult{
		NewTotal:  int(newTotal),
		LeveledUp: leveledUp,
		OldLevel:  int(oldLevel),
		NewLevel:  int(newLevel),
	}, nil
}

// UnlockBadge adds a badge to the user's set. Re-unlocking an already-held
// badge is a no-op success: the award is idempotent.
func (h *GamificationHandler) UnlockBadge(ctx context.Context, cmd UnlockBadgeCommand) error {
	p, err := h.profileRepo.GetByUserID(ctx, cmd.UserID)
	if err != nil {
		return fmt.Errorf("unlock badge: %w", err)
	}

	if err := p.UnlockBadge(cmd.BadgeID); err != nil {
		if errors.Is(err, shared.ErrBadgeUnlocked) {
			return nil
		}
		return err
	}

	if err := h.profileRepo.Update(ctx, p); err != nil {
		return fmt.Errorf("unlock badge: persist profile: %w", err)
	}

	h.publish(shared.NewBadgeUnlockedEvent(cmd.UserID, cmd.BadgeID))
	h.notifyChanged(cmd.UserID)
	return nil
}

func (h *GamificationHandler) publish(event shared.Event) {
	if err := h.publisher.Publish(event); err != nil {
		h.log.Warn("failed to publish event",
			logger.String("event_type", string(event.EventType())),
			logger.Err(err),
		)
	}
}

func (h *GamificationHandler) notifyChanged(userID string) {
	if err := h.publisher.Publish(shared.NewCollectionChangedEvent(profile.Collection, userID)); err != nil {
		h.log.Warn("failed to publish collection change", logger.Err(err), logger.UserID(userID))
	}
}
