package command

import (
	"context"
	"fmt"

	"github.com/orbit-hub/orbit-student-hub/internal/domain/profile"
	"github.com/orbit-hub/orbit-student-hub/internal/domain/shared"
	"github.com/orbit-hub/orbit-student-hub/pkg/logger"
)

// UpdateProfileCommand replaces the profile's display fields.
type UpdateProfileCommand struct {
	UserID        string
	DisplayName   string
	Major         string
	CurrentFocus  string
	LearningStyle string
}

// ProfileHandler handles profile display-field write commands.
// XP, levels, and badges are owned by GamificationHandler.
type ProfileHandler struct {
	profileRepo profile.Repository
	publisher   shared.EventPublisher
	log         *logger.Logger
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(profileRepo profile.Repository, publisher shared.EventPublisher, log *logger.Logger) *ProfileHandler {
	return &ProfileHandler{
		profileRepo: profileRepo,
		publisher:   publisher,
		log:         log.With(logger.Component("command.profile")),
	}
}

// Update replaces the profile's display fields.
func (h *ProfileHandler) Update(ctx context.Context, cmd UpdateProfileCommand) (*profile.Profile, error) {
	if cmd.UserID == "" {
		return nil, shared.NewDomainError("profile", "Update", shared.ErrInvalidID, "user id is required")
	}

	p, err := h.profileRepo.GetByUserID(ctx, cmd.UserID)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}

	p.UpdateDetails(cmd.DisplayName, cmd.Major, cmd.CurrentFocus, profile.LearningStyle(cmd.LearningStyle))

	if err := h.profileRepo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("update profile: persist: %w", err)
	}

	if err := h.publisher.Publish(shared.NewCollectionChangedEvent(profile.Collection, cmd.UserID)); err != nil {
		h.log.Warn("failed to publish collection change", logger.Err(err), logger.UserID(cmd.UserID))
	}
	return p, nil
}
