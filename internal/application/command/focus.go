package command

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/orbit-hub/orbit-student-hub/internal/domain/focus"
	"github.com/orbit-hub/orbit-student-hub/internal/domain/shared"
	"github.com/orbit-hub/orbit-student-hub/pkg/logger"
)

// RecordFocusSessionCommand records one completed focus period.
// Timing runs on the client; the server only learns about finished sessions.
type RecordFocusSessionCommand struct {
	UserID string

	// DurationMinutes - length of the session; zero falls back to the
	// default session length.
	DurationMinutes int

	// CompletedAt - when the session finished; zero means now.
	CompletedAt time.Time
}

// DeleteFocusSessionCommand identifies the session to delete.
type DeleteFocusSessionCommand struct {
	UserID    string
	SessionID string
}

// FocusHandler handles focus session write commands.
type FocusHandler struct {
	focusRepo focus.Repository
	publisher shared.EventPublisher
	log       *logger.Logger
}

// NewFocusHandler creates a new FocusHandler.
func NewFocusHandler(focusRepo focus.Repository, publisher shared.EventPublisher, log *logger.Logger) *FocusHandler {
	return &FocusHandler{
		focusRepo: focusRepo,
		publisher: publisher,
		log:       log.With(logger.Component("command.focus")),
	}
}

// Record persists a completed focus session and emits a
// FocusSessionRecordedEvent for the gamification handlers.
func (h *FocusHandler) Record(ctx context.Context, cmd RecordFocusSessionCommand) (*focus.Session, error) {
	if cmd.UserID == "" {
		return nil, shared.NewDomainError("focus", "Record", shared.ErrInvalidID, "user id is required")
	}

	s, err := focus.NewSession(focus.NewSessionParams{
		ID:              uuid.NewString(),
		UserID:          cmd.UserID,
		DurationMinutes: cmd.DurationMinutes,
		CompletedAt:     cmd.CompletedAt,
	})
	if err != nil {
		return nil, err
	}

	if err := h.focusRepo.Create(ctx, s); err != nil {
		return nil, fmt.Errorf("record focus session: %w", err)
	}

	if err := h.publisher.Publish(shared.NewFocusSessionRecordedEvent(s.UserID, s.ID, s.DurationMinutes)); err != nil {
		h.log.Warn("failed to publish focus session event", logger.Err(err), logger.UserID(cmd.UserID))
	}

	h.notifyChanged(cmd.UserID)
	return s, nil
}

// Delete removes a focus session. The session must belong to the caller.
func (h *FocusHandler) Delete(ctx context.Context, cmd DeleteFocusSessionCommand) error {
	sessions, err := h.focusRepo.ListByUser(ctx, cmd.UserID)
	if err != nil {
		return err
	}

	var found bool
	for _, s := range sessions {
		if s.ID == cmd.SessionID {
			found = true
			break
		}
	}
	if !found {
		return shared.ErrSessionNotFound
	}

	if err := h.focusRepo.Delete(ctx, cmd.SessionID); err != nil {
		return fmt.Errorf("delete focus session: %w", err)
	}

	h.notifyChanged(cmd.UserID)
	return nil
}

func (h *FocusHandler) notifyChanged(userID string) {
	if err := h.publisher.Publish(shared.NewCollectionChangedEvent(focus.Collection, userID)); err != nil {
		h.log.Warn("failed to publish collection change", logger.Err(err), logger.UserID(userID))
	}
}
