package eventhandler

import (
	"context"

	"github.com/orbit-hub/orbit-student-hub/internal/application/command"
	"github.com/orbit-hub/orbit-student-hub/internal/domain/shared"
	"github.com/orbit-hub/orbit-student-hub/pkg/logger"
)

// OnFocusRecorded awards XP when a completed focus session is saved.
type OnFocusRecorded struct {
	awarder XPAwarder
	log     *logger.Logger
}

// NewOnFocusRecorded creates the focus session handler.
func NewOnFocusRecorded(awarder XPAwarder, log *logger.Logger) *OnFocusRecorded {
	return &OnFocusRecorded{
		awarder: awarder,
		log:     log.With(logger.Component("eventhandler.focus_recorded")),
	}
}

// Handle implements shared.EventHandler.
func (h *OnFocusRecorded) Handle(event shared.Event) error {
	focusEvent, ok := event.(shared.FocusSessionRecordedEvent)
	if !ok {
		h.log.Warn("received unexpected event", logger.String("event_type", string(event.EventType())))
		return nil
	}

	ctx := context.Background()

	result, err := h.awarder.AwardXP(ctx, command.AwardXPCommand{
		UserID: focusEvent.UserID,
		Amount: command.XPPerFocusSession,
		Source: "focus_session",
	})
	if err != nil {
		h.log.Error("failed to award focus xp", logger.UserID(focusEvent.UserID), logger.Err(err))
		return err
	}

	if result.NewTotal <= command.XPPerFocusSession {
		if err := h.awarder.UnlockBadge(ctx, command.UnlockBadgeCommand{
			UserID:  focusEvent.UserID,
			BadgeID: BadgeFirstFocus,
		}); err != nil {
			h.log.Warn("failed to unlock badge", logger.UserID(focusEvent.UserID), logger.Err(err))
		}
	}

	return nil
}

// EventType returns the event type this handler consumes.
func (h *OnFocusRecorded) EventType() shared.EventType {
	return shared.EventFocusSessionRecorded
}
