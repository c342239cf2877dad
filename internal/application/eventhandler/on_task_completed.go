// Package eventhandler contains the domain event handlers that connect
// productivity actions to the gamification loop. Handlers are registered on
// the event bus by their EventType and run after the originating command has
// already committed; a handler failure never rolls back the user's write.
package eventhandler

import (
	"context"

	"github.com/orbit-hub/orbit-student-hub/internal/application/command"
	"github.com/orbit-hub/orbit-student-hub/internal/domain/shared"
	"github.com/orbit-hub/orbit-student-hub/pkg/logger"
)

// Badge identifiers unlocked by the handlers in this package.
const (
	BadgeFirstTask  = "first_task"
	BadgeFirstFocus = "first_focus"
)

// XPAwarder grants experience points. Implemented by the gamification
// command handler.
type XPAwarder interface {
	AwardXP(ctx context.Context, cmd command.AwardXPCommand) (*command.AwardXPResult, error)
	UnlockBadge(ctx context.Context, cmd command.UnlockBadgeCommand) error
}

// OnTaskCompleted awards XP when a task's completion flag flips to true.
// Re-opening and re-completing the same task earns again; the original
// behavior rewards the action, not the task.
type OnTaskCompleted struct {
	awarder XPAwarder
	log     *logger.Logger
}

// NewOnTaskCompleted creates the task completion handler.
func NewOnTaskCompleted(awarder XPAwarder, log *logger.Logger) *OnTaskCompleted {
	return &OnTaskCompleted{
		awarder: awarder,
		log:     log.With(logger.Component("eventhandler.task_completed")),
	}
}

// Handle implements shared.EventHandler.
func (h *OnTaskCompleted) Handle(event shared.Event) error {
	taskEvent, ok := event.(shared.TaskCompletedEvent)
	if !ok {
		h.log.Warn("received unexpected event", logger.String("event_type", string(event.EventType())))
		return nil
	}

	ctx := context.Background()

	result, err := h.awarder.AwardXP(ctx, command.AwardXPCommand{
		UserID: taskEvent.UserID,
		Amount: command.XPPerTaskCompleted,
		Source: "task_completion",
	})
	if err != nil {
		h.log.Error("failed to award task xp", logger.UserID(taskEvent.UserID), logger.Err(err))
		return err
	}

	h.log.Debug("task xp awarded",
		logger.UserID(taskEvent.UserID),
		logger.EntityID(taskEvent.TaskID),
		logger.XPAmount(command.XPPerTaskCompleted),
	)

	// First completed task unlocks a badge. UnlockBadge is idempotent, so
	// checking "first" here is unnecessary.
	if result.NewTotal <= command.XPPerTaskCompleted {
		if err := h.awarder.UnlockBadge(ctx, command.UnlockBadgeCommand{
			UserID:  taskEvent.UserID,
			BadgeID: BadgeFirstTask,
		}); err != nil {
			h.log.Warn("failed to unlock badge", logger.UserID(taskEvent.UserID), logger.Err(err))
		}
	}

	return nil
}

// EventType returns the event type this handler consumes.
func (h *OnTaskCompleted) EventType() shared.EventType {
	return shared.EventTaskCompleted
}
