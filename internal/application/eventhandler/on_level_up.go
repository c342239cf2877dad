package eventhandler

import (
	"fmt"

	"github.com/orbit-hub/orbit-student-hub/internal/domain/shared"
	"github.com/orbit-hub/orbit-student-hub/pkg/logger"
)

// OnLevelUp turns a level-up into a user-facing celebration notification.
// The level-up itself is emitted at most once per boundary, so the
// celebration inherits that guarantee.
type OnLevelUp struct {
	publisher shared.EventPublisher
	log       *logger.Logger
}

// NewOnLevelUp creates the level-up handler.
func NewOnLevelUp(publisher shared.EventPublisher, log *logger.Logger) *OnLevelUp {
	return &OnLevelUp{
		publisher: publisher,
		log:       log.With(logger.Component("eventhandler.level_up")),
	}
}

// Handle implements shared.EventHandler.
func (h *OnLevelUp) Handle(event shared.Event) error {
	levelEvent, ok := event.(shared.LevelUpEvent)
	if !ok {
		h.log.Warn("received unexpected event", logger.String("event_type", string(event.EventType())))
		return nil
	}

	message := fmt.Sprintf("Level Up! You reached level %d. Keep going!", levelEvent.NewLevel)

	notification := shared.NewNotificationRaisedEvent(levelEvent.UserID, "level_up", message)
	if err := h.publisher.Publish(notification); err != nil {
		h.log.Error("failed to raise level-up notification", logger.UserID(levelEvent.UserID), logger.Err(err))
		return err
	}

	h.log.Info("level-up celebrated",
		logger.UserID(levelEvent.UserID),
		logger.LevelValue(levelEvent.NewLevel),
	)
	return nil
}

// EventType returns the event type this handler consumes.
func (h *OnLevelUp) EventType() shared.EventType {
	return shared.EventLevelUp
}
