package command

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/orbit-hub/orbit-student-hub/internal/domain/schedule"
	"github.com/orbit-hub/orbit-student-hub/internal/domain/shared"
	"github.com/orbit-hub/orbit-student-hub/pkg/logger"
)

// AddClassCommand contains the data needed to add a class to the weekly
// schedule.
type AddClassCommand struct {
	UserID    string
	Day       string
	Subject   string
	TimeRange string
	Venue     string
}

// DeleteClassCommand identifies the schedule entry to delete.
type DeleteClassCommand struct {
	UserID  string
	EntryID string
}

// ScheduleHandler handles schedule write commands.
type ScheduleHandler struct {
	scheduleRepo schedule.Repository
	publisher    shared.EventPublisher
	log          *logger.Logger
}

// NewScheduleHandler creates a new ScheduleHandler.
func NewScheduleHandler(scheduleRepo schedule.Repository, publisher shared.EventPublisher, log *logger.Logger) *ScheduleHandler {
	return &ScheduleHandler{
		scheduleRepo: scheduleRepo,
		publisher:    publisher,
		log:          log.With(logger.Component("command.schedule")),
	}
}

// AddClass adds a recurring class to the user's weekly schedule.
func (h *ScheduleHandler) AddClass(ctx context.Context, cmd AddClassCommand) (*schedule.Entry, error) {
	if cmd.UserID == "" {
		return nil, shared.NewDomainError("schedule", "AddClass", shared.ErrInvalidID, "user id is required")
	}

	e, err := schedule.NewEntry(schedule.NewEntryParams{
		ID:        uuid.NewString(),
		UserID:    cmd.UserID,
		Day:       schedule.Day(cmd.Day),
		Subject:   cmd.Subject,
		TimeRange: cmd.TimeRange,
		Venue:     cmd.Venue,
	})
	if err != nil {
		return nil, err
	}

	if err := h.scheduleRepo.Create(ctx, e); err != nil {
		return nil, fmt.Errorf("add class: %w", err)
	}

	h.notifyChanged(cmd.UserID)
	return e, nil
}

// DeleteClass removes a class from the schedule. The entry must belong to
// the caller.
func (h *ScheduleHandler) DeleteClass(ctx context.Context, cmd DeleteClassCommand) error {
	e, err := h.scheduleRepo.GetByID(ctx, cmd.EntryID)
	if err != nil {
		return err
	}
	if e.UserID != cmd.UserID {
		return shared.ErrClassNotFound
	}

	if err := h.scheduleRepo.Delete(ctx, cmd.EntryID); err != nil {
		return fmt.Errorf("delete class: %w", err)
	}

	h.notifyChanged(cmd.UserID)
	return nil
}

func (h *ScheduleHandler) notifyChanged(userID string) {
	if err := h.publisher.Publish(shared.NewCollectionChangedEvent(schedule.Collection, userID)); err != nil {
		h.log.Warn("failed to publish collection change", logger.Err(err), logger.UserID(userID))
	}
}
