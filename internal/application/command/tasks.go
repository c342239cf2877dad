package command

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/orbit-hub/orbit-student-hub/internal/domain/shared"
	"github.com/orbit-hub/orbit-student-hub/internal/domain/task"
	"github.com/orbit-hub/orbit-student-hub/pkg/logger"
	"github.com/orbit-hub/orbit-student-hub/pkg/timeutil"
)

// CalendarExporter exports a task deadline to the user's external calendar.
// Export failures are reported but never fail the task write.
type CalendarExporter interface {
	// ExportAllDayEvent creates an all-day event on the user's primary calendar.
	ExportAllDayEvent(ctx context.Context, userID, title string, day time.Time) error
}

// CreateTaskCommand contains the data needed to create a task.
type CreateTaskCommand struct {
	UserID string
	Title  string

	// DueDate in YYYY-MM-DD form; empty means no deadline.
	DueDate string

	// SyncToCalendar exports the due date to the user's Google Calendar.
	// Requires a due date and a stored access token.
	SyncToCalendar bool
}

// Validate validates the command.
func (c CreateTaskCommand) Validate() error {
	if c.UserID == "" {
		return shared.NewDomainError("task", "Create", shared.ErrInvalidID, "user id is required")
	}
	if c.SyncToCalendar && c.DueDate == "" {
		return shared.ErrInvalidDueDate
	}
	return nil
}

// CreateTaskResult reports the created task and whether the calendar export
// succeeded. CalendarWarning carries a non-fatal export failure.
type CreateTaskResult struct {
	Task            *task.Task
	ExportedToCal   bool
	CalendarWarning error
}

// ToggleTaskCommand flips a task's completion flag.
type ToggleTaskCommand struct {
	UserID string
	TaskID string
}

// DeleteTaskCommand identifies the task to delete.
type DeleteTaskCommand struct {
	UserID string
	TaskID string
}

// AddBreakdownCommand adds assistant-generated sub-tasks in one batch.
// Each step carries a relative deadline in days from today.
type AddBreakdownCommand struct {
	UserID string
	Steps  []BreakdownStep
}

// BreakdownStep is one generated sub-task.
type BreakdownStep struct {
	Title       string
	DaysFromNow int
}

// TaskHandler handles all task write commands.
type TaskHandler struct {
	taskRepo  task.Repository
	calendar  CalendarExporter
	publisher shared.EventPublisher
	log       *logger.Logger
}

// NewTaskHandler creates a new TaskHandler. The calendar exporter may be nil
// when no Google integration is configured.
func NewTaskHandler(
	taskRepo task.Repository,
	calendar CalendarExporter,
	publisher shared.EventPublisher,
	log *logger.Logger,
) *TaskHandler {
	return &TaskHandler{
		taskRepo:  taskRepo,
		calendar:  calendar,
		publisher: publisher,
		log:       log.With(logger.Component("command.tasks")),
	}
}

// Create creates a task, optionally exporting its due date to the user's
// calendar. A failed export leaves the task intact and surfaces as a warning.
func (h *TaskHandler) Create(ctx context.Context, cmd CreateTaskCommand) (*CreateTaskResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	var due *time.Time
	if cmd.DueDate != "" {
		parsed, err := timeutil.ParseDate(cmd.DueDate)
		if err != nil {
			return nil, shared.ErrInvalidDueDate
		}
		due = &parsed
	}

	t, err := task.NewTask(task.NewTaskParams{
		ID:      uuid.NewString(),
		UserID:  cmd.UserID,
		Title:   cmd.Title,
		DueDate: due,
	})
	if err != nil {
		return nil, err
	}

	if err := h.taskRepo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	result := &CreateTaskResult{Task: t}

	if cmd.SyncToCalendar && due != nil {
		if h.calendar == nil {
			result.CalendarWarning = shared.ErrCalendarTokenMissing
		} else if err := h.calendar.ExportAllDayEvent(ctx, cmd.UserID, t.Title, *due); err != nil {
			h.log.Warn("calendar export failed",
				logger.UserID(cmd.UserID),
				logger.EntityID(t.ID),
				logger.Err(err),
			)
			result.CalendarWarning = err
		} else {
			result.ExportedToCal = true
		}
	}

	h.notifyChanged(cmd.UserID)
	return result, nil
}

// Toggle flips a task's completion flag. Completing a task emits a
// TaskCompletedEvent; re-opening does not.
func (h *TaskHandler) Toggle(ctx context.Context, cmd ToggleTaskCommand) (*task.Task, error) {
	t, err := h.ownedTask(ctx, cmd.UserID, cmd.TaskID)
	if err != nil {
		return nil, err
	}

	nowComplete := t.Toggle()

	if err := h.taskRepo.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("toggle task: %w", err)
	}

	if nowComplete {
		if err := h.publisher.Publish(shared.NewTaskCompletedEvent(cmd.UserID, t.ID, t.Title)); err != nil {
			h.log.Warn("failed to publish task completion", logger.Err(err), logger.UserID(cmd.UserID))
		}
	}

	h.notifyChanged(cmd.UserID)
	return t, nil
}

// Delete removes a task. The task must belong to the caller.
func (h *TaskHandler) Delete(ctx context.Context, cmd DeleteTaskCommand) error {
	if _, err := h.ownedTask(ctx, cmd.UserID, cmd.TaskID); err != nil {
		return err
	}

	if err := h.taskRepo.Delete(ctx, cmd.TaskID); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}

	h.notifyChanged(cmd.UserID)
	return nil
}

// AddBreakdown persists a batch of generated sub-tasks. Subscribers see one
// change notification for the whole batch, not one per step.
func (h *TaskHandler) AddBreakdown(ctx context.Context, cmd AddBreakdownCommand) ([]*task.Task, error) {
	if cmd.UserID == "" {
		return nil, shared.NewDomainError("task", "AddBreakdown", shared.ErrInvalidID, "user id is required")
	}
	if len(cmd.Steps) == 0 {
		return nil, shared.NewDomainError("task", "AddBreakdown", shared.ErrEmptyValue, "breakdown has no steps")
	}

	today := timeutil.StartOfDay(time.Now())
	created := make([]*task.Task, 0, len(cmd.Steps))

	for _, step := range cmd.Steps {
		days := step.DaysFromNow
		if days < 0 {
			days = 0
		}
		due := today.AddDate(0, 0, days)

		t, err := task.NewTask(task.NewTaskParams{
			ID:      uuid.NewString(),
			UserID:  cmd.UserID,
			Title:   step.Title,
			DueDate: &due,
		})
		if err != nil {
			return nil, err
		}

		if err := h.taskRepo.Create(ctx, t); err != nil {
			return nil, fmt.Errorf("create breakdown task: %w", err)
		}
		created = append(created, t)
	}

	h.notifyChanged(cmd.UserID)
	return created, nil
}

func (h *TaskHandler) ownedTask(ctx context.Context, userID, taskID string) (*task.Task, error) {
	t, err := h.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if t.UserID != userID {
		return nil, shared.ErrTaskNotFound
	}
	return t, nil
}

func (h *TaskHandler) notifyChanged(userID string) {
	if err := h.publisher.Publish(shared.NewCollectionChangedEvent(task.Collection, userID)); err != nil {
		h.log.Warn("failed to publish collection change", logger.Err(err), logger.UserID(userID))
	}
}
