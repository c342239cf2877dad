// Package jobs contains implementations of scheduled jobs for Orbit.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/orbit-hub/orbit-student-hub/internal/domain/shared"
	"github.com/orbit-hub/orbit-student-hub/internal/domain/task"
	"github.com/orbit-hub/orbit-student-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// DAILY REMINDER JOB
// ══════════════════════════════════════════════════════════════════════════════

// DueTaskSource lists every user's pending tasks due on a given day.
// Satisfied by the PostgreSQL task repository.
type DueTaskSource interface {
	ListDueOn(ctx context.Context, day time.Time) ([]*task.Task, error)
}

// DailyReminderJob publishes a reminder notification to each user with
// tasks due today. One notification per user, however many tasks.
type DailyReminderJob struct {
	tasks     DueTaskSource
	publisher shared.EventPublisher
	logger    *slog.Logger
}

// NewDailyReminderJob creates a new daily reminder job.
func NewDailyReminderJob(tasks DueTaskSource, publisher shared.EventPublisher, logger *slog.Logger) *DailyReminderJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &DailyReminderJob{
		tasks:     tasks,
		publisher: publisher,
		logger:    logger,
	}
}

// Name returns the job name.
func (j *DailyReminderJob) Name() string {
	return "daily_reminder"
}

// Description returns a human-readable description.
func (j *DailyReminderJob) Description() string {
	return "Notifies users about tasks due today"
}

// Run executes the reminder job for the current Jakarta day.
func (j *DailyReminderJob) Run(ctx context.Context) error {
	today := timeutil.StartOfDay(timeutil.Now())

	due, err := j.tasks.ListDueOn(ctx, today)
	if err != nil {
		return fmt.Errorf("failed to load due tasks: %w", err)
	}
	if len(due) == 0 {
		j.logger.Info("no tasks due today")
		return nil
	}

	byUser := make(map[string][]*task.Task)
	for _, t := range due {
		byUser[t.UserID] = append(byUser[t.UserID], t)
	}

	var failed int
	for userID, tasks := range byUser {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		message := reminderMessage(tasks)
		event := shared.NewNotificationRaisedEvent(userID, "reminder", message)
		if err := j.publisher.Publish(event); err != nil {
			failed++
			j.logger.Error("failed to publish reminder", "user_id", userID, "error", err)
		}
	}

	j.logger.Info("daily reminders published",
		"users", len(byUser),
		"tasks", len(due),
		"failed", failed,
	)
	return nil
}

// reminderMessage builds the notification text for a user's due tasks.
func reminderMessage(tasks []*task.Task) string {
	if len(tasks) == 1 {
		return fmt.Sprintf("Jangan lupa: %q jatuh tempo hari ini.", tasks[0].Title)
	}
	return fmt.Sprintf("Kamu punya %d tugas yang jatuh tempo hari ini. Semangat!", len(tasks))
}
