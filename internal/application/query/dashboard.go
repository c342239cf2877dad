package query

import (
	"context"
	"fmt"
	"time"

	"github.com/orbit-hub/orbit-student-hub/internal/domain/profile"
	"github.com/orbit-hub/orbit-student-hub/internal/domain/schedule"
	"github.com/orbit-hub/orbit-student-hub/internal/domain/task"
	"github.com/orbit-hub/orbit-student-hub/pkg/logger"
	"github.com/orbit-hub/orbit-student-hub/pkg/timeutil"
)

// MotivationSource produces a short motivational line for the dashboard.
// Implementations fall back to a built-in quote when generation fails, so
// the dashboard itself never sees an error from a flaky upstream.
type MotivationSource interface {
	DailyQuote(ctx context.Context, p *profile.Profile) string
}

// Dashboard is the home-screen view: greeting, today's classes, pending
// work, and a motivational line.
type Dashboard struct {
	Greeting     string
	DisplayName  string
	TodayClasses []*schedule.Entry
	PendingTasks int
	DueToday     int
	Quote        string
	Level        int
	CurrentXP    int
	XPToNext     int
}

// DashboardHandler assembles the home-screen view.
type DashboardHandler struct {
	snapshots  *SnapshotService
	motivation MotivationSource
	log        *logger.Logger
}

// NewDashboardHandler creates a new DashboardHandler. The motivation source
// may be nil; the quote is then omitted.
func NewDashboardHandler(snapshots *SnapshotService, motivation MotivationSource, log *logger.Logger) *DashboardHandler {
	return &DashboardHandler{
		snapshots:  snapshots,
		motivation: motivation,
		log:        log.With(logger.Component("query.dashboard")),
	}
}

// Handle builds the dashboard for a user at the given moment. The greeting
// follows the local time-of-day bucket; classes are filtered to today's
// weekday.
func (h *DashboardHandler) Handle(ctx context.Context, userID string, now time.Time) (*Dashboard, error) {
	p, err := h.snapshots.Profile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("dashboard: %w", err)
	}

	entries, err := h.snapshots.Schedule(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("dashboard: %w", err)
	}
	today := schedule.FilterByDay(entries, schedule.DayOf(timeutil.ToJakarta(now)))

	tasks, err := h.snapshots.Tasks(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("dashboard: %w", err)
	}
	stats := task.Stats(tasks)
	dueToday := len(task.DueOn(tasks, timeutil.ToJakarta(now)))

	d := &Dashboard{
		Greeting:     timeutil.BucketOf(now).Greeting(),
		DisplayName:  p.DisplayName,
		TodayClasses: today,
		PendingTasks: stats.Pending,
		DueToday:     dueToday,
		Level:        int(p.Level()),
		CurrentXP:    int(p.CurrentXP),
		XPToNext:     int(profile.XPToNextLevel(p.CurrentXP)),
	}

	if h.motivation != nil {
		d.Quote = h.motivation.DailyQuote(ctx, p)
	}

	return d, nil
}
