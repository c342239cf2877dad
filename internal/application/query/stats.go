package query

import (
	"context"
	"fmt"
	"time"

	"github.com/orbit-hub/orbit-student-hub/internal/domain/focus"
	"github.com/orbit-hub/orbit-student-hub/internal/domain/grade"
	"github.com/orbit-hub/orbit-student-hub/internal/domain/task"
	"github.com/orbit-hub/orbit-student-hub/pkg/timeutil"
)

// WeeklyFocus is the focus-time chart data: minutes per local day of week,
// index 0 = Sunday.
type WeeklyFocus struct {
	Minutes      [7]int
	TotalMinutes int
	Labels       [7]string
}

// TaskProgress is the completion donut data.
type TaskProgress struct {
	Completed int
	Pending   int
	Total     int
	Ratio     float64
}

// AcademicSummary is the GPA panel data.
type AcademicSummary struct {
	GPA          float64
	TotalCredits int
	Records      int
	Predicate    string
}

// StatsHandler computes the derived statistics views. All figures are
// recomputed from the current snapshot on every call; nothing is cached.
type StatsHandler struct {
	snapshots *SnapshotService
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(snapshots *SnapshotService) *StatsHandler {
	return &StatsHandler{snapshots: snapshots}
}

// WeeklyFocus returns per-day focus minutes for the local week containing
// now. Days without sessions report zero.
func (h *StatsHandler) WeeklyFocus(ctx context.Context, userID string, now time.Time) (*WeeklyFocus, error) {
	sessions, err := h.snapshots.FocusSessions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("weekly focus: %w", err)
	}

	week := focus.InWeek(sessions, now)
	totals := focus.WeeklyTotals(week)

	result := &WeeklyFocus{Minutes: totals}
	start := timeutil.StartOfWeek(now)
	for i := 0; i < 7; i++ {
		result.TotalMinutes += totals[i]
		result.Labels[i] = timeutil.DayName(start.AddDate(0, 0, i))
	}
	return result, nil
}

// TaskProgress returns the completion ratio. Zero tasks is a defined empty
// state with ratio 0, not an error.
func (h *StatsHandler) TaskProgress(ctx context.Context, userID string) (*TaskProgress, error) {
	tasks, err := h.snapshots.Tasks(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("task progress: %w", err)
	}

	stats := task.Stats(tasks)
	return &TaskProgress{
		Completed: stats.Completed,
		Pending:   stats.Pending,
		Total:     stats.Total(),
		Ratio:     stats.Ratio(),
	}, nil
}

// AcademicSummary returns the credit-weighted GPA and its honors predicate.
// Zero recorded credits yields a GPA of 0.0.
func (h *StatsHandler) AcademicSummary(ctx context.Context, userID string) (*AcademicSummary, error) {
	records, err := h.snapshots.Grades(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("academic summary: %w", err)
	}

	gpa := grade.GPA(records)
	return &AcademicSummary{
		GPA:          gpa,
		TotalCredits: grade.TotalCredits(records),
		Records:      len(records),
		Predicate:    string(grade.PredicateOf(gpa)),
	}, nil
}
