// Package task contains the task-tracking domain model.
// Tasks are to-do items with an optional due date and a completion flag,
// owned by a single user. Pure business logic, no external dependencies.
package task

import (
	"sort"
	"strings"
	"time"

	"github.com/orbit-hub/orbit-student-hub/internal/domain/shared"
)

// Collection is the synced collection name for tasks.
const Collection = "tasks"

// Task is a single to-do item.
type Task struct {
	// ID - unique identifier (UUID in string form).
	ID string

	// UserID - the owning user.
	UserID string

	// Title - what needs doing; must be non-empty to persist.
	Title string

	// DueDate - optional due date (date precision, local calendar day).
	// Nil means no deadline; undated tasks sort after dated ones.
	DueDate *time.Time

	// Completed - completion flag, always false at creation.
	Completed bool

	// CreatedAt - time of creation.
	CreatedAt time.Time
}

// NewTaskParams contains parameters for creating a new task.
type NewTaskParams struct {
	ID      string
	UserID  string
	Title   string
	DueDate *time.Time
}

// NewTask creates a new task with validation. The completion flag starts false.
func NewTask(params NewTaskParams) (*Task, error) {
	if params.ID == "" {
		return nil, shared.NewDomainError("task", "Create", shared.ErrInvalidID, "task id is required")
	}
	if params.UserID == "" {
		return nil, shared.NewDomainError("task", "Create", shared.ErrInvalidID, "user id is required")
	}

	title := strings.TrimSpace(params.Title)
	if title == "" {
		return nil, shared.ErrEmptyTaskTitle
	}

	return &Task{
		ID:        params.ID,
		UserID:    params.UserID,
		Title:     title,
		DueDate:   params.DueDate,
		Completed: false,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Toggle flips the completion flag and reports whether the task is now complete.
func (t *Task) Toggle() bool {
	t.Completed = !t.Completed
	return t.Completed
}

// IsOverdue reports whether the task is pending and its due date has passed.
func (t *Task) IsOverdue(now time.Time) bool {
	if t.Completed || t.DueDate == nil {
		return false
	}
	return t.DueDate.Before(now)
}

// SortForDisplay orders tasks for presentation: pending before completed,
// then due date ascending within each group, undated tasks last.
func SortForDisplay(tasks []*Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		if a.Completed != b.Completed {
			return !a.Completed
		}
		switch {
		case a.DueDate == nil && b.DueDate == nil:
			return false
		case a.DueDate == nil:
			return false
		case b.DueDate == nil:
			return true
		default:
			return a.DueDate.Before(*b.DueDate)
		}
	})
}

// CompletionStats summarizes task completion for visualization.
// Zero tasks is a defined empty state, not an error.
type CompletionStats struct {
	Completed int
	Pending   int
}

// Total returns the total number of tasks.
func (s CompletionStats) Total() int {
	return s.Completed + s.Pending
}

// Ratio returns the completed fraction in [0, 1]. Zero tasks yields 0.
func (s CompletionStats) Ratio() float64 {
	total := s.Total()
	if total == 0 {
		return 0
	}
	return float64(s.Completed) / float64(total)
}

// Stats computes completion statistics over a task set.
func Stats(tasks []*Task) CompletionStats {
	var s CompletionStats
	for _, t := range tasks {
		if t.Completed {
			s.Completed++
		} else {
			s.Pending++
		}
	}
	return s
}

// DueOn returns the tasks that are pending and due on the given local day.
// Used by the daily reminder digest.
func DueOn(tasks []*Task, day time.Time) []*Task {
	y, m, d := day.Date()
	var due []*Task
	for _, t := range tasks {
		if t.Completed || t.DueDate == nil {
			continue
		}
		ty, tm, td := t.DueDate.Date()
		if ty == y && tm == m && td == d {
			due = append(due, t)
		}
	}
	return due
}

// Clone creates a deep copy of the task.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	clone := *t
	if t.DueDate != nil {
		due := *t.DueDate
		clone.DueDate = &due
	}
	return &clone
}
