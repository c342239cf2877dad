package task

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(s string) *time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &t
}

func TestNewTaskValidation(t *testing.T) {
	_, err := NewTask(NewTaskParams{ID: "t1", UserID: "u1", Title: "   "})
	assert.Error(t, err)

	tk, err := NewTask(NewTaskParams{ID: "t1", UserID: "u1", Title: "Read chapter 3"})
	require.NoError(t, err)
	assert.False(t, tk.Completed)
	assert.Nil(t, tk.DueDate)
}

func TestSortForDisplay(t *testing.T) {
	tasks := []*Task{
		{ID: "a", Completed: true, DueDate: date("2024-01-01")},
		{ID: "b", Completed: false, DueDate: date("2024-02-01")},
		{ID: "c", Completed: false, DueDate: nil},
	}

	SortForDisplay(tasks)

	// Pending first ordered by due date with undated last, completed at the end.
	assert.Equal(t, "b", tasks[0].ID)
	assert.Equal(t, "c", tasks[1].ID)
	assert.Equal(t, "a", tasks[2].ID)
}

func TestSortForDisplayStableForUndated(t *testing.T) {
	tasks := []*Task{
		{ID: "x", Completed: false},
		{ID: "y", Completed: false},
		{ID: "z", Completed: false, DueDate: date("2024-03-01")},
	}

	SortForDisplay(tasks)

	assert.Equal(t, "z", tasks[0].ID)
	assert.Equal(t, "x", tasks[1].ID)
	assert.Equal(t, "y", tasks[2].ID)
}

func TestStats(t *testing.T) {
	assert.Equal(t, CompletionStats{}, Stats(nil))
	assert.Zero(t, Stats(nil).Ratio())

	tasks := []*Task{
		{Completed: true},
		{Completed: false},
		{Completed: false},
		{Completed: true},
	}
	s := Stats(tasks)
	assert.Equal(t, 2, s.Completed)
	assert.Equal(t, 2, s.Pending)
	assert.InDelta(t, 0.5, s.Ratio(), 1e-9)
}

func TestToggle(t *testing.T) {
	tk := &Task{Completed: false}
	assert.True(t, tk.Toggle())
	assert.False(t, tk.Toggle())
}

func TestDueOn(t *testing.T) {
	day := time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC)
	tasks := []*Task{
		{ID: "due", DueDate: date("2024-05-20")},
		{ID: "done", DueDate: date("2024-05-20"), Completed: true},
		{ID: "later", DueDate: date("2024-05-21")},
		{ID: "undated"},
	}

	due := DueOn(tasks, day)
	require.Len(t, due, 1)
	assert.Equal(t, "due", due[0].ID)
}

func TestIsOverdue(t *testing.T) {
	now := time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC)
	assert.True(t, (&Task{DueDate: date("2024-05-19")}).IsOverdue(now))
	assert.False(t, (&Task{DueDate: date("2024-05-19"), Completed: true}).IsOverdue(now))
	assert.False(t, (&Task{}).IsOverdue(now))
}
