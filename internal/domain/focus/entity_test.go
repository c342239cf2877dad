package focus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbit-hub/orbit-student-hub/pkg/timeutil"
)

func TestNewSessionDefaults(t *testing.T) {
	s, err := NewSession(NewSessionParams{ID: "s1", UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, DefaultSessionMinutes, s.DurationMinutes)
	assert.False(t, s.CompletedAt.IsZero())

	_, err = NewSession(NewSessionParams{ID: "s2", UserID: "u1", DurationMinutes: -5})
	assert.Error(t, err)
}

func TestWeeklyTotalsGroupsByLocalDay(t *testing.T) {
	// 2024-03-10 is a Sunday in Jakarta.
	sunday := timeutil.Date(2024, 3, 10).Add(9 * time.Hour)
	monday := timeutil.Date(2024, 3, 11).Add(14 * time.Hour)

	sessions := []*Session{
		{ID: "a", UserID: "u1", DurationMinutes: 25, CompletedAt: sunday},
		{ID: "b", UserID: "u1", DurationMinutes: 50, CompletedAt: sunday},
		{ID: "c", UserID: "u1", DurationMinutes: 25, CompletedAt: monday},
	}

	totals := WeeklyTotals(sessions)
	assert.Equal(t, 75, totals[0])
	assert.Equal(t, 25, totals[1])
	for i := 2; i < 7; i++ {
		assert.Zero(t, totals[i])
	}
}

func TestWeeklyTotalsDefaultsMissingDuration(t *testing.T) {
	sessions := []*Session{
		{ID: "a", UserID: "u1", CompletedAt: timeutil.Date(2024, 3, 12)},
	}
	totals := WeeklyTotals(sessions)
	assert.Equal(t, DefaultSessionMinutes, totals[2])
}

func TestWeeklyTotalsSkipsZeroTimestamps(t *testing.T) {
	sessions := []*Session{{ID: "a", UserID: "u1", DurationMinutes: 25}}
	assert.Equal(t, [7]int{}, WeeklyTotals(sessions))
}

func TestInWeek(t *testing.T) {
	ref := timeutil.Date(2024, 3, 13) // Wednesday
	inWeek := &Session{ID: "in", CompletedAt: timeutil.Date(2024, 3, 10).Add(time.Hour)}
	before := &Session{ID: "before", CompletedAt: timeutil.Date(2024, 3, 9)}
	after := &Session{ID: "after", CompletedAt: timeutil.Date(2024, 3, 17)}

	got := InWeek([]*Session{inWeek, before, after}, ref)
	require.Len(t, got, 1)
	assert.Equal(t, "in", got[0].ID)
}

func TestSortForDisplay(t *testing.T) {
	older := &Session{ID: "old", CompletedAt: timeutil.Date(2024, 3, 10)}
	newer := &Session{ID: "new", CompletedAt: timeutil.Date(2024, 3, 12)}
	sessions := []*Session{older, newer}
	SortForDisplay(sessions)
	assert.Equal(t, "new", sessions[0].ID)
}
