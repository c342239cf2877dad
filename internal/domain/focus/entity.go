// Package focus contains the focus (pomodoro) session domain model and the
// weekly study-time aggregation.
package focus

import (
	"sort"
	"time"

	"github.com/orbit-hub/orbit-student-hub/internal/domain/shared"
	"github.com/orbit-hub/orbit-student-hub/pkg/timeutil"
)

// Collection is the synced collection name for focus sessions.
const Collection = "focus_sessions"

// DefaultSessionMinutes is the standard focus session length.
// Sessions recorded without an explicit duration default to this.
const DefaultSessionMinutes = 25

// BreakMinutes is the standard rest period between focus sessions.
const BreakMinutes = 5

// Session is one completed focus period.
type Session struct {
	// ID - unique identifier (UUID in string form).
	ID string

	// UserID - the owning user.
	UserID string

	// DurationMinutes - length of the session in minutes.
	DurationMinutes int

	// CompletedAt - when the session finished. Weekly statistics group
	// sessions by this timestamp's local calendar day.
	CompletedAt time.Time
}

// NewSessionParams contains parameters for recording a session.
type NewSessionParams struct {
	ID              string
	UserID          string
	DurationMinutes int
	CompletedAt     time.Time
}

// NewSession records a completed focus session. A zero duration falls back to
// DefaultSessionMinutes; negative durations are rejected.
func NewSession(params NewSessionParams) (*Session, error) {
	if params.ID == "" {
		return nil, shared.NewDomainError("focus", "Create", shared.ErrInvalidID, "session id is required")
	}
	if params.UserID == "" {
		return nil, shared.NewDomainError("focus", "Create", shared.ErrInvalidID, "user id is required")
	}
	if params.DurationMinutes < 0 {
		return nil, shared.ErrInvalidDuration
	}

	duration := params.DurationMinutes
	if duration == 0 {
		duration = DefaultSessionMinutes
	}

	completedAt := params.CompletedAt
	if completedAt.IsZero() {
		completedAt = time.Now().UTC()
	}

	return &Session{
		ID:              params.ID,
		UserID:          params.UserID,
		DurationMinutes: duration,
		CompletedAt:     completedAt,
	}, nil
}

// SortForDisplay orders sessions most recent first.
func SortForDisplay(sessions []*Session) {
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].CompletedAt.After(sessions[j].CompletedAt)
	})
}

// WeeklyTotals sums session minutes per local day of week, 0=Sunday..6=Saturday.
// Sessions with a zero completion timestamp are skipped.
func WeeklyTotals(sessions []*Session) [7]int {
	var totals [7]int
	for _, s := range sessions {
		if s.CompletedAt.IsZero() {
			continue
		}
		minutes := s.DurationMinutes
		if minutes == 0 {
			minutes = DefaultSessionMinutes
		}
		totals[timeutil.DayIndex(s.CompletedAt)] += minutes
	}
	return totals
}

// TotalMinutes sums all session durations.
func TotalMinutes(sessions []*Session) int {
	var total int
	for _, s := range sessions {
		total += s.DurationMinutes
	}
	return total
}

// InWeek filters sessions completed within the local week containing ref.
func InWeek(sessions []*Session, ref time.Time) []*Session {
	start := timeutil.StartOfWeek(ref)
	end := timeutil.EndOfWeek(ref)
	var out []*Session
	for _, s := range sessions {
		if !s.CompletedAt.Before(start) && !s.CompletedAt.After(end) {
			out = append(out, s)
		}
	}
	return out
}

// Clone creates a deep copy of the session.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	clone := *s
	return &clone
}
