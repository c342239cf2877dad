// Package schedule contains the weekly class schedule domain model.
// Entries are keyed by a fixed seven-value day label and carry a free-text
// time range, since class times are entered by hand ("08:00 - 09:40").
package schedule

import (
	"sort"
	"strings"
	"time"

	"github.com/orbit-hub/orbit-student-hub/internal/domain/shared"
)

// Collection is the synced collection name for schedule entries.
const Collection = "schedule"

// Day is a day-of-week label drawn from a fixed 7-value set.
type Day string

const (
	Sunday    Day = "Sunday"
	Monday    Day = "Monday"
	Tuesday   Day = "Tuesday"
	Wednesday Day = "Wednesday"
	Thursday  Day = "Thursday"
	Friday    Day = "Friday"
	Saturday  Day = "Saturday"
)

// Days lists all valid day labels in calendar order, Sunday first.
var Days = []Day{Sunday, Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

// IsValid checks that the day is one of the seven known labels.
func (d Day) IsValid() bool {
	for _, day := range Days {
		if d == day {
			return true
		}
	}
	return false
}

// DayOf returns the Day label for a time's local weekday.
func DayOf(t time.Time) Day {
	return Days[int(t.Weekday())]
}

// Entry is a single recurring class in a user's weekly schedule.
type Entry struct {
	// ID - unique identifier (UUID in string form).
	ID string

	// UserID - the owning user.
	UserID string

	// Day - day-of-week label.
	Day Day

	// Subject - course name; required.
	Subject string

	// TimeRange - free-text time span, e.g. "08:00 - 09:40". Entries on the
	// same day are ordered lexicographically by this field.
	TimeRange string

	// Venue - room or building; optional.
	Venue string

	// CreatedAt - time of creation.
	CreatedAt time.Time
}

// NewEntryParams contains parameters for creating a schedule entry.
type NewEntryParams struct {
	ID        string
	UserID    string
	Day       Day
	Subject   string
	TimeRange string
	Venue     string
}

// NewEntry creates a schedule entry with validation.
func NewEntry(params NewEntryParams) (*Entry, error) {
	if params.ID == "" {
		return nil, shared.NewDomainError("schedule", "Create", shared.ErrInvalidID, "entry id is required")
	}
	if params.UserID == "" {
		return nil, shared.NewDomainError("schedule", "Create", shared.ErrInvalidID, "user id is required")
	}
	if !params.Day.IsValid() {
		return nil, shared.ErrInvalidDay
	}

	subject := strings.TrimSpace(params.Subject)
	if subject == "" {
		return nil, shared.NewDomainError("schedule", "Validate", shared.ErrEmptyValue, "subject cannot be empty")
	}

	timeRange := strings.TrimSpace(params.TimeRange)
	if timeRange == "" {
		return nil, shared.NewDomainError("schedule", "Validate", shared.ErrEmptyValue, "time range cannot be empty")
	}

	return &Entry{
		ID:        params.ID,
		UserID:    params.UserID,
		Day:       params.Day,
		Subject:   subject,
		TimeRange: timeRange,
		Venue:     strings.TrimSpace(params.Venue),
		CreatedAt: time.Now().UTC(),
	}, nil
}

// SortForDisplay orders entries by start time within a day (lexicographic on
// the free-text range, which works for zero-padded 24h times).
func SortForDisplay(entries []*Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].TimeRange < entries[j].TimeRange
	})
}

// FilterByDay returns the entries that fall on the given day.
func FilterByDay(entries []*Entry, day Day) []*Entry {
	var out []*Entry
	for _, e := range entries {
		if e.Day == day {
			out = append(out, e)
		}
	}
	return out
}

// Clone creates a deep copy of the entry.
func (e *Entry) Clone() *Entry {
	if e == nil {
		return nil
	}
	clone := *e
	return &clone
}
