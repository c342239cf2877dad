// Package timeutil provides timezone utilities for Jakarta time (UTC+7).
// Orbit's users are Indonesian students, so schedules, focus statistics, and
// greetings are all computed in Western Indonesian Time (WIB).
// No external dependencies - uses only standard library.
package timeutil

import (
	"time"
)

// JakartaTZ is the Jakarta timezone (UTC+7, no DST).
// Indonesia does not observe daylight saving time, so this is constant year-round.
var JakartaTZ = time.FixedZone("Asia/Jakarta", 7*60*60)

// Now returns the current time in Jakarta timezone.
func Now() time.Time {
	return time.Now().In(JakartaTZ)
}

// ToJakarta converts a time to Jakarta timezone.
func ToJakarta(t time.Time) time.Time {
	return t.In(JakartaTZ)
}

// Date creates a time in Jakarta timezone with the given date.
func Date(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, JakartaTZ)
}

// StartOfDay returns the start of the day (00:00:00) in Jakarta timezone.
func StartOfDay(t time.Time) time.Time {
	local := ToJakarta(t)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, JakartaTZ)
}

// EndOfDay returns the end of the day (23:59:59.999999999) in Jakarta timezone.
func EndOfDay(t time.Time) time.Time {
	local := ToJakarta(t)
	return time.Date(local.Year(), local.Month(), local.Day(), 23, 59, 59, 999999999, JakartaTZ)
}

// StartOfWeek returns the start of the week (Sunday 00:00:00) in Jakarta timezone.
// Weekly focus statistics are indexed Sunday-first, matching DayIndex.
func StartOfWeek(t time.Time) time.Time {
	local := ToJakarta(t)
	return StartOfDay(local.AddDate(0, 0, -int(local.Weekday())))
}

// EndOfWeek returns the end of the week (Saturday 23:59:59) in Jakarta timezone.
func EndOfWeek(t time.Time) time.Time {
	start := StartOfWeek(t)
	return EndOfDay(start.AddDate(0, 0, 6))
}

// DayIndex returns the local day of week as an index, 0=Sunday .. 6=Saturday.
func DayIndex(t time.Time) int {
	return int(ToJakarta(t).Weekday())
}

// DayName returns the English name of the local day of week.
func DayName(t time.Time) string {
	return ToJakarta(t).Weekday().String()
}

// IsToday checks if the given time is today in Jakarta timezone.
func IsToday(t time.Time) bool {
	now := Now()
	local := ToJakarta(t)
	return local.Year() == now.Year() &&
		local.Month() == now.Month() &&
		local.Day() == now.Day()
}

// SameLocalDay checks if two times fall on the same Jakarta calendar day.
func SameLocalDay(a, b time.Time) bool {
	la, lb := ToJakarta(a), ToJakarta(b)
	return la.Year() == lb.Year() && la.Month() == lb.Month() && la.Day() == lb.Day()
}

// TimeOfDay is a coarse bucket of the local day used for greetings and quotes.
type TimeOfDay string

const (
	// Morning covers 05:00 - 11:59.
	Morning TimeOfDay = "morning"
	// Afternoon covers 12:00 - 16:59.
	Afternoon TimeOfDay = "afternoon"
	// Evening covers 17:00 - 20:59.
	Evening TimeOfDay = "evening"
	// Night covers 21:00 - 04:59.
	Night TimeOfDay = "night"
)

// BucketOf returns the time-of-day bucket for the given time in Jakarta.
func BucketOf(t time.Time) TimeOfDay {
	hour := ToJakarta(t).Hour()
	switch {
	case hour >= 5 && hour < 12:
		return Morning
	case hour >= 12 && hour < 17:
		return Afternoon
	case hour >= 17 && hour < 21:
		return Evening
	default:
		return Night
	}
}

// Greeting returns the Indonesian greeting for the bucket.
func (b TimeOfDay) Greeting() string {
	switch b {
	case Morning:
		return "Selamat Pagi"
	case Afternoon:
		return "Selamat Siang"
	case Evening:
		return "Selamat Sore"
	default:
		return "Selamat Malam"
	}
}

// IsValid checks that the bucket is one of the four known values.
func (b TimeOfDay) IsValid() bool {
	switch b {
	case Morning, Afternoon, Evening, Night:
		return true
	default:
		return false
	}
}

// FormatDate formats a time as YYYY-MM-DD in Jakarta timezone.
// This is the wire format for task due dates and all-day calendar events.
func FormatDate(t time.Time) string {
	return ToJakarta(t).Format("2006-01-02")
}

// ParseDate parses a YYYY-MM-DD string as a Jakarta-local date.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", s, JakartaTZ)
}
