package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBucketOf(t *testing.T) {
	tests := []struct {
		hour int
		want TimeOfDay
	}{
		{5, Morning},
		{11, Morning},
		{12, Afternoon},
		{16, Afternoon},
		{17, Evening},
		{20, Evening},
		{21, Night},
		{23, Night},
		{0, Night},
		{4, Night},
	}

	for _, tt := range tests {
		at := time.Date(2024, 3, 10, tt.hour, 30, 0, 0, JakartaTZ)
		assert.Equal(t, tt.want, BucketOf(at), "hour %d", tt.hour)
	}
}

func TestGreeting(t *testing.T) {
	assert.Equal(t, "Selamat Pagi", Morning.Greeting())
	assert.Equal(t, "Selamat Malam", Night.Greeting())
}

func TestDayIndex(t *testing.T) {
	// 2024-03-10 is a Sunday.
	sunday := Date(2024, 3, 10)
	assert.Equal(t, 0, DayIndex(sunday))
	assert.Equal(t, 6, DayIndex(sunday.AddDate(0, 0, 6)))

	// A UTC timestamp late on Saturday is already Sunday in Jakarta.
	lateSaturday := time.Date(2024, 3, 9, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, 0, DayIndex(lateSaturday))
}

func TestStartOfWeek(t *testing.T) {
	wednesday := Date(2024, 3, 13)
	start := StartOfWeek(wednesday)
	assert.Equal(t, Date(2024, 3, 10), start)
	assert.Equal(t, time.Sunday, start.Weekday())

	// Sunday is already the start of its own week.
	assert.Equal(t, Date(2024, 3, 10), StartOfWeek(Date(2024, 3, 10)))
}

func TestFormatAndParseDate(t *testing.T) {
	d, err := ParseDate("2024-02-01")
	assert.NoError(t, err)
	assert.Equal(t, "2024-02-01", FormatDate(d))

	_, err = ParseDate("not-a-date")
	assert.Error(t, err)
}

func TestSameLocalDay(t *testing.T) {
	a := time.Date(2024, 3, 9, 18, 0, 0, 0, time.UTC) // 2024-03-10 01:00 WIB
	b := Date(2024, 3, 10)
	assert.True(t, SameLocalDay(a, b))
	assert.False(t, SameLocalDay(b, b.AddDate(0, 0, 1)))
}
