package grade

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(semester int, subject string, credits int, letter Letter) *Record {
	r, err := NewRecord(NewRecordParams{
		ID:       "r-" + subject,
		UserID:   "u1",
		Semester: semester,
		Subject:  subject,
		Credits:  credits,
		Grade:    letter,
	})
	if err != nil {
		panic(err)
	}
	return r
}

func TestLetterPoints(t *testing.T) {
	tests := []struct {
		letter Letter
		want   float64
	}{
		{"A", 4.0},
		{"A-", 3.7},
		{"B+", 3.3},
		{"B", 3.0},
		{"B-", 2.7},
		{"C+", 2.3},
		{"C", 2.0},
		{"D", 1.0},
		{"E", 0.0},
	}
	for _, tt := range tests {
		assert.True(t, tt.letter.IsValid())
		assert.InDelta(t, tt.want, tt.letter.Point(), 1e-9)
	}
	assert.False(t, Letter("F").IsValid())
}

func TestNewRecordValidation(t *testing.T) {
	_, err := NewRecord(NewRecordParams{ID: "r1", UserID: "u1", Semester: 1, Subject: "Algoritma", Credits: 0, Grade: "A"})
	assert.Error(t, err)

	_, err = NewRecord(NewRecordParams{ID: "r1", UserID: "u1", Semester: 15, Subject: "Algoritma", Credits: 3, Grade: "A"})
	assert.Error(t, err)

	_, err = NewRecord(NewRecordParams{ID: "r1", UserID: "u1", Semester: 1, Subject: "Algoritma", Credits: 3, Grade: "Z"})
	assert.Error(t, err)

	r, err := NewRecord(NewRecordParams{ID: "r1", UserID: "u1", Semester: 1, Subject: "Algoritma", Credits: 3, Grade: "A-"})
	require.NoError(t, err)
	assert.InDelta(t, 3.7, r.Point, 1e-9)
}

func TestGPAZeroCredits(t *testing.T) {
	assert.Zero(t, GPA(nil))
	assert.Zero(t, GPA([]*Record{}))
}

func TestGPAWeightedMean(t *testing.T) {
	records := []*Record{
		record(1, "Algoritma", 3, "A"),  // 3 * 4.0 = 12.0
		record(1, "Kalkulus", 4, "B"),   // 4 * 3.0 = 12.0
		record(2, "Basis Data", 2, "C"), // 2 * 2.0 =  4.0
	}
	// (12 + 12 + 4) / 9 = 3.111...
	assert.InDelta(t, 28.0/9.0, GPA(records), 1e-9)
	assert.Equal(t, 9, TotalCredits(records))
}

func TestGPABounds(t *testing.T) {
	all4 := []*Record{record(1, "A1", 3, "A"), record(1, "A2", 2, "A")}
	assert.InDelta(t, 4.0, GPA(all4), 1e-9)

	all0 := []*Record{record(1, "E1", 3, "E")}
	assert.InDelta(t, 0.0, GPA(all0), 1e-9)

	mixed := []*Record{record(1, "X", 3, "A"), record(1, "Y", 3, "E")}
	gpa := GPA(mixed)
	assert.GreaterOrEqual(t, gpa, 0.0)
	assert.LessOrEqual(t, gpa, 4.0)
}

func TestSortForDisplay(t *testing.T) {
	records := []*Record{
		record(2, "Basis Data", 3, "B"),
		record(1, "Kalkulus", 3, "A"),
		record(1, "Algoritma", 3, "A"),
	}
	SortForDisplay(records)
	assert.Equal(t, "Algoritma", records[0].Subject)
	assert.Equal(t, "Kalkulus", records[1].Subject)
	assert.Equal(t, "Basis Data", records[2].Subject)
}

func TestPredicateOf(t *testing.T) {
	assert.Equal(t, PredicateCumLaude, PredicateOf(3.75))
	assert.Equal(t, PredicateVeryGood, PredicateOf(3.2))
	assert.Equal(t, PredicateSatisfactory, PredicateOf(2.6))
	assert.Equal(t, PredicateNeedsWork, PredicateOf(2.5))
	assert.Equal(t, PredicateNeedsWork, PredicateOf(0))
}
