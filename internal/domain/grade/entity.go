// Package grade contains the academic grade domain model and the GPA
// calculation. Grade points derive from letter grades via a fixed lookup
// table; GPA is the credit-weighted mean of grade points.
package grade

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/orbit-hub/orbit-student-hub/internal/domain/shared"
)

// Collection is the synced collection name for grade records.
const Collection = "grades"

// Semester bounds; Indonesian degree programs run up to 14 semesters.
const (
	MinSemester = 1
	MaxSemester = 14
)

// Letter is a categorical grade value.
type Letter string

// gradePoints is the fixed letter-to-point lookup table.
var gradePoints = map[Letter]float64{
	"A": 4.0, "A-": 3.7,
	"B+": 3.3, "B": 3.0, "B-": 2.7,
	"C+": 2.3, "C": 2.0,
	"D": 1.0, "E": 0.0,
}

// Letters lists the valid letter grades from best to worst.
var Letters = []Letter{"A", "A-", "B+", "B", "B-", "C+", "C", "D", "E"}

// IsValid checks that the letter is in the lookup table.
func (l Letter) IsValid() bool {
	_, ok := gradePoints[l]
	return ok
}

// Point returns the numeric grade point for the letter.
// Unknown letters yield 0; validate with IsValid before persisting.
func (l Letter) Point() float64 {
	return gradePoints[l]
}

// Record is one graded course taken by a user.
type Record struct {
	// ID - unique identifier (UUID in string form).
	ID string

	// UserID - the owning user.
	UserID string

	// Semester - semester number, 1-14.
	Semester int

	// Subject - course name.
	Subject string

	// Credits - credit weight (SKS), a positive integer multiplier.
	Credits int

	// Grade - the letter grade.
	Grade Letter

	// Point - numeric grade point, derived from Grade at creation.
	Point float64

	// CreatedAt - time of creation.
	CreatedAt time.Time
}

// NewRecordParams contains parameters for creating a grade record.
type NewRecordParams struct {
	ID       string
	UserID   string
	Semester int
	Subject  string
	Credits  int
	Grade    Letter
}

// NewRecord creates a grade record with validation. The grade point is
// derived from the letter grade; callers never supply it directly.
func NewRecord(params NewRecordParams) (*Record, error) {
	if params.ID == "" {
		return nil, shared.NewDomainError("grade", "Create", shared.ErrInvalidID, "record id is required")
	}
	if params.UserID == "" {
		return nil, shared.NewDomainError("grade", "Create", shared.ErrInvalidID, "user id is required")
	}
	if params.Semester < MinSemester || params.Semester > MaxSemester {
		return nil, shared.ErrInvalidSemester
	}

	subject := strings.TrimSpace(params.Subject)
	if subject == "" {
		return nil, shared.NewDomainError("grade", "Validate", shared.ErrEmptyValue, "subject cannot be empty")
	}

	if params.Credits <= 0 {
		return nil, shared.ErrInvalidCredits
	}
	if !params.Grade.IsValid() {
		return nil, shared.ErrUnknownLetterGrade
	}

	return &Record{
		ID:        params.ID,
		UserID:    params.UserID,
		Semester:  params.Semester,
		Subject:   subject,
		Credits:   params.Credits,
		Grade:     params.Grade,
		Point:     params.Grade.Point(),
		CreatedAt: time.Now().UTC(),
	}, nil
}

// SortForDisplay orders records by semester ascending, then subject name.
func SortForDisplay(records []*Record) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Semester != records[j].Semester {
			return records[i].Semester < records[j].Semester
		}
		return records[i].Subject < records[j].Subject
	})
}

// GPA returns the credit-weighted grade point average.
// A zero total credit weight yields 0.0 by definition, not an error.
func GPA(records []*Record) float64 {
	var totalCredits int
	var totalPoints float64
	for _, r := range records {
		totalCredits += r.Credits
		totalPoints += float64(r.Credits) * r.Point
	}
	if totalCredits == 0 {
		return 0.0
	}
	return totalPoints / float64(totalCredits)
}

// TotalCredits returns the summed credit weight across records.
func TotalCredits(records []*Record) int {
	var total int
	for _, r := range records {
		total += r.Credits
	}
	return total
}

// Predicate is the honors classification derived from a GPA.
type Predicate string

const (
	PredicateCumLaude     Predicate = "Cum Laude"
	PredicateVeryGood     Predicate = "Sangat Memuaskan"
	PredicateSatisfactory Predicate = "Memuaskan"
	PredicateNeedsWork    Predicate = "Perlu Perbaikan"
)

// PredicateOf classifies a GPA into an honors predicate.
func PredicateOf(gpa float64) Predicate {
	switch {
	case gpa > 3.5:
		return PredicateCumLaude
	case gpa > 3.0:
		return PredicateVeryGood
	case gpa > 2.5:
		return PredicateSatisfactory
	default:
		return PredicateNeedsWork
	}
}

// String returns a loggable representation of the record.
func (r *Record) String() string {
	return fmt.Sprintf("Record{Semester: %d, Subject: %s, Credits: %d, Grade: %s}",
		r.Semester, r.Subject, r.Credits, r.Grade)
}

// Clone creates a deep copy of the record.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	clone := *r
	return &clone
}
