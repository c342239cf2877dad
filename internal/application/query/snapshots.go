// Package query contains read operations (CQRS - Queries).
// Queries never mutate state. Collection snapshots are the unit of delivery:
// every read returns the full, display-ordered collection for one user, the
// same shape the live stream pushes after each change.
package query

import (
	"context"
	"fmt"

	"github.com/orbit-hub/orbit-student-hub/internal/domain/focus"
	"github.com/orbit-hub/orbit-student-hub/internal/domain/grade"
	"github.com/orbit-hub/orbit-student-hub/internal/domain/note"
	"github.com/orbit-hub/orbit-student-hub/internal/domain/profile"
	"github.com/orbit-hub/orbit-student-hub/internal/domain/schedule"
	"github.com/orbit-hub/orbit-student-hub/internal/domain/shared"
	"github.com/orbit-hub/orbit-student-hub/internal/domain/task"
)

// SnapshotService reads full, sorted collection snapshots for one user.
type SnapshotService struct {
	noteRepo     note.Repository
	taskRepo     task.Repository
	scheduleRepo schedule.Repository
	gradeRepo    grade.Repository
	focusRepo    focus.Repository
	profileRepo  profile.Repository
}

// NewSnapshotService creates a new SnapshotService.
func NewSnapshotService(
	noteRepo note.Repository,
	taskRepo task.Repository,
	scheduleRepo schedule.Repository,
	gradeRepo grade.Repository,
	focusRepo focus.Repository,
	profileRepo profile.Repository,
) *SnapshotService {
	return &SnapshotService{
		noteRepo:     noteRepo,
		taskRepo:     taskRepo,
		scheduleRepo: scheduleRepo,
		gradeRepo:    gradeRepo,
		focusRepo:    focusRepo,
		profileRepo:  profileRepo,
	}
}

// Notes returns the user's notes, newest-edit first.
func (s *SnapshotService) Notes(ctx context.Context, userID string) ([]*note.Note, error) {
	notes, err := s.noteRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("notes snapshot: %w", err)
	}
	note.SortForDisplay(notes)
	return notes, nil
}

// Tasks returns the user's tasks in display order: pending first, then by
// due date ascending, undated tasks last.
func (s *SnapshotService) Tasks(ctx context.Context, userID string) ([]*task.Task, error) {
	tasks, err := s.taskRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("tasks snapshot: %w", err)
	}
	task.SortForDisplay(tasks)
	return tasks, nil
}

// Schedule returns the user's weekly schedule ordered by start time.
func (s *SnapshotService) Schedule(ctx context.Context, userID string) ([]*schedule.Entry, error) {
	entries, err := s.scheduleRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("schedule snapshot: %w", err)
	}
	schedule.SortForDisplay(entries)
	return entries, nil
}

// Grades returns the user's grade records ordered by semester, then subject.
func (s *SnapshotService) Grades(ctx context.Context, userID string) ([]*grade.Record, error) {
	records, err := s.gradeRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("grades snapshot: %w", err)
	}
	grade.SortForDisplay(records)
	return records, nil
}

// FocusSessions returns the user's focus sessions, most recent first.
func (s *SnapshotService) FocusSessions(ctx context.Context, userID string) ([]*focus.Session, error) {
	sessions, err := s.focusRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("focus snapshot: %w", err)
	}
	focus.SortForDisplay(sessions)
	return sessions, nil
}

// Profile returns the user's profile.
func (s *SnapshotService) Profile(ctx context.Context, userID string) (*profile.Profile, error) {
	return s.profileRepo.GetByUserID(ctx, userID)
}

// ByCollection dispatches a snapshot read by collection name. The live query
// hub uses this to re-read after every change notification.
func (s *SnapshotService) ByCollection(ctx context.Context, collection, userID string) (interface{}, error) {
	switch collection {
	case note.Collection:
		return s.Notes(ctx, userID)
	case task.Collection:
		return s.Tasks(ctx, userID)
	case schedule.Collection:
		return s.Schedule(ctx, userID)
	case grade.Collection:
		return s.Grades(ctx, userID)
	case focus.Collection:
		return s.FocusSessions(ctx, userID)
	case profile.Collection:
		return s.Profile(ctx, userID)
	default:
		return nil, shared.NewDomainError("query", "Snapshot", shared.ErrInvalidInput,
			fmt.Sprintf("unknown collection %q", collection))
	}
}
