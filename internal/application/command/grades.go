package command

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/orbit-hub/orbit-student-hub/internal/domain/grade"
	"github.com/orbit-hub/orbit-student-hub/internal/domain/shared"
	"github.com/orbit-hub/orbit-student-hub/pkg/logger"
)

// AddGradeCommand contains the data needed to record a course grade.
type AddGradeCommand struct {
	UserID   string
	Semester int
	Subject  string
	Credits  int
	Grade    string
}

// DeleteGradeCommand identifies the grade record to delete.
type DeleteGradeCommand struct {
	UserID  string
	GradeID string
}

// GradeHandler handles grade write commands.
type GradeHandler struct {
	gradeRepo grade.Repository
	publisher shared.EventPublisher
	log       *logger.Logger
}

// NewGradeHandler creates a new GradeHandler.
func NewGradeHandler(gradeRepo grade.Repository, publisher shared.EventPublisher, log *logger.Logger) *GradeHandler {
	return &GradeHandler{
		gradeRepo: gradeRepo,
		publisher: publisher,
		log:       log.With(logger.Component("command.grades")),
	}
}

// AddGrade records a graded course. The grade point derives from the letter
// grade inside the domain; clients never send numeric points.
func (h *GradeHandler) AddGrade(ctx context.Context, cmd AddGradeCommand) (*grade.Record, error) {
	if cmd.UserID == "" {
		return nil, shared.NewDomainError("grade", "AddGrade", shared.ErrInvalidID, "user id is required")
	}

	r, err := grade.NewRecord(grade.NewRecordParams{
		ID:       uuid.NewString(),
		UserID:   cmd.UserID,
		Semester: cmd.Semester,
		Subject:  cmd.Subject,
		Credits:  cmd.Credits,
		Grade:    grade.Letter(cmd.Grade),
	})
	if err != nil {
		return nil, err
	}

	if err := h.gradeRepo.Create(ctx, r); err != nil {
		return nil, fmt.Errorf("add grade: %w", err)
	}

	h.notifyChanged(cmd.UserID)
	return r, nil
}

// DeleteGrade removes a grade record. The record must belong to the caller.
func (h *GradeHandler) DeleteGrade(ctx context.Context, cmd DeleteGradeCommand) error {
	r, err := h.gradeRepo.GetByID(ctx, cmd.GradeID)
	if err != nil {
		return err
	}
	if r.UserID != cmd.UserID {
		return shared.ErrGradeNotFound
	}

	if err := h.gradeRepo.Delete(ctx, cmd.GradeID); err != nil {
		return fmt.Errorf("delete grade: %w", err)
	}

	h.notifyChanged(cmd.UserID)
	return nil
}

func (h *GradeHandler) notifyChanged(userID string) {
	if err := h.publisher.Publish(shared.NewCollectionChangedEvent(grade.Collection, userID)); err != nil {
		h.log.Warn("failed to publish collection change", logger.Err(err), logger.UserID(userID))
	}
}
