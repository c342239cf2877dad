package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/orbit-hub/orbit-student-hub/internal/application/command"
	"github.com/orbit-hub/orbit-student-hub/internal/domain/note"
	"github.com/orbit-hub/orbit-student-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// NOTES
// ══════════════════════════════════════════════════════════════════════════════

// handleListNotes handles GET /api/v1/notes
func (s *Server) handleListNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := s.deps.Snapshots.Notes(r.Context(), userID(r.Context()))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newNoteViews(notes))
}

type noteRequest struct {
	Title   string `json:"title" validate:"required,max=200"`
	Content string `json:"content"`
	Color   string `json:"color" validate:"max=30"`
}

// handleCreateNote handles POST /api/v1/notes
func (s *Server) handleCreateNote(w http.ResponseWriter, r *http.Request) {
	var req noteRequest
	if !s.decode(w, r, &req) {
		return
	}

	n, err := s.deps.Notes.Create(r.Context(), command.CreateNoteCommand{
		UserID:  userID(r.Context()),
		Title:   req.Title,
		Content: req.Content,
		Color:   req.Color,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newNoteView(n))
}

// handleUpdateNote handles PUT /api/v1/notes/{id}
func (s *Server) handleUpdateNote(w http.ResponseWriter, r *http.Request) {
	var req noteRequest
	if !s.decode(w, r, &req) {
		return
	}

	n, err := s.deps.Notes.Update(r.Context(), command.UpdateNoteCommand{
		UserID:  userID(r.Context()),
		NoteID:  r.PathValue("id"),
		Title:   req.Title,
		Content: req.Content,
		Color:   req.Color,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newNoteView(n))
}

// handleDeleteNote handles DELETE /api/v1/notes/{id}
func (s *Server) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	err := s.deps.Notes.Delete(r.Context(), command.DeleteNoteCommand{
		UserID: userID(r.Context()),
		NoteID: r.PathValue("id"),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ownedNote loads a note for the assistant routes and checks ownership.
// Foreign notes read as not-found so IDs cannot be probed.
func (s *Server) ownedNote(ctx context.Context, uid, noteID string) (*note.Note, error) {
	n, err := s.deps.NoteReader.GetByID(ctx, noteID)
	if err != nil {
		return nil, err
	}
	if n.UserID != uid {
		return nil, shared.ErrNoteNotFound
	}
	return n, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// TASKS
// ══════════════════════════════════════════════════════════════════════════════

// handleListTasks handles GET /api/v1/tasks
func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.deps.Snapshots.Tasks(r.Context(), userID(r.Context()))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newTaskViews(tasks))
}

type createTaskRequest struct {
	Title          string `json:"title" validate:"required,max=200"`
	DueDate        string `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
	SyncToCalendar bool   `json:"sync_to_calendar"`
}

type createTaskResponse struct {
	Task            taskView `json:"task"`
	ExportedToCal   bool     `json:"exported_to_calendar"`
	CalendarWarning string   `json:"calendar_warning,omitempty"`
}

// handleCreateTask handles POST /api/v1/tasks. A failed calendar export
// never fails the request; the warning rides along in the response.
func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if !s.decode(w, r, &req) {
		return
	}

	result, err := s.deps.Tasks.Create(r.Context(), command.CreateTaskCommand{
		UserID:         userID(r.Context()),
		Title:          req.Title,
		DueDate:        req.DueDate,
		SyncToCalendar: req.SyncToCalendar,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	resp := createTaskResponse{
		Task:          newTaskView(result.Task),
		ExportedToCal: result.ExportedToCal,
	}
	if result.CalendarWarning != nil {
		resp.CalendarWarning = calendarWarningMessage(result.CalendarWarning)
	}
	writeJSON(w, http.StatusCreated, resp)
}

// calendarWarningMessage renders a non-fatal export failure for the client.
func calendarWarningMessage(err error) string {
	var derr *shared.DomainError
	if errors.As(err, &derr) {
		return derr.Message
	}
	return "calendar export failed"
}

// handleToggleTask handles POST /api/v1/tasks/{id}/toggle
func (s *Server) handleToggleTask(w http.ResponseWriter, r *http.Request) {
	t, err := s.deps.Tasks.Toggle(r.Context(), command.ToggleTaskCommand{
		UserID: userID(r.Context()),
		TaskID: r.PathValue("id"),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newTaskView(t))
}

// handleDeleteTask handles DELETE /api/v1/tasks/{id}
func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	err := s.deps.Tasks.Delete(r.Context(), command.DeleteTaskCommand{
		UserID: userID(r.Context()),
		TaskID: r.PathValue("id"),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ══════════════════════════════════════════════════════════════════════════════
// SCHEDULE
// ══════════════════════════════════════════════════════════════════════════════

// handleListSchedule handles GET /api/v1/schedule
func (s *Server) handleListSchedule(w http.ResponseWriter, r *http.Request) {
	entries, err := s.deps.Snapshots.Schedule(r.Context(), userID(r.Context()))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newClassViews(entries))
}

type addClassRequest struct {
	Day       string `json:"day" validate:"required"`
	Subject   string `json:"subject" validate:"required,max=120"`
	TimeRange string `json:"time_range" validate:"required,max=40"`
	Venue     string `json:"venue" validate:"max=120"`
}

// handleAddClass handles POST /api/v1/schedule
func (s *Server) handleAddClass(w http.ResponseWriter, r *http.Request) {
	var req addClassRequest
	if !s.decode(w, r, &req) {
		return
	}

	e, err := s.deps.Schedule.AddClass(r.Context(), command.AddClassCommand{
		UserID:    userID(r.Context()),
		Day:       req.Day,
		Subject:   req.Subject,
		TimeRange: req.TimeRange,
		Venue:     req.Venue,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newClassView(e))
}

// handleDeleteClass handles DELETE /api/v1/schedule/{id}
func (s *Server) handleDeleteClass(w http.ResponseWriter, r *http.Request) {
	err := s.deps.Schedule.DeleteClass(r.Context(), command.DeleteClassCommand{
		UserID:  userID(r.Context()),
		EntryID: r.PathValue("id"),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ══════════════════════════════════════════════════════════════════════════════
// GRADES
// ══════════════════════════════════════════════════════════════════════════════

// handleListGrades handles GET /api/v1/grades
func (s *Server) handleListGrades(w http.ResponseWriter, r *http.Request) {
	records, err := s.deps.Snapshots.Grades(r.Context(), userID(r.Context()))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newGradeViews(records))
}

type addGradeRequest struct {
	Semester int    `json:"semester" validate:"required,min=1,max=14"`
	Subject  string `json:"subject" validate:"required,max=120"`
	Credits  int    `json:"credits" validate:"required,min=1,max=10"`
	Grade    string `json:"grade" validate:"required"`
}

// handleAddGrade handles POST /api/v1/grades. The grade point derives from
// the letter grade server-side; clients never send numeric points.
func (s *Server) handleAddGrade(w http.ResponseWriter, r *http.Request) {
	var req addGradeRequest
	if !s.decode(w, r, &req) {
		return
	}

	record, err := s.deps.Grades.AddGrade(r.Context(), command.AddGradeCommand{
		UserID:   userID(r.Context()),
		Semester: req.Semester,
		Subject:  req.Subject,
		Credits:  req.Credits,
		Grade:    req.Grade,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newGradeView(record))
}

// handleDeleteGrade handles DELETE /api/v1/grades/{id}
func (s *Server) handleDeleteGrade(w http.ResponseWriter, r *http.Request) {
	err := s.deps.Grades.DeleteGrade(r.Context(), command.DeleteGradeCommand{
		UserID:  userID(r.Context()),
		GradeID: r.PathValue("id"),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleAcademicSummary handles GET /api/v1/grades/summary
func (s *Server) handleAcademicSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.deps.Stats.AcademicSummary(r.Context(), userID(r.Context()))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newAcademicSummaryView(summary))
}

// ══════════════════════════════════════════════════════════════════════════════
// FOCUS SESSIONS
// ══════════════════════════════════════════════════════════════════════════════

// handleListFocus handles GET /api/v1/focus
func (s *Server) handleListFocus(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.deps.Snapshots.FocusSessions(r.Context(), userID(r.Context()))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newFocusViews(sessions))
}

type recordFocusRequest struct {
	DurationMinutes int `json:"duration_minutes" validate:"omitempty,min=1,max=480"`
}

// handleRecordFocus handles POST /api/v1/focus. Timing runs on the client;
// the server only records finished sessions.
func (s *Server) handleRecordFocus(w http.ResponseWriter, r *http.Request) {
	var req recordFocusRequest
	if !s.decode(w, r, &req) {
		return
	}

	session, err := s.deps.Focus.Record(r.Context(), command.RecordFocusSessionCommand{
		UserID:          userID(r.Context()),
		DurationMinutes: req.DurationMinutes,
		CompletedAt:     time.Now(),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newFocusView(session))
}

// handleDeleteFocus handles DELETE /api/v1/focus/{id}
func (s *Server) handleDeleteFocus(w http.ResponseWriter, r *http.Request) {
	err := s.deps.Focus.Delete(r.Context(), command.DeleteFocusSessionCommand{
		UserID:    userID(r.Context()),
		SessionID: r.PathValue("id"),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleWeeklyFocus handles GET /api/v1/focus/weekly
func (s *Server) handleWeeklyFocus(w http.ResponseWriter, r *http.Request) {
	weekly, err := s.deps.Stats.WeeklyFocus(r.Context(), userID(r.Context()), time.Now())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newWeeklyFocusView(weekly))
}

// ══════════════════════════════════════════════════════════════════════════════
// PROFILE
// ══════════════════════════════════════════════════════════════════════════════

// handleGetProfile handles GET /api/v1/profile
func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.deps.Snapshots.Profile(r.Context(), userID(r.Context()))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newProfileView(p))
}

type updateProfileRequest struct {
	DisplayName   string `json:"display_name" validate:"required,max=60"`
	Major         string `json:"major" validate:"max=120"`
	CurrentFocus  string `json:"current_focus" validate:"max=200"`
	LearningStyle string `json:"learning_style" validate:"omitempty,oneof=Casual Formal Creative Academic"`
}

// handleUpdateProfile handles PUT /api/v1/profile. XP, level, and badges
// are owned by the gamification handlers and cannot be written here.
func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if !s.decode(w, r, &req) {
		return
	}

	p, err := s.deps.Profile.Update(r.Context(), command.UpdateProfileCommand{
		UserID:        userID(r.Context()),
		DisplayName:   req.DisplayName,
		Major:         req.Major,
		CurrentFocus:  req.CurrentFocus,
		LearningStyle: req.LearningStyle,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newProfileView(p))
}
