package http

import (
	"time"

	"github.com/orbit-hub/orbit-student-hub/internal/domain/focus"
	"github.com/orbit-hub/orbit-student-hub/internal/domain/grade"
	"github.com/orbit-hub/orbit-student-hub/internal/domain/identity"
	"github.com/orbit-hub/orbit-student-hub/internal/domain/note"
	"github.com/orbit-hub/orbit-student-hub/internal/domain/profile"
	"github.com/orbit-hub/orbit-student-hub/internal/domain/schedule"
	"github.com/orbit-hub/orbit-student-hub/internal/domain/task"
	"github.com/orbit-hub/orbit-student-hub/pkg/timeutil"
)

// View models returned by the API. Domain entities carry no JSON tags;
// the wire shape is decided here.

type userView struct {
	ID          string    `json:"id"`
	Email       string    `json:"email,omitempty"`
	Guest       bool      `json:"guest"`
	CreatedAt   time.Time `json:"created_at"`
	LastLoginAt time.Time `json:"last_login_at,omitempty"`
}

func newUserView(u *identity.User) userView {
	return userView{
		ID:          u.ID,
		Email:       u.Email.String(),
		Guest:       u.Guest,
		CreatedAt:   u.CreatedAt,
		LastLoginAt: u.LastLoginAt,
	}
}

type sessionView struct {
	User      userView  `json:"user"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type noteView struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Color     string    `json:"color,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newNoteView(n *note.Note) noteView {
	return noteView{
		ID:        n.ID,
		Title:     n.Title,
		Content:   n.Content,
		Color:     n.Color,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}

func newNoteViews(notes []*note.Note) []noteView {
	views := make([]noteView, 0, len(notes))
	for _, n := range notes {
		views = append(views, newNoteView(n))
	}
	return views
}

type taskView struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	DueDate   *string   `json:"due_date,omitempty"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"created_at"`
}

func newTaskView(t *task.Task) taskView {
	v := taskView{
		ID:        t.ID,
		Title:     t.Title,
		Completed: t.Completed,
		CreatedAt: t.CreatedAt,
	}
	if t.DueDate != nil {
		due := timeutil.FormatDate(*t.DueDate)
		v.DueDate = &due
	}
	return v
}

func newTaskViews(tasks []*task.Task) []taskView {
	views := make([]taskView, 0, len(tasks))
	for _, t := range tasks {
		views = append(views, newTaskView(t))
	}
	return views
}

type classView struct {
	ID        string `json:"id"`
	Day       string `json:"day"`
	Subject   string `json:"subject"`
	TimeRange string `json:"time_range"`
	Venue     string `json:"venue,omitempty"`
}

func newClassView(e *schedule.Entry) classView {
	return classView{
		ID:        e.ID,
		Day:       string(e.Day),
		Subject:   e.Subject,
		TimeRange: e.TimeRange,
		Venue:     e.Venue,
	}
}

func newClassViews(entries []*schedule.Entry) []classView {
	views := make([]classView, 0, len(entries))
	for _, e := range entries {
		views = append(views, newClassView(e))
	}
	return views
}

type gradeView struct {
	ID       string  `json:"id"`
	Semester int     `json:"semester"`
	Subject  string  `json:"subject"`
	Credits  int     `json:"credits"`
	Grade    string  `json:"grade"`
	Point    float64 `json:"point"`
}

func newGradeView(r *grade.Record) gradeView {
	return gradeView{
		ID:       r.ID,
		Semester: r.Semester,
		Subject:  r.Subject,
		Credits:  r.Credits,
		Grade:    string(r.Grade),
		Point:    r.Point,
	}
}

func newGradeViews(records []*grade.Record) []gradeView {
	views := make([]gradeView, 0, len(records))
	for _, r := range records {
		views = append(views, newGradeView(r))
	}
	return views
}

type focusView struct {
	ID              string    `json:"id"`
	DurationMinutes int       `json:"duration_minutes"`
	CompletedAt     time.Time `json:"completed_at"`
}

func newFocusView(s *focus.Session) focusView {
	return focusView{
		ID:              s.ID,
		DurationMinutes: s.DurationMinutes,
		CompletedAt:     s.CompletedAt,
	}
}

func newFocusViews(sessions []*focus.Session) []focusView {
	views := make([]focusView, 0, len(sessions))
	for _, s := range sessions {
		views = append(views, newFocusView(s))
	}
	return views
}

type profileView struct {
	UserID        string   `json:"user_id"`
	DisplayName   string   `json:"display_name"`
	Major         string   `json:"major,omitempty"`
	CurrentFocus  string   `json:"current_focus,omitempty"`
	LearningStyle string   `json:"learning_style"`
	CurrentXP     int      `json:"current_xp"`
	Level         int      `json:"level"`
	XPToNext      int      `json:"xp_to_next"`
	Badges        []string `json:"badges"`
}

func newProfileView(p *profile.Profile) profileView {
	badges := p.Badges
	if badges == nil {
		badges = []string{}
	}
	return profileView{
		UserID:        p.UserID,
		DisplayName:   p.DisplayName,
		Major:         p.Major,
		CurrentFocus:  p.CurrentFocus,
		LearningStyle: string(p.LearningStyle),
		CurrentXP:     int(p.CurrentXP),
		Level:         int(p.Level()),
		XPToNext:      int(profile.XPToNextLevel(p.CurrentXP)),
		Badges:        badges,
	}
}

// collectionView converts a snapshot payload from the query layer into
// its wire form. The SSE stream uses it so live deliveries match the
// shapes of the REST list endpoints.
func collectionView(collection string, data interface{}) interface{} {
	switch v := data.(type) {
	case []*note.Note:
		return newNoteViews(v)
	case []*task.Task:
		return newTaskViews(v)
	case []*schedule.Entry:
		return newClassViews(v)
	case []*grade.Record:
		return newGradeViews(v)
	case []*focus.Session:
		return newFocusViews(v)
	case *profile.Profile:
		return newProfileView(v)
	default:
		return data
	}
}
