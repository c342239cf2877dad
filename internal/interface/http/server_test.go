package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbit-hub/orbit-student-hub/internal/application/command"
	"github.com/orbit-hub/orbit-student-hub/internal/application/query"
	"github.com/orbit-hub/orbit-student-hub/internal/application/saga"
	"github.com/orbit-hub/orbit-student-hub/internal/domain/focus"
	"github.com/orbit-hub/orbit-student-hub/internal/domain/grade"
	"github.com/orbit-hub/orbit-student-hub/internal/domain/identity"
	"github.com/orbit-hub/orbit-student-hub/internal/domain/note"
	"github.com/orbit-hub/orbit-student-hub/internal/domain/profile"
	"github.com/orbit-hub/orbit-student-hub/internal/domain/schedule"
	"github.com/orbit-hub/orbit-student-hub/internal/domain/shared"
	"github.com/orbit-hub/orbit-student-hub/internal/domain/task"
	"github.com/orbit-hub/orbit-student-hub/internal/infrastructure/external/assistant"
	auth "github.com/orbit-hub/orbit-student-hub/internal/infrastructure/identity"
	"github.com/orbit-hub/orbit-student-hub/internal/infrastructure/messaging"
	"github.com/orbit-hub/orbit-student-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// IN-MEMORY REPOSITORIES
// ══════════════════════════════════════════════════════════════════════════════

type memUsers struct {
	mu      sync.Mutex
	byID    map[string]*identity.User
	byEmail map[string]*identity.User
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[string]*identity.User{}, byEmail: map[string]*identity.User{}}
}

func (m *memUsers) Create(_ context.Context, u *identity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[u.ID] = u
	if u.Email != "" {
		m.byEmail[u.Email.String()] = u
	}
	return nil
}

func (m *memUsers) Update(_ context.Context, u *identity.User) error {
	return m.Create(context.Background(), u)
}

func (m *memUsers) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.byID[id]; ok {
		delete(m.byEmail, u.Email.String())
		delete(m.byID, id)
	}
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (*identity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.byID[id]; ok {
		return u, nil
	}
	return nil, shared.ErrUserNotFound
}

func (m *memUsers) GetByEmail(_ context.Context, email identity.Email) (*identity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.byEmail[email.String()]; ok {
		return u, nil
	}
	return nil, shared.ErrUserNotFound
}

type memNotes struct {
	mu    sync.Mutex
	items map[string]*note.Note
}

func newMemNotes() *memNotes { return &memNotes{items: map[string]*note.Note{}} }

func (m *memNotes) Create(_ context.Context, n *note.Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[n.ID] = n
	return nil
}

func (m *memNotes) Update(_ context.Context, n *note.Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[n.ID]; !ok {
		return shared.ErrNoteNotFound
	}
	m.items[n.ID] = n
	return nil
}

func (m *memNotes) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return shared.ErrNoteNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *memNotes) GetByID(_ context.Context, id string) (*note.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n, ok := m.items[id]; ok {
		return n, nil
	}
	return nil, shared.ErrNoteNotFound
}

func (m *memNotes) ListByUser(_ context.Context, userID string) ([]*note.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*note.Note
	for _, n := range m.items {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

type memTasks struct {
	mu    sync.Mutex
	items map[string]*task.Task
}

func newMemTasks() *memTasks { return &memTasks{items: map[string]*task.Task{}} }

func (m *memTasks) Create(_ context.Context, t *task.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[t.ID] = t
	return nil
}

func (m *memTasks) Update(_ context.Context, t *task.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[t.ID]; !ok {
		return shared.ErrTaskNotFound
	}
	m.items[t.ID] = t
	return nil
}

func (m *memTasks) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return shared.ErrTaskNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *memTasks) GetByID(_ context.Context, id string) (*task.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.items[id]; ok {
		return t, nil
	}
	return nil, shared.ErrTaskNotFound
}

func (m *memTasks) ListByUser(_ context.Context, userID string) ([]*task.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*task.Task
	for _, t := range m.items {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

type memSchedule struct {
	mu    sync.Mutex
	items map[string]*schedule.Entry
}

func newMemSchedule() *memSchedule { return &memSchedule{items: map[string]*schedule.Entry{}} }

func (m *memSchedule) Create(_ context.Context, e *schedule.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[e.ID] = e
	return nil
}

func (m *memSchedule) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return shared.ErrClassNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *memSchedule) GetByID(_ context.Context, id string) (*schedule.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.items[id]; ok {
		return e, nil
	}
	return nil, shared.ErrClassNotFound
}

func (m *memSchedule) ListByUser(_ context.Context, userID string) ([]*schedule.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*schedule.Entry
	for _, e := range m.items {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

type memGrades struct {
	mu    sync.Mutex
	items map[string]*grade.Record
}

func newMemGrades() *memGrades { return &memGrades{items: map[string]*grade.Record{}} }

func (m *memGrades) Create(_ context.Context, r *grade.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[r.ID] = r
	return nil
}

func (m *memGrades) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return shared.ErrGradeNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *memGrades) GetByID(_ context.Context, id string) (*grade.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.items[id]; ok {
		return r, nil
	}
	return nil, shared.ErrGradeNotFound
}

func (m *memGrades) ListByUser(_ context.Context, userID string) ([]*grade.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*grade.Record
	for _, r := range m.items {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

type memFocus struct {
	mu    sync.Mutex
	items map[string]*focus.Session
}

func newMemFocus() *memFocus { return &memFocus{items: map[string]*focus.Session{}} }

func (m *memFocus) Create(_ context.Context, s *focus.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[s.ID] = s
	return nil
}

func (m *memFocus) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return shared.ErrSessionNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *memFocus) ListByUser(_ context.Context, userID string) ([]*focus.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*focus.Session
	for _, s := range m.items {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

type memProfiles struct {
	mu    sync.Mutex
	items map[string]*profile.Profile
}

func newMemProfiles() *memProfiles { return &memProfiles{items: map[string]*profile.Profile{}} }

func (m *memProfiles) Create(_ context.Context, p *profile.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[p.UserID] = p
	return nil
}

func (m *memProfiles) Update(_ context.Context, p *profile.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[p.UserID]; !ok {
		return shared.ErrProfileNotFound
	}
	m.items[p.UserID] = p
	return nil
}

func (m *memProfiles) GetByUserID(_ context.Context, userID string) (*profile.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.items[userID]; ok {
		return p, nil
	}
	return nil, shared.ErrProfileNotFound
}

// ══════════════════════════════════════════════════════════════════════════════
// FAKE INTEGRATIONS
// ══════════════════════════════════════════════════════════════════════════════

type fakeAssistant struct {
	proposals []assistant.TaskProposal
	questions []assistant.QuizQuestion
	fixed     string
	summary   string
	err       error
}

func (f *fakeAssistant) BreakdownTask(_ context.Context, _, _ string) ([]assistant.TaskProposal, error) {
	return f.proposals, f.err
}

func (f *fakeAssistant) GenerateQuiz(_ context.Context, _ string, _ *profile.Profile) ([]assistant.QuizQuestion, error) {
	return f.questions, f.err
}

func (f *fakeAssistant) FixGrammar(_ context.Context, _ string) (string, error) {
	return f.fixed, f.err
}

func (f *fakeAssistant) Summarize(_ context.Context, _ string, _ *profile.Profile) (string, error) {
	return f.summary, f.err
}

type fakeCalendar struct {
	mu           sync.Mutex
	callbackUser string
	callbackCode string
	disconnected string
}

func (f *fakeCalendar) AuthURL(state string) string {
	return "https://consent.example/auth?state=" + url.QueryEscape(state)
}

func (f *fakeCalendar) HandleCallback(_ context.Context, userID, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callbackUser = userID
	f.callbackCode = code
	return nil
}

func (f *fakeCalendar) Disconnect(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnected = userID
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// TEST HARNESS
// ══════════════════════════════════════════════════════════════════════════════

type testEnv struct {
	server    *Server
	assistant *fakeAssistant
	calendar  *fakeCalendar
	notes     *memNotes
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	log := logger.NewNop()
	users := newMemUsers()
	notes := newMemNotes()
	tasks := newMemTasks()
	classes := newMemSchedule()
	grades := newMemGrades()
	sessions := newMemFocus()
	profiles := newMemProfiles()

	// Synchronous bus keeps live-query delivery deterministic in tests.
	bus := messaging.NewInMemoryEventBus(messaging.InMemoryEventBusConfig{AsyncMode: false})

	snapshots := query.NewSnapshotService(notes, tasks, classes, grades, sessions, profiles)
	hub := messaging.NewLiveQueryHub(snapshots, nil)
	require.NoError(t, hub.Register(bus))
	t.Cleanup(hub.CloseAll)

	identitySvc, err := auth.NewService(auth.ServiceConfig{
		JWTSecret: "test-secret",
		Users:     users,
		Publisher: bus,
	})
	require.NoError(t, err)

	fakeAI := &fakeAssistant{}
	fakeCal := &fakeCalendar{}

	env := &testEnv{
		assistant: fakeAI,
		calendar:  fakeCal,
		notes:     notes,
	}

	cfg := DefaultConfig()
	cfg.RateLimitPerMinute = 0

	env.server = NewServer(cfg, Dependencies{
		Onboarding: saga.NewOnboardingSaga(users, profiles, bus, log),
		Notes:      command.NewNoteHandler(notes, bus, log),
		Tasks:      command.NewTaskHandler(tasks, nil, bus, log),
		Schedule:   command.NewScheduleHandler(classes, bus, log),
		Grades:     command.NewGradeHandler(grades, bus, log),
		Focus:      command.NewFocusHandler(sessions, bus, log),
		Profile:    command.NewProfileHandler(profiles, bus, log),
		Snapshots:  snapshots,
		Dashboard:  query.NewDashboardHandler(snapshots, nil, log),
		Stats:      query.NewStatsHandler(snapshots),
		Identity:   identitySvc,
		Google:     fakeCal,
		Assistant:  fakeAI,
		NoteReader: notes,
		Hub:        hub,
		Logger:     log,
	})
	return env
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	return rec
}

// data decodes the "data" member of the response envelope into out.
func data(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NoError(t, json.Unmarshal(envelope.Data, out))
}

func (e *testEnv) register(t *testing.T, email string) (token, uid string) {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email":        email,
		"password":     "rahasia123",
		"display_name": "Sinta",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var session sessionView
	data(t, rec, &session)
	return session.Token, session.User.ID
}

// ══════════════════════════════════════════════════════════════════════════════
// AUTH TESTS
// ══════════════════════════════════════════════════════════════════════════════

func TestRegisterThenLogin(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "sinta@kampus.ac.id")

	rec := env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "sinta@kampus.ac.id",
		"password": "rahasia123",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var session sessionView
	data(t, rec, &session)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, "sinta@kampus.ac.id", session.User.Email)
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "sinta@kampus.ac.id")

	rec := env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "sinta@kampus.ac.id",
		"password": "salah-total",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "sinta@kampus.ac.id")

	rec := env.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email":    "sinta@kampus.ac.id",
		"password": "rahasia123",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestGuestSessionWorks(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/auth/guest", "", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var session sessionView
	data(t, rec, &session)
	assert.True(t, session.User.Guest)

	// Guest sessions can use the app but cannot connect a calendar.
	rec = env.do(t, http.MethodGet, "/api/v1/auth/google/url", session.Token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/notes", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/notes", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMeReturnsProfile(t *testing.T) {
	env := newTestEnv(t)
	token, uid := env.register(t, "sinta@kampus.ac.id")

	rec := env.do(t, http.MethodGet, "/api/v1/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var me struct {
		UserID  string      `json:"user_id"`
		Guest   bool        `json:"guest"`
		Profile profileView `json:"profile"`
	}
	data(t, rec, &me)
	assert.Equal(t, uid, me.UserID)
	assert.False(t, me.Guest)
	assert.Equal(t, "Sinta", me.Profile.DisplayName)
	assert.Equal(t, 1, me.Profile.Level)
}

func TestGoogleConsentFlow(t *testing.T) {
	env := newTestEnv(t)
	token, uid := env.register(t, "sinta@kampus.ac.id")

	rec := env.do(t, http.MethodGet, "/api/v1/auth/google/url", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		URL string `json:"url"`
	}
	data(t, rec, &resp)

	parsed, err := url.Parse(resp.URL)
	require.NoError(t, err)
	state := parsed.Query().Get("state")
	require.NotEmpty(t, state)

	rec = env.do(t, http.MethodGet, "/api/v1/auth/google/callback?state="+state+"&code=4/abc", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, uid, env.calendar.callbackUser)
	assert.Equal(t, "4/abc", env.calendar.callbackCode)

	// State is one-time use.
	rec = env.do(t, http.MethodGet, "/api/v1/auth/google/callback?state="+state+"&code=4/abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ══════════════════════════════════════════════════════════════════════════════
// COLLECTION TESTS
// ══════════════════════════════════════════════════════════════════════════════

func TestNoteLifecycle(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.register(t, "sinta@kampus.ac.id")

	rec := env.do(t, http.MethodPost, "/api/v1/notes", token, map[string]string{
		"title":   "Catatan Biologi",
		"content": "Fotosintesis terjadi di kloroplas.",
		"color":   "green",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created noteView
	data(t, rec, &created)
	require.NotEmpty(t, created.ID)

	rec = env.do(t, http.MethodPut, "/api/v1/notes/"+created.ID, token, map[string]string{
		"title":   "Catatan Biologi",
		"content": "Fotosintesis terjadi di kloroplas. Klorofil menyerap cahaya.",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/notes", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed []noteView
	data(t, rec, &listed)
	require.Len(t, listed, 1)
	assert.Contains(t, listed[0].Content, "Klorofil")

	rec = env.do(t, http.MethodDelete, "/api/v1/notes/"+created.ID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/notes", token, nil)
	data(t, rec, &listed)
	assert.Empty(t, listed)
}

func TestNoteOwnershipReadsAsNotFound(t *testing.T) {
	env := newTestEnv(t)
	tokenA, _ := env.register(t, "sinta@kampus.ac.id")
	tokenB, _ := env.register(t, "budi@kampus.ac.id")

	rec := env.do(t, http.MethodPost, "/api/v1/notes", tokenA, map[string]string{"title": "Milik Sinta"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created noteView
	data(t, rec, &created)

	rec = env.do(t, http.MethodPut, "/api/v1/notes/"+created.ID, tokenB, map[string]string{"title": "Dicuri"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestValidationFailures(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.register(t, "sinta@kampus.ac.id")

	// Missing note title.
	rec := env.do(t, http.MethodPost, "/api/v1/notes", token, map[string]string{"content": "tanpa judul"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Malformed due date.
	rec = env.do(t, http.MethodPost, "/api/v1/tasks", token, map[string]string{
		"title":    "Tugas",
		"due_date": "09-03-2026",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Semester out of range.
	rec = env.do(t, http.MethodPost, "/api/v1/grades", token, map[string]interface{}{
		"semester": 99,
		"subject":  "Kalkulus",
		"credits":  3,
		"grade":    "A",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTaskToggleFeedsStats(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.register(t, "sinta@kampus.ac.id")

	rec := env.do(t, http.MethodPost, "/api/v1/tasks", token, map[string]string{"title": "Baca bab 4"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created createTaskResponse
	data(t, rec, &created)

	rec = env.do(t, http.MethodPost, "/api/v1/tasks/"+created.Task.ID+"/toggle", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var toggled taskView
	data(t, rec, &toggled)
	assert.True(t, toggled.Completed)

	rec = env.do(t, http.MethodGet, "/api/v1/stats", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var stats struct {
		Tasks taskProgressView `json:"tasks"`
	}
	data(t, rec, &stats)
	assert.Equal(t, 1, stats.Tasks.Completed)
	assert.Equal(t, 1, stats.Tasks.Total)
}

func TestCreateTaskCalendarWarningIsNonFatal(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.register(t, "sinta@kampus.ac.id")

	// No calendar exporter is wired; the task must still be created.
	rec := env.do(t, http.MethodPost, "/api/v1/tasks", token, map[string]interface{}{
		"title":            "Kumpulkan esai",
		"due_date":         "2026-03-09",
		"sync_to_calendar": true,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp createTaskResponse
	data(t, rec, &resp)
	assert.False(t, resp.ExportedToCal)
	assert.NotEmpty(t, resp.CalendarWarning)
	require.NotNil(t, resp.Task.DueDate)
	assert.Equal(t, "2026-03-09", *resp.Task.DueDate)
}

func TestGradeSummary(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.register(t, "sinta@kampus.ac.id")

	for _, g := range []map[string]interface{}{
		{"semester": 1, "subject": "Kalkulus", "credits": 3, "grade": "A"},
		{"semester": 1, "subject": "Fisika", "credits": 2, "grade": "B"},
	} {
		rec := env.do(t, http.MethodPost, "/api/v1/grades", token, g)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := env.do(t, http.MethodGet, "/api/v1/grades/summary", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var summary academicSummaryView
	data(t, rec, &summary)
	assert.Equal(t, 5, summary.TotalCredits)
	assert.InDelta(t, 3.6, summary.GPA, 0.001)
}

func TestFocusRecordAndWeekly(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.register(t, "sinta@kampus.ac.id")

	rec := env.do(t, http.MethodPost, "/api/v1/focus", token, map[string]int{"duration_minutes": 25})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/v1/focus/weekly", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var weekly weeklyFocusView
	data(t, rec, &weekly)
	assert.Equal(t, 25, weekly.TotalMinutes)
}

func TestUpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.register(t, "sinta@kampus.ac.id")

	rec := env.do(t, http.MethodPut, "/api/v1/profile", token, map[string]string{
		"display_name":   "Sinta Dewi",
		"major":          "Informatika",
		"learning_style": "Academic",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var p profileView
	data(t, rec, &p)
	assert.Equal(t, "Sinta Dewi", p.DisplayName)
	assert.Equal(t, "Academic", p.LearningStyle)
}

func TestDashboard(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.register(t, "sinta@kampus.ac.id")

	rec := env.do(t, http.MethodGet, "/api/v1/dashboard", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var d dashboardView
	data(t, rec, &d)
	assert.Equal(t, "Sinta", d.DisplayName)
	assert.NotEmpty(t, d.Greeting)
	assert.Equal(t, 1, d.Level)
}

// ══════════════════════════════════════════════════════════════════════════════
// ASSISTANT ROUTE TESTS
// ══════════════════════════════════════════════════════════════════════════════

func TestBreakdownCreatesTasks(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.register(t, "sinta@kampus.ac.id")

	env.assistant.proposals = []assistant.TaskProposal{
		{Title: "Riset topik", DaysFromNow: 0},
		{Title: "Tulis draf", DaysFromNow: 2},
		{Title: "Revisi akhir", DaysFromNow: 5},
	}

	rec := env.do(t, http.MethodPost, "/api/v1/tasks/breakdown", token, map[string]string{
		"prompt": "Skripsi bab 2 dalam seminggu",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created []taskView
	data(t, rec, &created)
	require.Len(t, created, 3)
	for _, v := range created {
		assert.NotNil(t, v.DueDate)
	}
}

func TestAssistantRoutesNeedConfiguration(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.register(t, "sinta@kampus.ac.id")
	env.server.deps.Assistant = nil

	rec := env.do(t, http.MethodPost, "/api/v1/tasks/breakdown", token, map[string]string{"prompt": "Skripsi bab 2"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAssistantFailureMapsToBadGateway(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.register(t, "sinta@kampus.ac.id")
	env.assistant.err = shared.ErrAssistantBadPayload

	rec := env.do(t, http.MethodPost, "/api/v1/tasks/breakdown", token, map[string]string{"prompt": "Skripsi bab 2"})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestGrammarReplacesNoteBody(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.register(t, "sinta@kampus.ac.id")
	env.assistant.fixed = "Fotosintesis terjadi di kloroplas."

	rec := env.do(t, http.MethodPost, "/api/v1/notes", token, map[string]string{
		"title":   "Biologi",
		"content": "fotosintesis terjadi d kloroplas",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created noteView
	data(t, rec, &created)

	rec = env.do(t, http.MethodPost, "/api/v1/notes/"+created.ID+"/grammar", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var fixed noteView
	data(t, rec, &fixed)
	assert.Equal(t, "Fotosintesis terjadi di kloroplas.", fixed.Content)
}

func TestSummaryIsAppended(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.register(t, "sinta@kampus.ac.id")
	env.assistant.summary = "Inti: fotosintesis butuh cahaya."

	rec := env.do(t, http.MethodPost, "/api/v1/notes", token, map[string]string{
		"title":   "Biologi",
		"content": "Materi panjang tentang fotosintesis.",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created noteView
	data(t, rec, &created)

	rec = env.do(t, http.MethodPost, "/api/v1/notes/"+created.ID+"/summary", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var updated noteView
	data(t, rec, &updated)
	assert.Contains(t, updated.Content, "Materi panjang tentang fotosintesis.")
	assert.Contains(t, updated.Content, "Inti: fotosintesis butuh cahaya.")
}

func TestQuizFromNote(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.register(t, "sinta@kampus.ac.id")
	env.assistant.questions = []assistant.QuizQuestion{
		{Question: "Di mana fotosintesis terjadi?", Options: []string{"Kloroplas", "Mitokondria", "Nukleus", "Ribosom"}, CorrectAnswer: 0},
	}

	rec := env.do(t, http.MethodPost, "/api/v1/notes", token, map[string]string{
		"title":   "Biologi",
		"content": "Fotosintesis terjadi di kloroplas.",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created noteView
	data(t, rec, &created)

	rec = env.do(t, http.MethodPost, "/api/v1/notes/"+created.ID+"/quiz", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var questions []assistant.QuizQuestion
	data(t, rec, &questions)
	require.Len(t, questions, 1)
	assert.Len(t, questions[0].Options, 4)
}

// ══════════════════════════════════════════════════════════════════════════════
// LIVE STREAM TESTS
// ══════════════════════════════════════════════════════════════════════════════

func TestStreamDeliversSnapshots(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.register(t, "sinta@kampus.ac.id")

	rec := env.do(t, http.MethodPost, "/api/v1/notes", token, map[string]string{"title": "Catatan Awal"})
	require.Equal(t, http.StatusCreated, rec.Code)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/stream/notes", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer "+token)

	streamRec := httptest.NewRecorder()
	done := make(chan struct{})
	go func() {
		defer close(done)
		env.server.Handler().ServeHTTP(streamRec, req)
	}()

	// The initial snapshot arrives synchronously on Watch; give the
	// handler a moment to drain it before closing the stream.
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream handler did not stop")
	}

	body := streamRec.Body.String()
	assert.Contains(t, body, "event: snapshot")
	assert.Contains(t, body, "Catatan Awal")
}

func TestStreamRejectsUnknownCollection(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.register(t, "sinta@kampus.ac.id")

	rec := env.do(t, http.MethodGet, "/api/v1/stream/bookmarks", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ══════════════════════════════════════════════════════════════════════════════
// MISC
// ══════════════════════════════════════════════════════════════════════════════

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStateStoreIsOneTimeUse(t *testing.T) {
	store := newStateStore(time.Minute)
	state := store.Issue("user-1")

	uid, ok := store.Redeem(state)
	require.True(t, ok)
	assert.Equal(t, "user-1", uid)

	_, ok = store.Redeem(state)
	assert.False(t, ok)
}

func TestStateStoreExpires(t *testing.T) {
	store := newStateStore(time.Millisecond)
	state := store.Issue("user-1")
	time.Sleep(5 * time.Millisecond)

	_, ok := store.Redeem(state)
	assert.False(t, ok)
}

func TestStatusForMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{shared.ErrNoteNotFound, http.StatusNotFound},
		{shared.ErrUserAlreadyExists, http.StatusConflict},
		{shared.ErrInvalidCredentials, http.StatusUnauthorized},
		{shared.ErrAssistantNotConfigured, http.StatusServiceUnavailable},
		{shared.ErrAssistantBadPayload, http.StatusBadGateway},
		{shared.ErrCalendarExportFailed, http.StatusBadGateway},
		{shared.ErrInvalidDueDate, http.StatusBadRequest},
		{fmt.Errorf("opaque failure"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		status, _ := statusFor(tc.err)
		assert.Equal(t, tc.status, status, tc.err.Error())
	}
}

func TestRootListsEndpoints(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "Orbit"))
}
