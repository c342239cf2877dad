package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/orbit-hub/orbit-student-hub/internal/application/command"
	"github.com/orbit-hub/orbit-student-hub/internal/application/query"
	"github.com/orbit-hub/orbit-student-hub/internal/domain/shared"
	"github.com/orbit-hub/orbit-student-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// DASHBOARD & STATS
// ══════════════════════════════════════════════════════════════════════════════

type dashboardView struct {
	Greeting     string      `json:"greeting"`
	DisplayName  string      `json:"display_name"`
	TodayClasses []classView `json:"today_classes"`
	PendingTasks int         `json:"pending_tasks"`
	DueToday     int         `json:"due_today"`
	Quote        string      `json:"quote,omitempty"`
	Level        int         `json:"level"`
	CurrentXP    int         `json:"current_xp"`
	XPToNext     int         `json:"xp_to_next"`
}

// handleDashboard handles GET /api/v1/dashboard
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.deps.Dashboard.Handle(r.Context(), userID(r.Context()), time.Now())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dashboardView{
		Greeting:     d.Greeting,
		DisplayName:  d.DisplayName,
		TodayClasses: newClassViews(d.TodayClasses),
		PendingTasks: d.PendingTasks,
		DueToday:     d.DueToday,
		Quote:        d.Quote,
		Level:        d.Level,
		CurrentXP:    d.CurrentXP,
		XPToNext:     d.XPToNext,
	})
}

type weeklyFocusView struct {
	Minutes      [7]int    `json:"minutes"`
	Labels       [7]string `json:"labels"`
	TotalMinutes int       `json:"total_minutes"`
}

func newWeeklyFocusView(w *query.WeeklyFocus) weeklyFocusView {
	return weeklyFocusView{
		Minutes:      w.Minutes,
		Labels:       w.Labels,
		TotalMinutes: w.TotalMinutes,
	}
}

type taskProgressView struct {
	Completed int     `json:"completed"`
	Pending   int     `json:"pending"`
	Total     int     `json:"total"`
	Ratio     float64 `json:"ratio"`
}

type academicSummaryView struct {
	GPA          float64 `json:"gpa"`
	TotalCredits int     `json:"total_credits"`
	Records      int     `json:"records"`
	Predicate    string  `json:"predicate,omitempty"`
}

func newAcademicSummaryView(a *query.AcademicSummary) academicSummaryView {
	return academicSummaryView{
		GPA:          a.GPA,
		TotalCredits: a.TotalCredits,
		Records:      a.Records,
		Predicate:    a.Predicate,
	}
}

// handleStats handles GET /api/v1/stats. All three derived views are
// recomputed from current snapshots on every call.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	uid := userID(r.Context())

	progress, err := s.deps.Stats.TaskProgress(r.Context(), uid)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	weekly, err := s.deps.Stats.WeeklyFocus(r.Context(), uid, time.Now())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	academic, err := s.deps.Stats.AcademicSummary(r.Context(), uid)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"tasks": taskProgressView{
			Completed: progress.Completed,
			Pending:   progress.Pending,
			Total:     progress.Total,
			Ratio:     progress.Ratio,
		},
		"weekly_focus": newWeeklyFocusView(weekly),
		"academic":     newAcademicSummaryView(academic),
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// ASSISTANT ROUTES
// ══════════════════════════════════════════════════════════════════════════════

type breakdownRequest struct {
	Prompt string `json:"prompt" validate:"required,min=4,max=500"`
}

// handleBreakdownTask handles POST /api/v1/tasks/breakdown. The assistant
// proposes a step plan; every accepted step becomes a dated task.
func (s *Server) handleBreakdownTask(w http.ResponseWriter, r *http.Request) {
	if s.deps.Assistant == nil {
		s.writeDomainError(w, r, shared.ErrAssistantNotConfigured)
		return
	}

	var req breakdownRequest
	if !s.decode(w, r, &req) {
		return
	}

	uid := userID(r.Context())
	p, err := s.deps.Snapshots.Profile(r.Context(), uid)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	proposals, err := s.deps.Assistant.BreakdownTask(r.Context(), req.Prompt, p.DisplayName)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	steps := make([]command.BreakdownStep, 0, len(proposals))
	for _, proposal := range proposals {
		steps = append(steps, command.BreakdownStep{
			Title:       proposal.Title,
			DaysFromNow: proposal.DaysFromNow,
		})
	}

	created, err := s.deps.Tasks.AddBreakdown(r.Context(), command.AddBreakdownCommand{
		UserID: uid,
		Steps:  steps,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	s.logger.Info("task breakdown created",
		logger.UserID(uid),
		logger.Int("steps", len(created)),
	)
	writeJSON(w, http.StatusCreated, newTaskViews(created))
}

// handleFixGrammar handles POST /api/v1/notes/{id}/grammar. The corrected
// text replaces the note body.
func (s *Server) handleFixGrammar(w http.ResponseWriter, r *http.Request) {
	if s.deps.Assistant == nil {
		s.writeDomainError(w, r, shared.ErrAssistantNotConfigured)
		return
	}

	uid := userID(r.Context())
	n, err := s.ownedNote(r.Context(), uid, r.PathValue("id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	fixed, err := s.deps.Assistant.FixGrammar(r.Context(), n.Content)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	updated, err := s.deps.Notes.Update(r.Context(), command.UpdateNoteCommand{
		UserID:  uid,
		NoteID:  n.ID,
		Title:   n.Title,
		Content: fixed,
		Color:   n.Color,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newNoteView(updated))
}

// handleSummarizeNote handles POST /api/v1/notes/{id}/summary. The summary
// is appended to the note, never replacing the original text.
func (s *Server) handleSummarizeNote(w http.ResponseWriter, r *http.Request) {
	if s.deps.Assistant == nil {
		s.writeDomainError(w, r, shared.ErrAssistantNotConfigured)
		return
	}

	uid := userID(r.Context())
	n, err := s.ownedNote(r.Context(), uid, r.PathValue("id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	p, err := s.deps.Snapshots.Profile(r.Context(), uid)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	summary, err := s.deps.Assistant.Summarize(r.Context(), n.Content, p)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	updated, err := s.deps.Notes.AppendSummary(r.Context(), command.AppendSummaryCommand{
		UserID:  uid,
		NoteID:  n.ID,
		Summary: summary,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newNoteView(updated))
}

// handleGenerateQuiz handles POST /api/v1/notes/{id}/quiz. Questions are
// generated from the note body and returned without persistence.
func (s *Server) handleGenerateQuiz(w http.ResponseWriter, r *http.Request) {
	if s.deps.Assistant == nil {
		s.writeDomainError(w, r, shared.ErrAssistantNotConfigured)
		return
	}

	uid := userID(r.Context())
	n, err := s.ownedNote(r.Context(), uid, r.PathValue("id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	p, err := s.deps.Snapshots.Profile(r.Context(), uid)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	questions, err := s.deps.Assistant.GenerateQuiz(r.Context(), n.Content, p)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, questions)
}

// ══════════════════════════════════════════════════════════════════════════════
// LIVE STREAM (SSE)
// ══════════════════════════════════════════════════════════════════════════════

// streamHeartbeat keeps intermediaries from closing an idle SSE stream.
const streamHeartbeat = 25 * time.Second

type streamEvent struct {
	Collection  string      `json:"collection"`
	DeliveredAt time.Time   `json:"delivered_at"`
	Data        interface{} `json:"data"`
}

// handleStream handles GET /api/v1/stream/{collection}. The response is a
// server-sent-event stream; the first event is the current snapshot and
// every subsequent write to the collection delivers a fresh full snapshot.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSONError(w, http.StatusInternalServerError, "streaming_unsupported", "Streaming is not supported by this connection")
		return
	}

	collection := r.PathValue("collection")
	uid := userID(r.Context())

	sub, err := s.deps.Hub.Watch(r.Context(), collection, uid)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	defer sub.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	heartbeat := time.NewTicker(streamHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case snap, open := <-sub.Updates():
			if !open {
				// Replaced by a newer subscription or hub shutdown.
				return
			}

			payload, err := json.Marshal(streamEvent{
				Collection:  snap.Collection,
				DeliveredAt: snap.DeliveredAt,
				Data:        collectionView(snap.Collection, snap.Data),
			})
			if err != nil {
				s.logger.Error("failed to encode snapshot",
					logger.Collection(snap.Collection),
					logger.UserID(uid),
					logger.Err(err),
				)
				continue
			}

			fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", payload)
			flusher.Flush()

		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot serves the root endpoint with basic API information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	info := map[string]interface{}{
		"name":        "Orbit Student Hub API",
		"version":     "v1",
		"description": "REST and live-stream API for the Orbit student productivity hub",
		"endpoints": map[string]string{
			"health":    "/health",
			"auth":      "/api/v1/auth",
			"notes":     "/api/v1/notes",
			"tasks":     "/api/v1/tasks",
			"dashboard": "/api/v1/dashboard",
			"stream":    "/api/v1/stream/{collection}",
		},
	}

	writeJSON(w, http.StatusOK, info)
}

// handleHealth handles the health check endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Healthy {
			writeJSON(w, http.StatusServiceUnavailable, status)
			return
		}
		writeJSON(w, http.StatusOK, status)
		return
	}

	// Default health response
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"uptime":  s.Uptime().String(),
		"version": "v1",
	})
}

// handleReady handles the readiness probe endpoint (for Kubernetes).
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Ready {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not_ready",
				"reason": status.Message,
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleLive handles the liveness probe endpoint (for Kubernetes).
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}
