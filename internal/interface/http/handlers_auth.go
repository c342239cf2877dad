package http

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/orbit-hub/orbit-student-hub/internal/application/saga"
	"github.com/orbit-hub/orbit-student-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// SESSION HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type registerRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=6,max=72"`
	DisplayName string `json:"display_name" validate:"max=60"`
}

// handleRegister handles POST /api/v1/auth/register
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !s.decode(w, r, &req) {
		return
	}

	result, err := s.deps.Onboarding.Execute(r.Context(), saga.OnboardingInput{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	session, err := s.deps.Identity.SessionFor(result.User)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, sessionView{
		User:      newUserView(session.User),
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
	})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// handleLogin handles POST /api/v1/auth/login
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !s.decode(w, r, &req) {
		return
	}

	session, err := s.deps.Identity.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, sessionView{
		User:      newUserView(session.User),
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
	})
}

// handleGuest handles POST /api/v1/auth/guest. A guest account is a full
// account without credentials; its data survives until the session expires.
func (s *Server) handleGuest(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.Onboarding.Execute(r.Context(), saga.OnboardingInput{Guest: true})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	session, err := s.deps.Identity.SessionFor(result.User)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, sessionView{
		User:      newUserView(session.User),
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
	})
}

// handleSignOut handles POST /api/v1/auth/signout
func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Identity.SignOut(r.Context(), userID(r.Context())); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "signed_out"})
}

// handleMe handles GET /api/v1/auth/me
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	uid := userID(r.Context())

	p, err := s.deps.Snapshots.Profile(r.Context(), uid)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user_id": uid,
		"guest":   isGuest(r.Context()),
		"profile": newProfileView(p),
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// GOOGLE CALENDAR CONSENT FLOW
// ══════════════════════════════════════════════════════════════════════════════

// handleGoogleAuthURL handles GET /api/v1/auth/google/url
func (s *Server) handleGoogleAuthURL(w http.ResponseWriter, r *http.Request) {
	if s.deps.Google == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "not_configured", "Google Calendar integration is not configured")
		return
	}
	if isGuest(r.Context()) {
		writeJSONError(w, http.StatusForbidden, "guest_not_allowed", "Guest accounts cannot connect a calendar")
		return
	}

	state := s.states.Issue(userID(r.Context()))
	writeJSON(w, http.StatusOK, map[string]string{"url": s.deps.Google.AuthURL(state)})
}

// handleGoogleCallback handles GET /api/v1/auth/google/callback. Google
// redirects the browser here; the state parameter identifies the user.
func (s *Server) handleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	if s.deps.Google == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "not_configured", "Google Calendar integration is not configured")
		return
	}

	state := r.URL.Query().Get("state")
	code := r.URL.Query().Get("code")
	if state == "" || code == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "state and code query parameters are required")
		return
	}

	uid, ok := s.states.Redeem(state)
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "invalid_state", "Unknown or expired consent state")
		return
	}

	if err := s.deps.Google.HandleCallback(r.Context(), uid, code); err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	s.logger.Info("google calendar connected", logger.UserID(uid))
	writeJSON(w, http.StatusOK, map[string]string{"status": "calendar_connected"})
}

// handleGoogleDisconnect handles POST /api/v1/auth/google/disconnect
func (s *Server) handleGoogleDisconnect(w http.ResponseWriter, r *http.Request) {
	if s.deps.Google == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "not_configured", "Google Calendar integration is not configured")
		return
	}

	if err := s.deps.Google.Disconnect(r.Context(), userID(r.Context())); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "calendar_disconnected"})
}

// ══════════════════════════════════════════════════════════════════════════════
// CONSENT STATE STORE
// ══════════════════════════════════════════════════════════════════════════════

// consentStateTTL bounds how long a consent redirect may take.
const consentStateTTL = 10 * time.Minute

// stateStore issues one-time states for the OAuth consent flow. A state is
// an opaque random token bound to the user who requested the consent URL;
// the callback redeems it exactly once.
type stateStore struct {
	mu      sync.Mutex
	entries map[string]stateEntry
	ttl     time.Duration
}

type stateEntry struct {
	userID    string
	expiresAt time.Time
}

func newStateStore(ttl time.Duration) *stateStore {
	return &stateStore{
		entries: make(map[string]stateEntry),
		ttl:     ttl,
	}
}

// Issue creates a state token for the user. Expired entries are pruned
// opportunistically; the store never grows beyond in-flight consents.
func (st *stateStore) Issue(userID string) string {
	st.mu.Lock()
	defer st.mu.Unlock()

	now := time.Now()
	for state, entry := range st.entries {
		if now.After(entry.expiresAt) {
			delete(st.entries, state)
		}
	}

	state := uuid.NewString()
	st.entries[state] = stateEntry{userID: userID, expiresAt: now.Add(st.ttl)}
	return state
}

// Redeem consumes a state token, returning the bound user ID.
func (st *stateStore) Redeem(state string) (string, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	entry, ok := st.entries[state]
	if !ok {
		return "", false
	}
	delete(st.entries, state)

	if time.Now().After(entry.expiresAt) {
		return "", false
	}
	return entry.userID, true
}
