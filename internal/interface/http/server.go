// Package http implements the REST and live-stream API for Orbit Student Hub.
// Every data route is scoped to the authenticated user; collection reads
// always return full snapshots in display order, the same shape the SSE
// stream delivers after each write.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/orbit-hub/orbit-student-hub/internal/application/command"
	"github.com/orbit-hub/orbit-student-hub/internal/application/query"
	"github.com/orbit-hub/orbit-student-hub/internal/application/saga"
	"github.com/orbit-hub/orbit-student-hub/internal/domain/note"
	"github.com/orbit-hub/orbit-student-hub/internal/domain/profile"
	"github.com/orbit-hub/orbit-student-hub/internal/domain/shared"
	"github.com/orbit-hub/orbit-student-hub/internal/infrastructure/external/assistant"
	auth "github.com/orbit-hub/orbit-student-hub/internal/infrastructure/identity"
	"github.com/orbit-hub/orbit-student-hub/internal/infrastructure/messaging"
	"github.com/orbit-hub/orbit-student-hub/internal/interface/http/handlers"
	"github.com/orbit-hub/orbit-student-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// SERVER CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config contains HTTP server configuration.
type Config struct {
	// Host - address to bind (default: "0.0.0.0").
	Host string

	// Port - port to listen on (default: 8080).
	Port int

	// ReadTimeout - maximum duration for reading the entire request.
	ReadTimeout time.Duration

	// WriteTimeout - maximum duration for writing the response.
	// Zero keeps streaming responses open indefinitely; the SSE endpoint
	// relies on this.
	WriteTimeout time.Duration

	// IdleTimeout - maximum duration for idle connections.
	IdleTimeout time.Duration

	// MaxHeaderBytes - maximum size of request headers.
	MaxHeaderBytes int

	// MaxBodyBytes - maximum size of request bodies.
	MaxBodyBytes int64

	// EnableCORS - enable CORS headers.
	EnableCORS bool

	// AllowedOrigins - allowed origins for CORS.
	AllowedOrigins []string

	// RateLimitPerMinute - requests per minute per IP (0 = disabled).
	RateLimitPerMinute int
}

// DefaultConfig returns default server configuration.
func DefaultConfig() Config {
	return Config{
		Host:               "0.0.0.0",
		Port:               8080,
		ReadTimeout:        15 * time.Second,
		WriteTimeout:       0,
		IdleTimeout:        60 * time.Second,
		MaxHeaderBytes:     1 << 20, // 1 MB
		MaxBodyBytes:       1 << 20,
		EnableCORS:         true,
		AllowedOrigins:     []string{"*"},
		RateLimitPerMinute: 120,
	}
}

// Address returns the server address string.
func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ══════════════════════════════════════════════════════════════════════════════
// DEPENDENCIES
// ══════════════════════════════════════════════════════════════════════════════

// NoteReader loads a single note for the assistant routes, which need the
// note body before calling the generation gateway. Satisfied by the
// PostgreSQL note repository.
type NoteReader interface {
	GetByID(ctx context.Context, id string) (*note.Note, error)
}

// AssistantService is the generation gateway surface the API uses.
// Satisfied by the assistant client; nil means no API key is configured
// and every assistant route answers 503.
type AssistantService interface {
	BreakdownTask(ctx context.Context, userPrompt, displayName string) ([]assistant.TaskProposal, error)
	GenerateQuiz(ctx context.Context, noteContent string, p *profile.Profile) ([]assistant.QuizQuestion, error)
	FixGrammar(ctx context.Context, noteContent string) (string, error)
	Summarize(ctx context.Context, noteContent string, p *profile.Profile) (string, error)
}

// CalendarConnector runs the Google consent flow. Satisfied by the
// identity Google connector; nil means the integration is not configured.
type CalendarConnector interface {
	AuthURL(state string) string
	HandleCallback(ctx context.Context, userID, code string) error
	Disconnect(ctx context.Context, userID string) error
}

// Dependencies contains everything the HTTP handlers call into.
type Dependencies struct {
	// Write side (CQRS commands)
	Onboarding *saga.OnboardingSaga
	Notes      *command.NoteHandler
	Tasks      *command.TaskHandler
	Schedule   *command.ScheduleHandler
	Grades     *command.GradeHandler
	Focus      *command.FocusHandler
	Profile    *command.ProfileHandler

	// Read side (CQRS queries)
	Snapshots *query.SnapshotService
	Dashboard *query.DashboardHandler
	Stats     *query.StatsHandler

	// Sessions and external integrations
	Identity   *auth.Service
	Google     CalendarConnector // optional
	Assistant  AssistantService  // optional
	NoteReader NoteReader

	// Live queries
	Hub *messaging.LiveQueryHub

	// Health check dependencies
	HealthChecker handlers.HealthChecker

	// Logger
	Logger *logger.Logger
}

// ══════════════════════════════════════════════════════════════════════════════
// SERVER
// ══════════════════════════════════════════════════════════════════════════════

// Server represents the HTTP server.
type Server struct {
	config     Config
	deps       Dependencies
	httpServer *http.Server
	router     *http.ServeMux
	logger     *logger.Logger
	validate   *validator.Validate

	// Middleware state
	rateLimiter *rateLimiter

	// OAuth consent flow state
	states *stateStore

	// Server state
	mu        sync.RWMutex
	running   bool
	startedAt time.Time
}

// NewServer creates a new HTTP server with the given configuration and dependencies.
func NewServer(config Config, deps Dependencies) *Server {
	s := &Server{
		config:   config,
		deps:     deps,
		router:   http.NewServeMux(),
		logger:   deps.Logger,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		states:   newStateStore(consentStateTTL),
	}

	if s.logger == nil {
		s.logger = logger.Default()
	}

	if config.RateLimitPerMinute > 0 {
		s.rateLimiter = newRateLimiter(config.RateLimitPerMinute, time.Minute)
	}

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:           config.Address(),
		Handler:        s.buildMiddlewareChain(s.router),
		ReadTimeout:    config.ReadTimeout,
		WriteTimeout:   config.WriteTimeout,
		IdleTimeout:    config.IdleTimeout,
		MaxHeaderBytes: config.MaxHeaderBytes,
	}

	return s
}

// ══════════════════════════════════════════════════════════════════════════════
// ROUTING
// ══════════════════════════════════════════════════════════════════════════════

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	// ─────────────────────────────────────────────────────────────────────────
	// Health & Status Endpoints
	// ─────────────────────────────────────────────────────────────────────────
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /healthz", s.handleHealth) // Kubernetes alias
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.HandleFunc("GET /live", s.handleLive)
	s.router.HandleFunc("GET /{$}", s.handleRoot)

	// ─────────────────────────────────────────────────────────────────────────
	// Authentication
	// ─────────────────────────────────────────────────────────────────────────
	s.router.HandleFunc("POST /api/v1/auth/register", s.handleRegister)
	s.router.HandleFunc("POST /api/v1/auth/login", s.handleLogin)
	s.router.HandleFunc("POST /api/v1/auth/guest", s.handleGuest)
	s.router.HandleFunc("POST /api/v1/auth/signout", s.authed(s.handleSignOut))
	s.router.HandleFunc("GET /api/v1/auth/me", s.authed(s.handleMe))

	// Google Calendar consent flow. The callback arrives from a browser
	// redirect without a bearer token; the one-time state links it back
	// to the user who started the flow.
	s.router.HandleFunc("GET /api/v1/auth/google/url", s.authed(s.handleGoogleAuthURL))
	s.router.HandleFunc("GET /api/v1/auth/google/callback", s.handleGoogleCallback)
	s.router.HandleFunc("POST /api/v1/auth/google/disconnect", s.authed(s.handleGoogleDisconnect))

	// ─────────────────────────────────────────────────────────────────────────
	// Notes
	// ─────────────────────────────────────────────────────────────────────────
	s.router.HandleFunc("GET /api/v1/notes", s.authed(s.handleListNotes))
	s.router.HandleFunc("POST /api/v1/notes", s.authed(s.handleCreateNote))
	s.router.HandleFunc("PUT /api/v1/notes/{id}", s.authed(s.handleUpdateNote))
	s.router.HandleFunc("DELETE /api/v1/notes/{id}", s.authed(s.handleDeleteNote))
	s.router.HandleFunc("POST /api/v1/notes/{id}/grammar", s.authed(s.handleFixGrammar))
	s.router.HandleFunc("POST /api/v1/notes/{id}/summary", s.authed(s.handleSummarizeNote))
	s.router.HandleFunc("POST /api/v1/notes/{id}/quiz", s.authed(s.handleGenerateQuiz))

	// ─────────────────────────────────────────────────────────────────────────
	// Tasks
	// ─────────────────────────────────────────────────────────────────────────
	s.router.HandleFunc("GET /api/v1/tasks", s.authed(s.handleListTasks))
	s.router.HandleFunc("POST /api/v1/tasks", s.authed(s.handleCreateTask))
	s.router.HandleFunc("POST /api/v1/tasks/breakdown", s.authed(s.handleBreakdownTask))
	s.router.HandleFunc("POST /api/v1/tasks/{id}/toggle", s.authed(s.handleToggleTask))
	s.router.HandleFunc("DELETE /api/v1/tasks/{id}", s.authed(s.handleDeleteTask))

	// ─────────────────────────────────────────────────────────────────────────
	// Schedule, Grades, Focus, Profile
	// ─────────────────────────────────────────────────────────────────────────
	s.router.HandleFunc("GET /api/v1/schedule", s.authed(s.handleListSchedule))
	s.router.HandleFunc("POST /api/v1/schedule", s.authed(s.handleAddClass))
	s.router.HandleFunc("DELETE /api/v1/schedule/{id}", s.authed(s.handleDeleteClass))

	s.router.HandleFunc("GET /api/v1/grades", s.authed(s.handleListGrades))
	s.router.HandleFunc("POST /api/v1/grades", s.authed(s.handleAddGrade))
	s.router.HandleFunc("GET /api/v1/grades/summary", s.authed(s.handleAcademicSummary))
	s.router.HandleFunc("DELETE /api/v1/grades/{id}", s.authed(s.handleDeleteGrade))

	s.router.HandleFunc("GET /api/v1/focus", s.authed(s.handleListFocus))
	s.router.HandleFunc("POST /api/v1/focus", s.authed(s.handleRecordFocus))
	s.router.HandleFunc("GET /api/v1/focus/weekly", s.authed(s.handleWeeklyFocus))
	s.router.HandleFunc("DELETE /api/v1/focus/{id}", s.authed(s.handleDeleteFocus))

	s.router.HandleFunc("GET /api/v1/profile", s.authed(s.handleGetProfile))
	s.router.HandleFunc("PUT /api/v1/profile", s.authed(s.handleUpdateProfile))

	// ─────────────────────────────────────────────────────────────────────────
	// Derived views & live stream
	// ─────────────────────────────────────────────────────────────────────────
	s.router.HandleFunc("GET /api/v1/dashboard", s.authed(s.handleDashboard))
	s.router.HandleFunc("GET /api/v1/stats", s.authed(s.handleStats))
	s.router.HandleFunc("GET /api/v1/stream/{collection}", s.authed(s.handleStream))
}

// ══════════════════════════════════════════════════════════════════════════════
// MIDDLEWARE CHAIN
// ══════════════════════════════════════════════════════════════════════════════

// buildMiddlewareChain wraps the router with all middleware.
func (s *Server) buildMiddlewareChain(handler http.Handler) http.Handler {
	// Apply middleware in reverse order (last middleware wraps first)
	h := handlers.ChainHandler(handler,
		handlers.SecurityHeadersMiddleware,
		handlers.RequestSizeLimitMiddleware(s.config.MaxBodyBytes),
	)

	// Request ID middleware
	h = s.requestIDMiddleware(h)

	// Logging middleware
	h = s.loggingMiddleware(h)

	// Recovery middleware (must be early to catch panics)
	h = s.recoveryMiddleware(h)

	// CORS middleware
	if s.config.EnableCORS {
		h = s.corsMiddleware(h)
	}

	// Rate limiting middleware
	if s.rateLimiter != nil {
		h = s.rateLimitMiddleware(h)
	}

	return h
}

// requestIDMiddleware adds a unique request ID to each request.
func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = generateRequestID()
		}
		w.Header().Set("X-Request-ID", requestID)
		ctx := context.WithValue(r.Context(), contextKeyRequestID, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// loggingMiddleware logs all HTTP requests.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Wrap response writer to capture status code
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start)

		s.logger.Info("http request",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Int("status", rw.statusCode),
			logger.Int64("duration_ms", duration.Milliseconds()),
			logger.String("ip", getClientIP(r)),
			logger.String("request_id", getRequestID(r.Context())),
		)
	})
}

// recoveryMiddleware recovers from panics and returns 500.
func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				stack := debug.Stack()
				s.logger.Error("panic recovered",
					logger.Any("error", err),
					logger.String("stack", string(stack)),
					logger.String("path", r.URL.Path),
					logger.String("request_id", getRequestID(r.Context())),
				)
				writeJSONError(w, http.StatusInternalServerError, "internal_server_error", "An unexpected error occurred")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// corsMiddleware adds CORS headers.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		// Check if origin is allowed
		allowed := false
		for _, o := range s.config.AllowedOrigins {
			if o == "*" || o == origin {
				allowed = true
				break
			}
		}

		if allowed {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
			w.Header().Set("Access-Control-Max-Age", "86400")
		}

		// Handle preflight requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// rateLimitMiddleware implements per-IP rate limiting.
func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := getClientIP(r)

		if !s.rateLimiter.Allow(ip) {
			w.Header().Set("Retry-After", "60")
			writeJSONError(w, http.StatusTooManyRequests, "rate_limit_exceeded", "Too many requests, please try again later")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// authed wraps a handler with bearer-token verification. The verified
// user ID and guest flag are placed on the request context.
func (s *Server) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing bearer token")
			return
		}

		claims, err := s.deps.Identity.VerifyToken(token)
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), contextKeyUserID, claims.Subject)
		ctx = context.WithValue(ctx, contextKeyGuest, claims.Guest)
		next(w, r.WithContext(ctx))
	}
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return header[len(prefix):]
	}
	return ""
}

// ══════════════════════════════════════════════════════════════════════════════
// SERVER LIFECYCLE
// ══════════════════════════════════════════════════════════════════════════════

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server already running")
	}
	s.running = true
	s.startedAt = time.Now()
	s.mu.Unlock()

	s.logger.Info("starting HTTP server", logger.String("address", s.config.Address()))

	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// StartAsync starts the server in a goroutine.
func (s *Server) StartAsync() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil {
			errCh <- err
		}
		close(errCh)
	}()
	return errCh
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Uptime returns the server uptime.
func (s *Server) Uptime() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.running {
		return 0
	}
	return time.Since(s.startedAt)
}

// Address returns the server address.
func (s *Server) Address() string {
	return s.config.Address()
}

// Handler returns the fully wrapped handler. Used by tests to serve the
// API without binding a socket.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ══════════════════════════════════════════════════════════════════════════════
// RESPONSE HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// JSONResponse represents a standard JSON response.
type JSONResponse struct {
	Success   bool          `json:"success"`
	Data      interface{}   `json:"data,omitempty"`
	Error     *APIError     `json:"error,omitempty"`
	Meta      *ResponseMeta `json:"meta,omitempty"`
	RequestID string        `json:"request_id,omitempty"`
}

// APIError represents an API error.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ResponseMeta contains response metadata.
type ResponseMeta struct {
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version,omitempty"`
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	response := JSONResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
		Meta: &ResponseMeta{
			Timestamp: time.Now().UTC(),
			Version:   "v1",
		},
	}

	_ = json.NewEncoder(w).Encode(response)
}

// writeJSONError writes an error JSON response.
func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	response := JSONResponse{
		Success: false,
		Error: &APIError{
			Code:    code,
			Message: message,
		},
		Meta: &ResponseMeta{
			Timestamp: time.Now().UTC(),
		},
	}

	_ = json.NewEncoder(w).Encode(response)
}

// statusFor maps a domain error to an HTTP status and error code.
// Ordering matters: validation kinds come before the broader
// unauthorized and external-service kinds an error may also match.
func statusFor(err error) (int, string) {
	switch {
	case shared.IsValidation(err):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, shared.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case shared.IsNotFound(err):
		return http.StatusNotFound, "not_found"
	case shared.IsAlreadyExists(err):
		return http.StatusConflict, "already_exists"
	case shared.IsConfiguration(err):
		return http.StatusServiceUnavailable, "not_configured"
	case shared.IsContentGeneration(err):
		return http.StatusBadGateway, "generation_failed"
	case shared.IsExternalService(err):
		return http.StatusBadGateway, "upstream_error"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// writeDomainError translates a domain error into a JSON error response.
// Client errors expose the domain message; server errors are logged and
// answered with a generic message.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)

	message := "An unexpected error occurred"
	var derr *shared.DomainError
	if status < http.StatusInternalServerError && errors.As(err, &derr) {
		message = derr.Message
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.String("request_id", getRequestID(r.Context())),
			logger.Err(err),
		)
	}

	writeJSONError(w, status, code, message)
}

// decode reads and validates a JSON request body. It writes the error
// response itself and reports whether the handler may proceed.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Request body is not valid JSON")
		return false
	}

	if err := s.validate.Struct(dst); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", validationMessage(err))
		return false
	}
	return true
}

// validationMessage formats the first field failure of a validator error.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Sprintf("field %q failed on the %q rule", fe.Field(), fe.Tag())
	}
	return "Invalid request payload"
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPER TYPES AND FUNCTIONS
// ══════════════════════════════════════════════════════════════════════════════

type contextKey string

const (
	contextKeyRequestID contextKey = "request_id"
	contextKeyUserID    contextKey = "user_id"
	contextKeyGuest     contextKey = "guest"
)

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Flush forwards to the underlying writer so SSE works through the
// logging wrapper.
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// getClientIP extracts the client IP from the request.
func getClientIP(r *http.Request) string {
	// Check X-Forwarded-For header
	xff := r.Header.Get("X-Forwarded-For")
	if xff != "" {
		ips := strings.Split(xff, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	// Check X-Real-IP header
	xri := r.Header.Get("X-Real-IP")
	if xri != "" {
		return xri
	}

	// Fall back to RemoteAddr
	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}

// getRequestID extracts the request ID from context.
func getRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(contextKeyRequestID).(string); ok {
		return id
	}
	return ""
}

// userID extracts the authenticated user ID from context. Handlers behind
// the auth middleware can rely on it being present.
func userID(ctx context.Context) string {
	if id, ok := ctx.Value(contextKeyUserID).(string); ok {
		return id
	}
	return ""
}

// isGuest reports whether the session belongs to a guest account.
func isGuest(ctx context.Context) bool {
	guest, _ := ctx.Value(contextKeyGuest).(bool)
	return guest
}

// generateRequestID generates a unique request ID.
func generateRequestID() string {
	return fmt.Sprintf("%d-%d", time.Now().UnixNano(), time.Now().Nanosecond()%1000)
}

// ══════════════════════════════════════════════════════════════════════════════
// RATE LIMITER
// ══════════════════════════════════════════════════════════════════════════════

type rateLimiter struct {
	mu       sync.RWMutex
	requests map[string][]time.Time
	limit    int
	window   time.Duration
}

func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	rl := &rateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
	}

	// Start cleanup goroutine
	go rl.cleanup()

	return rl
}

func (rl *rateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	windowStart := now.Add(-rl.window)

	// Get current requests for this key
	requests := rl.requests[key]

	// Filter out old requests
	var valid []time.Time
	for _, t := range requests {
		if t.After(windowStart) {
			valid = append(valid, t)
		}
	}

	// Check if under limit
	if len(valid) >= rl.limit {
		rl.requests[key] = valid
		return false
	}

	// Add new request
	rl.requests[key] = append(valid, now)
	return true
}

func (rl *rateLimiter) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		now := time.Now()
		windowStart := now.Add(-rl.window)

		for key, requests := range rl.requests {
			var valid []time.Time
			for _, t := range requests {
				if t.After(windowStart) {
					valid = append(valid, t)
				}
			}
			if len(valid) == 0 {
				delete(rl.requests, key)
			} else {
				rl.requests[key] = valid
			}
		}
		rl.mu.Unlock()
	}
}
