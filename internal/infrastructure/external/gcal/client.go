// Package gcal implements the Google Calendar export client. The only
// operation is creating an all-day event on the user's primary calendar
// from a task's title and due date.
package gcal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/orbit-hub/orbit-student-hub/internal/domain/shared"
	"github.com/orbit-hub/orbit-student-hub/pkg/retry"
	"github.com/orbit-hub/orbit-student-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// DefaultBaseURL is the Google Calendar API base URL.
const DefaultBaseURL = "https://www.googleapis.com"

// eventsPath targets the user's primary calendar.
const eventsPath = "/calendar/v3/calendars/primary/events"

// TokenProvider hands out a valid access token for a user. Satisfied by
// the Google OAuth connector.
type TokenProvider interface {
	AccessToken(ctx context.Context, userID string) (string, error)
}

// ClientConfig contains configuration for the calendar client.
type ClientConfig struct {
	// BaseURL is the API base URL (default: DefaultBaseURL).
	BaseURL string

	// Tokens resolves per-user access tokens. Required.
	Tokens TokenProvider

	// Timeout is the HTTP request timeout.
	Timeout time.Duration

	// Logger for structured logging.
	Logger *slog.Logger
}

// ══════════════════════════════════════════════════════════════════════════════
// DTOs
// ══════════════════════════════════════════════════════════════════════════════

type eventDate struct {
	Date string `json:"date"`
}

type eventRequest struct {
	Summary     string    `json:"summary"`
	Description string    `json:"description"`
	Start       eventDate `json:"start"`
	End         eventDate `json:"end"`
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client exports task due dates to Google Calendar.
type Client struct {
	baseURL    string
	tokens     TokenProvider
	httpClient *http.Client
	logger     *slog.Logger
	retrier    *retry.Retrier
}

// NewClient creates a new calendar client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.Tokens == nil {
		return nil, fmt.Errorf("gcal client: token provider is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		tokens:     cfg.Tokens,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     cfg.Logger,
		retrier:    retry.CalendarRetrier(),
	}, nil
}

// ExportAllDayEvent creates an all-day event titled after the task on
// the user's primary calendar. The end date is exclusive per the
// Calendar API, so it is the day after the due date.
func (c *Client) ExportAllDayEvent(ctx context.Context, userID, title string, day time.Time) error {
	token, err := c.tokens.AccessToken(ctx, userID)
	if err != nil {
		return err
	}

	local := timeutil.ToJakarta(day)
	body, err := json.Marshal(eventRequest{
		Summary:     title,
		Description: "Created via Orbit Student Hub",
		Start:       eventDate{Date: timeutil.FormatDate(local)},
		End:         eventDate{Date: timeutil.FormatDate(local.AddDate(0, 0, 1))},
	})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	err = c.retrier.Do(ctx, func(ctx context.Context) error {
		return c.doInsert(ctx, token, body)
	})
	if err != nil {
		if errors.Is(err, shared.ErrCalendarTokenMissing) || shared.IsExternalService(err) {
			return err
		}
		return shared.WrapError("gcal", "Insert", shared.ErrExternalService, "calendar event creation failed", err)
	}

	c.logger.Info("calendar event exported", "user_id", userID, "date", timeutil.FormatDate(local))
	return nil
}

// doInsert performs a single event insert request.
func (c *Client) doInsert(ctx context.Context, token string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+eventsPath, bytes.NewReader(body))
	if err != nil {
		return retry.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return retry.Retryable(fmt.Errorf("http request: %w", err))
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	switch {
	case resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return retry.Permanent(shared.ErrCalendarTokenMissing)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return retry.Retryable(fmt.Errorf("calendar api: status %d", resp.StatusCode))
	default:
		return retry.Permanent(shared.WrapError("gcal", "Insert", shared.ErrExternalService, "calendar event creation failed",
			fmt.Errorf("status %d: %s", resp.StatusCode, apiErrorMessage(respBody))))
	}
}

// apiErrorMessage pulls the error message out of a Calendar API error
// body, falling back to the raw body.
func apiErrorMessage(body []byte) string {
	var parsed struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Message != "" {
		return parsed.Error.Message
	}
	if len(body) > 200 {
		body = body[:200]
	}
	return string(body)
}
