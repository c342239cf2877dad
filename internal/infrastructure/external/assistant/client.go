// Package assistant implements the generative assistant API client.
// This package handles all communication with the Gemini generateContent
// endpoint: task breakdown, quiz generation, note enhancement, and
// motivational quotes.
package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/orbit-hub/orbit-student-hub/internal/domain/profile"
	"github.com/orbit-hub/orbit-student-hub/internal/domain/shared"
	"github.com/orbit-hub/orbit-student-hub/pkg/circuitbreaker"
	"github.com/orbit-hub/orbit-student-hub/pkg/retry"
	"github.com/orbit-hub/orbit-student-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// DefaultBaseURL is the Gemini REST API base URL.
const DefaultBaseURL = "https://generativelanguage.googleapis.com"

// DefaultModel is the model alias used when none is configured.
const DefaultModel = "gemini-flash-latest"

// ClientConfig contains configuration for the assistant client.
type ClientConfig struct {
	// APIKey authenticates requests. Required.
	APIKey string

	// BaseURL is the API base URL (default: DefaultBaseURL).
	BaseURL string

	// Model is the model alias (default: DefaultModel).
	Model string

	// Timeout is the HTTP request timeout.
	Timeout time.Duration

	// Logger for structured logging.
	Logger *slog.Logger
}

// DefaultClientConfig returns sensible defaults for the given key.
func DefaultClientConfig(apiKey string) ClientConfig {
	return ClientConfig{
		APIKey:  apiKey,
		BaseURL: DefaultBaseURL,
		Model:   DefaultModel,
		Timeout: 30 * time.Second,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// DTOs
// ══════════════════════════════════════════════════════════════════════════════

// TaskProposal is one step of a generated task breakdown.
type TaskProposal struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	DaysFromNow int    `json:"daysFromNow"`
}

// QuizQuestion is one generated multiple-choice question.
type QuizQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// text flattens the first candidate's parts.
func (r *generateResponse) text() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	var b strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return b.String()
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client is the generative assistant API client.
type Client struct {
	config     ClientConfig
	httpClient *http.Client
	logger     *slog.Logger
	retrier    *retry.Retrier
	breaker    *circuitbreaker.CircuitBreaker
}

// NewClient creates a new assistant client. Returns a configuration
// error when the API key is missing; callers decide whether that is
// fatal (most features degrade, quotes fall back to the built-in list).
func NewClient(config ClientConfig) (*Client, error) {
	if config.APIKey == "" {
		return nil, shared.ErrAssistantNotConfigured
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Model == "" {
		config.Model = DefaultModel
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     config.Logger,
		retrier:    retry.AssistantRetrier(),
		breaker:    circuitbreaker.AssistantBreaker(),
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// BreakdownTask turns a free-form goal into small task proposals.
func (c *Client) BreakdownTask(ctx context.Context, userPrompt, displayName string) ([]TaskProposal, error) {
	raw, err := c.generate(ctx, breakdownPrompt(userPrompt, displayName, time.Now()))
	if err != nil {
		return nil, err
	}

	proposals, err := decodeArray[TaskProposal](raw)
	if err != nil {
		c.logger.Warn("breakdown response not parseable", "error", err)
		return nil, err
	}
	return proposals, nil
}

// GenerateQuiz builds multiple-choice questions from note content.
func (c *Client) GenerateQuiz(ctx context.Context, noteContent string, p *profile.Profile) ([]QuizQuestion, error) {
	raw, err := c.generate(ctx, quizPrompt(noteContent, p))
	if err != nil {
		return nil, err
	}

	questions, err := decodeArray[QuizQuestion](raw)
	if err != nil {
		c.logger.Warn("quiz response not parseable", "error", err)
		return nil, err
	}
	return questions, nil
}

// FixGrammar rewrites the content with corrected grammar and spelling.
func (c *Client) FixGrammar(ctx context.Context, noteContent string) (string, error) {
	raw, err := c.generate(ctx, grammarPrompt(noteContent))
	if err != nil {
		return "", err
	}

	cleaned := strings.TrimSpace(stripFences(raw))
	if cleaned == "" {
		return "", shared.ErrAssistantBadPayload
	}
	return cleaned, nil
}

// Summarize condenses the content into bullet points.
func (c *Client) Summarize(ctx context.Context, noteContent string, p *profile.Profile) (string, error) {
	raw, err := c.generate(ctx, summarizePrompt(noteContent, p))
	if err != nil {
		return "", err
	}

	cleaned := strings.TrimSpace(stripFences(raw))
	if cleaned == "" {
		return "", shared.ErrAssistantBadPayload
	}
	return cleaned, nil
}

// Motivate generates one short quote for the current time of day.
func (c *Client) Motivate(ctx context.Context, bucket timeutil.TimeOfDay, displayName string) (string, error) {
	raw, err := c.generate(ctx, motivationPrompt(bucket, displayName))
	if err != nil {
		return "", err
	}

	quote := strings.TrimSpace(stripFences(raw))
	if quote == "" {
		return "", shared.ErrAssistantBadPayload
	}
	return quote, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HTTP REQUEST HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// generate performs a generateContent call with retries and circuit
// breaking, returning the raw response text.
func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	var text string

	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.retrier.Do(ctx, func(ctx context.Context) error {
			result, err := c.doSingleRequest(ctx, prompt)
			if err != nil {
				return err
			}
			text = result
			return nil
		})
	})
	if err != nil {
		if shared.IsContentGeneration(err) {
			return "", err
		}
		return "", shared.WrapError("assistant", "Request", shared.ErrServiceUnavailable, "generate call failed", err)
	}

	return text, nil
}

// doSingleRequest performs a single generateContent HTTP request.
func (c *Client) doSingleRequest(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", retry.Permanent(fmt.Errorf("marshal request: %w", err))
	}

	fullURL := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.config.BaseURL, c.config.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fullURL, bytes.NewReader(body))
	if err != nil {
		return "", retry.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.config.APIKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", retry.Retryable(fmt.Errorf("http request: %w", err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", retry.Retryable(fmt.Errorf("read response: %w", err))
	}

	c.logger.Debug("assistant api response",
		"status", resp.StatusCode,
		"latency", time.Since(start),
	)

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return "", retry.Retryable(fmt.Errorf("api error: status %d", resp.StatusCode))
	case resp.StatusCode >= 400:
		return "", retry.Permanent(fmt.Errorf("api error: status %d: %s", resp.StatusCode, truncate(string(respBody), 200)))
	}

	var parsed generateResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", retry.Permanent(fmt.Errorf("unmarshal response: %w", err))
	}

	text := parsed.text()
	if text == "" {
		return "", retry.Permanent(shared.ErrAssistantBadPayload)
	}
	return text, nil
}

// truncate limits s to n bytes for log and error output.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
