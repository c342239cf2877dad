package identity

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/orbit-hub/orbit-student-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GOOGLE OAUTH
// ══════════════════════════════════════════════════════════════════════════════

// ScopeCalendarEvents grants write access to the user's calendar events,
// the only Google scope the app requests.
const ScopeCalendarEvents = "https://www.googleapis.com/auth/calendar.events"

// GoogleTokenVault stores and retrieves per-user Google tokens.
// Satisfied by the Redis token store.
type GoogleTokenVault interface {
	Save(ctx context.Context, userID string, token *oauth2.Token) error
	Get(ctx context.Context, userID string) (*oauth2.Token, error)
	Clear(ctx context.Context, userID string) error
}

// GoogleConfig configures the Google OAuth connector.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// Configured reports whether the OAuth credentials are present.
func (c GoogleConfig) Configured() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.RedirectURL != ""
}

// GoogleConnector runs the consent flow and hands out fresh access
// tokens for calendar export. A nil connector (credentials missing)
// degrades to ErrCalendarTokenMissing on every token request.
type GoogleConnector struct {
	oauth  *oauth2.Config
	tokens GoogleTokenVault
}

// NewGoogleConnector creates the connector, or an error when the OAuth
// credentials are incomplete.
func NewGoogleConnector(cfg GoogleConfig, tokens GoogleTokenVault) (*GoogleConnector, error) {
	if !cfg.Configured() {
		return nil, shared.NewDomainError("gcal", "Init", shared.ErrConfiguration, "google oauth credentials are missing")
	}
	if tokens == nil {
		return nil, fmt.Errorf("google connector: token vault is required")
	}

	return &GoogleConnector{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{ScopeCalendarEvents},
			Endpoint:     google.Endpoint,
		},
		tokens: tokens,
	}, nil
}

// AuthURL returns the consent page URL. State must be verified on
// callback by the caller.
func (g *GoogleConnector) AuthURL(state string) string {
	// AccessTypeOffline yields a refresh token so exports keep working
	// after the first access token expires.
	return g.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// HandleCallback exchanges the authorization code and stores the token
// for the user.
func (g *GoogleConnector) HandleCallback(ctx context.Context, userID, code string) error {
	if userID == "" {
		return shared.ErrEmptyValue
	}
	if code == "" {
		return shared.ErrInvalidInput
	}

	token, err := g.oauth.Exchange(ctx, code)
	if err != nil {
		return shared.WrapError("gcal", "Exchange", shared.ErrExternalService, "authorization code exchange failed", err)
	}

	return g.tokens.Save(ctx, userID, token)
}

// AccessToken returns a valid access token for the user, refreshing and
// re-storing it when expired. Returns ErrCalendarTokenMissing when the
// user never connected their calendar or the token can no longer be
// refreshed.
func (g *GoogleConnector) AccessToken(ctx context.Context, userID string) (string, error) {
	stored, err := g.tokens.Get(ctx, userID)
	if err != nil {
		return "", err
	}

	if stored.Valid() {
		return stored.AccessToken, nil
	}

	refreshed, err := g.oauth.TokenSource(ctx, stored).Token()
	if err != nil {
		// Refresh failed; drop the dead token so the client can
		// re-run the consent flow.
		_ = g.tokens.Clear(ctx, userID)
		return "", shared.ErrCalendarTokenMissing
	}

	if refreshed.AccessToken != stored.AccessToken {
		if err := g.tokens.Save(ctx, userID, refreshed); err != nil {
			return "", fmt.Errorf("failed to store refreshed token: %w", err)
		}
	}

	return refreshed.AccessToken, nil
}

// Disconnect removes the user's stored Google token.
func (g *GoogleConnector) Disconnect(ctx context.Context, userID string) error {
	if userID == "" {
		return shared.ErrEmptyValue
	}
	return g.tokens.Clear(ctx, userID)
}
