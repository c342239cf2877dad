package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/oauth2"

	"github.com/orbit-hub/orbit-student-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GOOGLE TOKEN STORE
// ══════════════════════════════════════════════════════════════════════════════

// TokenStore keeps each user's Google OAuth token in Redis so calendar
// exports can run without re-prompting for consent. Tokens expire with
// the access token lifetime; a cleared or expired key surfaces as
// shared.ErrCalendarTokenMissing.
type TokenStore struct {
	cache *Cache
}

// NewTokenStore creates a TokenStore backed by the given cache.
func NewTokenStore(cache *Cache) *TokenStore {
	return &TokenStore{cache: cache}
}

// Save stores the user's token. TTL follows the token expiry when set,
// falling back to TTLGoogleToken; tokens carrying a refresh token are
// stored without expiry so they survive access-token rotation.
func (s *TokenStore) Save(ctx context.Context, userID string, token *oauth2.Token) error {
	if userID == "" {
		return shared.ErrEmptyValue
	}
	if token == nil || token.AccessToken == "" {
		return shared.ErrInvalidInput
	}

	ttl := TTLGoogleToken
	if !token.Expiry.IsZero() {
		ttl = time.Until(token.Expiry)
		if ttl <= 0 {
			return shared.ErrInvalidInput
		}
	}
	if token.RefreshToken != "" {
		ttl = 0
	}

	if err := s.cache.Set(ctx, TokenKey(userID), token, ttl); err != nil {
		return fmt.Errorf("failed to save google token: %w", err)
	}
	return nil
}

// Get returns the user's stored token.
func (s *TokenStore) Get(ctx context.Context, userID string) (*oauth2.Token, error) {
	if userID == "" {
		return nil, shared.ErrEmptyValue
	}

	var token oauth2.Token
	err := s.cache.Get(ctx, TokenKey(userID), &token)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, shared.ErrCalendarTokenMissing
		}
		return nil, fmt.Errorf("failed to load google token: %w", err)
	}
	return &token, nil
}

// Clear removes the user's stored token. Called on sign-out.
func (s *TokenStore) Clear(ctx context.Context, userID string) error {
	if userID == "" {
		return shared.ErrEmptyValue
	}
	return s.cache.Delete(ctx, TokenKey(userID))
}
