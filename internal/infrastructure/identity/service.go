// Package identity implements authentication on top of the identity
// domain: password login, guest sessions, JWT issuing and verification,
// and Google OAuth for calendar access.
package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/orbit-hub/orbit-student-hub/internal/domain/identity"
	"github.com/orbit-hub/orbit-student-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SERVICE
// ══════════════════════════════════════════════════════════════════════════════

// DefaultTokenTTL is how long issued sessions stay valid.
const DefaultTokenTTL = 24 * time.Hour

// TokenVault clears per-user external tokens on sign-out. Satisfied by
// the Redis token store.
type TokenVault interface {
	Clear(ctx context.Context, userID string) error
}

// Claims is the JWT payload carried by every session token.
type Claims struct {
	Guest bool `json:"guest"`
	jwt.RegisteredClaims
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	User      *identity.User
	Token     string
	ExpiresAt time.Time
}

// ServiceConfig configures the identity service.
type ServiceConfig struct {
	// JWTSecret signs session tokens. Required.
	JWTSecret string

	// TokenTTL is the session lifetime (default: DefaultTokenTTL).
	TokenTTL time.Duration

	// Users is the user repository.
	Users identity.Repository

	// Publisher emits identity lifecycle events.
	Publisher shared.EventPublisher

	// Tokens is the external token vault, cleared on sign-out. Optional.
	Tokens TokenVault

	// Logger for auth flow diagnostics. Optional.
	Logger *slog.Logger
}

// Service handles login, token verification, and sign-out.
type Service struct {
	users     identity.Repository
	publisher shared.EventPublisher
	tokens    TokenVault
	logger    *slog.Logger
	secret    []byte
	tokenTTL  time.Duration
}

// NewService creates the identity service. Fails fast when the signing
// secret is missing so a misconfigured deployment cannot issue tokens.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.JWTSecret == "" {
		return nil, shared.ErrIdentityNotReady
	}
	if cfg.Users == nil {
		return nil, fmt.Errorf("identity service: user repository is required")
	}

	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	return &Service{
		users:     cfg.Users,
		publisher: cfg.Publisher,
		tokens:    cfg.Tokens,
		logger:    log,
		secret:    []byte(cfg.JWTSecret),
		tokenTTL:  ttl,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// LOGIN
// ══════════════════════════════════════════════════════════════════════════════

// Login verifies credentials and issues a session token. Unknown email
// and wrong password both return ErrInvalidCredentials so accounts
// cannot be enumerated.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	normalized := identity.NormalizeEmail(email)
	if normalized == "" || password == "" {
		return nil, shared.ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, normalized)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, shared.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	// Guest accounts carry no password hash.
	if user.Guest || user.PasswordHash == "" {
		return nil, shared.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}

	user.TouchLogin()
	if err := s.users.Update(ctx, user); err != nil {
		s.logger.Warn("failed to record login time", "user_id", user.ID, "error", err)
	}

	token, expiresAt, err := s.IssueToken(user.ID, user.Guest)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user logged in", "user_id", user.ID)
	return &LoginResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

// SessionFor issues a token for an already-provisioned user, used right
// after onboarding so registration and guest entry log the user in.
func (s *Service) SessionFor(user *identity.User) (*LoginResult, error) {
	token, expiresAt, err := s.IssueToken(user.ID, user.Guest)
	if err != nil {
		return nil, err
	}
	return &LoginResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// TOKENS
// ══════════════════════════════════════════════════════════════════════════════

// IssueToken signs a new session token for the user.
func (s *Service) IssueToken(userID string, guest bool) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.tokenTTL)

	claims := Claims{
		Guest: guest,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// VerifyToken parses and validates a session token, returning its claims.
func (s *Service) VerifyToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, shared.ErrSessionExpired
		}
		return nil, shared.WrapError("identity", "Verify", shared.ErrUnauthorized, "invalid session token", err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, shared.ErrSessionExpired
	}
	return claims, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SIGN-OUT
// ══════════════════════════════════════════════════════════════════════════════

// SignOut clears the user's stored external tokens and announces the
// sign-out. Session tokens are stateless; clients discard theirs.
func (s *Service) SignOut(ctx context.Context, userID string) error {
	if userID == "" {
		return shared.ErrEmptyValue
	}

	if s.tokens != nil {
		if err := s.tokens.Clear(ctx, userID); err != nil {
			s.logger.Warn("failed to clear external tokens", "user_id", userID, "error", err)
		}
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(shared.NewUserSignedOutEvent(userID)); err != nil {
			s.logger.Warn("failed to publish sign-out event", "user_id", userID, "error", err)
		}
	}

	s.logger.Info("user signed out", "user_id", userID)
	return nil
}
