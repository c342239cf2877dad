// Package identity contains the user account domain model. Password hashing
// and token issuance live in the infrastructure layer; this package only
// models the account itself.
package identity

import (
	"fmt"
	"strings"
	"time"

	"github.com/orbit-hub/orbit-student-hub/internal/domain/shared"
)

// Email is a normalized user email address.
type Email string

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(raw string) Email {
	return Email(strings.ToLower(strings.TrimSpace(raw)))
}

// IsValid performs a light structural check. Full validation happens at the
// request boundary; this guards the domain against obviously broken values.
func (e Email) IsValid() bool {
	s := string(e)
	at := strings.Index(s, "@")
	return at > 0 && at < len(s)-1 && !strings.ContainsAny(s, " \t\n")
}

// String returns the string form of the email.
func (e Email) String() string {
	return string(e)
}

// User is an account in the system. Guest accounts have no email or
// password hash and cannot be signed into again once the session ends.
type User struct {
	// ID - unique identifier (UUID in string form).
	ID string

	// Email - normalized email; empty for guest accounts.
	Email Email

	// PasswordHash - bcrypt hash; empty for guest accounts.
	PasswordHash string

	// Guest - true for anonymous trial accounts.
	Guest bool

	// CreatedAt - time of registration.
	CreatedAt time.Time

	// LastLoginAt - time of the most recent successful sign-in.
	LastLoginAt time.Time
}

// NewUser creates a registered user with a pre-computed password hash.
func NewUser(id string, email Email, passwordHash string) (*User, error) {
	if id == "" {
		return nil, shared.NewDomainError("identity", "Register", shared.ErrInvalidID, "user id is required")
	}
	if !email.IsValid() {
		return nil, shared.NewDomainError("identity", "Register", shared.ErrInvalidFormat, "invalid email address")
	}
	if passwordHash == "" {
		return nil, shared.NewDomainError("identity", "Register", shared.ErrEmptyValue, "password hash is required")
	}

	now := time.Now().UTC()
	return &User{
		ID:           id,
		Email:        email,
		PasswordHash: passwordHash,
		Guest:        false,
		CreatedAt:    now,
		LastLoginAt:  now,
	}, nil
}

// NewGuest creates an anonymous trial account.
func NewGuest(id string) (*User, error) {
	if id == "" {
		return nil, shared.NewDomainError("identity", "Guest", shared.ErrInvalidID, "user id is required")
	}

	now := time.Now().UTC()
	return &User{
		ID:          id,
		Guest:       true,
		CreatedAt:   now,
		LastLoginAt: now,
	}, nil
}

// TouchLogin records a successful sign-in.
func (u *User) TouchLogin() {
	u.LastLoginAt = time.Now().UTC()
}

// String returns a loggable representation without credential material.
func (u *User) String() string {
	if u.Guest {
		return fmt.Sprintf("User{ID: %s, Guest: true}", u.ID)
	}
	return fmt.Sprintf("User{ID: %s, Email: %s}", u.ID, u.Email)
}
