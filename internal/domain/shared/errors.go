// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")
	ErrInvalidEntity = errors.New("invalid entity")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrNegativeValue   = errors.New("value cannot be negative")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrInvalidFormat   = errors.New("invalid format")

	// Authorization errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Configuration errors - a required credential or setting is missing.
	// Fatal for the dependent subsystem only; unrelated features keep working.
	ErrConfiguration = errors.New("configuration error")

	// External service errors
	ErrExternalService    = errors.New("external service error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
	ErrRateLimited        = errors.New("rate limited")

	// Content errors - a generative response failed to parse as expected.
	// Surfaced to the user as "failed to generate, try again", never a crash.
	ErrContentGeneration = errors.New("content generation error")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "note", "task", "profile"
	Op      string // Operation that failed, e.g., "Create", "Update"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Identity domain errors
var (
	ErrUserNotFound       = NewDomainError("identity", "Find", ErrNotFound, "user not found")
	ErrUserAlreadyExists  = NewDomainError("identity", "Register", ErrAlreadyExists, "user already exists")
	ErrInvalidCredentials = NewDomainError("identity", "Login", ErrUnauthorized, "invalid email or password")
	ErrSessionExpired     = NewDomainError("identity", "Verify", ErrUnauthorized, "session expired")
	ErrIdentityNotReady   = NewDomainError("identity", "Init", ErrConfiguration, "identity provider not configured")
)

// Note domain errors
var (
	ErrNoteNotFound   = NewDomainError("note", "Find", ErrNotFound, "note not found")
	ErrEmptyNoteTitle = NewDomainError("note", "Validate", ErrEmptyValue, "note title cannot be empty")
)

// Task domain errors
var (
	ErrTaskNotFound   = NewDomainError("task", "Find", ErrNotFound, "task not found")
	ErrEmptyTaskTitle = NewDomainError("task", "Validate", ErrEmptyValue, "task title cannot be empty")
	ErrInvalidDueDate = NewDomainError("task", "Validate", ErrInvalidFormat, "due date must be YYYY-MM-DD")
)

// Schedule domain errors
var (
	ErrClassNotFound = NewDomainError("schedule", "Find", ErrNotFound, "class not found")
	ErrInvalidDay    = NewDomainError("schedule", "Validate", ErrInvalidInput, "day must be one of the seven weekday names")
)

// Grade domain errors
var (
	ErrGradeNotFound      = NewDomainError("grade", "Find", ErrNotFound, "grade record not found")
	ErrUnknownLetterGrade = NewDomainError("grade", "Validate", ErrInvalidInput, "unknown letter grade")
	ErrInvalidCredits     = NewDomainError("grade", "Validate", ErrValueOutOfRange, "credit weight must be positive")
	ErrInvalidSemester    = NewDomainError("grade", "Validate", ErrValueOutOfRange, "semester must be between 1 and 14")
)

// Focus domain errors
var (
	ErrSessionNotFound = NewDomainError("focus", "Find", ErrNotFound, "focus session not found")
	ErrInvalidDuration = NewDomainError("focus", "Validate", ErrValueOutOfRange, "duration must be positive")
)

// Profile domain errors
var (
	ErrProfileNotFound = NewDomainError("profile", "Find", ErrNotFound, "profile not found")
	ErrInvalidXP       = NewDomainError("profile", "Validate", ErrNegativeValue, "xp cannot be negative")
	ErrBadgeUnlocked   = NewDomainError("profile", "UnlockBadge", ErrAlreadyExists, "badge already unlocked")
)

// External service errors
var (
	ErrAssistantNotConfigured = NewDomainError("assistant", "Init", ErrConfiguration, "assistant API key is missing")
	ErrAssistantUnavailable   = NewDomainError("assistant", "Request", ErrServiceUnavailable, "assistant API is unavailable")
	ErrAssistantBadPayload    = NewDomainError("assistant", "Parse", ErrContentGeneration, "assistant response has no parseable payload")
	ErrCalendarTokenMissing   = NewDomainError("gcal", "Auth", ErrUnauthorized, "no Google access token stored for user")
	ErrCalendarExportFailed   = NewDomainError("gcal", "Insert", ErrExternalService, "calendar event creation failed")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if the error is an "already exists" error.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrNegativeValue) ||
		errors.Is(err, ErrValueOutOfRange) ||
		errors.Is(err, ErrInvalidFormat)
}

// IsConfiguration checks if the error is a missing-credential error.
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// IsContentGeneration checks if the error is a malformed-assistant-payload error.
func IsContentGeneration(err error) bool {
	return errors.Is(err, ErrContentGeneration)
}

// IsExternalService checks if the error is from an external service.
func IsExternalService(err error) bool {
	return errors.Is(err, ErrExternalService) ||
		errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrRateLimited)
}
