// Package saga contains multi-step business processes that orchestrate
// several domain operations and compensate on failure.
package saga

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/orbit-hub/orbit-student-hub/internal/domain/identity"
	"github.com/orbit-hub/orbit-student-hub/internal/domain/profile"
	"github.com/orbit-hub/orbit-student-hub/internal/domain/shared"
	"github.com/orbit-hub/orbit-student-hub/pkg/logger"
)

// Onboarding registers a new account and provisions its profile.
// Flow: Validate -> Check Existence -> Hash Password -> Create User ->
// Create Profile -> Publish Event. A profile failure compensates by
// removing the half-created user, so an account never exists without a
// profile to sync.

// OnboardingInput contains all data required to register an account.
type OnboardingInput struct {
	// Email - sign-in email (required unless Guest).
	Email string

	// Password - plaintext password (required unless Guest); hashed here,
	// never stored or logged.
	Password string

	// DisplayName - shown in greetings; defaults to the email local part.
	DisplayName string

	// Guest - create an anonymous trial account with no credentials.
	Guest bool
}

// Validate checks the input before any side effects run.
func (i OnboardingInput) Validate() error {
	if i.Guest {
		return nil
	}
	if !identity.NormalizeEmail(i.Email).IsValid() {
		return shared.NewDomainError("identity", "Register", shared.ErrInvalidFormat, "invalid email address")
	}
	if len(i.Password) < 6 {
		return shared.NewDomainError("identity", "Register", shared.ErrInvalidInput, "password must be at least 6 characters")
	}
	return nil
}

// OnboardingResult reports a completed registration.
type OnboardingResult struct {
	User        *identity.User
	Profile     *profile.Profile
	OnboardedAt time.Time
}

// OnboardingStep labels the stages of the saga for logging and failure
// reporting.
type OnboardingStep string

const (
	StepValidateInput  OnboardingStep = "validate_input"
	StepCheckExistence OnboardingStep = "check_existence"
	StepHashPassword   OnboardingStep = "hash_password"
	StepCreateUser     OnboardingStep = "create_user"
	StepCreateProfile  OnboardingStep = "create_profile"
	StepPublishEvent   OnboardingStep = "publish_event"
)

// OnboardingError wraps a failure with the step it occurred at.
type OnboardingError struct {
	Step OnboardingStep
	Err  error
}

// Error implements the error interface.
func (e *OnboardingError) Error() string {
	return fmt.Sprintf("onboarding failed at %s: %v", e.Step, e.Err)
}

// Unwrap returns the underlying error.
func (e *OnboardingError) Unwrap() error {
	return e.Err
}

// OnboardingSaga orchestrates registration.
type OnboardingSaga struct {
	userRepo    identity.Repository
	profileRepo profile.Repository
	publisher   shared.EventPublisher
	log         *logger.Logger

	// bcryptCost overrides bcrypt.DefaultCost in tests.
	bcryptCost int
}

// NewOnboardingSaga creates a new OnboardingSaga.
func NewOnboardingSaga(
	userRepo identity.Repository,
	profileRepo profile.Repository,
	publisher shared.EventPublisher,
	log *logger.Logger,
) *OnboardingSaga {
	return &OnboardingSaga{
		userRepo:    userRepo,
		profileRepo: profileRepo,
		publisher:   publisher,
		log:         log.With(logger.Component("saga.onboarding")),
		bcryptCost:  bcrypt.DefaultCost,
	}
}

// Execute runs the onboarding saga.
func (s *OnboardingSaga) Execute(ctx context.Context, input OnboardingInput) (*OnboardingResult, error) {
	if err := input.Validate(); err != nil {
		return nil, &OnboardingError{Step: StepValidateInput, Err: err}
	}

	if input.Guest {
		return s.executeGuest(ctx)
	}

	email := identity.NormalizeEmail(input.Email)

	// Reject duplicate emails before doing any work.
	if existing, err := s.userRepo.GetByEmail(ctx, email); err == nil && existing != nil {
		return nil, &OnboardingError{Step: StepCheckExistence, Err: shared.ErrUserAlreadyExists}
	} else if err != nil && !shared.IsNotFound(err) {
		return nil, &OnboardingError{Step: StepCheckExistence, Err: err}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.bcryptCost)
	if err != nil {
		return nil, &OnboardingError{Step: StepHashPassword, Err: err}
	}

	user, err := identity.NewUser(uuid.NewString(), email, string(hash))
	if err != nil {
		return nil, &OnboardingError{Step: StepCreateUser, Err: err}
	}

	displayName := input.DisplayName
	if displayName == "" {
		displayName = localPart(email.String())
	}

	return s.provision(ctx, user, displayName)
}

// executeGuest creates an anonymous trial account.
func (s *OnboardingSaga) executeGuest(ctx context.Context) (*OnboardingResult, error) {
	user, err := identity.NewGuest(uuid.NewString())
	if err != nil {
		return nil, &OnboardingError{Step: StepCreateUser, Err: err}
	}
	return s.provision(ctx, user, "Guest")
}

// provision persists the user and profile, compensating the user write when
// the profile write fails.
func (s *OnboardingSaga) provision(ctx context.Context, user *identity.User, displayName string) (*OnboardingResult, error) {
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, &OnboardingError{Step: StepCreateUser, Err: err}
	}

	p, err := profile.NewProfile(user.ID, displayName)
	if err == nil {
		err = s.profileRepo.Create(ctx, p)
	}
	if err != nil {
		// Compensation: remove the half-created user.
		if delErr := s.userRepo.Delete(ctx, user.ID); delErr != nil {
			s.log.Error("onboarding compensation failed",
				logger.UserID(user.ID),
				logger.Err(errors.Join(err, delErr)),
			)
		}
		return nil, &OnboardingError{Step: StepCreateProfile, Err: err}
	}

	event := shared.NewUserRegisteredEvent(user.ID, user.Email.String(), displayName, user.Guest)
	if pubErr := s.publisher.Publish(event); pubErr != nil {
		// The account exists; a lost welcome event is not worth failing over.
		s.log.Warn("failed to publish registration event", logger.UserID(user.ID), logger.Err(pubErr))
	}

	s.log.Info("user onboarded",
		logger.UserID(user.ID),
		logger.Bool("guest", user.Guest),
	)

	return &OnboardingResult{
		User:        user,
		Profile:     p,
		OnboardedAt: time.Now().UTC(),
	}, nil
}

func localPart(email string) string {
	for i := 0; i < len(email); i++ {
		if email[i] == '@' {
			return email[:i]
		}
	}
	return email
}
