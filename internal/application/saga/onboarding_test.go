package saga

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/orbit-hub/orbit-student-hub/internal/domain/identity"
	"github.com/orbit-hub/orbit-student-hub/internal/domain/profile"
	"github.com/orbit-hub/orbit-student-hub/internal/domain/shared"
	"github.com/orbit-hub/orbit-student-hub/pkg/logger"
)

type memoryUserRepo struct {
	users map[string]*identity.User
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{users: make(map[string]*identity.User)}
}

func (r *memoryUserRepo) Create(_ context.Context, u *identity.User) error {
	r.users[u.ID] = u
	return nil
}

func (r *memoryUserRepo) Update(_ context.Context, u *identity.User) error {
	r.users[u.ID] = u
	return nil
}

func (r *memoryUserRepo) Delete(_ context.Context, id string) error {
	delete(r.users, id)
	return nil
}

func (r *memoryUserRepo) GetByID(_ context.Context, id string) (*identity.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, shared.ErrUserNotFound
	}
	return u, nil
}

func (r *memoryUserRepo) GetByEmail(_ context.Context, email identity.Email) (*identity.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, shared.ErrUserNotFound
}

type memoryProfileRepo struct {
	profiles map[string]*profile.Profile
	failNext bool
}

func (r *memoryProfileRepo) Create(_ context.Context, p *profile.Profile) error {
	if r.failNext {
		return errors.New("store unavailable")
	}
	r.profiles[p.UserID] = p
	return nil
}

func (r *memoryProfileRepo) Update(_ context.Context, p *profile.Profile) error {
	r.profiles[p.UserID] = p
	return nil
}

func (r *memoryProfileRepo) GetByUserID(_ context.Context, userID string) (*profile.Profile, error) {
	p, ok := r.profiles[userID]
	if !ok {
		return nil, shared.ErrProfileNotFound
	}
	return p, nil
}

type nopPublisher struct{ events []shared.Event }

func (p *nopPublisher) Publish(e shared.Event) error {
	p.events = append(p.events, e)
	return nil
}

func newTestSaga(users *memoryUserRepo, profiles *memoryProfileRepo, pub *nopPublisher) *OnboardingSaga {
	s := NewOnboardingSaga(users, profiles, pub, logger.NewNop())
	s.bcryptCost = bcrypt.MinCost
	return s
}

func TestOnboardingRegistersUserWithProfile(t *testing.T) {
	users := newMemoryUserRepo()
	profiles := &memoryProfileRepo{profiles: make(map[string]*profile.Profile)}
	pub := &nopPublisher{}
	s := newTestSaga(users, profiles, pub)

	res, err := s.Execute(context.Background(), OnboardingInput{
		Email:    "Dina@Example.com",
		Password: "secret123",
	})
	require.NoError(t, err)

	assert.Equal(t, identity.Email("dina@example.com"), res.User.Email)
	assert.False(t, res.User.Guest)
	assert.Equal(t, "Dina", res.Profile.DisplayName)
	assert.Equal(t, profile.Level(1), res.Profile.StoredLevel)

	// Password is stored hashed, never in the clear.
	assert.NotEqual(t, "secret123", res.User.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(res.User.PasswordHash), []byte("secret123")))

	require.Len(t, pub.events, 1)
	assert.Equal(t, shared.EventUserRegistered, pub.events[0].EventType())
}

func TestOnboardingRejectsDuplicateEmail(t *testing.T) {
	users := newMemoryUserRepo()
	profiles := &memoryProfileRepo{profiles: make(map[string]*profile.Profile)}
	s := newTestSaga(users, profiles, &nopPublisher{})

	input := OnboardingInput{Email: "dina@example.com", Password: "secret123"}
	_, err := s.Execute(context.Background(), input)
	require.NoError(t, err)

	_, err = s.Execute(context.Background(), input)
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrUserAlreadyExists)

	var sagaErr *OnboardingError
	require.ErrorAs(t, err, &sagaErr)
	assert.Equal(t, StepCheckExistence, sagaErr.Step)
}

func TestOnboardingGuest(t *testing.T) {
	users := newMemoryUserRepo()
	profiles := &memoryProfileRepo{profiles: make(map[string]*profile.Profile)}
	s := newTestSaga(users, profiles, &nopPublisher{})

	res, err := s.Execute(context.Background(), OnboardingInput{Guest: true})
	require.NoError(t, err)
	assert.True(t, res.User.Guest)
	assert.Empty(t, res.User.Email)
	assert.Equal(t, "Guest", res.Profile.DisplayName)
}

func TestOnboardingCompensatesOnProfileFailure(t *testing.T) {
	users := newMemoryUserRepo()
	profiles := &memoryProfileRepo{profiles: make(map[string]*profile.Profile), failNext: true}
	s := newTestSaga(users, profiles, &nopPublisher{})

	_, err := s.Execute(context.Background(), OnboardingInput{
		Email:    "dina@example.com",
		Password: "secret123",
	})
	require.Error(t, err)

	var sagaErr *OnboardingError
	require.ErrorAs(t, err, &sagaErr)
	assert.Equal(t, StepCreateProfile, sagaErr.Step)

	// The half-created user must be rolled back.
	assert.Empty(t, users.users)
}

func TestOnboardingValidation(t *testing.T) {
	s := newTestSaga(newMemoryUserRepo(), &memoryProfileRepo{profiles: make(map[string]*profile.Profile)}, &nopPublisher{})

	_, err := s.Execute(context.Background(), OnboardingInput{Email: "not-an-email", Password: "secret123"})
	assert.Error(t, err)

	_, err = s.Execute(context.Background(), OnboardingInput{Email: "a@b.com", Password: "short"})
	assert.Error(t, err)
}
