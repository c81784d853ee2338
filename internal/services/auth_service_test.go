package services

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/biyahe/booking-backend/internal/models"
	"github.com/biyahe/booking-backend/pkg/jwt"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUserStore struct {
	mu    sync.Mutex
	users map[string]*models.User // keyed by email
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[string]*models.User{}}
}

func (f *fakeUserStore) CreateUser(email, passwordHash, firstName, lastName string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.users[email]; exists {
		return nil, fmt.Errorf("email already registered")
	}
	user := &models.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: passwordHash,
		FirstName:    firstName,
		LastName:     lastName,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	f.users[email] = user
	return user, nil
}

func (f *fakeUserStore) GetUserByEmail(email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[email]
	if !ok {
		return nil, fmt.Errorf("user not found")
	}
	return user, nil
}

func (f *fakeUserStore) GetUserByID(id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, fmt.Errorf("user not found")
}

func newAuthFixture() (*AuthService, *fakeUserStore) {
	users := newFakeUserStore()
	jwtService := jwt.NewService("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour)
	return NewAuthService(users, jwtService, 4, testLogger()), users
}

func TestSignupAndLogin(t *testing.T) {
	svc, _ := newAuthFixture()

	resp, err := svc.Signup(&models.SignupRequest{
		Email:     "Juan@Example.com",
		Password:  "correct-horse",
		FirstName: "Juan",
		LastName:  "Dela Cruz",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "juan@example.com", resp.User.Email)

	login, err := svc.Login(&models.LoginRequest{
		Email:    "juan@example.com",
		Password: "correct-horse",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, login.AccessToken)
}

func TestSignupRejectsWeakPassword(t *testing.T) {
	svc, _ := newAuthFixture()

	_, err := svc.Signup(&models.SignupRequest{
		Email:    "juan@example.com",
		Password: "short",
	})
	assert.Error(t, err)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newAuthFixture()

	_, err := svc.Signup(&models.SignupRequest{
		Email:    "juan@example.com",
		Password: "correct-horse",
	})
	require.NoError(t, err)

	_, err = svc.Login(&models.LoginRequest{
		Email:    "juan@example.com",
		Password: "wrong-password",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(&models.LoginRequest{
		Email:    "nobody@example.com",
		Password: "correct-horse",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefreshIssuesNewPair(t *testing.T) {
	svc, _ := newAuthFixture()

	resp, err := svc.Signup(&models.SignupRequest{
		Email:    "juan@example.com",
		Password: "correct-horse",
	})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(resp.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.Equal(t, resp.User.ID, refreshed.User.ID)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	svc, _ := newAuthFixture()

	resp, err := svc.Signup(&models.SignupRequest{
		Email:    "juan@example.com",
		Password: "correct-horse",
	})
	require.NoError(t, err)

	_, err = svc.Refresh(resp.AccessToken)
	assert.Error(t, err)
}
