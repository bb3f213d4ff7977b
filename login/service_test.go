package login_test

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "github.com/jrsteele09/go-login-server/internal/errors"
	"github.com/jrsteele09/go-login-server/login"
	"github.com/jrsteele09/go-login-server/token"
	"github.com/jrsteele09/go-login-server/users"
	fakeuserrepo "github.com/jrsteele09/go-login-server/users/repofake"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

const (
	secretStr        = "1234"
	testUserID       = "user-1"
	testUserEmail    = "a@b.com"
	testUserPassword = "pw"
)

// testFixture holds all test dependencies
type testFixture struct {
	userRepo *fakeuserrepo.FakeUserRepo
	clock    *clockwork.FakeClock
	tokens   *token.Manager
	service  *login.Service
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	clock := clockwork.NewFakeClockAt(time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC))
	signer, err := token.NewHMACSigner(secretStr)
	require.NoError(t, err)
	tokens := token.New(signer, token.WithClock(clock))

	ur := fakeuserrepo.NewFakeUserRepo()
	service, err := login.NewService(ur, tokens, login.WithNowTime(clock.Now))
	require.NoError(t, err)

	return &testFixture{userRepo: ur, clock: clock, tokens: tokens, service: service}
}

func (f *testFixture) createTestUser(t *testing.T) {
	t.Helper()

	hash, err := users.HashPassword(testUserPassword)
	require.NoError(t, err)
	require.NoError(t, f.userRepo.Upsert(context.Background(), &users.User{
		ID:           testUserID,
		Email:        testUserEmail,
		PasswordHash: hash,
	}))
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)

	t.Run("unknown email", func(t *testing.T) {
		_, err := f.service.Login(ctx, "x@z.com", testUserPassword)
		require.EqualError(t, err, "No user with that email")
		require.True(t, login.IsInvalidCredentials(err))
	})

	f.createTestUser(t)

	t.Run("wrong password", func(t *testing.T) {
		_, err := f.service.Login(ctx, testUserEmail, "pw2")
		require.EqualError(t, err, "Incorrect password")
		require.True(t, login.IsInvalidCredentials(err))
		require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	})

	t.Run("valid credentials", func(t *testing.T) {
		result, err := f.service.Login(ctx, testUserEmail, testUserPassword)
		require.NoError(t, err)
		require.Equal(t, testUserID, result.User.ID)
		require.Equal(t, f.clock.Now(), result.User.LastLogin)

		claims, err := f.tokens.Verify(result.Token)
		require.NoError(t, err)
		require.Equal(t, testUserID, claims.UserID)
		require.Equal(t, testUserEmail, claims.Email)

		stored, err := f.userRepo.GetByID(ctx, testUserID)
		require.NoError(t, err)
		require.Equal(t, f.clock.Now(), stored.LastLogin)

		f.clock.Advance(24 * time.Hour)
		_, err = f.tokens.Verify(result.Token)
		require.ErrorIs(t, err, apperrors.ErrTokenExpired)
	})
}

type failingRepo struct {
	users.UserRepo
}

func (failingRepo) GetByEmail(context.Context, string) (*users.User, error) {
	return nil, errors.New("connection refused")
}

func TestLogin_RepoFailureIsNotUserInput(t *testing.T) {
	f := setupTestFixture(t)
	service, err := login.NewService(failingRepo{}, f.tokens)
	require.NoError(t, err)

	_, err = service.Login(context.Background(), testUserEmail, testUserPassword)
	require.Error(t, err)
	require.False(t, login.IsInvalidCredentials(err))
	require.Contains(t, err.Error(), "connection refused")
}

func TestLogoutAndMe(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)
	f.createTestUser(t)

	result, err := f.service.Login(ctx, testUserEmail, testUserPassword)
	require.NoError(t, err)

	me, err := f.service.Me(ctx, result.Token)
	require.NoError(t, err)
	require.Equal(t, testUserEmail, me.Email)

	require.NoError(t, f.service.Logout(ctx, result.Token))

	_, err = f.service.Me(ctx, result.Token)
	require.ErrorIs(t, err, apperrors.ErrTokenRevoked)

	_, err = f.service.Me(ctx, "")
	require.ErrorIs(t, err, apperrors.ErrMissingToken)
}

func TestNewService_RequiresDependencies(t *testing.T) {
	_, err := login.NewService(nil, nil)
	require.Error(t, err)

	_, err = login.NewService(fakeuserrepo.NewFakeUserRepo(), nil)
	require.Error(t, err)
}

func TestLogoutAll(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)
	f.createTestUser(t)

	first, err := f.service.Login(ctx, testUserEmail, testUserPassword)
	require.NoError(t, err)
	f.clock.Advance(time.Minute)
	second, err := f.service.Login(ctx, testUserEmail, testUserPassword)
	require.NoError(t, err)

	require.NoError(t, f.service.LogoutAll(ctx, second.Token))
	for _, raw := range []string{first.Token, second.Token} {
		_, err = f.service.Me(ctx, raw)
		require.ErrorIs(t, err, apperrors.ErrTokenRevoked)
	}

	require.ErrorIs(t, f.service.LogoutAll(ctx, "garbage"), apperrors.ErrInvalidToken)
}
