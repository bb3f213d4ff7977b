// Package login implements the server side of the login mutation: it checks
// credentials against the user store and issues a signed token.
package login

import (
	"context"
	"errors"
	"time"

	apperrors "github.com/jrsteele09/go-login-server/internal/errors"
	"github.com/jrsteele09/go-login-server/internal/metrics"
	"github.com/jrsteele09/go-login-server/token"
	"github.com/jrsteele09/go-login-server/users"
	"github.com/rs/zerolog/log"
)

// Result is returned by a successful login.
type Result struct {
	Token string
	User  *users.User
}

// Service handles login, logout and token lookups.
type Service struct {
	users   users.UserRepo
	tokens  *token.Manager
	nowTime func() time.Time
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

func NewService(userRepo users.UserRepo, tokens *token.Manager, options ...ServiceOption) (*Service, error) {
	if userRepo == nil {
		return nil, errors.New("[NewService] users repo is required")
	}
	if tokens == nil {
		return nil, errors.New("[NewService] token manager is required")
	}

	s := &Service{
		users:   userRepo,
		tokens:  tokens,
		nowTime: time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Login verifies the credentials and issues a token embedding the user's id
// and email. Unknown emails and wrong passwords return *InvalidCredentialsError.
func (s *Service) Login(ctx context.Context, email, password string) (*Result, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, apperrors.ErrUserNotFound) {
		metrics.LoginAttempts.WithLabelValues(metrics.OutcomeUnknownEmail).Inc()
		return nil, &InvalidCredentialsError{Message: MsgNoUser}
	}
	if err != nil {
		metrics.LoginAttempts.WithLabelValues(metrics.OutcomeError).Inc()
		return nil, apperrors.Wrapf(err, "[Login] user lookup")
	}

	if !user.CheckPassword(password) {
		metrics.LoginAttempts.WithLabelValues(metrics.OutcomeWrongPassword).Inc()
		return nil, &InvalidCredentialsError{Message: MsgIncorrectPassword}
	}

	signed, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		metrics.LoginAttempts.WithLabelValues(metrics.OutcomeError).Inc()
		return nil, apperrors.Wrapf(err, "[Login] issue token")
	}

	now := s.nowTime()
	if err := s.users.SetLastLogin(ctx, user.ID, now); err != nil {
		log.Err(err).Str("user_id", user.ID).Msg("Failed to record last login")
	} else {
		user.LastLogin = now
	}

	metrics.LoginAttempts.WithLabelValues(metrics.OutcomeSuccess).Inc()
	log.Info().Str("user_id", user.ID).Msg("User logged in")
	return &Result{Token: signed, User: user}, nil
}

// Logout revokes the token so it no longer verifies.
func (s *Service) Logout(_ context.Context, rawToken string) error {
	if err := s.tokens.Revoke(rawToken); err != nil {
		return apperrors.Wrapf(err, "[Logout]")
	}
	metrics.TokensRevoked.Inc()
	return nil
}

// LogoutAll revokes every token issued to the token's user so far.
func (s *Service) LogoutAll(_ context.Context, rawToken string) error {
	claims, err := s.tokens.RevokeAll(rawToken)
	if err != nil {
		return apperrors.Wrapf(err, "[LogoutAll]")
	}
	metrics.TokensRevoked.Inc()
	log.Info().Str("user_id", claims.UserID).Msg("User logged out everywhere")
	return nil
}

// Me returns the user a valid token was issued to.
func (s *Service) Me(ctx context.Context, rawToken string) (*users.User, error) {
	claims, err := s.tokens.Verify(rawToken)
	if err != nil {
		return nil, apperrors.Wrapf(err, "[Me]")
	}
	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, apperrors.Wrapf(err, "[Me]")
	}
	return user, nil
}
