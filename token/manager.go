package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/go-login-server/internal/errors"
	"github.com/jonboulle/clockwork"
)

// DefaultExpiry is the fixed validity window of a login token.
const DefaultExpiry = 24 * time.Hour

// Manager issues and verifies login tokens.
type Manager struct {
	signer       Signer
	issuer       string
	expiry       time.Duration
	clock        clockwork.Clock
	revokedCache RevokedTokenCache
}

type ManagerOption func(*Manager)

func WithExpiry(expiry time.Duration) ManagerOption {
	return func(m *Manager) {
		if expiry > 0 {
			m.expiry = expiry
		}
	}
}

// WithClock sets the clock (primarily for testing)
func WithClock(clock clockwork.Clock) ManagerOption {
	return func(m *Manager) {
		m.clock = clock
	}
}

func WithIssuer(issuer string) ManagerOption {
	return func(m *Manager) {
		m.issuer = issuer
	}
}

func WithRevokedTokenCache(cache RevokedTokenCache) ManagerOption {
	return func(m *Manager) {
		m.revokedCache = cache
	}
}

func New(signer Signer, options ...ManagerOption) *Manager {
	m := &Manager{
		signer:       signer,
		expiry:       DefaultExpiry,
		clock:        clockwork.NewRealClock(),
		revokedCache: NewInMemoryRevokedTokenCache(),
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

func (m *Manager) Expiry() time.Duration {
	return m.expiry
}

// Issue signs a token carrying the user's id and email, valid for the
// manager's expiry window from now.
func (m *Manager) Issue(userID, email string) (string, error) {
	now := m.clock.Now()
	claims := Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Issuer:    m.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.expiry)),
		},
	}
	signed, err := m.signer.Sign(claims)
	if err != nil {
		return "", fmt.Errorf("[Issue] %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token. Expired tokens return an error matching
// errors.ErrTokenExpired, revoked ones errors.ErrTokenRevoked and anything else
// that fails verification errors.ErrInvalidToken.
func (m *Manager) Verify(rawToken string) (*Claims, error) {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return nil, apperrors.ErrMissingToken
	}

	claims := &Claims{}
	parserOptions := []jwt.ParserOption{
		jwt.WithValidMethods([]string{m.signer.GetSigningMethod().Alg()}),
		jwt.WithTimeFunc(m.clock.Now),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	}
	if m.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(m.issuer))
	}

	_, err := jwt.ParseWithClaims(rawToken, claims, m.signer.GetVerificationKey, parserOptions...)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, apperrors.Wrapf(apperrors.ErrTokenExpired, "[Verify] %s", err.Error())
	case err != nil:
		return nil, apperrors.Wrapf(apperrors.ErrInvalidToken, "[Verify] %s", err.Error())
	}

	if m.revokedCache.IsRevoked(claims) {
		return nil, apperrors.ErrTokenRevoked
	}
	return claims, nil
}

// Revoke verifies the token and blocks its id until the token expires.
func (m *Manager) Revoke(rawToken string) error {
	claims, err := m.Verify(rawToken)
	if err != nil {
		return fmt.Errorf("[Revoke] %w", err)
	}
	if err := m.revokedCache.Add(claims.RegisteredClaims.ID, claims.ExpiresAt.Time); err != nil {
		return fmt.Errorf("[Revoke] %w", err)
	}
	m.revokedCache.Cleanup(m.clock.Now())
	return nil
}

// RevokeAll verifies the token and revokes every token issued to its user up
// to now, on any device.
func (m *Manager) RevokeAll(rawToken string) (*Claims, error) {
	claims, err := m.Verify(rawToken)
	if err != nil {
		return nil, fmt.Errorf("[RevokeAll] %w", err)
	}
	now := m.clock.Now()
	if err := m.revokedCache.AddUser(claims.UserID, now, now.Add(m.expiry)); err != nil {
		return nil, fmt.Errorf("[RevokeAll] %w", err)
	}
	m.revokedCache.Cleanup(now)
	return claims, nil
}
