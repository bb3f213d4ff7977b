package token

import (
	"sync"
	"time"
)

// RevokedTokenCache remembers logouts until the tokens they cover have expired.
// A logout revokes either one token, by its id, or every token a user was
// issued up to a point in time.
type RevokedTokenCache interface {
	Add(jti string, exp time.Time) error
	AddUser(userID string, issuedUpTo, exp time.Time) error
	IsRevoked(claims *Claims) bool
	Cleanup(now time.Time) // Remove entries whose tokens have expired anyway
}

type userRevocation struct {
	issuedUpTo time.Time
	exp        time.Time
}

// InMemoryRevokedTokenCache keeps revocations in process memory; they are
// lost on restart.
type InMemoryRevokedTokenCache struct {
	tokens map[string]time.Time
	users  map[string]userRevocation
	mu     sync.RWMutex
}

func NewInMemoryRevokedTokenCache() *InMemoryRevokedTokenCache {
	return &InMemoryRevokedTokenCache{
		tokens: make(map[string]time.Time),
		users:  make(map[string]userRevocation),
	}
}

func (c *InMemoryRevokedTokenCache) Add(jti string, exp time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens[jti] = exp
	return nil
}

// AddUser revokes every token issued to userID at or before issuedUpTo. Token
// times have second precision, so a token issued within the same second is
// revoked too. A later cutoff replaces an earlier one.
func (c *InMemoryRevokedTokenCache) AddUser(userID string, issuedUpTo, exp time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.users[userID]; ok && existing.issuedUpTo.After(issuedUpTo) {
		return nil
	}
	c.users[userID] = userRevocation{issuedUpTo: issuedUpTo, exp: exp}
	return nil
}

func (c *InMemoryRevokedTokenCache) IsRevoked(claims *Claims) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if _, ok := c.tokens[claims.ID]; ok && claims.ID != "" {
		return true
	}
	revocation, ok := c.users[claims.UserID]
	if !ok || claims.IssuedAt == nil {
		return false
	}
	return !claims.IssuedAt.Time.After(revocation.issuedUpTo)
}

func (c *InMemoryRevokedTokenCache) Cleanup(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for jti, exp := range c.tokens {
		if now.After(exp) {
			delete(c.tokens, jti)
		}
	}
	for userID, revocation := range c.users {
		if now.After(revocation.exp) {
			delete(c.users, userID)
		}
	}
}

// Len reports how many revocations are still held.
func (c *InMemoryRevokedTokenCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tokens) + len(c.users)
}
