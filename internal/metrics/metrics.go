// Package metrics holds the Prometheus collectors shared by the server and
// the client session orchestrator.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Login outcomes.
const (
	OutcomeSuccess       = "success"
	OutcomeUnknownEmail  = "unknown_email"
	OutcomeWrongPassword = "wrong_password"
	OutcomeError         = "error"
)

var (
	// LoginAttempts counts login mutation calls by outcome.
	LoginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "login_attempts_total",
		Help: "Total number of login attempts",
	}, []string{"outcome"})

	// TokensRevoked counts tokens revoked through logout.
	TokensRevoked = promauto.NewCounter(prometheus.CounterOpts{
		Name: "login_tokens_revoked_total",
		Help: "Total number of tokens revoked on logout",
	})

	// SessionReactions counts orchestrator reactions by event kind and outcome.
	SessionReactions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "session_reactions_total",
		Help: "Total number of session orchestrator reactions",
	}, []string{"kind", "outcome"})
)
