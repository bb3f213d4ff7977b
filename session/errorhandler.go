package session

import (
	"context"

	"github.com/rs/zerolog/log"
)

// ErrorHandler receives every failure raised inside a reaction.
type ErrorHandler interface {
	HandleError(ctx context.Context, kind Kind, err error)
}

// ErrorHandlerFunc adapts a function to ErrorHandler.
type ErrorHandlerFunc func(ctx context.Context, kind Kind, err error)

func (f ErrorHandlerFunc) HandleError(ctx context.Context, kind Kind, err error) {
	f(ctx, kind, err)
}

// LogErrorHandler logs reaction failures and otherwise ignores them.
type LogErrorHandler struct{}

func (LogErrorHandler) HandleError(_ context.Context, kind Kind, err error) {
	log.Err(err).Str("kind", string(kind)).Msg("Session reaction failed")
}
