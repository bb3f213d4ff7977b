package login

import (
	"errors"

	apperrors "github.com/jrsteele09/go-login-server/internal/errors"
)

// Messages returned to the caller for rejected credentials.
const (
	MsgNoUser            = "No user with that email"
	MsgIncorrectPassword = "Incorrect password"
)

// InvalidCredentialsError is a user-input error: the caller supplied an
// unknown email or the wrong password. It is not a server fault.
type InvalidCredentialsError struct {
	Message string
}

func (e *InvalidCredentialsError) Error() string {
	return e.Message
}

// Unwrap lets callers match the error against errors.ErrInvalidCredentials.
func (e *InvalidCredentialsError) Unwrap() error {
	return apperrors.ErrInvalidCredentials
}

// Extensions marks the error as bad user input in GraphQL responses.
func (e *InvalidCredentialsError) Extensions() map[string]interface{} {
	return map[string]interface{}{"code": "BAD_USER_INPUT"}
}

// IsInvalidCredentials reports whether err is a rejected login.
func IsInvalidCredentials(err error) bool {
	var target *InvalidCredentialsError
	return errors.As(err, &target)
}
