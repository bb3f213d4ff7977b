package session

import "github.com/jrsteele09/go-login-server/credentials"

// Kind identifies an action type.
type Kind string

const (
	KindLoginSucceeded     Kind = "LOGIN_SUCCEEDED"
	KindLogoutRequested    Kind = "LOGOUT_REQUESTED"
	KindNewSession         Kind = "NEW_SESSION"
	KindSessionFromQuery   Kind = "SESSION_FROM_QUERY"
	KindSessionFromStorage Kind = "SESSION_FROM_STORAGE"
)

// Action is anything dispatched to the Store.
type Action interface {
	Kind() Kind
}

// NewSession replaces the session wholesale. Empty fields clear it.
type NewSession struct {
	ID    string
	Token string
}

// LoginSucceeded announces a session that should be persisted.
type LoginSucceeded struct {
	ID    string
	Token string
}

// LogoutRequested clears the session locally and remotely.
type LogoutRequested struct{}

// SessionFromQuery carries credentials returned by the login mutation.
type SessionFromQuery struct {
	Credentials credentials.Record
}

// SessionFromStorage restores the session from the credential store.
type SessionFromStorage struct{}

func (NewSession) Kind() Kind         { return KindNewSession }
func (LoginSucceeded) Kind() Kind     { return KindLoginSucceeded }
func (LogoutRequested) Kind() Kind    { return KindLogoutRequested }
func (SessionFromQuery) Kind() Kind   { return KindSessionFromQuery }
func (SessionFromStorage) Kind() Kind { return KindSessionFromStorage }

func RequestLogout() Action {
	return LogoutRequested{}
}

func RequestSessionFromQuery(record credentials.Record) Action {
	return SessionFromQuery{Credentials: record}
}

func RequestSessionFromStorage() Action {
	return SessionFromStorage{}
}
