// Package credentials persists the client's login record between runs.
package credentials

import "context"

// Record is the persisted result of a successful login. Credentials
// themselves are never persisted.
type Record struct {
	ID    string `json:"id"`
	Token string `json:"token"`
}

// Empty reports whether the record holds no session.
func (r Record) Empty() bool {
	return r.ID == "" && r.Token == ""
}

// Repo is the durable client-side store for the login record.
type Repo interface {
	// Store writes the record, overwriting any previous one
	Store(ctx context.Context, record Record) error

	// Read returns the stored record, or the zero Record when none is stored
	Read(ctx context.Context) (Record, error)

	// Delete removes the stored record; deleting nothing is not an error
	Delete(ctx context.Context) error
}
