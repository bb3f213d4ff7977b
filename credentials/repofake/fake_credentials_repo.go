package fakecredentialsrepo

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-login-server/credentials"
)

var _ credentials.Repo = (*FakeCredentialsRepo)(nil)

// FakeCredentialsRepo keeps the record in memory. Err, when set, is returned
// by every call.
type FakeCredentialsRepo struct {
	record credentials.Record
	stored bool
	Err    error
	lock   sync.RWMutex
}

func NewFakeCredentialsRepo() *FakeCredentialsRepo {
	return &FakeCredentialsRepo{}
}

func (r *FakeCredentialsRepo) Store(_ context.Context, record credentials.Record) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.Err != nil {
		return r.Err
	}
	r.record = record
	r.stored = true
	return nil
}

func (r *FakeCredentialsRepo) Read(_ context.Context) (credentials.Record, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	if r.Err != nil {
		return credentials.Record{}, r.Err
	}
	return r.record, nil
}

func (r *FakeCredentialsRepo) Delete(_ context.Context) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.Err != nil {
		return r.Err
	}
	r.record = credentials.Record{}
	r.stored = false
	return nil
}

// Stored reports whether a record is currently persisted.
func (r *FakeCredentialsRepo) Stored() bool {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.stored
}

func (r *FakeCredentialsRepo) SetErr(err error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.Err = err
}
