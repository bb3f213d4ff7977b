// Package filestore is a credentials.Repo backed by a JSON file.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/jrsteele09/go-login-server/credentials"
)

// DefaultFileName is the name of the login record inside the data folder.
const DefaultFileName = "login.json"

var _ credentials.Repo = (*Store)(nil)

type Store struct {
	path string
	mu   sync.Mutex
}

// New returns a store writing to DefaultFileName inside folder.
func New(folder string) *Store {
	return &Store{path: filepath.Join(folder, DefaultFileName)}
}

func (s *Store) Path() string {
	return s.path
}

// Store writes the record to a temp file and renames it over the old one so
// a crash never leaves a half written record.
func (s *Store) Store(_ context.Context, record credentials.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("[Store] marshal record: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("[Store] create folder: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".login-*.json")
	if err != nil {
		return fmt.Errorf("[Store] create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("[Store] write record: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("[Store] chmod record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("[Store] close record: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("[Store] replace record: %w", err)
	}
	return nil
}

func (s *Store) Read(_ context.Context) (credentials.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return credentials.Record{}, nil
	}
	if err != nil {
		return credentials.Record{}, fmt.Errorf("[Read] %w", err)
	}

	var record credentials.Record
	if err := json.Unmarshal(data, &record); err != nil {
		return credentials.Record{}, fmt.Errorf("[Read] decode %s: %w", s.path, err)
	}
	return record, nil
}

func (s *Store) Delete(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("[Delete] %w", err)
	}
	return nil
}
