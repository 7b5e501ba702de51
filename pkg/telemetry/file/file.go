// Package file provides a telemetry.Store that keeps all records as one
// JSON array in a single file.
//
// Every write reads the array, appends, and rewrites the file through a
// temporary file and rename, so readers never observe a partial file.
// A file that cannot be decoded is left untouched and all operations
// return telemetry.ErrCorrupt until an operator repairs it.
package file

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/rhuss/askgate/pkg/api"
	"github.com/rhuss/askgate/pkg/telemetry"
)

// Store is a file-backed telemetry store.
type Store struct {
	mu   sync.Mutex
	path string
}

// Ensure Store implements telemetry.Store at compile time.
var _ telemetry.Store = (*Store)(nil)

// New creates a store at path. The parent directory is created if needed.
// An existing file is validated up front.
func New(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating directory: %w", err)
		}
	}
	s := &Store{path: path}
	if _, err := s.read(); err != nil {
		return nil, err
	}
	return s, nil
}

// Append adds a record and rewrites the file.
func (s *Store) Append(_ context.Context, rec *api.TelemetryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs, err := s.read()
	if err != nil {
		return err
	}
	recs = append(recs, rec)
	return s.write(recs)
}

// List returns a page of records.
func (s *Store) List(_ context.Context, opts telemetry.ListOptions) ([]*api.TelemetryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs, err := s.read()
	if err != nil {
		return nil, err
	}
	return telemetry.Page(recs, opts), nil
}

// Count returns the number of records.
func (s *Store) Count(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs, err := s.read()
	if err != nil {
		return 0, err
	}
	return len(recs), nil
}

// Close is a no-op; the file is not held open between calls.
func (s *Store) Close() error {
	return nil
}

// read loads the array. A missing or blank file is empty.
func (s *Store) read() ([]*api.TelemetryRecord, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var recs []*api.TelemetryRecord
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", telemetry.ErrCorrupt, s.path, err)
	}
	return recs, nil
}

func (s *Store) write(recs []*api.TelemetryRecord) error {
	data, err := json.MarshalIndent(recs, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding records: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replacing %s: %w", s.path, err)
	}
	return nil
}
