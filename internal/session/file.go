package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/natefinch/atomic"
)

// fileState is the on-disk layout of the state file.
type fileState struct {
	Credentials *Credentials `json:"credentials,omitempty"`
	Settings    Settings     `json:"settings"`
}

// FileStore keeps credentials and settings in a single JSON file, written
// atomically so a crash mid-write never leaves a truncated state file.
type FileStore struct {
	path string
	now  func() time.Time

	mu sync.RWMutex
}

// Compile-time check that FileStore implements Store.
var _ Store = (*FileStore)(nil)

// NewFileStore creates a store backed by the JSON file at path, creating
// parent directories as needed.
func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}
	return &FileStore{path: path, now: time.Now}, nil
}

// Credentials returns the stored credentials, nil when absent or expired.
func (s *FileStore) Credentials(ctx context.Context) (*Credentials, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, err := s.load()
	if err != nil {
		return nil, err
	}
	if !state.Credentials.Valid(s.now()) {
		return nil, nil
	}
	return state.Credentials, nil
}

// SetCredentials replaces the stored credentials.
func (s *FileStore) SetCredentials(ctx context.Context, creds *Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.load()
	if err != nil {
		return err
	}
	state.Credentials = creds
	return s.save(state)
}

// Settings returns the stored settings.
func (s *FileStore) Settings(ctx context.Context) (Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, err := s.load()
	if err != nil {
		return Settings{}, err
	}
	return state.Settings, nil
}

// SetSettings replaces the stored settings wholesale.
func (s *FileStore) SetSettings(ctx context.Context, settings Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.load()
	if err != nil {
		return err
	}
	state.Settings = settings
	return s.save(state)
}

// load reads the state file; a missing file is an empty state, not an
// error. Callers hold s.mu.
func (s *FileStore) load() (*fileState, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return &fileState{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading state file: %w", err)
	}

	var state fileState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parsing state file %s: %w", s.path, err)
	}
	return &state, nil
}

// save writes the state file atomically with owner-only permissions; the
// file holds a live credential. Callers hold s.mu.
func (s *FileStore) save(state *fileState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}
	if err := atomic.WriteFile(s.path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("writing state file: %w", err)
	}
	if err := os.Chmod(s.path, 0o600); err != nil {
		return fmt.Errorf("restricting state file permissions: %w", err)
	}
	return nil
}
