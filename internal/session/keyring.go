package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "claude-bridge"
	keyringUser    = "claude.ai"
)

// KeyringStore keeps the session key in the OS keyring and delegates the
// non-secret settings to a FileStore.
type KeyringStore struct {
	settings *FileStore
	now      func() time.Time
}

// Compile-time check that KeyringStore implements Store.
var _ Store = (*KeyringStore)(nil)

// NewKeyringStore creates a keyring-backed store; settings still live in
// the state file at settingsPath.
func NewKeyringStore(settingsPath string) (*KeyringStore, error) {
	settings, err := NewFileStore(settingsPath)
	if err != nil {
		return nil, err
	}
	return &KeyringStore{settings: settings, now: time.Now}, nil
}

// Credentials reads the credentials blob from the keyring.
func (s *KeyringStore) Credentials(ctx context.Context) (*Credentials, error) {
	secret, err := keyring.Get(keyringService, keyringUser)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading keyring: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal([]byte(secret), &creds); err != nil {
		return nil, fmt.Errorf("parsing keyring credentials: %w", err)
	}
	if !creds.Valid(s.now()) {
		return nil, nil
	}
	return &creds, nil
}

// SetCredentials writes the credentials blob to the keyring; nil deletes
// the entry.
func (s *KeyringStore) SetCredentials(ctx context.Context, creds *Credentials) error {
	if creds == nil {
		if err := keyring.Delete(keyringService, keyringUser); err != nil && !errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("clearing keyring: %w", err)
		}
		return nil
	}

	data, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("encoding credentials: %w", err)
	}
	if err := keyring.Set(keyringService, keyringUser, string(data)); err != nil {
		return fmt.Errorf("writing keyring: %w", err)
	}
	return nil
}

// Settings returns the file-backed settings.
func (s *KeyringStore) Settings(ctx context.Context) (Settings, error) {
	return s.settings.Settings(ctx)
}

// SetSettings replaces the file-backed settings.
func (s *KeyringStore) SetSettings(ctx context.Context, settings Settings) error {
	return s.settings.SetSettings(ctx, settings)
}
