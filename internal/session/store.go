// Package session persists the Claude.ai session key and the small set of
// bridge settings that outlive a single request.
//
// Two backends exist, following the credential-storage split used elsewhere
// in this codebase: a plain JSON state file written atomically, and the OS
// keyring for the key itself. Settings are replaced wholesale and read on
// every request; concurrent writers race with last-write-wins semantics.
package session

import (
	"context"
	"time"
)

// DefaultExpiry is how long a freshly stored session key is considered
// valid.
const DefaultExpiry = 24 * time.Hour

// Credentials is a stored session key with its expiry. A zero ExpiresAt
// means the key never expires, for keys placed in the store out of band.
type Credentials struct {
	SessionKey string    `json:"session_key"`
	ExpiresAt  time.Time `json:"expires_at,omitzero"`
}

// Valid reports whether the credentials carry a usable, unexpired key.
func (c *Credentials) Valid(now time.Time) bool {
	if c == nil || c.SessionKey == "" {
		return false
	}
	return c.ExpiresAt.IsZero() || now.Before(c.ExpiresAt)
}

// Settings are the bridge-level settings shared across requests.
type Settings struct {
	ActiveOrganizationID string `json:"active_organization_id,omitempty"`
	ActiveProjectID      string `json:"active_project_id,omitempty"`
}

// Store persists credentials and settings.
type Store interface {
	// Credentials returns the stored credentials, or nil when none are
	// stored or the stored key has expired.
	Credentials(ctx context.Context) (*Credentials, error)

	// SetCredentials stores credentials, replacing any previous ones. Nil
	// clears them.
	SetCredentials(ctx context.Context, creds *Credentials) error

	// Settings returns the current settings; a zero value when none are
	// stored.
	Settings(ctx context.Context) (Settings, error)

	// SetSettings replaces the settings wholesale.
	SetSettings(ctx context.Context, settings Settings) error
}

// KeySource adapts a Store to the provider client's session-key lookup.
// An expired or missing key yields the empty string, which the upstream
// rejects with an authentication failure.
type KeySource struct {
	Store Store
}

// SessionKey returns the currently stored, unexpired session key.
func (s KeySource) SessionKey(ctx context.Context) (string, error) {
	creds, err := s.Store.Credentials(ctx)
	if err != nil {
		return "", err
	}
	if creds == nil {
		return "", nil
	}
	return creds.SessionKey, nil
}
