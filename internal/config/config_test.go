package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:5001", cfg.Server.Listen)
	assert.False(t, cfg.Server.UseSSL)
	assert.Equal(t, "https://api.claude.ai/api", cfg.Provider.BaseURL)
	assert.Equal(t, "claude-3.5-sonnet", cfg.Provider.DefaultModel)
	assert.Equal(t, StorageFile, cfg.Session.Storage)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[server]
listen = "127.0.0.1:8080"
use_ssl = true

[provider]
default_model = "claude-2"
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Listen)
	assert.True(t, cfg.Server.UseSSL)
	assert.Equal(t, "claude-2", cfg.Provider.DefaultModel)
	// Untouched keys keep their defaults.
	assert.Equal(t, "cert.pem", cfg.Server.CertFile)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("CLAUDE_BRIDGE_SERVER_LISTEN", "127.0.0.1:9999")
	t.Setenv("CLAUDE_BRIDGE_LOG_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9999", cfg.Server.Listen)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_MissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestLoad_InvalidValuesRejected(t *testing.T) {
	t.Setenv("CLAUDE_BRIDGE_LOG_LEVEL", "loud")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}
