// Package config loads the bridge configuration from defaults, an optional
// TOML file, and CLAUDE_BRIDGE_-prefixed environment variables, in that
// order of precedence (later sources win).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	toml "github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Storage backends for the session store.
const (
	StorageFile    = "file"
	StorageKeyring = "keyring"
)

// Config is the fully resolved bridge configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Provider ProviderConfig `koanf:"provider"`
	Session  SessionConfig  `koanf:"session"`
	Log      LogConfig      `koanf:"log"`
}

// ServerConfig configures the HTTP(S) listener.
type ServerConfig struct {
	Listen string `koanf:"listen" validate:"required,hostname_port"`

	// UseSSL serves HTTPS using CertFile/KeyFile.
	UseSSL   bool   `koanf:"use_ssl"`
	CertFile string `koanf:"cert_file" validate:"required_with=UseSSL"`
	KeyFile  string `koanf:"key_file" validate:"required_with=UseSSL"`

	// MaxRequestBytes caps request body size.
	MaxRequestBytes int64 `koanf:"max_request_bytes" validate:"gt=0"`
}

// ProviderConfig configures the Claude.ai client.
type ProviderConfig struct {
	BaseURL      string `koanf:"base_url" validate:"required,url"`
	DefaultModel string `koanf:"default_model" validate:"required"`
}

// SessionConfig configures where the session key and settings live.
type SessionConfig struct {
	Storage string `koanf:"storage" validate:"oneof=file keyring"`
	Path    string `koanf:"path" validate:"required"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=text json"`
}

// defaults are the baseline configuration every load starts from.
func defaults() map[string]any {
	return map[string]any{
		"server.listen":            "0.0.0.0:5001",
		"server.use_ssl":           false,
		"server.cert_file":         "cert.pem",
		"server.key_file":          "key.pem",
		"server.max_request_bytes": int64(10 << 20),
		"provider.base_url":        "https://api.claude.ai/api",
		"provider.default_model":   "claude-3.5-sonnet",
		"session.storage":          StorageFile,
		"session.path":             defaultStatePath(),
		"log.level":                "info",
		"log.format":               "text",
	}
}

// defaultStatePath places the state file under the user config directory,
// falling back to the working directory when it cannot be resolved.
func defaultStatePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "claude-bridge.json"
	}
	return filepath.Join(dir, "claude-bridge", "state.json")
}

// Load resolves the configuration. path may be empty to skip the file layer;
// a named file that does not exist is an error.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	// CLAUDE_BRIDGE_SERVER_LISTEN=127.0.0.1:8080 etc. Only the first
	// underscore separates section from key, so keys like
	// max_request_bytes keep theirs.
	err := k.Load(env.Provider(".", env.Opt{
		Prefix: "CLAUDE_BRIDGE_",
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, "CLAUDE_BRIDGE_"))
			key = strings.Replace(key, "_", ".", 1)
			return key, value
		},
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}
