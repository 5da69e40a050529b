// Package app wires configuration, session storage, the Claude.ai client,
// and the HTTP server into one runnable application.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/clsync/claude-bridge/internal/claudeweb"
	"github.com/clsync/claude-bridge/internal/config"
	"github.com/clsync/claude-bridge/internal/server"
	"github.com/clsync/claude-bridge/internal/session"
)

// App orchestrates the lifecycle of the bridge server.
type App struct {
	server *server.Server
	store  session.Store
	health *Health
}

// New creates the application from resolved configuration.
func New(cfg *config.Config) (*App, error) {
	store, err := NewStore(cfg.Session)
	if err != nil {
		return nil, fmt.Errorf("failed to create session store: %w", err)
	}

	provider := claudeweb.New(cfg.Provider.BaseURL, session.KeySource{Store: store})

	health := NewHealth()
	srv, err := server.New(cfg, provider, store, health)
	if err != nil {
		return nil, fmt.Errorf("failed to create server: %w", err)
	}

	return &App{
		server: srv,
		store:  store,
		health: health,
	}, nil
}

// NewStore creates the configured session store backend.
func NewStore(cfg config.SessionConfig) (session.Store, error) {
	switch cfg.Storage {
	case config.StorageKeyring:
		return session.NewKeyringStore(cfg.Path)
	case config.StorageFile:
		return session.NewFileStore(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown session storage %q", cfg.Storage)
	}
}

// Store exposes the session store for CLI commands.
func (a *App) Store() session.Store {
	return a.store
}

// Start starts the server and blocks until shutdown is triggered. Uses
// errgroup for runtime error monitoring and coordinated cleanup.
func (a *App) Start(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	slog.InfoContext(gCtx, "starting server")
	serverErrCh, err := a.server.Start(gCtx)
	if err != nil {
		return fmt.Errorf("server startup failed: %w", err)
	}
	a.health.SetReady(true)

	// Monitor runtime errors - errgroup cancels context on first error
	g.Go(func() error {
		select {
		case err := <-serverErrCh:
			if err != nil {
				slog.ErrorContext(gCtx, "server runtime error", "error", err)
				return fmt.Errorf("server: %w", err)
			}
			return nil
		case <-gCtx.Done():
			return nil
		}
	})

	runtimeErr := g.Wait()

	a.health.SetReady(false)
	slog.InfoContext(gCtx, "shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var errs []error
	if runtimeErr != nil {
		errs = append(errs, fmt.Errorf("runtime: %w", runtimeErr))
	}
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "server shutdown failed", "error", err)
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	slog.Info("application stopped")
	return nil
}
