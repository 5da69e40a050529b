// Package server exposes the OpenAI-compatible HTTP surface of the bridge
// and the session-management convenience endpoints around it.
package server

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/clsync/claude-bridge/internal/claudeweb"
	"github.com/clsync/claude-bridge/internal/config"
	"github.com/clsync/claude-bridge/internal/observability/middleware"
	"github.com/clsync/claude-bridge/internal/session"
)

// ConversationProvider is the upstream conversational backend. Implemented
// by *claudeweb.Client; tests substitute doubles.
type ConversationProvider interface {
	ListOrganizations(ctx context.Context) ([]claudeweb.Organization, error)
	ListProjects(ctx context.Context, orgID string) ([]claudeweb.Project, error)
	CreateProject(ctx context.Context, orgID, name, description string) (*claudeweb.Project, error)
	ListChats(ctx context.Context, orgID string) ([]claudeweb.Chat, error)
	CreateChat(ctx context.Context, orgID, projectID, name string) (*claudeweb.Chat, error)
	SendMessage(ctx context.Context, orgID, chatID, prompt string) (iter.Seq2[claudeweb.CompletionEvent, error], error)
}

// Compile-time check that the real client satisfies the interface.
var _ ConversationProvider = (*claudeweb.Client)(nil)

// ReadinessChecker reports whether the application is ready to serve.
type ReadinessChecker interface {
	IsReady() bool
}

// Server is the bridge HTTP server.
type Server struct {
	cfg      *config.Config
	provider ConversationProvider
	store    session.Store
	clock    func() time.Time

	httpServer *http.Server
}

// New creates a Server from its dependencies.
func New(cfg *config.Config, provider ConversationProvider, store session.Store, health ReadinessChecker) (*Server, error) {
	if provider == nil {
		return nil, fmt.Errorf("provider cannot be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}

	s := &Server{
		cfg:      cfg,
		provider: provider,
		store:    store,
		clock:    time.Now,
	}

	// Logging must wrap RequestID and TraceContextExtraction: their
	// SetLogAttrs calls only take effect once the request logger has put
	// its log entry into the request context.
	handler := applyMiddlewares(s.routes(health),
		Recovery,
		RequestSizeLimit(cfg.Server.MaxRequestBytes),
		middleware.Logging(slog.Default()),
		middleware.RequestID,
		middleware.TraceContextExtraction,
		CORS,
		s.requireSession,
	)

	s.httpServer = &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		// No WriteTimeout: a completion is only as fast as the upstream
		// model, and this layer enforces no timeout of its own.
	}

	return s, nil
}

// routes builds the endpoint mux.
func (s *Server) routes(health ReadinessChecker) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/chat/completions", s.handleChatCompletions)
	mux.HandleFunc("GET /v1/models", s.handleModels)

	mux.HandleFunc("GET /list_organizations", s.handleListOrganizations)
	mux.HandleFunc("GET /list_projects", s.handleListProjects)
	mux.HandleFunc("GET /list_chats", s.handleListChats)

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /login", s.handleLoginForm)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("GET /check_login", s.handleCheckLogin)
	mux.HandleFunc("GET /config", s.handleConfigForm)
	mux.HandleFunc("POST /config", s.handleConfigUpdate)

	mux.HandleFunc("GET /livez", livenessHandler())
	mux.HandleFunc("GET /readyz", readinessHandler(health))

	return mux
}

// Start begins serving on the configured listen address. It returns a
// channel that reports a later serve failure; startup failures (bad
// address, missing TLS material) are returned immediately.
func (s *Server) Start(ctx context.Context) (<-chan error, error) {
	if s.cfg.Server.UseSSL {
		for _, f := range []string{s.cfg.Server.CertFile, s.cfg.Server.KeyFile} {
			if _, err := os.Stat(f); err != nil {
				return nil, fmt.Errorf("SSL requested but %s is not readable: %w", f, err)
			}
		}
	}

	listener, err := net.Listen("tcp", s.cfg.Server.Listen)
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", s.cfg.Server.Listen, err)
	}

	slog.InfoContext(ctx, "server listening",
		"addr", listener.Addr().String(),
		"https", s.cfg.Server.UseSSL,
	)

	errCh := make(chan error, 1)
	go func() {
		var serveErr error
		if s.cfg.Server.UseSSL {
			serveErr = s.httpServer.ServeTLS(listener, s.cfg.Server.CertFile, s.cfg.Server.KeyFile)
		} else {
			serveErr = s.httpServer.Serve(listener)
		}
		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			errCh <- serveErr
		}
		close(errCh)
	}()

	return errCh, nil
}

// defaultModel is echoed in responses when the request names no model.
func (s *Server) defaultModel() string {
	return s.cfg.Provider.DefaultModel
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the fully wired handler chain for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}
