package server

import (
	"log/slog"
	"net/http"
)

// Recovery recovers from panics in HTTP handlers and returns HTTP 500 to
// the client.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if recover() != nil {
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				// Logging of panics is handled in Logging middleware
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// RequestSizeLimit enforces maximum request body size. Handlers that read
// the body will receive *http.MaxBytesError when the limit is exceeded.
func RequestSizeLimit(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

// CORS answers preflight requests and allows any origin; browser clients
// talk to the bridge from arbitrary pages.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Claude-Chat-Id, X-Session-Key")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// sessionExemptPaths are reachable without a stored session key: the index,
// the login/configuration flow, and the health probes.
var sessionExemptPaths = map[string]bool{
	"/":            true,
	"/login":       true,
	"/check_login": true,
	"/config":      true,
	"/livez":       true,
	"/readyz":      true,
}

// requireSession rejects requests without a valid stored session key on
// every non-exempt endpoint. Validity is checked on each request so an
// expired key starts failing immediately.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sessionExemptPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		creds, err := s.store.Credentials(r.Context())
		if err != nil {
			slog.ErrorContext(r.Context(), "failed to read stored credentials", "error", err)
			writeError(r.Context(), w, http.StatusInternalServerError, "Unexpected error: "+err.Error())
			return
		}
		if creds == nil {
			writeError(r.Context(), w, http.StatusUnauthorized, "Not authenticated. Please log in first.")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// applyMiddlewares applies middlewares to a handler in the order they
// appear. The first middleware in the slice is the outermost (executes
// first).
func applyMiddlewares(h http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}
