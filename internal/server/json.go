package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/clsync/claude-bridge/internal/claudeweb"
)

// writeJSON writes a JSON response with the given status code. Encoding
// failures are logged; headers are already on the wire by then.
func writeJSON(ctx context.Context, w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.ErrorContext(ctx, "failed to encode JSON response", "error", err)
	}
}

// errorBody is the uniform error payload: {"error": <message>}. No
// structured error codes exist beyond the HTTP status.
type errorBody struct {
	Error string `json:"error"`
}

// writeError writes the uniform JSON error body with the given status.
func writeError(ctx context.Context, w http.ResponseWriter, status int, message string) {
	writeJSON(ctx, w, errorBody{Error: message}, status)
}

// writeProviderError maps an upstream failure to an HTTP response. Provider
// failures, rate limits and permission errors included, surface as 500 with
// the provider's message; anything else is an unexpected internal error.
func writeProviderError(ctx context.Context, w http.ResponseWriter, err error) {
	slog.ErrorContext(ctx, "provider call failed", "error", err)

	var apiErr *claudeweb.APIError
	if errors.As(err, &apiErr) {
		writeError(ctx, w, http.StatusInternalServerError, apiErr.Message)
		return
	}
	writeError(ctx, w, http.StatusInternalServerError, "Unexpected error: "+err.Error())
}
