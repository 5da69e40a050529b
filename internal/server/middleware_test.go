package server

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

func TestRequestLogCarriesRequestAndTraceIDs(t *testing.T) {
	var logBuf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&logBuf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })
	otel.SetTextMapPropagator(propagation.TraceContext{})

	handler, store := newTestServer(t, &fakeProvider{})
	loggedIn(t, store)

	req := httptest.NewRequest(http.MethodGet, "/v1/models", nil)
	req.Header.Set("X-Request-ID", "req-12345")
	req.Header.Set("Traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "req-12345", rec.Header().Get("X-Request-ID"))

	logs := logBuf.String()
	assert.Contains(t, logs, `"request_id":"req-12345"`)
	assert.Contains(t, logs, `"trace_id":"4bf92f3577b34da6a3ce929d0e0e4736"`)
	assert.Contains(t, logs, `"span_id":"00f067aa0ba902b7"`)
}

func TestRequestSizeLimit_OversizedBodyRejected(t *testing.T) {
	handler, store := newTestServer(t, &fakeProvider{})
	loggedIn(t, store)

	// Valid JSON just past the 1MB test limit, so only the size cap can
	// make decoding fail.
	body := fmt.Sprintf(`{"messages":[{"role":"user","content":"%s"}]}`,
		strings.Repeat("a", (1<<20)+1024))
	rec := postCompletions(handler, body, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid JSON data")
}
