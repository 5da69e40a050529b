// Package observability sets up the process-wide slog handler and the HTTP
// middleware that feeds it request-scoped attributes.
package observability

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// Instrument installs the default slog handler and the W3C trace-context
// propagator. Format "json" is for log shippers, "text" renders tinted
// human-readable lines.
func Instrument(level slog.Level, logFormat string) error {
	otel.SetTextMapPropagator(propagation.TraceContext{})

	var handler slog.Handler
	switch strings.ToLower(logFormat) {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	case "text":
		handler = tint.NewHandler(os.Stderr, &tint.Options{
			Level:      level,
			TimeFormat: time.TimeOnly,
		})
	default:
		return fmt.Errorf("unsupported log format %q (expected: json, text)", logFormat)
	}

	slog.SetDefault(slog.New(newTraceContextHandler(handler)))

	return nil
}
