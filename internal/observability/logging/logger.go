package logging

import (
	"context"
	"io"
	"log/slog"
	"os"

	pkgconfig "scholar-abstracts/internal/pkg/config"
)

// Level reads LOG_LEVEL. Supported levels: debug, info, warn, error.
// Unknown values fall back to info.
func Level() slog.Level {
	res := pkgconfig.LoadEnvWithFallback("LOG_LEVEL", "info", func(v string) error {
		return pkgconfig.ValidateOneOf(v, "debug", "info", "warn", "error")
	})

	switch res.Value {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a new structured logger with JSON output on stderr.
// The log level can be controlled via the LOG_LEVEL environment variable.
// Default level: info
func NewLogger() *slog.Logger {
	return NewJSONLogger(os.Stderr, Level())
}

// NewJSONLogger creates a JSON logger writing to w at level.
func NewJSONLogger(w io.Writer, level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
		// Add source code location when running at debug level
		AddSource: level <= slog.LevelDebug,
	})

	return slog.New(handler)
}

// NewTextLogger creates a new structured logger with human-readable text output.
// This is useful for local development and debugging.
func NewTextLogger() *slog.Logger {
	level := Level()
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:     level,
		AddSource: level <= slog.LevelDebug,
	})

	return slog.New(handler)
}

// WithRunID returns a logger that tags every entry with the reduction run ID.
func WithRunID(logger *slog.Logger, runID string) *slog.Logger {
	if runID == "" {
		return logger
	}
	return logger.With(slog.String("run_id", runID))
}

// WithDocument returns a logger that tags every entry with the document's
// batch position and title.
func WithDocument(logger *slog.Logger, index int, title string) *slog.Logger {
	return logger.With(slog.Int("doc_index", index), slog.String("title", title))
}

// WithFields returns a new logger with additional structured fields.
func WithFields(logger *slog.Logger, fields map[string]any) *slog.Logger {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return logger.With(args...)
}

// FromContext retrieves the logger from the context, or returns the default logger if not found.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerContextKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey, logger)
}

type contextKey string

const loggerContextKey contextKey = "logger"
