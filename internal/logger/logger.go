// Package logger provides structured logging for the CLI and its services.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Logger wraps slog.Logger for structured logging
type Logger struct {
	*slog.Logger
}

// Options controls logger construction.
type Options struct {
	Level  string
	Format string
	Output io.Writer
}

// New creates a logger. Text output is used unless Format is "json".
func New(opts Options) *Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	handlerOpts := &slog.HandlerOptions{Level: ParseLevel(opts.Level)}

	var handler slog.Handler
	if strings.EqualFold(strings.TrimSpace(opts.Format), FormatJSON) {
		handler = slog.NewJSONHandler(out, handlerOpts)
	} else {
		handler = slog.NewTextHandler(out, handlerOpts)
	}
	return &Logger{Logger: slog.New(handler)}
}

// Discard returns a logger that drops every record.
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// ParseLevel maps a level name to slog.Level. Unknown names mean warn.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// With returns a logger carrying extra attributes.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// UpstreamError logs a failed provider call.
func (l *Logger) UpstreamError(operation string, err error) {
	l.Warn("upstream_error",
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
}

// Discarded logs data dropped on purpose, such as malformed entries or stale results.
func (l *Logger) Discarded(what string, reason string) {
	l.Debug("discarded",
		slog.String("what", what),
		slog.String("reason", reason),
	)
}
