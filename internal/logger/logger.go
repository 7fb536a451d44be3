package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ContextKey is the type for context keys used by the logger
type ContextKey string

const (
	// LoggerKey is the context key for the logger instance
	LoggerKey ContextKey = "logger"
)

const (
	// FormatConsole writes human-readable colored lines.
	FormatConsole = "console"
	// FormatJSON writes one JSON object per line.
	FormatJSON = "json"
)

// New creates a new structured logger with default configuration
func New() zerolog.Logger {
	return newConsole(os.Stdout)
}

// NewWithWriter creates a new structured logger with a custom writer
func NewWithWriter(w io.Writer) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Caller().Logger()
}

// Configure creates a logger writing to stdout at the given level ("debug", "info", ...)
// in the given format (FormatConsole or FormatJSON). Empty values keep the defaults.
func Configure(level, format string) (zerolog.Logger, error) {
	return configure(os.Stdout, level, format)
}

func configure(w io.Writer, level, format string) (zerolog.Logger, error) {
	var log zerolog.Logger
	switch strings.ToLower(format) {
	case "", FormatConsole:
		log = newConsole(w)
	case FormatJSON:
		log = NewWithWriter(w)
	default:
		return zerolog.Nop(), fmt.Errorf("Configure: unknown log format %q", format)
	}

	if level == "" {
		return log, nil
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("Configure: %w", err)
	}
	return log.Level(lvl), nil
}

func newConsole(w io.Writer) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
	}
	return zerolog.New(output).With().Timestamp().Caller().Logger()
}

// WithContext adds the logger to the context
func WithContext(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// FromContext retrieves the logger from the context or returns a default logger
func FromContext(ctx context.Context) zerolog.Logger {
	if logger, ok := ctx.Value(LoggerKey).(zerolog.Logger); ok {
		return logger
	}
	return New()
}

// WithUser returns a logger that tags every event with the user ID.
func WithUser(logger zerolog.Logger, userID string) zerolog.Logger {
	return logger.With().Str("user_id", userID).Logger()
}

// WithFields adds structured fields to a logger
func WithFields(logger zerolog.Logger, fields map[string]interface{}) zerolog.Logger {
	ctx := logger.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return ctx.Logger()
}
