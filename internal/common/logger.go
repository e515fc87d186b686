package common

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Fields represents structured logging fields.
type Fields map[string]any

// ParseLevel converts a level name into a slog.Level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("%w: invalid log level: %s", ErrInvalidConfig, level)
	}
}

// SetupLogger configures the global logger. Records go to stderr and, when
// logFile is not empty, are appended to that file as well. The returned
// closer releases the log file.
func SetupLogger(level slog.Level, format, logFile string) (io.Closer, error) {
	var out io.Writer = os.Stderr
	var closer io.Closer = nopCloser{}

	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out = io.MultiWriter(os.Stderr, f)
		closer = f
	}

	handler, err := newHandler(out, level, format)
	if err != nil {
		_ = closer.Close()
		return nil, err
	}

	slog.SetDefault(slog.New(handler))

	return closer, nil
}

func newHandler(w io.Writer, level slog.Level, format string) (slog.Handler, error) {
	opts := &slog.HandlerOptions{Level: level}

	switch format {
	case "json":
		return slog.NewJSONHandler(w, opts), nil
	case "console", "":
		return slog.NewTextHandler(w, opts), nil
	default:
		return nil, fmt.Errorf("%w: invalid log format: %s", ErrInvalidConfig, format)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// LogError logs err at error level on logger, or on the default logger
// when logger is nil. A UserError also records its user-facing message.
func LogError(logger *slog.Logger, err error, msg string, fields Fields) {
	if logger == nil {
		logger = slog.Default()
	}

	attrs := make([]slog.Attr, 0, len(fields)+2)
	attrs = append(attrs, slog.String("error", err.Error()))

	var userErr *UserError
	if errors.As(err, &userErr) {
		attrs = append(attrs, slog.String("user_message", userErr.UserMessage))
	}

	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}

	logger.LogAttrs(context.Background(), slog.LevelError, msg, attrs...)
}
