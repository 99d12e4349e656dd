package helpers

import (
	"io"
	"log/slog"
	"os"
)

// NewNoopLogger returns a logger that discards everything.
func NewNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewLogger returns a JSON logger writing to stdout. Each verbosity step lowers the level by one
// slog level, starting from Warn.
func NewLogger(verbosity int, callerTrace bool) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		AddSource: callerTrace,
		Level:     LogLevel(verbosity),
	}))
}

// LogLevel maps a verbosity count to a slog level.
func LogLevel(verbosity int) slog.Level {
	return slog.LevelWarn - slog.Level(verbosity*4)
}
