// Package logger provides structured logging functionality for the gateway
// using Go's standard library log/slog package.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Setup initializes the application's logging system from the configured log
// level. It creates a structured JSON logger writing to stdout and sets it as
// the process default.
func Setup(logLevel string) (*slog.Logger, error) {
	return setup(logLevel, os.Stdout)
}

func setup(logLevel string, w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo

		tmpLogger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		tmpLogger.Warn("invalid log level configured, using default level",
			"configured_level", logLevel,
			"default_level", "info")
	}

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger, nil
}
