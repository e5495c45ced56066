package config

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// NewLogger returns the service logger configured from GO_ENV, LOG_LEVEL and LOG_FORMAT.
// Production defaults to JSON, everything else to text; LOG_FORMAT=json|text overrides.
// LOG_LEVEL may be debug, info, warn or error (default info); debug also records the source line.
func NewLogger() *slog.Logger {
	return newLogger(os.Stdout, os.Getenv("GO_ENV"), os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
}

func newLogger(w io.Writer, env, levelName, format string) *slog.Logger {
	level := parseLevel(levelName)
	opts := &slog.HandlerOptions{Level: level, AddSource: level == slog.LevelDebug}

	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = "text"
		if env == "production" {
			format = "json"
		}
	}
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler).With("service", "checkinflow")
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
