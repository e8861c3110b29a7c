// Package logging configures log/slog for every passtheplate binary.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// ParseLevel maps "debug", "warn" and "error" to slog levels; anything else is info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New builds a logger writing to w. format "text" selects the text handler,
// anything else JSON. Every record carries the service name and the attrs
// attached to its context with WithAttrs.
func New(w io.Writer, service, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	if strings.EqualFold(format, "text") {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	logger := slog.New(contextHandler{handler})
	if service != "" {
		logger = logger.With("service", service)
	}
	return logger
}

// Setup installs a stdout logger as the process-wide slog default and returns it.
func Setup(service, level, format string) *slog.Logger {
	logger := New(os.Stdout, service, level, format)
	slog.SetDefault(logger)
	return logger
}
