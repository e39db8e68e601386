// Package logging builds the process-wide slog logger the quizgen
// binaries hand to every component.
package logging

import (
	"io"
	"log/slog"
	"os"
)

// Config selects log level and output format.
type Config struct {
	// Level is one of debug, info, warn, error. Anything else means info.
	Level string `yaml:"level"`
	// Format is json for collectors or text for terminals.
	Format string `yaml:"format"`
	// Service names the emitting binary on every record. Set by the
	// binary, not the document.
	Service string `yaml:"-"`
}

// Setup builds the root logger on stdout, installs it as slog's default,
// and returns it.
func Setup(cfg Config) *slog.Logger {
	logger := NewLogger(os.Stdout, cfg)
	slog.SetDefault(logger)
	return logger
}

// NewLogger builds a logger writing to w. Split from Setup so tests can
// capture output.
func NewLogger(w io.Writer, cfg Config) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler)
	if cfg.Service != "" {
		logger = logger.With("service", cfg.Service)
	}
	return logger
}
