// Package logger builds the application's slog.Logger from environment
// configuration. JSON output is the default so logs land in aggregation
// systems unmangled; text output is for local development.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Format represents logger output format.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Config holds logger configuration.
type Config struct {
	Level   string `env:"LOG_LEVEL" envDefault:"info"`
	Format  Format `env:"LOG_FORMAT" envDefault:"json"`
	Service string `env:"LOG_SERVICE" envDefault:"readlingo"`
}

// New creates a configured slog.Logger writing to stdout.
func New(cfg Config) *slog.Logger {
	return NewWithOutput(cfg, os.Stdout)
}

// NewWithOutput creates a logger writing to the given destination.
// Panics on an unknown format so misconfiguration prevents startup.
func NewWithOutput(cfg Config, out io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var handler slog.Handler
	switch cfg.Format {
	case FormatText:
		handler = slog.NewTextHandler(out, opts)
	case FormatJSON, "":
		handler = slog.NewJSONHandler(out, opts)
	default:
		panic(fmt.Errorf("invalid log format %q: must be %q or %q", cfg.Format, FormatJSON, FormatText))
	}

	if cfg.Service != "" {
		handler = handler.WithAttrs([]slog.Attr{slog.String("service", cfg.Service)})
	}

	return slog.New(handler)
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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
