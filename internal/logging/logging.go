package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/vladelaina/catime-monitor/internal/config"
)

// New constructs a slog.Logger configured according to the provided settings.
func New(cfg config.LoggingConfig) (*slog.Logger, error) {
	return NewWithWriter(cfg, os.Stdout)
}

// NewWithWriter is New with an explicit destination; tests capture output
// through it.
func NewWithWriter(cfg config.LoggingConfig, w io.Writer) (*slog.Logger, error) {
	handler, err := buildHandler(cfg, w)
	if err != nil {
		return nil, err
	}
	return slog.New(handler), nil
}

// Component returns a child logger tagged with the subsystem it serves.
func Component(logger *slog.Logger, name string) *slog.Logger {
	return logger.With("component", name)
}

func buildHandler(cfg config.LoggingConfig, w io.Writer) (slog.Handler, error) {
	opts := &slog.HandlerOptions{Level: cfg.Level}

	switch cfg.Format {
	case "json":
		return slog.NewJSONHandler(w, opts), nil
	case "text":
		return slog.NewTextHandler(w, opts), nil
	default:
		return nil, fmt.Errorf("unsupported log format: %s", cfg.Format)
	}
}
