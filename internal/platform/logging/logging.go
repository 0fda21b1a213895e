package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"hrmrights/internal/platform/config"
)

const serviceName = "hrm-rights"

// New builds the process logger: JSON in production or when LOG_FORMAT=json,
// text otherwise.
func New(cfg config.Config, out io.Writer) *slog.Logger {
	if out == nil {
		out = os.Stdout
	}
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.LogLevel)}

	var handler slog.Handler
	switch format(cfg) {
	case "json":
		handler = slog.NewJSONHandler(out, opts)
	default:
		handler = slog.NewTextHandler(out, opts)
	}

	return slog.New(handler.WithAttrs([]slog.Attr{
		slog.String("service", serviceName),
		slog.String("env", cfg.Environment),
	}))
}

// Setup installs the logger as the slog default.
func Setup(cfg config.Config) *slog.Logger {
	logger := New(cfg, os.Stdout)
	slog.SetDefault(logger)
	return logger
}

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

func format(cfg config.Config) string {
	f := strings.ToLower(strings.TrimSpace(cfg.LogFormat))
	if f != "" {
		return f
	}
	if cfg.IsProduction() {
		return "json"
	}
	return "text"
}
