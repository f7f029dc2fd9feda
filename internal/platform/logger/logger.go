package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/phrazzld/taskshare/internal/config"
)

// ParseLevel converts a configured level name (case-insensitive) to a slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
	}
}

// Setup initializes the application's logging system: a JSON handler on
// stdout at the configured level, installed as the slog default.
//
// An unknown level falls back to info and is reported through the new logger
// rather than failing startup.
func Setup(cfg config.ServerConfig) (*slog.Logger, error) {
	return setup(os.Stdout, cfg.LogLevel), nil
}

func setup(w io.Writer, levelName string) *slog.Logger {
	level, levelErr := ParseLevel(levelName)

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	logger := slog.New(handler)
	slog.SetDefault(logger)

	if levelErr != nil {
		logger.Warn("invalid log level configured, using default level",
			slog.String("configured_level", levelName),
			slog.String("default_level", "info"))
	}
	return logger
}
