package cli

import (
	"log/slog"
	"os"
	"strings"
)

// Logger is the global logger instance
var Logger = slog.Default()

// InitLogging initializes the logger with the level from SHORTCUTS_LOG.
// Logs go to stderr so command output can be piped.
func InitLogging() {
	level := new(slog.LevelVar)

	switch strings.ToUpper(os.Getenv("SHORTCUTS_LOG")) {
	case "DEBUG":
		level.Set(slog.LevelDebug)
	case "INFO":
		level.Set(slog.LevelInfo)
	case "ERROR":
		level.Set(slog.LevelError)
	default:
		// terminal output carries results; keep routine logs quiet
		level.Set(slog.LevelWarn)
	}

	Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))

	slog.SetDefault(Logger)
}
