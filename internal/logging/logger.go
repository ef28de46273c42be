package logging

import (
	"log/slog"
	"os"
	"strings"
)

// NewLogger builds a structured JSON logger. slog keeps the standard
// library feel while emitting logs any backend can ingest; source
// locations are added so lifecycle errors can be traced to their site.
func NewLogger(level string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     levelFromString(level),
		AddSource: true,
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

func levelFromString(level string) slog.Leveler {
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
