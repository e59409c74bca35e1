package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New creates a stdout slog.Logger with the provided level and format.
// Format "json" selects the JSON handler; anything else is text.
func New(level, format string) *slog.Logger {
	return newWithWriter(os.Stdout, level, format)
}

func newWithWriter(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: levelFromString(level)}

	var handler slog.Handler
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

func levelFromString(value string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "error":
		return slog.LevelError
	case "warn", "warning":
		return slog.LevelWarn
	case "debug":
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}
