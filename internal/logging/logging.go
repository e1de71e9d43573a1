package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// KeyComponent tags records with the package that emitted them.
const KeyComponent = "component"

// New builds a logger without touching the global default.
// format: "json" or "text" (default "text")
// level: "debug", "info", "warn", "error" (default "info")
// output: writer to log to (nil = os.Stderr)
func New(format, level string, output io.Writer) *slog.Logger {
	if output == nil {
		output = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var handler slog.Handler
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		handler = slog.NewJSONHandler(output, opts)
	} else {
		handler = slog.NewTextHandler(output, opts)
	}
	return slog.New(handler)
}

// Init installs a New logger as the slog default. Call once after config
// is loaded.
func Init(format, level string, output io.Writer) *slog.Logger {
	l := New(format, level, output)
	slog.SetDefault(l)
	return l
}

// L returns the default logger tagged with a component name.
func L(component string) *slog.Logger {
	return slog.Default().With(slog.String(KeyComponent, component))
}

// ValidLevel reports whether s names a level parseLevel understands.
func ValidLevel(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "debug", "info", "warn", "warning", "error":
		return true
	}
	return false
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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
