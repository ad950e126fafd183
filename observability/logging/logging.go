package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Setup returns the slog.Logger the engine components take, emitting
// structured JSON. All lines carry the service name and environment when
// provided; the level is read from DEALMARKET_LOG_LEVEL (debug, info, warn,
// error), defaulting to info.
func Setup(service, env string) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       levelFromEnv(),
		ReplaceAttr: renameAttrs,
	})

	base := slog.New(handler).With("service", strings.TrimSpace(service))
	if env = strings.TrimSpace(env); env != "" {
		base = base.With("env", env)
	}
	slog.SetDefault(base)
	return base
}

func renameAttrs(groups []string, attr slog.Attr) slog.Attr {
	switch attr.Key {
	case slog.TimeKey:
		return slog.Attr{Key: "timestamp", Value: attr.Value}
	case slog.LevelKey:
		return slog.String("severity", strings.ToUpper(attr.Value.String()))
	case slog.MessageKey:
		return slog.Attr{Key: "message", Value: attr.Value}
	default:
		return attr
	}
}

func levelFromEnv() slog.Level {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("DEALMARKET_LOG_LEVEL"))) {
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
