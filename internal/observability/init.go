// Package observability configures structured logging for Cloud Run and gin.
package observability

import (
	"context"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
)

// Init configures structured logging on stdout.
//
// Env:
// - LOG_FORMAT: "json" | "text" (default: text)
// - LOG_LEVEL: "debug" | "info" | "warn" | "error" (default: info)
func Init() *slog.Logger {
	return InitWith(os.Stdout, os.Getenv("LOG_FORMAT"), os.Getenv("LOG_LEVEL"))
}

// InitWith configures slog on w, makes it the default logger and routes the standard
// library logger through it.
func InitWith(w io.Writer, format, level string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:       parseLevel(level),
		ReplaceAttr: cloudLoggingAttr,
	}

	var handler slog.Handler
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler).With(
		slog.String("app", "smartlegal"),
		slog.String("runtime", runtimeName()),
	)
	slog.SetDefault(logger)

	// log.Printf calls across the services become structured records (message only)
	log.SetFlags(0)
	log.SetOutput(&slogWriter{logger: logger, level: slog.LevelInfo})

	return logger
}

// cloudLoggingAttr renames level and msg to the keys Cloud Logging understands.
func cloudLoggingAttr(groups []string, a slog.Attr) slog.Attr {
	if len(groups) > 0 {
		return a
	}
	switch a.Key {
	case slog.LevelKey:
		a.Key = "severity"
		level := slog.LevelInfo
		switch v := a.Value.Any().(type) {
		case slog.Level:
			level = v
		case slog.Leveler:
			level = v.Level()
		case int64:
			level = slog.Level(v)
		}
		a.Value = slog.StringValue(levelToSeverity(level))
	case slog.MessageKey:
		a.Key = "message"
	}
	return a
}

func runtimeName() string {
	if os.Getenv("K_SERVICE") != "" {
		return "cloud-run"
	}
	return "local"
}

type slogWriter struct {
	logger *slog.Logger
	level  slog.Level
}

func (w *slogWriter) Write(p []byte) (int, error) {
	msg := strings.TrimSpace(string(p))
	if msg == "" {
		return len(p), nil
	}
	level := w.level
	if strings.HasPrefix(msg, "Warning:") {
		level = slog.LevelWarn
	}
	w.logger.Log(context.Background(), level, msg)
	return len(p), nil
}

func parseLevel(v string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
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

func levelToSeverity(l slog.Level) string {
	switch {
	case l <= slog.LevelDebug:
		return "DEBUG"
	case l < slog.LevelWarn:
		return "INFO"
	case l < slog.LevelError:
		return "WARNING"
	default:
		return "ERROR"
	}
}
