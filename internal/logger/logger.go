// Package logger provides the structured logging sink the rest of the
// server writes through. It wraps log/slog with the level/format
// conventions used across the codebase (DEBUG/INFO/WARN/ERROR, text or
// json) and is handed to components explicitly rather than reached for
// as a global.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config controls how a Logger renders its output.
type Config struct {
	Level  string // DEBUG, INFO, WARN, ERROR (default INFO)
	Format string // text or json (default text)
	Output io.Writer
}

// Logger is a thin, instance-scoped wrapper around *slog.Logger.
// Components hold one as a field rather than calling package-level
// functions, so two servers in the same process never share level/output
// state.
type Logger struct {
	slog *slog.Logger
}

// New builds a Logger from the given Config. A zero Config yields an
// INFO-level text logger writing to stderr.
func New(cfg Config) *Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	levelVar := new(slog.LevelVar)
	levelVar.Set(parseLevel(cfg.Level))

	opts := &slog.HandlerOptions{Level: levelVar}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	return &Logger{slog: slog.New(handler)}
}

// Nop returns a Logger that discards everything; useful in tests that
// don't care about log output.
func Nop() *Logger {
	return New(Config{Level: "ERROR", Output: io.Discard})
}

func parseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// With returns a child Logger that always includes the given key/value
// attributes, mirroring slog.Logger.With.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{slog: l.slog.With(args...)}
}

func (l *Logger) Debug(msg string, args ...any) { l.slog.Debug(msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.slog.Info(msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.slog.Warn(msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.slog.Error(msg, args...) }
