// Package logger wraps log/slog with the structured Field helper style used
// throughout the retrieval pack (grounded on aatumaykin/nexbot's
// internal/logger), so the grading coordinator, worker pool and sandbox
// runner share one logging convention instead of the bare `log` package the
// original Rust worker.rs used.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config selects level/format/output for a Logger.
type Config struct {
	Level  string // debug, info, warn, error
	Format string // json, text
	Output string // stdout, stderr, or a file path
}

// Logger is a thin structured-logging wrapper around *slog.Logger.
type Logger struct {
	slog *slog.Logger
}

// Field is one structured key/value pair attached to a log line.
type Field struct {
	Key   string
	Value any
}

// New builds a Logger from cfg.
func New(cfg Config) (*Logger, error) {
	level, ok := parseLevel(cfg.Level)
	if !ok {
		return nil, fmt.Errorf("invalid log level: %s (expected: debug, info, warn, error)", cfg.Level)
	}

	var writer io.Writer
	switch strings.ToLower(cfg.Output) {
	case "", "stdout":
		writer = os.Stdout
	case "stderr":
		writer = os.Stderr
	default:
		f, err := os.OpenFile(cfg.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file %s: %w", cfg.Output, err)
		}
		writer = f
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "text" {
		handler = slog.NewTextHandler(writer, opts)
	} else {
		handler = slog.NewJSONHandler(writer, opts)
	}

	return &Logger{slog: slog.New(handler)}, nil
}

// Nop returns a Logger that discards everything, useful for tests.
func Nop() *Logger {
	return &Logger{slog: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func parseLevel(level string) (slog.Level, bool) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, true
	case "", "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

func toAttrs(fields []Field) []any {
	attrs := make([]any, 0, len(fields)*2)
	for _, f := range fields {
		attrs = append(attrs, f.Key, f.Value)
	}
	return attrs
}

func (l *Logger) Debug(msg string, fields ...Field) { l.slog.Debug(msg, toAttrs(fields)...) }
func (l *Logger) Info(msg string, fields ...Field)   { l.slog.Info(msg, toAttrs(fields)...) }
func (l *Logger) Warn(msg string, fields ...Field)   { l.slog.Warn(msg, toAttrs(fields)...) }

// Error logs msg with err attached as a field, matching the wrapper's
// nexbot-style signature (error first-class, not just another Field).
func (l *Logger) Error(msg string, err error, fields ...Field) {
	attrs := toAttrs(fields)
	attrs = append(attrs, "error", err)
	l.slog.Error(msg, attrs...)
}

func (l *Logger) DebugCtx(ctx context.Context, msg string, fields ...Field) {
	l.slog.DebugContext(ctx, msg, toAttrs(fields)...)
}
func (l *Logger) InfoCtx(ctx context.Context, msg string, fields ...Field) {
	l.slog.InfoContext(ctx, msg, toAttrs(fields)...)
}
func (l *Logger) WarnCtx(ctx context.Context, msg string, fields ...Field) {
	l.slog.WarnContext(ctx, msg, toAttrs(fields)...)
}
func (l *Logger) ErrorCtx(ctx context.Context, msg string, err error, fields ...Field) {
	attrs := toAttrs(fields)
	attrs = append(attrs, "error", err)
	l.slog.ErrorContext(ctx, msg, attrs...)
}
