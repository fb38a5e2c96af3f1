// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// logger.go - Logger interface, noop implementation and a log/slog adapter
// used by the file backends and the dumper for structured logging.

package stratadump

import (
	"context"
	"log/slog"
)

// Logger is the logging interface used internally by stratadump.
// Implement this to route logs to zap, slog, logrus, etc.
type Logger interface {
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
	Debug(msg string, keysAndValues ...any)
}

type noopLogger struct{}

func (noopLogger) Info(_ string, _ ...any)  {}
func (noopLogger) Warn(_ string, _ ...any)  {}
func (noopLogger) Error(_ string, _ ...any) {}
func (noopLogger) Debug(_ string, _ ...any) {}

// NopLogger returns a Logger that discards everything.
func NopLogger() Logger { return noopLogger{} }

// slogLogger adapts a *slog.Logger to Logger.
type slogLogger struct {
	l *slog.Logger
}

// NewSlogLogger wraps l. A nil l uses slog.Default().
func NewSlogLogger(l *slog.Logger) Logger {
	if l == nil {
		l = slog.Default()
	}
	return slogLogger{l: l.With(slog.String("component", "stratadump"))}
}

func (s slogLogger) Info(msg string, kv ...any)  { s.l.Log(context.Background(), slog.LevelInfo, msg, kv...) }
func (s slogLogger) Warn(msg string, kv ...any)  { s.l.Log(context.Background(), slog.LevelWarn, msg, kv...) }
func (s slogLogger) Error(msg string, kv ...any) { s.l.Log(context.Background(), slog.LevelError, msg, kv...) }
func (s slogLogger) Debug(msg string, kv ...any) { s.l.Log(context.Background(), slog.LevelDebug, msg, kv...) }
