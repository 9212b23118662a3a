// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package logging provides the structured logger used throughout the core.
// It wraps log/slog with a pretty console handler for interactive use and
// a plain JSON handler for service invocations, plus an optional remote
// syslog sink.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/lmittmann/tint"
)

// Config controls how a Logger renders and routes records.
type Config struct {
	// Level is the minimum level that will be emitted.
	Level slog.Level
	// Pretty selects the tint console handler (colorized, human-friendly)
	// instead of structured JSON. Typically true for interactive sessions,
	// false under a service manager.
	Pretty bool
	// Output is where rendered records are written. Defaults to os.Stderr.
	Output io.Writer
	// Component, if set, is attached to every record as "component".
	Component string
	// Syslog, if non-nil and Enabled, additionally writes every record to
	// a remote syslog server.
	Syslog *SyslogConfig
}

// Logger is the core's structured logger. It is safe for concurrent use.
type Logger struct {
	slog *slog.Logger
}

// New builds a Logger from cfg.
func New(cfg Config) *Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	writers := []io.Writer{out}
	if cfg.Syslog != nil && cfg.Syslog.Enabled {
		if w, err := NewSyslogWriter(*cfg.Syslog); err == nil {
			writers = append(writers, w)
		}
	}
	var dest io.Writer = out
	if len(writers) > 1 {
		dest = io.MultiWriter(writers...)
	}

	var handler slog.Handler
	if cfg.Pretty {
		handler = tint.NewHandler(dest, &tint.Options{
			Level:      cfg.Level,
			TimeFormat: time.Kitchen,
		})
	} else {
		handler = slog.NewJSONHandler(dest, &slog.HandlerOptions{Level: cfg.Level})
	}

	l := slog.New(handler)
	if cfg.Component != "" {
		l = l.With("component", cfg.Component)
	}
	return &Logger{slog: l}
}

// WithComponent returns a child Logger that tags every record with component.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{slog: l.slog.With("component", component)}
}

// With returns a child Logger carrying the given key/value attributes.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{slog: l.slog.With(args...)}
}

func (l *Logger) Debug(msg string, args ...any) { l.slog.Debug(msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.slog.Info(msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.slog.Warn(msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.slog.Error(msg, args...) }

// DebugContext/InfoContext/WarnContext/ErrorContext thread a context's
// attributes (e.g. via slog handlers that read from it) through the call.
func (l *Logger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.slog.DebugContext(ctx, msg, args...)
}
func (l *Logger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.slog.InfoContext(ctx, msg, args...)
}
func (l *Logger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.slog.WarnContext(ctx, msg, args...)
}
func (l *Logger) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.slog.ErrorContext(ctx, msg, args...)
}

// Slog exposes the underlying *slog.Logger for collaborators that want it
// directly (e.g. to pass to a library expecting slog.Logger).
func (l *Logger) Slog() *slog.Logger { return l.slog }

var defaultLogger atomic.Pointer[Logger]

func init() {
	defaultLogger.Store(New(Config{Level: slog.LevelInfo, Pretty: true}))
}

// Default returns the process-wide default Logger.
func Default() *Logger {
	return defaultLogger.Load()
}

// SetDefault replaces the process-wide default Logger.
func SetDefault(l *Logger) {
	defaultLogger.Store(l)
}

// Debug, Info, Warn, and Error log through the default Logger. They exist
// so call sites that don't carry their own Logger reference (fast paths,
// package-level helpers) can still log without threading one through.
func Debug(msg string, args ...any) { Default().Debug(msg, args...) }
func Info(msg string, args ...any)  { Default().Info(msg, args...) }
func Warn(msg string, args ...any)  { Default().Warn(msg, args...) }
func Error(msg string, args ...any) { Default().Error(msg, args...) }
