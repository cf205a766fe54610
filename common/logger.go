package common

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler is a slog.Handler that drops every record. Enabled reports false so
// callers skip formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(slog.New(nopHandler{}))
}

// SetLogger installs the logger used by every engine package.
// By default the engine is silent. Passing nil restores the silent logger.
//
// Levels used:
//   - slog.LevelDebug: buffer sizes, schema layouts, per-frame diagnostics
//   - slog.LevelInfo: lifecycle events (adapter selected, program started)
//   - slog.LevelWarn: non-fatal issues (shader pre-flight skipped)
//
// Parameters:
//   - l: the logger to install, or nil for the silent default
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(nopHandler{})
	}
	loggerPtr.Store(l)
}

// Logger returns the logger currently installed with SetLogger.
//
// Returns:
//   - *slog.Logger: the active logger, never nil
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
