// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package framegraph

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler is a slog.Handler that discards all records. Enabled reports
// false so callers skip formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger shared by framegraph and its
// sub-packages. By default nothing is logged. Pass nil to restore the
// silent default.
//
// Log levels used:
//   - [slog.LevelDebug]: compile statistics, order cache hits, per-frame submits
//   - [slog.LevelInfo]: lifecycle events (backend selected, graph shut down)
//   - [slog.LevelWarn]: undeclared writes, notifications from backends
//   - [slog.LevelError]: sequencing errors and backend validation errors
//
// Example:
//
//	framegraph.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
}

// Logger returns the current logger. Sub-packages (rhi, pipeline) call this
// to share one logging configuration.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
