// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package a3d

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler is a slog.Handler that silently discards all log records.
// Enabled returns false so callers skip message formatting entirely.
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

// SetLogger configures the logger for a3d and its backends.
// By default, a3d produces no log output. Pass nil to restore the
// silent default.
//
// Devices read the logger when they are created; use [WithLogger] to give
// a single device its own logger.
//
// Log levels used by a3d:
//   - [slog.LevelDebug]: ignored or elided recording calls, stream growth
//   - [slog.LevelInfo]: device, queue and swapchain lifecycle
//   - [slog.LevelWarn]: recoverable native errors
//
// Example:
//
//	a3d.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
}

// Logger returns the current package logger.
// Sub-packages call this to share the same configuration without
// introducing import cycles.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// NopLogger returns a logger that discards everything.
func NopLogger() *slog.Logger { return newNopLogger() }
