package nle

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// discard drops every record. Enabled reports false, so callers skip
// formatting attributes altogether.
type discard struct{}

func (discard) Enabled(context.Context, slog.Level) bool  { return false }
func (discard) Handle(context.Context, slog.Record) error { return nil }
func (discard) WithAttrs([]slog.Attr) slog.Handler        { return discard{} }
func (discard) WithGroup(string) slog.Handler             { return discard{} }

var silent = slog.New(discard{})

// current is read by render workers while the application may swap it.
var current atomic.Pointer[slog.Logger]

func init() { current.Store(silent) }

// SetLogger routes the log output of nle and its sub-packages to l. The
// engine is silent until SetLogger is called; nil makes it silent again.
// It is safe to call while rendering.
//
// Levels:
//   - [slog.LevelDebug]: per-frame detail (prepared tracks, composited areas)
//   - [slog.LevelInfo]: lifecycle (playback, export)
//   - [slog.LevelWarn]: recoverable problems (dropped frames, failed renders)
//   - [slog.LevelError]: broken invariants, just before the panic
//
// Example:
//
//	nle.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = silent
	}
	current.Store(l)
}

// Logger returns the logger set by SetLogger. Sub-packages log through it.
func Logger() *slog.Logger { return current.Load() }
