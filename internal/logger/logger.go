// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package logger wires up structured logging for command-line programs and
// carries the logger through a context.
package logger

import (
	"context"
	"io"
	"log/slog"
)

// Logger is a [slog.Logger] with an adjustable level.
type Logger struct {
	*slog.Logger
	Level *slog.LevelVar
}

// New returns a Logger that writes human-readable records to w at info level.
func New(w io.Writer) *Logger {
	level := new(slog.LevelVar)
	h := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Schedulers and journald stamp lines themselves.
			if len(groups) == 0 && a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	})
	return &Logger{Logger: slog.New(h), Level: level}
}

// Discard returns a Logger that drops everything.
func Discard() *Logger { return New(io.Discard) }

// SetVerbose switches the logger to debug level when v is true.
func (l *Logger) SetVerbose(v bool) {
	if v {
		l.Level.Set(slog.LevelDebug)
		return
	}
	l.Level.Set(slog.LevelInfo)
}

type ctxKey struct{}

// Put returns a copy of ctx carrying l.
func Put(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// From returns the Logger carried by ctx, if any.
func From(ctx context.Context) (*Logger, bool) {
	l, ok := ctx.Value(ctxKey{}).(*Logger)
	return l, ok
}

// Get returns the Logger carried by ctx, or a logger that discards everything
// if there is none.
func Get(ctx context.Context) *Logger {
	if l, ok := From(ctx); ok {
		return l
	}
	return Discard()
}
