// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package format

import (
	"context"
	"errors"
	"fmt"

	"go.astrophena.name/feedhook/internal/gate"
	"go.astrophena.name/feedhook/internal/logger"

	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
	"go.starlark.net/syntax"
)

const maxExecutionSteps = 1_000_000

// Script is a [Formatter] defined by a Starlark file.
//
// The file must define a function format(item, mention) returning a
// non-empty string. item has the fields title, url, summary and published.
// mention is the role mention markup, or an empty string. The predeclared
// truncate(s, n) shortens a string the same way the default layout does.
type Script struct {
	filename string
	fn       *starlark.Function
}

// ScriptError is returned when a format script fails or returns an invalid
// value.
type ScriptError struct {
	Filename string
	Err      error
}

func (e *ScriptError) Error() string {
	return fmt.Sprintf("format script %s: %v", e.Filename, e.Err)
}

func (e *ScriptError) Unwrap() error { return e.Err }

// LoadScript evaluates src and looks up its format function.
func LoadScript(ctx context.Context, filename string, src []byte) (*Script, error) {
	globals, err := starlark.ExecFileOptions(
		&syntax.FileOptions{
			TopLevelControl: true,
		},
		newThread(ctx, filename),
		filename,
		src,
		predeclared(),
	)
	if err != nil {
		return nil, &ScriptError{Filename: filename, Err: err}
	}

	fn, ok := globals["format"].(*starlark.Function)
	if !ok {
		return nil, &ScriptError{Filename: filename, Err: errors.New("format must be defined and be a function")}
	}
	if fn.NumParams() != 2 {
		return nil, &ScriptError{Filename: filename, Err: fmt.Errorf("format must take 2 parameters, takes %d", fn.NumParams())}
	}

	return &Script{filename: filename, fn: fn}, nil
}

// Format implements [Formatter].
func (s *Script) Format(ctx context.Context, item *gate.Item, roleID string) (string, error) {
	if item == nil {
		return "", &ScriptError{Filename: s.filename, Err: errors.New("nil item")}
	}

	val, err := starlark.Call(
		newThread(ctx, s.filename),
		s.fn,
		starlark.Tuple{itemToStarlark(item), starlark.String(Mention(roleID))},
		[]starlark.Tuple{},
	)
	if err != nil {
		return "", &ScriptError{Filename: s.filename, Err: err}
	}

	str, ok := val.(starlark.String)
	if !ok {
		return "", &ScriptError{Filename: s.filename, Err: fmt.Errorf("format returned %s, want string", val.Type())}
	}
	if str.GoString() == "" {
		return "", &ScriptError{Filename: s.filename, Err: errors.New("format returned an empty string")}
	}
	return Clip(str.GoString()), nil
}

func newThread(ctx context.Context, filename string) *starlark.Thread {
	thread := &starlark.Thread{
		Name: filename,
		Print: func(_ *starlark.Thread, msg string) {
			logger.Get(ctx).Info(msg, "script", filename)
		},
	}
	thread.SetMaxExecutionSteps(maxExecutionSteps)
	return thread
}

func predeclared() starlark.StringDict {
	return starlark.StringDict{
		"truncate": starlark.NewBuiltin("truncate", truncateBuiltin),
	}
}

func truncateBuiltin(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var (
		s     string
		limit int
	)
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "s", &s, "n", &limit); err != nil {
		return nil, err
	}
	return starlark.String(Truncate(s, limit)), nil
}

func itemToStarlark(item *gate.Item) starlark.Value {
	return starlarkstruct.FromStringDict(
		starlarkstruct.Default,
		starlark.StringDict{
			"title":     starlark.String(item.Title),
			"url":       starlark.String(item.Link),
			"summary":   starlark.String(item.Summary),
			"published": starlark.String(item.Published),
		},
	)
}
