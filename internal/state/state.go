// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package state persists what was announced last.
package state

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.astrophena.name/feedhook/internal/gate"
)

// Store loads and saves the announcement state.
type Store interface {
	// Load returns the saved state. Fields that were never written are zero.
	Load(ctx context.Context) (gate.State, error)
	// Save persists s. Failures are *PersistError.
	Save(ctx context.Context, s gate.State) error
	// String describes the backend for logs.
	String() string
	// Close releases resources held by the store.
	Close() error
}

// PersistError is returned when the state can't be saved.
type PersistError struct {
	Backend string
	Err     error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("saving state to %s: %v", e.Backend, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

// Persisted artifact names, shared by the file and gist backends.
const (
	LinkFile = "last_item.txt"
	DateFile = "last_date.txt"
)

func parseLink(b []byte) string {
	return strings.TrimSpace(string(b))
}

func parseDate(name string, b []byte) (time.Time, error) {
	s := strings.TrimSpace(string(b))
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing %s: %w", name, err)
	}
	return t, nil
}

func formatDate(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}
