// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package store implements a small key-value store backed in-memory, by
// SQLite or by PostgreSQL.
package store

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// Store is a generic interface for a key-value store.
type Store interface {
	// Get retrieves a value for a given key.
	// It must return (nil, nil) if the key is not found.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores a value for a given key.
	Set(ctx context.Context, key string, value []byte) error
	// Close closes the store and releases any resources.
	Close() error
}

// Open opens the store described by rawURL:
//
//   - memory: an in-process store, lost on exit;
//   - sqlite:///path/to/db or sqlite://relative/path: a SQLite database file;
//   - postgres://... or postgresql://...: a PostgreSQL database.
func Open(ctx context.Context, rawURL string) (Store, error) {
	scheme, rest, ok := strings.Cut(rawURL, ":")
	if !ok {
		return nil, fmt.Errorf("store: %q has no scheme", rawURL)
	}
	switch scheme {
	case "memory":
		return NewMemStore(), nil
	case "sqlite":
		path := strings.TrimPrefix(rest, "//")
		if path == "" {
			return nil, fmt.Errorf("store: %q has no database path", rawURL)
		}
		return NewSQLiteStore(ctx, path)
	case "postgres", "postgresql":
		if _, err := url.Parse(rawURL); err != nil {
			return nil, fmt.Errorf("store: %w", err)
		}
		return NewPostgresStore(ctx, rawURL)
	default:
		return nil, fmt.Errorf("store: unsupported scheme %q", scheme)
	}
}
