// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package state

import (
	"context"
	"encoding/json"
	"fmt"

	"go.astrophena.name/feedhook/internal/gate"
	"go.astrophena.name/feedhook/internal/store"
)

// KVStore keeps the state as a JSON value in a key-value store, one key per
// feed.
type KVStore struct {
	Store store.Store
	// Name describes the underlying store for logs.
	Name string
	// Feed is the feed URL the state belongs to.
	Feed string
}

func (s *KVStore) String() string { return s.Name }

// Close closes the underlying store.
func (s *KVStore) Close() error { return s.Store.Close() }

func (s *KVStore) key() string { return "feedhook:" + s.Feed }

// Load implements [Store].
func (s *KVStore) Load(ctx context.Context) (gate.State, error) {
	var st gate.State
	b, err := s.Store.Get(ctx, s.key())
	if err != nil {
		return st, err
	}
	if b == nil {
		return st, nil
	}
	if err := json.Unmarshal(b, &st); err != nil {
		return st, fmt.Errorf("decoding state of %q: %w", s.Feed, err)
	}
	return st, nil
}

// Save implements [Store].
func (s *KVStore) Save(ctx context.Context, st gate.State) error {
	b, err := json.Marshal(st)
	if err != nil {
		return &PersistError{Backend: s.String(), Err: err}
	}
	if err := s.Store.Set(ctx, s.key(), b); err != nil {
		return &PersistError{Backend: s.String(), Err: err}
	}
	return nil
}
