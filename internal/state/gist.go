// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package state

import (
	"context"

	"go.astrophena.name/feedhook/internal/api/gist"
	"go.astrophena.name/feedhook/internal/gate"
)

// GistStore keeps the state in a GitHub Gist, using the same files as
// FileStore.
type GistStore struct {
	Client     *gist.Client
	ID         string
	TrackDates bool
}

func (s *GistStore) String() string { return "gist:" + s.ID }

// Close implements [Store].
func (s *GistStore) Close() error { return nil }

// Load implements [Store].
func (s *GistStore) Load(ctx context.Context) (gate.State, error) {
	var st gate.State
	g, err := s.Client.Get(ctx, s.ID)
	if err != nil {
		return st, err
	}
	st.LastLink = parseLink([]byte(g.Files[LinkFile].Content))
	if s.TrackDates {
		st.LastDate, err = parseDate(DateFile, []byte(g.Files[DateFile].Content))
	}
	return st, err
}

// Save implements [Store].
func (s *GistStore) Save(ctx context.Context, st gate.State) error {
	g := &gist.Gist{Files: map[string]gist.File{
		LinkFile: {Content: st.LastLink},
	}}
	if s.TrackDates && !st.LastDate.IsZero() {
		g.Files[DateFile] = gist.File{Content: formatDate(st.LastDate)}
	}
	if _, err := s.Client.Update(ctx, s.ID, g); err != nil {
		return &PersistError{Backend: s.String(), Err: err}
	}
	return nil
}
