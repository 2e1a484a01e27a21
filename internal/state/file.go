// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package state

import (
	"context"
	"path/filepath"

	"go.astrophena.name/feedhook/internal/atomicio"
	"go.astrophena.name/feedhook/internal/gate"
)

// FileStore keeps the state as small text files in a directory: the last
// link in LinkFile and, when dates are tracked, the last publication date in
// DateFile.
type FileStore struct {
	Dir        string
	TrackDates bool
}

func (s *FileStore) String() string { return "file:" + s.Dir }

// Close implements [Store].
func (s *FileStore) Close() error { return nil }

// Files returns the names of the files Save writes, relative to Dir.
func (s *FileStore) Files() []string {
	files := []string{LinkFile}
	if s.TrackDates {
		files = append(files, DateFile)
	}
	return files
}

// Load implements [Store].
func (s *FileStore) Load(ctx context.Context) (gate.State, error) {
	var st gate.State

	b, err := atomicio.ReadFile(filepath.Join(s.Dir, LinkFile))
	if err != nil {
		return st, err
	}
	st.LastLink = parseLink(b)

	if !s.TrackDates {
		return st, nil
	}
	b, err = atomicio.ReadFile(filepath.Join(s.Dir, DateFile))
	if err != nil {
		return st, err
	}
	st.LastDate, err = parseDate(DateFile, b)
	return st, err
}

// Save implements [Store].
func (s *FileStore) Save(ctx context.Context, st gate.State) error {
	if err := atomicio.WriteFile(filepath.Join(s.Dir, LinkFile), []byte(st.LastLink), 0o644); err != nil {
		return &PersistError{Backend: s.String(), Err: err}
	}
	if !s.TrackDates || st.LastDate.IsZero() {
		return nil
	}
	if err := atomicio.WriteFile(filepath.Join(s.Dir, DateFile), []byte(formatDate(st.LastDate)), 0o644); err != nil {
		return &PersistError{Backend: s.String(), Err: err}
	}
	return nil
}
