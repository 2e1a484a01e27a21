// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package state

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.astrophena.name/feedhook/internal/api/gist"
	"go.astrophena.name/feedhook/internal/store"
)

// Options selects and configures a backend.
type Options struct {
	// Dir is the state directory of the file backend.
	Dir string
	// URL selects another backend: gist://<id>, memory:, sqlite://<path> or
	// postgres://... An empty URL means the file backend.
	URL string
	// Feed is the feed URL, used as the key in key-value backends.
	Feed       string
	TrackDates bool

	// GitHubToken authenticates gist:// backends.
	GitHubToken string
	// GistAPI overrides the GitHub API endpoint.
	GistAPI    string
	HTTPClient *http.Client
}

// Open returns the backend described by opts.
func Open(ctx context.Context, opts Options) (Store, error) {
	if opts.URL == "" {
		if opts.Dir == "" {
			return nil, errors.New("state directory is not set")
		}
		return &FileStore{Dir: opts.Dir, TrackDates: opts.TrackDates}, nil
	}

	if id, ok := strings.CutPrefix(opts.URL, "gist://"); ok {
		if id == "" {
			return nil, errors.New("gist state URL has no gist ID")
		}
		if opts.GitHubToken == "" {
			return nil, errors.New("gist state requires a GitHub token")
		}
		return &GistStore{
			Client: &gist.Client{
				Token:      opts.GitHubToken,
				API:        opts.GistAPI,
				HTTPClient: opts.HTTPClient,
			},
			ID:         id,
			TrackDates: opts.TrackDates,
		}, nil
	}

	kv, err := store.Open(ctx, opts.URL)
	if err != nil {
		return nil, err
	}
	name, _, _ := strings.Cut(opts.URL, ":")
	return &KVStore{Store: kv, Name: name, Feed: opts.Feed}, nil
}
