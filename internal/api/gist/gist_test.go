// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package gist

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"go.astrophena.name/feedhook/internal/testutil"
)

func testServer(t *testing.T) *httptest.Server {
	var mu sync.Mutex
	files := map[string]File{"last_item.txt": {Content: "https://example.com/1"}}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /gists/test", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		testutil.AssertEqual(t, r.Header.Get("Authorization"), "Bearer secret")
		json.NewEncoder(w).Encode(&Gist{Files: files})
	})
	mux.HandleFunc("PATCH /gists/test", func(w http.ResponseWriter, r *http.Request) {
		b, err := io.ReadAll(r.Body)
		if err != nil {
			t.Error(err)
			return
		}
		g := testutil.UnmarshalJSON[*Gist](t, b)
		mu.Lock()
		defer mu.Unlock()
		for name, f := range g.Files {
			files[name] = f
		}
		json.NewEncoder(w).Encode(&Gist{Files: files})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestGetAndUpdate(t *testing.T) {
	srv := testServer(t)

	c := &Client{Token: "secret", API: srv.URL, HTTPClient: srv.Client()}

	g, err := c.Get(t.Context(), "test")
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, g.Files["last_item.txt"].Content, "https://example.com/1")

	g, err = c.Update(t.Context(), "test", &Gist{Files: map[string]File{
		"last_item.txt": {Content: "https://example.com/2"},
	}})
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, g.Files["last_item.txt"].Content, "https://example.com/2")
}

func TestGetNotFoundScrubsToken(t *testing.T) {
	srv := testServer(t)

	c := &Client{Token: "secret", API: srv.URL, HTTPClient: srv.Client()}
	_, err := c.Get(t.Context(), "missing")
	if err == nil {
		t.Fatal("Get() error = nil, want non-nil")
	}
	if strings.Contains(err.Error(), "secret") {
		t.Fatalf("token leaked into error: %v", err)
	}
}
