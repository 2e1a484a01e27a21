// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package gitsync

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"go.astrophena.name/feedhook/internal/testutil"
)

type exitError int

func (e exitError) Error() string { return "exit status " + strconv.Itoa(int(e)) }
func (e exitError) ExitCode() int { return int(e) }

// fakeGit records invocations and fails the ones listed in fail.
type fakeGit struct {
	calls []string
	fail  map[string]error
}

func (f *fakeGit) run(_ context.Context, dir string, args ...string) ([]byte, error) {
	call := strings.Join(args, " ")
	f.calls = append(f.calls, call)
	for prefix, err := range f.fail {
		if strings.HasPrefix(call, prefix) {
			return []byte("fatal: " + prefix + " failed\n"), err
		}
	}
	return nil, nil
}

func TestCommit(t *testing.T) {
	t.Parallel()

	changed := map[string]error{"diff": exitError(1)}

	cases := map[string]struct {
		c         Committer
		fail      map[string]error
		wantCalls []string
		wantStep  string
	}{
		"nothing to commit": {
			c: Committer{Files: []string{"last_item.txt"}},
			wantCalls: []string{
				"add -- last_item.txt",
				"diff --cached --quiet -- last_item.txt",
			},
		},
		"commit": {
			c:    Committer{Files: []string{"last_item.txt", "last_date.txt"}},
			fail: changed,
			wantCalls: []string{
				"add -- last_item.txt last_date.txt",
				"diff --cached --quiet -- last_item.txt last_date.txt",
				"commit -m Update last announced item -- last_item.txt last_date.txt",
			},
		},
		"commit with identity and push": {
			c: Committer{
				Files:       []string{"last_item.txt"},
				Message:     "bot: state",
				AuthorName:  "feedhook",
				AuthorEmail: "bot@example.com",
				Push:        true,
			},
			fail: changed,
			wantCalls: []string{
				"add -- last_item.txt",
				"diff --cached --quiet -- last_item.txt",
				"-c user.name=feedhook -c user.email=bot@example.com commit -m bot: state -- last_item.txt",
				"push",
			},
		},
		"add fails": {
			c:         Committer{Files: []string{"last_item.txt"}},
			fail:      map[string]error{"add": exitError(128)},
			wantCalls: []string{"add -- last_item.txt"},
			wantStep:  "add",
		},
		"diff fails": {
			c:    Committer{Files: []string{"last_item.txt"}},
			fail: map[string]error{"diff": exitError(128)},
			wantCalls: []string{
				"add -- last_item.txt",
				"diff --cached --quiet -- last_item.txt",
			},
			wantStep: "diff",
		},
		"push fails": {
			c: Committer{Files: []string{"last_item.txt"}, Push: true},
			fail: map[string]error{
				"diff": exitError(1),
				"push": errors.New("network is down"),
			},
			wantCalls: []string{
				"add -- last_item.txt",
				"diff --cached --quiet -- last_item.txt",
				"commit -m Update last announced item -- last_item.txt",
				"push",
			},
			wantStep: "push",
		},
		"no files": {
			c:        Committer{},
			wantStep: "add",
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			fg := &fakeGit{fail: tc.fail}
			c := tc.c
			c.Run = fg.run

			err := c.Commit(t.Context())
			testutil.AssertEqual(t, fg.calls, tc.wantCalls)
			if tc.wantStep == "" {
				if err != nil {
					t.Fatal(err)
				}
				return
			}
			he := testutil.AssertErrorAs[*HookError](t, err)
			testutil.AssertEqual(t, he.Step, tc.wantStep)
		})
	}
}

func TestHookErrorIncludesOutput(t *testing.T) {
	t.Parallel()

	err := &HookError{Step: "push", Output: "fatal: no remote\n", Err: exitError(1)}
	testutil.AssertEqual(t, err.Error(), "git push: exit status 1: fatal: no remote")
}

func TestCommitWithGit(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git is not installed")
	}
	t.Parallel()

	dir := t.TempDir()
	if out, err := ExecRunner(t.Context(), dir, "init", "-q"); err != nil {
		t.Fatalf("git init: %v: %s", err, out)
	}

	file := filepath.Join(dir, "last_item.txt")
	c := &Committer{
		Dir:         dir,
		Files:       []string{"last_item.txt"},
		AuthorName:  "feedhook",
		AuthorEmail: "feedhook@example.com",
	}

	write := func(s string) {
		if err := os.WriteFile(file, []byte(s), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	write("https://x/1")
	if err := c.Commit(t.Context()); err != nil {
		t.Fatal(err)
	}
	// Same content again: nothing to commit.
	if err := c.Commit(t.Context()); err != nil {
		t.Fatal(err)
	}
	write("https://x/2")
	if err := c.Commit(t.Context()); err != nil {
		t.Fatal(err)
	}

	out, err := ExecRunner(t.Context(), dir, "log", "--format=%s %an")
	if err != nil {
		t.Fatalf("git log: %v: %s", err, out)
	}
	testutil.AssertEqual(t, strings.TrimSpace(string(out)), "Update last announced item feedhook\nUpdate last announced item feedhook")
}
