// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package gitsync commits persisted state files to the Git repository that
// holds them.
package gitsync

import (
	"bytes"
	"cmp"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"go.astrophena.name/feedhook/internal/logger"
)

// DefaultMessage is the commit message used when none is configured.
const DefaultMessage = "Update last announced item"

// Runner runs git with args in dir and returns its combined output.
type Runner func(ctx context.Context, dir string, args ...string) ([]byte, error)

// ExecRunner runs the git binary found in PATH.
func ExecRunner(ctx context.Context, dir string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	err := cmd.Run()
	return buf.Bytes(), err
}

// Committer stages, commits and optionally pushes a set of files.
type Committer struct {
	// Dir is a directory inside the repository. Git runs there.
	Dir string
	// Files are the paths to commit, relative to Dir.
	Files []string
	// Message is the commit message. Defaults to DefaultMessage.
	Message string
	// AuthorName and AuthorEmail override the committer identity.
	AuthorName  string
	AuthorEmail string
	// Push pushes the commit to the default remote.
	Push bool
	// Run runs git. Defaults to ExecRunner.
	Run Runner
}

// HookError is returned when one of the git steps fails.
type HookError struct {
	Step   string
	Output string
	Err    error
}

func (e *HookError) Error() string {
	out := strings.TrimSpace(e.Output)
	if out == "" {
		return fmt.Sprintf("git %s: %v", e.Step, e.Err)
	}
	return fmt.Sprintf("git %s: %v: %s", e.Step, e.Err, out)
}

func (e *HookError) Unwrap() error { return e.Err }

// Commit records the current contents of the files. It is not an error if
// they didn't change.
func (c *Committer) Commit(ctx context.Context) error {
	if len(c.Files) == 0 {
		return &HookError{Step: "add", Err: errors.New("no files to commit")}
	}
	log := logger.Get(ctx)

	if err := c.git(ctx, "add", append([]string{"add", "--"}, c.Files...)...); err != nil {
		return err
	}

	// diff --quiet exits with 1 when there are staged changes.
	err := c.git(ctx, "diff", append([]string{"diff", "--cached", "--quiet", "--"}, c.Files...)...)
	if err == nil {
		log.Debug("state files unchanged, nothing to commit", "files", c.Files)
		return nil
	}
	if !hasExitCode(err, 1) {
		return err
	}

	args := c.identity()
	args = append(args, "commit", "-m", cmp.Or(c.Message, DefaultMessage), "--")
	args = append(args, c.Files...)
	if err := c.git(ctx, "commit", args...); err != nil {
		return err
	}
	log.Info("committed state files", "files", c.Files)

	if !c.Push {
		return nil
	}
	if err := c.git(ctx, "push", "push"); err != nil {
		return err
	}
	log.Info("pushed state commit")
	return nil
}

func (c *Committer) identity() []string {
	var args []string
	if c.AuthorName != "" {
		args = append(args, "-c", "user.name="+c.AuthorName)
	}
	if c.AuthorEmail != "" {
		args = append(args, "-c", "user.email="+c.AuthorEmail)
	}
	return args
}

func (c *Committer) git(ctx context.Context, step string, args ...string) error {
	run := c.Run
	if run == nil {
		run = ExecRunner
	}
	out, err := run(ctx, c.Dir, args...)
	if err != nil {
		return &HookError{Step: step, Output: string(out), Err: err}
	}
	return nil
}

func hasExitCode(err error, code int) bool {
	var ee interface{ ExitCode() int }
	return errors.As(err, &ee) && ee.ExitCode() == code
}
