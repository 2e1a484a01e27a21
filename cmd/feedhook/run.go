// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.astrophena.name/feedhook/internal/filelock"
	"go.astrophena.name/feedhook/internal/gate"
	"go.astrophena.name/feedhook/internal/gitsync"
	"go.astrophena.name/feedhook/internal/logger"
	"go.astrophena.name/feedhook/internal/state"
)

const lockFile = ".feedhook.lock"

// run is a single pass of the pipeline: fetch the latest entry, decide,
// deliver, then save state and run the commit hook.
func (a *app) run(ctx context.Context, cfg *config) error {
	if err := cfg.validateDelivery(); err != nil {
		return err
	}
	log := logger.Get(ctx)

	f, err := a.formatter(ctx, cfg)
	if err != nil {
		return err
	}

	if cfg.fileBackend() {
		unlock, err := acquireRunLock(cfg.stateDir)
		if err != nil {
			return err
		}
		defer func() {
			if err := unlock(); err != nil {
				log.Warn("failed to release run lock", "dir", cfg.stateDir, "error", err)
			}
		}()
	}

	st, err := a.openState(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	prior, err := st.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading state from %s: %w", st, err)
	}

	item, err := a.source(cfg).Latest(ctx)
	if err != nil {
		return err
	}

	d := gate.Decide(item, prior, a.now(), cfg.policy())
	if d.Diagnostic != nil {
		log.Warn("can't use publication date", "error", d.Diagnostic)
	}
	attrs := []any{"feed", cfg.feedURL, "action", d.Action}
	if item != nil {
		attrs = append(attrs, "link", item.Link)
	}
	if d.Action != gate.Publish {
		log.Info("nothing to announce", attrs...)
		return nil
	}

	if a.dry {
		log.Info("dry run: would announce", attrs...)
		return nil
	}

	if err := a.notifier(f, cfg).Deliver(ctx, item, cfg.roleID); err != nil {
		return err
	}
	log.Info("announced", attrs...)

	if err := st.Save(ctx, d.Next); err != nil {
		// The message is already out; report loudly so the store gets fixed
		// before the next run announces it again.
		log.Error("announced, but failed to save state", "link", item.Link, "error", err)
		return err
	}

	if cfg.gitCommit {
		fileStore, ok := st.(*state.FileStore)
		if !ok {
			return nil
		}
		c := &gitsync.Committer{
			Dir:         cfg.stateDir,
			Files:       fileStore.Files(),
			AuthorName:  cfg.gitAuthorName,
			AuthorEmail: cfg.gitAuthorEmail,
			Push:        cfg.gitPush,
			Run:         a.gitRun,
		}
		if err := c.Commit(ctx); err != nil {
			log.Warn("failed to commit state", "error", err)
		}
	}

	return nil
}

func acquireRunLock(dir string) (unlock func() error, err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	lock, err := filelock.Acquire(filepath.Join(dir, lockFile))
	if errors.Is(err, filelock.ErrAlreadyLocked) {
		return nil, fmt.Errorf("%w: %v", errAlreadyRunning, err)
	}
	if err != nil {
		return nil, err
	}
	return lock.Release, nil
}

// preview prints what run would do without delivering or saving anything.
func (a *app) preview(ctx context.Context, cfg *config, w io.Writer) error {
	f, err := a.formatter(ctx, cfg)
	if err != nil {
		return err
	}

	st, err := a.openState(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	prior, err := st.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading state from %s: %w", st, err)
	}

	item, err := a.source(cfg).Latest(ctx)
	if err != nil {
		return err
	}

	d := gate.Decide(item, prior, a.now(), cfg.policy())

	var diagnostic string
	if d.Diagnostic != nil {
		diagnostic = d.Diagnostic.Error()
	}

	var p any
	if item != nil {
		payload, err := a.notifier(f, cfg).Render(ctx, item, cfg.roleID)
		if err != nil {
			return err
		}
		p = payload
		if !a.json {
			fmt.Fprintf(w, "action: %s\n", d.Action)
			if diagnostic != "" {
				fmt.Fprintf(w, "warning: %s\n", diagnostic)
			}
			fmt.Fprintf(w, "link:   %s\n\n%s\n", item.Link, payload.Content)
			return nil
		}
	}

	if a.json {
		return writeJSON(w, struct {
			Action     string     `json:"action"`
			Diagnostic string     `json:"diagnostic,omitempty"`
			Item       *gate.Item `json:"item,omitempty"`
			Payload    any        `json:"payload,omitempty"`
		}{d.Action.String(), diagnostic, item, p})
	}
	fmt.Fprintf(w, "action: %s\n", d.Action)
	return nil
}
