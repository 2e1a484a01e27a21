// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"
	_ "time/tzdata"

	"go.astrophena.name/feedhook/internal/cli"
	"go.astrophena.name/feedhook/internal/feed"
	"go.astrophena.name/feedhook/internal/format"
	"go.astrophena.name/feedhook/internal/gate"
	"go.astrophena.name/feedhook/internal/gitsync"
	"go.astrophena.name/feedhook/internal/httplogger"
	"go.astrophena.name/feedhook/internal/logger"
	"go.astrophena.name/feedhook/internal/request"
	"go.astrophena.name/feedhook/internal/state"
	"go.astrophena.name/feedhook/internal/webhook"
)

var errAlreadyRunning = errors.New("already running")

func main() { cli.Main(new(app)) }

type app struct {
	// flags
	dry     bool
	json    bool
	verbose bool
	envFile string

	// now acts as time.Now, but can be mocked for testing.
	now func() time.Time
	// httpc is used for all HTTP requests, if set.
	httpc *http.Client
	// gistAPI overrides the GitHub API endpoint.
	gistAPI string
	// gitRun overrides how git is invoked.
	gitRun gitsync.Runner
}

func (a *app) Flags(fs *flag.FlagSet) {
	fs.BoolVar(&a.dry, "dry", false, "Enable dry-run mode: log decisions, but don't deliver messages or save state.")
	fs.BoolVar(&a.json, "json", false, "Output in JSON format (honored by preview and state).")
	fs.BoolVar(&a.verbose, "v", false, "Enable verbose logging.")
	fs.StringVar(&a.envFile, "env-file", defaultEnvFile, "Load environment variables from `file`, if it exists.")
}

func (a *app) Run(ctx context.Context, env *cli.Env) error {
	explicit := a.envFile != defaultEnvFile
	getenv, err := envLookup(env.Getenv, a.envFile, explicit)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(getenv)
	if err != nil {
		return err
	}

	log := logger.Get(ctx)
	log.SetVerbose(a.verbose || a.dry || cfg.verbose)
	if log.Enabled(ctx, slog.LevelDebug) {
		a.httpc = httplogger.Wrap(cmp.Or(a.httpc, request.DefaultClient), log.Logger, webhook.Scrubber(cfg.webhookURL).Replace)
	}

	if a.now == nil {
		a.now = time.Now
	}

	command := "run"
	if len(env.Args) > 0 {
		command = env.Args[0]
	}
	if len(env.Args) > 1 {
		return fmt.Errorf("%w: %s takes no arguments", cli.ErrInvalidArgs, command)
	}

	switch command {
	case "run":
		return a.run(ctx, cfg)
	case "preview":
		return a.preview(ctx, cfg, env.Stdout)
	case "state":
		return a.printState(ctx, cfg, env.Stdout)
	default:
		return fmt.Errorf("%w: no such command %q", cli.ErrInvalidArgs, command)
	}
}

func (a *app) openState(ctx context.Context, cfg *config) (state.Store, error) {
	return state.Open(ctx, state.Options{
		Dir:         cfg.stateDir,
		URL:         cfg.stateURL,
		Feed:        cfg.feedURL,
		TrackDates:  cfg.trackDates,
		GitHubToken: cfg.githubToken,
		GistAPI:     a.gistAPI,
		HTTPClient:  a.httpc,
	})
}

func (a *app) source(cfg *config) *feed.Source {
	return &feed.Source{URL: cfg.feedURL, HTTPClient: a.httpc}
}

func (a *app) formatter(ctx context.Context, cfg *config) (format.Formatter, error) {
	if cfg.formatFile == "" {
		return &format.Default{
			Position:     cfg.mentionPos,
			SummaryLimit: cfg.summaryLimit,
			Label:        cfg.label,
		}, nil
	}
	src, err := os.ReadFile(cfg.formatFile)
	if err != nil {
		return nil, &configError{Var: "FORMAT_FILE", Reason: err.Error()}
	}
	return format.LoadScript(ctx, cfg.formatFile, src)
}

func (a *app) notifier(f format.Formatter, cfg *config) *webhook.Notifier {
	return webhook.New(webhook.Config{
		URL:        cfg.webhookURL,
		Username:   cfg.username,
		AvatarURL:  cfg.avatarURL,
		Formatter:  f,
		HTTPClient: a.httpc,
	})
}

func (a *app) printState(ctx context.Context, cfg *config, w io.Writer) error {
	st, err := a.openState(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	s, err := st.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading state: %w", err)
	}

	if a.json {
		return writeJSON(w, struct {
			Backend string `json:"backend"`
			Feed    string `json:"feed"`
			gate.State
		}{st.String(), cfg.feedURL, s})
	}

	fmt.Fprintf(w, "backend:   %s\n", st)
	fmt.Fprintf(w, "feed:      %s\n", cfg.feedURL)
	fmt.Fprintf(w, "last link: %s\n", orNone(s.LastLink))
	lastDate := "(none)"
	if !s.LastDate.IsZero() {
		lastDate = s.LastDate.Format(time.RFC3339)
	}
	fmt.Fprintf(w, "last date: %s\n", lastDate)
	return nil
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
