// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"cmp"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.astrophena.name/feedhook/internal/format"
	"go.astrophena.name/feedhook/internal/gate"

	"github.com/joho/godotenv"
)

const (
	defaultFeedURL = "https://www.bomdigma.com.br/feed"
	defaultEnvFile = ".env"
)

// configError is returned for missing or invalid configuration. It is always
// reported before any network request is made.
type configError struct {
	Var    string
	Reason string
}

func (e *configError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Var, e.Reason)
}

// config is built once per invocation and never modified afterwards.
type config struct {
	feedURL    string
	webhookURL string

	roleID       string
	requireRole  bool
	mentionPos   format.Position
	summaryLimit int
	label        string
	formatFile   string
	username     string
	avatarURL    string

	sameDayIn  *time.Location
	trackDates bool

	stateDir    string
	stateURL    string
	githubToken string

	gitCommit      bool
	gitPush        bool
	gitAuthorName  string
	gitAuthorEmail string

	verbose bool
}

func (c *config) policy() gate.Policy {
	return gate.Policy{SameDayIn: c.sameDayIn, TrackDates: c.trackDates}
}

// fileBackend reports whether state is kept in plain files in stateDir.
func (c *config) fileBackend() bool { return c.stateURL == "" }

// envLookup returns a getenv function that falls back to the variables
// defined in the dotenv file at path. Real environment variables win.
func envLookup(getenv func(string) string, path string, explicit bool) (func(string) string, error) {
	if path == "" {
		return getenv, nil
	}
	dotenv, err := godotenv.Read(path)
	if errors.Is(err, fs.ErrNotExist) && !explicit {
		return getenv, nil
	}
	if err != nil {
		return nil, &configError{Var: "-env-file", Reason: err.Error()}
	}
	return func(key string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return dotenv[key]
	}, nil
}

func loadConfig(getenv func(string) string) (*config, error) {
	c := &config{
		feedURL:        cmp.Or(strings.TrimSpace(getenv("FEED_URL")), defaultFeedURL),
		webhookURL:     strings.TrimSpace(getenv("DISCORD_WEBHOOK_URL")),
		roleID:         strings.TrimSpace(getenv("DISCORD_ROLE_ID")),
		label:          strings.TrimSpace(getenv("ANNOUNCE_LABEL")),
		formatFile:     getenv("FORMAT_FILE"),
		username:       getenv("WEBHOOK_USERNAME"),
		avatarURL:      getenv("WEBHOOK_AVATAR_URL"),
		stateDir:       getenv("STATE_DIR"),
		stateURL:       getenv("STATE_URL"),
		githubToken:    getenv("GITHUB_TOKEN"),
		gitAuthorName:  getenv("GIT_AUTHOR_NAME"),
		gitAuthorEmail: getenv("GIT_AUTHOR_EMAIL"),
	}

	var err error
	for _, b := range []struct {
		name string
		dst  *bool
	}{
		{"REQUIRE_ROLE_MENTION", &c.requireRole},
		{"TRACK_DATES", &c.trackDates},
		{"GIT_COMMIT", &c.gitCommit},
		{"GIT_PUSH", &c.gitPush},
		{"VERBOSE", &c.verbose},
	} {
		if *b.dst, err = parseBool(b.name, getenv(b.name)); err != nil {
			return nil, err
		}
	}

	if c.mentionPos, err = format.ParsePosition(getenv("MENTION_POSITION")); err != nil {
		return nil, &configError{Var: "MENTION_POSITION", Reason: err.Error()}
	}

	if s := getenv("SUMMARY_LIMIT"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			return nil, &configError{Var: "SUMMARY_LIMIT", Reason: fmt.Sprintf("%q is not a positive number", s)}
		}
		c.summaryLimit = n
	}

	if tz := getenv("SAME_DAY_TIMEZONE"); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return nil, &configError{Var: "SAME_DAY_TIMEZONE", Reason: err.Error()}
		}
		c.sameDayIn = loc
	}

	if err := checkURL("FEED_URL", c.feedURL); err != nil {
		return nil, err
	}

	if c.stateURL != "" && c.gitCommit {
		return nil, &configError{Var: "GIT_COMMIT", Reason: "only supported with file state (unset STATE_URL)"}
	}
	if c.fileBackend() && c.stateDir == "" {
		xdgStateHome := getenv("XDG_STATE_HOME")
		if xdgStateHome == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, &configError{Var: "STATE_DIR", Reason: err.Error()}
			}
			xdgStateHome = filepath.Join(home, ".local", "state")
		}
		c.stateDir = filepath.Join(xdgStateHome, "feedhook")
	}

	return c, nil
}

// validateDelivery checks the settings needed to post to the webhook.
func (c *config) validateDelivery() error {
	if c.webhookURL == "" {
		return &configError{Var: "DISCORD_WEBHOOK_URL", Reason: "is required"}
	}
	if err := checkURL("DISCORD_WEBHOOK_URL", c.webhookURL); err != nil {
		// Don't echo the URL, it contains a secret.
		return &configError{Var: "DISCORD_WEBHOOK_URL", Reason: "is not a valid HTTP(S) URL"}
	}
	if c.requireRole && c.roleID == "" {
		return &configError{Var: "DISCORD_ROLE_ID", Reason: "is required when REQUIRE_ROLE_MENTION is set"}
	}
	if c.roleID != "" {
		if _, err := strconv.ParseUint(c.roleID, 10, 64); err != nil {
			return &configError{Var: "DISCORD_ROLE_ID", Reason: fmt.Sprintf("%q is not a numeric ID", c.roleID)}
		}
	}
	return nil
}

func parseBool(name, s string) (bool, error) {
	if s == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, &configError{Var: name, Reason: fmt.Sprintf("%q is not a boolean", s)}
	}
	return v, nil
}

func checkURL(name, s string) error {
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &configError{Var: name, Reason: fmt.Sprintf("%q is not a valid HTTP(S) URL", s)}
	}
	return nil
}
