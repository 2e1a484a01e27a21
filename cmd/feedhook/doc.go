// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

/*
Feedhook announces new articles of an RSS feed in a Discord channel.

Each invocation fetches the feed once, picks its most recent entry, and posts
it to a Discord webhook unless it was already announced. It is meant to be run
periodically by a scheduler such as cron, a systemd timer, or GitHub Actions.

# Usage

	$ feedhook [flags...] [command]

Commands:

  - run: announce the latest entry if it's new (the default).
  - preview: fetch the feed and print the decision and the message that would
    be sent. Nothing is delivered or saved.
  - state: print the saved state.

# Environment Variables

Variables can also be defined in a dotenv file (.env by default, see
-env-file). Variables set in the environment take precedence.

  - DISCORD_WEBHOOK_URL: Discord webhook URL. Required for run.
  - FEED_URL: feed to watch. Defaults to https://www.bomdigma.com.br/feed.
  - DISCORD_ROLE_ID: role to mention in announcements. Only this role can be
    pinged; @everyone, @here and user mentions are always suppressed.
  - REQUIRE_ROLE_MENTION: refuse to run without DISCORD_ROLE_ID.
  - MENTION_POSITION: "before" (default) or "after" the message.
  - SAME_DAY_TIMEZONE: IANA time zone name, e.g. America/Sao_Paulo. When set,
    only entries published today in this zone are announced.
  - TRACK_DATES: also remember the publication date of the last announced
    entry and skip entries that are not newer. This protects against feeds that
    change links of old entries.
  - SUMMARY_LIMIT: length of the summary preview. Defaults to 200.
  - ANNOUNCE_LABEL: text before the title in the default message. Defaults
    to "Nova edição".
  - FORMAT_FILE: Starlark file that formats messages (see below).
  - WEBHOOK_USERNAME, WEBHOOK_AVATAR_URL: override the webhook's name and
    avatar.
  - STATE_DIR: directory with state files. Defaults to
    $XDG_STATE_HOME/feedhook.
  - STATE_URL: keep state elsewhere: sqlite:///path/to/db, postgres://...,
    gist://<gist ID> (requires GITHUB_TOKEN) or memory: (for testing).
  - GIT_COMMIT: commit state files to the Git repository containing
    STATE_DIR after each announcement. GIT_PUSH pushes the commit.
    GIT_AUTHOR_NAME and GIT_AUTHOR_EMAIL set the committer identity.
  - VERBOSE: enable debug logging, including a line per HTTP request.

# State

With the default file backend, the link of the last announced entry is kept in
last_item.txt, and, with TRACK_DATES, its publication date in last_date.txt.
State is saved only after the webhook accepted the message, so a failed
delivery is retried on the next run. Runs sharing a state directory are
serialized with a lock file.

# Formatting

By default a message looks like this:

	<@&ROLE>
	📝 **Nova edição: Title**
	Summary preview...

	👉 https://example.com/article

A FORMAT_FILE script can replace it. It must define a format function
receiving the entry and the mention markup (empty when there is no role):

	def format(item, mention):
	    return "%s **%s**\n%s\n%s" % (mention, item.title, truncate(item.summary, 100), item.url)

The entry has title, url, summary and published fields.

# Exit Status

Feedhook exits with zero when it announced an entry or decided there was
nothing to announce, and with a non-zero status on any error, including a
failure to save state after a successful announcement.
*/
package main

import (
	_ "embed"

	"go.astrophena.name/feedhook/internal/cli"
)

//go:embed doc.go
var doc []byte

func init() { cli.SetDocComment(doc) }
