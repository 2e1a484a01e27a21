// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package format renders announcement messages for feed items.
package format

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.astrophena.name/feedhook/internal/gate"
)

// MaxLength is the maximum message length, in characters, accepted by
// Discord.
const MaxLength = 2000

// DefaultSummaryLimit is the default length of the summary preview.
const DefaultSummaryLimit = 200

// DefaultLabel introduces the title in the default message.
const DefaultLabel = "Nova edição"

// Formatter renders the message announcing item. roleID is empty when no
// role should be mentioned.
type Formatter interface {
	Format(ctx context.Context, item *gate.Item, roleID string) (string, error)
}

// Position is where the role mention goes in the default message.
type Position int

const (
	// Before puts the mention on the first line.
	Before Position = iota
	// After puts the mention on the last line.
	After
)

func (p Position) String() string {
	if p == After {
		return "after"
	}
	return "before"
}

// ParsePosition parses "before" or "after". An empty string means Before.
func ParsePosition(s string) (Position, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "before":
		return Before, nil
	case "after":
		return After, nil
	default:
		return Before, fmt.Errorf("invalid mention position %q (want \"before\" or \"after\")", s)
	}
}

// Mention returns the Discord markup mentioning a role.
func Mention(roleID string) string {
	if roleID == "" {
		return ""
	}
	return "<@&" + roleID + ">"
}

// Truncate shortens s to at most limit characters, appending "..." when
// something was cut.
func Truncate(s string, limit int) string {
	if limit < 0 {
		limit = 0
	}
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	r := []rune(s)
	return strings.TrimRightFunc(string(r[:limit]), isSpace) + "..."
}

func isSpace(r rune) bool { return r == ' ' || r == '\n' || r == '\t' }

// Clip makes sure msg fits into MaxLength.
func Clip(msg string) string {
	if utf8.RuneCountInString(msg) <= MaxLength {
		return msg
	}
	return Truncate(msg, MaxLength-len("..."))
}

// Default is the built-in message layout: an optional role mention, a bold
// title line, a summary preview and a link.
type Default struct {
	Position Position
	// SummaryLimit is the preview length. Zero means DefaultSummaryLimit.
	SummaryLimit int
	// Label precedes the title. Empty means DefaultLabel.
	Label string
}

// Format implements [Formatter].
func (d *Default) Format(_ context.Context, item *gate.Item, roleID string) (string, error) {
	if item == nil {
		return "", errors.New("format: nil item")
	}

	limit := d.SummaryLimit
	if limit <= 0 {
		limit = DefaultSummaryLimit
	}

	preview := Truncate(item.Summary, limit)
	msg := d.assemble(item, preview, roleID)

	// Shorten the preview first, so the title and link survive.
	if over := utf8.RuneCountInString(msg) - MaxLength; over > 0 {
		keep := utf8.RuneCountInString(preview) - over - len("...")
		preview = ""
		if keep > 0 {
			preview = Truncate(item.Summary, keep)
		}
		msg = d.assemble(item, preview, roleID)
	}

	return Clip(msg), nil
}

func (d *Default) assemble(item *gate.Item, preview, roleID string) string {
	var lines []string
	mention := Mention(roleID)
	if mention != "" && d.Position == Before {
		lines = append(lines, mention)
	}
	title := item.Title
	if title == "" {
		title = item.Link
	}
	lines = append(lines, "📝 **"+cmp.Or(d.Label, DefaultLabel)+": "+title+"**")
	if preview != "" {
		lines = append(lines, preview)
	}
	lines = append(lines, "", "👉 "+item.Link)
	if mention != "" && d.Position == After {
		lines = append(lines, mention)
	}
	return strings.Join(lines, "\n")
}
