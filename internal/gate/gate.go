// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package gate decides whether the latest feed item should be announced.
//
// The decision is a pure function of the item, the previously persisted
// state, the current instant and the policy. It never performs I/O.
package gate

import (
	"fmt"
	"time"
)

// Item is a single feed entry.
type Item struct {
	Link    string `json:"link"`
	Title   string `json:"title"`
	Summary string `json:"summary,omitempty"`
	// Published is the publication date as it appeared in the feed.
	Published string `json:"published,omitempty"`
	// PublishedAt is the parsed publication date. It is zero when the feed
	// carried no date or it could not be parsed.
	PublishedAt time.Time `json:"published_at,omitzero"`
}

// State is what was announced last. Zero fields mean "never written".
type State struct {
	LastLink string    `json:"last_link,omitempty"`
	LastDate time.Time `json:"last_date,omitzero"`
}

// Action is the outcome of [Decide].
type Action int

const (
	// Publish means the item should be announced.
	Publish Action = iota
	// SkipDuplicateLink means the item was already announced, either by link
	// or by date.
	SkipDuplicateLink
	// SkipStaleDate means the item was not published today in the
	// configured time zone.
	SkipStaleDate
	// SkipNoItem means the feed had no entries.
	SkipNoItem
)

func (a Action) String() string {
	switch a {
	case Publish:
		return "publish"
	case SkipDuplicateLink:
		return "skip-duplicate-link"
	case SkipStaleDate:
		return "skip-stale-date"
	case SkipNoItem:
		return "skip-no-item"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// Policy configures optional checks of [Decide].
type Policy struct {
	// SameDayIn enables date-gating: only items published on the same
	// calendar day as now, in this location, are announced. Nil disables it.
	SameDayIn *time.Location
	// TrackDates enables the date cache: an item is announced only when its
	// publication date is strictly after the last announced one.
	TrackDates bool
}

// Decision is the result of [Decide].
type Decision struct {
	Action Action
	// Next is the state to persist after a successful delivery. It is set
	// only when Action is Publish.
	Next State
	// Diagnostic is a non-nil *DateParseError when the item date was needed
	// but missing or unparseable.
	Diagnostic error
}

// DateParseError reports an item whose publication date could not be used.
type DateParseError struct {
	Link string
	// Raw is the date string from the feed, possibly empty.
	Raw string
}

func (e *DateParseError) Error() string {
	if e.Raw == "" {
		return fmt.Sprintf("item %q has no publication date", e.Link)
	}
	return fmt.Sprintf("item %q has unparseable publication date %q", e.Link, e.Raw)
}

// Decide maps the latest item and prior state to a [Decision].
//
// A nil item yields SkipNoItem. An item whose link equals the last
// announced one is always SkipDuplicateLink. Otherwise either enabled check
// skipping is enough to skip, and a missing date fails closed.
func Decide(item *Item, prior State, now time.Time, p Policy) Decision {
	if item == nil {
		return Decision{Action: SkipNoItem}
	}

	if prior.LastLink != "" && item.Link == prior.LastLink {
		return Decision{Action: SkipDuplicateLink}
	}

	if p.SameDayIn != nil {
		if item.PublishedAt.IsZero() {
			return Decision{Action: SkipStaleDate, Diagnostic: dateErr(item)}
		}
		if !sameDay(item.PublishedAt, now, p.SameDayIn) {
			return Decision{Action: SkipStaleDate}
		}
	}

	if p.TrackDates && !prior.LastDate.IsZero() {
		if item.PublishedAt.IsZero() {
			return Decision{Action: SkipDuplicateLink, Diagnostic: dateErr(item)}
		}
		if !item.PublishedAt.After(prior.LastDate) {
			return Decision{Action: SkipDuplicateLink}
		}
	}

	return Decision{
		Action: Publish,
		Next: State{
			LastLink: item.Link,
			LastDate: item.PublishedAt,
		},
	}
}

func dateErr(item *Item) error {
	return &DateParseError{Link: item.Link, Raw: item.Published}
}

func sameDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}
