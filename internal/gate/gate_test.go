// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package gate

import (
	"errors"
	"fmt"
	"testing"
	"time"
	_ "time/tzdata"

	"go.astrophena.name/feedhook/internal/testutil"
)

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	tt, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatal(err)
	}
	return tt
}

func saoPaulo(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		t.Fatal(err)
	}
	return loc
}

func TestDecideScenarios(t *testing.T) {
	t.Parallel()

	loc := saoPaulo(t)

	cases := map[string]struct {
		item       *Item
		prior      State
		now        time.Time
		policy     Policy
		wantAction Action
		wantNext   State
		wantDiag   bool
	}{
		"first run publishes": {
			item:       &Item{Link: "https://x/1"},
			now:        mustTime(t, "2024-05-02T12:00:00Z"),
			wantAction: Publish,
			wantNext:   State{LastLink: "https://x/1"},
		},
		"same link is duplicate": {
			item:       &Item{Link: "https://x/1"},
			prior:      State{LastLink: "https://x/1"},
			now:        mustTime(t, "2024-05-02T12:00:00Z"),
			wantAction: SkipDuplicateLink,
		},
		"previous day in zone is stale": {
			item: &Item{
				Link:        "https://x/2",
				PublishedAt: mustTime(t, "2024-05-01T10:00:00-03:00"),
			},
			prior:      State{LastLink: "https://x/1"},
			now:        mustTime(t, "2024-05-02T23:00:00-03:00"),
			policy:     Policy{SameDayIn: loc},
			wantAction: SkipStaleDate,
		},
		"equal date in cache is duplicate": {
			item: &Item{
				Link:        "https://x/2",
				PublishedAt: mustTime(t, "2024-05-01T00:00:00Z"),
			},
			prior: State{
				LastLink: "https://x/1",
				LastDate: mustTime(t, "2024-05-01T00:00:00Z"),
			},
			now:        mustTime(t, "2024-05-01T12:00:00Z"),
			policy:     Policy{TrackDates: true},
			wantAction: SkipDuplicateLink,
		},
		"no item": {
			now:        mustTime(t, "2024-05-01T12:00:00Z"),
			policy:     Policy{SameDayIn: loc, TrackDates: true},
			wantAction: SkipNoItem,
		},
		"same day in zone but different day in UTC publishes": {
			item: &Item{
				Link:        "https://x/2",
				PublishedAt: mustTime(t, "2024-05-02T22:30:00-03:00"),
			},
			prior:      State{LastLink: "https://x/1"},
			now:        mustTime(t, "2024-05-02T23:00:00-03:00"),
			policy:     Policy{SameDayIn: loc},
			wantAction: Publish,
			wantNext: State{
				LastLink: "https://x/2",
				LastDate: mustTime(t, "2024-05-02T22:30:00-03:00"),
			},
		},
		"missing date while gating fails closed": {
			item:       &Item{Link: "https://x/2", Published: "yesterday-ish"},
			now:        mustTime(t, "2024-05-02T12:00:00Z"),
			policy:     Policy{SameDayIn: loc},
			wantAction: SkipStaleDate,
			wantDiag:   true,
		},
		"missing date with date cache fails closed": {
			item: &Item{Link: "https://x/2"},
			prior: State{
				LastLink: "https://x/1",
				LastDate: mustTime(t, "2024-05-01T00:00:00Z"),
			},
			now:        mustTime(t, "2024-05-02T12:00:00Z"),
			policy:     Policy{TrackDates: true},
			wantAction: SkipDuplicateLink,
			wantDiag:   true,
		},
		"missing date without checks publishes": {
			item:       &Item{Link: "https://x/2", Published: "garbage"},
			prior:      State{LastLink: "https://x/1"},
			now:        mustTime(t, "2024-05-02T12:00:00Z"),
			wantAction: Publish,
			wantNext:   State{LastLink: "https://x/2"},
		},
		"later date with date cache publishes": {
			item: &Item{
				Link:        "https://x/2",
				PublishedAt: mustTime(t, "2024-05-02T08:00:00Z"),
			},
			prior: State{
				LastLink: "https://x/1",
				LastDate: mustTime(t, "2024-05-01T08:00:00Z"),
			},
			now:        mustTime(t, "2024-05-02T12:00:00Z"),
			policy:     Policy{TrackDates: true},
			wantAction: Publish,
			wantNext: State{
				LastLink: "https://x/2",
				LastDate: mustTime(t, "2024-05-02T08:00:00Z"),
			},
		},
		"rotated link with older date is duplicate": {
			item: &Item{
				Link:        "https://x/1?utm=rss",
				PublishedAt: mustTime(t, "2024-04-30T08:00:00Z"),
			},
			prior: State{
				LastLink: "https://x/1",
				LastDate: mustTime(t, "2024-05-01T08:00:00Z"),
			},
			now:        mustTime(t, "2024-05-02T12:00:00Z"),
			policy:     Policy{TrackDates: true},
			wantAction: SkipDuplicateLink,
		},
		"date cache without prior date publishes": {
			item: &Item{
				Link:        "https://x/2",
				PublishedAt: mustTime(t, "2024-05-02T08:00:00Z"),
			},
			prior:      State{LastLink: "https://x/1"},
			now:        mustTime(t, "2024-05-02T12:00:00Z"),
			policy:     Policy{TrackDates: true},
			wantAction: Publish,
			wantNext: State{
				LastLink: "https://x/2",
				LastDate: mustTime(t, "2024-05-02T08:00:00Z"),
			},
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			d := Decide(tc.item, tc.prior, tc.now, tc.policy)
			testutil.AssertEqual(t, d.Action, tc.wantAction)
			testutil.AssertEqual(t, d.Next, tc.wantNext)
			if tc.wantDiag {
				dpe := testutil.AssertErrorAs[*DateParseError](t, d.Diagnostic)
				testutil.AssertEqual(t, dpe.Link, tc.item.Link)
				testutil.AssertEqual(t, dpe.Raw, tc.item.Published)
			} else if d.Diagnostic != nil {
				t.Fatalf("unexpected diagnostic: %v", d.Diagnostic)
			}
		})
	}
}

// grid returns combinations of items, states and policies used by the
// property tests below.
func grid(t *testing.T) (items []*Item, states []State, policies []Policy, nows []time.Time) {
	t.Helper()

	loc := saoPaulo(t)
	dates := []time.Time{
		{},
		mustTime(t, "2024-04-30T12:00:00Z"),
		mustTime(t, "2024-05-01T00:00:00Z"),
		mustTime(t, "2024-05-01T02:59:59Z"),
		mustTime(t, "2024-05-01T03:00:00Z"),
		mustTime(t, "2024-05-02T02:00:00Z"),
	}
	links := []string{"https://x/1", "https://x/2"}

	for _, link := range links {
		for _, d := range dates {
			items = append(items, &Item{Link: link, PublishedAt: d})
		}
	}
	for _, link := range append([]string{""}, links...) {
		for _, d := range dates {
			states = append(states, State{LastLink: link, LastDate: d})
		}
	}
	for _, same := range []*time.Location{nil, time.UTC, loc} {
		for _, track := range []bool{false, true} {
			policies = append(policies, Policy{SameDayIn: same, TrackDates: track})
		}
	}
	nows = []time.Time{
		mustTime(t, "2024-05-01T01:00:00Z"),
		mustTime(t, "2024-05-01T12:00:00Z"),
		mustTime(t, "2024-05-02T23:00:00-03:00"),
	}
	return items, states, policies, nows
}

func forEach(t *testing.T, f func(item *Item, prior State, now time.Time, p Policy, d Decision) error) {
	t.Helper()
	items, states, policies, nows := grid(t)
	for _, item := range items {
		for _, prior := range states {
			for _, p := range policies {
				for _, now := range nows {
					d := Decide(item, prior, now, p)
					if err := f(item, prior, now, p, d); err != nil {
						t.Fatalf("Decide(%+v, %+v, %v, %+v) = %+v: %v", item, prior, now, p, d, err)
					}
				}
			}
		}
	}
}

func TestDecideSameLinkAlwaysDuplicate(t *testing.T) {
	t.Parallel()
	forEach(t, func(item *Item, prior State, _ time.Time, _ Policy, d Decision) error {
		if item.Link == prior.LastLink && d.Action != SkipDuplicateLink {
			return fmt.Errorf("want %v", SkipDuplicateLink)
		}
		return nil
	})
}

func TestDecideOtherDayIsStale(t *testing.T) {
	t.Parallel()
	forEach(t, func(item *Item, prior State, now time.Time, p Policy, d Decision) error {
		if p.SameDayIn == nil || item.Link == prior.LastLink || item.PublishedAt.IsZero() {
			return nil
		}
		if !sameDay(item.PublishedAt, now, p.SameDayIn) && d.Action != SkipStaleDate {
			return fmt.Errorf("want %v", SkipStaleDate)
		}
		return nil
	})
}

func TestDecideFailsClosed(t *testing.T) {
	t.Parallel()
	forEach(t, func(item *Item, prior State, _ time.Time, p Policy, d Decision) error {
		if p.SameDayIn != nil && item.PublishedAt.IsZero() && d.Action == Publish {
			return errors.New("published an item without a date while date-gating")
		}
		return nil
	})
}

func TestDecideNeverPublishesOverSkip(t *testing.T) {
	t.Parallel()
	forEach(t, func(item *Item, prior State, _ time.Time, p Policy, d Decision) error {
		if d.Action != Publish || !p.TrackDates || prior.LastDate.IsZero() {
			return nil
		}
		if !item.PublishedAt.After(prior.LastDate) {
			return errors.New("published although the date cache says the item is not newer")
		}
		return nil
	})
}

func TestDecideStateUpdateLaw(t *testing.T) {
	t.Parallel()
	forEach(t, func(item *Item, _ State, _ time.Time, _ Policy, d Decision) error {
		if d.Action == Publish {
			if d.Next.LastLink != item.Link {
				return fmt.Errorf("next link %q, want %q", d.Next.LastLink, item.Link)
			}
			if !d.Next.LastDate.Equal(item.PublishedAt) {
				return fmt.Errorf("next date %v, want %v", d.Next.LastDate, item.PublishedAt)
			}
			return nil
		}
		if d.Next != (State{}) {
			return errors.New("next state set for a skip")
		}
		return nil
	})
}

func TestDecideIdempotent(t *testing.T) {
	t.Parallel()
	forEach(t, func(item *Item, prior State, now time.Time, p Policy, d Decision) error {
		before := *item
		again := Decide(item, prior, now, p)
		if *item != before {
			return errors.New("item was mutated")
		}
		if again.Action != d.Action || again.Next != d.Next {
			return fmt.Errorf("second call returned %+v", again)
		}
		return nil
	})
}

func TestActionString(t *testing.T) {
	t.Parallel()
	cases := map[Action]string{
		Publish:           "publish",
		SkipDuplicateLink: "skip-duplicate-link",
		SkipStaleDate:     "skip-stale-date",
		SkipNoItem:        "skip-no-item",
		Action(42):        "Action(42)",
	}
	for a, want := range cases {
		testutil.AssertEqual(t, a.String(), want)
	}
}

func TestDateParseError(t *testing.T) {
	t.Parallel()
	testutil.AssertEqual(t,
		(&DateParseError{Link: "https://x/1"}).Error(),
		`item "https://x/1" has no publication date`,
	)
	testutil.AssertEqual(t,
		(&DateParseError{Link: "https://x/1", Raw: "soon"}).Error(),
		`item "https://x/1" has unparseable publication date "soon"`,
	)
}
