// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package feed fetches a syndication feed and extracts its most recent
// entry.
package feed

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.astrophena.name/feedhook/internal/gate"
	"go.astrophena.name/feedhook/internal/logger"
	"go.astrophena.name/feedhook/internal/request"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

// Source is a single feed.
type Source struct {
	// URL is the feed address. RSS, Atom and JSON Feed are supported.
	URL string
	// HTTPClient is used to fetch the feed. If nil, request.DefaultClient is
	// used.
	HTTPClient *http.Client
}

// FetchError is returned when the feed can't be fetched or parsed.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching feed %q: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Latest fetches the feed and returns its most recent entry, or nil if the
// feed has no entries.
func (s *Source) Latest(ctx context.Context) (*gate.Item, error) {
	b, err := request.Make[request.Bytes](ctx, request.Params{
		Method: http.MethodGet,
		URL:    s.URL,
		Headers: map[string]string{
			"Accept": "application/rss+xml, application/atom+xml, application/feed+json, application/xml;q=0.9, */*;q=0.8",
		},
		HTTPClient: s.HTTPClient,
	})
	if err != nil {
		return nil, &FetchError{URL: s.URL, Err: err}
	}

	f, err := gofeed.NewParser().Parse(bytes.NewReader(b))
	if err != nil {
		return nil, &FetchError{URL: s.URL, Err: err}
	}

	logger.Get(ctx).Debug("fetched feed", "feed", s.URL, "type", f.FeedType, "items", len(f.Items))

	latest := pickLatest(f.Items)
	if latest == nil {
		return nil, nil
	}
	return toItem(latest), nil
}

// pickLatest returns the first entry in document order, unless another entry
// has a strictly later publication date.
func pickLatest(items []*gofeed.Item) *gofeed.Item {
	var latest *gofeed.Item
	for _, it := range items {
		if it == nil {
			continue
		}
		if latest == nil {
			latest = it
			continue
		}
		d, ld := published(it), published(latest)
		if d != nil && (ld == nil || d.After(*ld)) {
			latest = it
		}
	}
	return latest
}

func toItem(it *gofeed.Item) *gate.Item {
	item := &gate.Item{
		Link:      strings.TrimSpace(it.Link),
		Title:     strings.TrimSpace(it.Title),
		Published: it.Published,
		Summary:   Text(it.Description),
	}
	if item.Link == "" && isURL(it.GUID) {
		item.Link = it.GUID
	}
	if item.Published == "" {
		item.Published = it.Updated
	}
	if item.Summary == "" {
		item.Summary = Text(it.Content)
	}
	if t := published(it); t != nil {
		item.PublishedAt = *t
	}
	return item
}

func published(it *gofeed.Item) *time.Time {
	if it.PublishedParsed != nil {
		return it.PublishedParsed
	}
	return it.UpdatedParsed
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "http://")
}

// Text converts an HTML fragment to plain text with whitespace collapsed.
func Text(html string) string {
	if strings.TrimSpace(html) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return strings.Join(strings.Fields(html), " ")
	}
	var sb strings.Builder
	writeText(&sb, doc.Selection)
	return strings.Join(strings.Fields(sb.String()), " ")
}

var blockElements = map[string]bool{
	"address": true, "article": true, "blockquote": true, "br": true,
	"div": true, "dd": true, "dt": true, "figcaption": true, "footer": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"header": true, "hr": true, "li": true, "p": true, "pre": true,
	"section": true, "td": true, "th": true, "tr": true,
}

func writeText(sb *strings.Builder, s *goquery.Selection) {
	s.Contents().Each(func(_ int, c *goquery.Selection) {
		switch name := goquery.NodeName(c); name {
		case "#text":
			sb.WriteString(c.Text())
		case "script", "style", "#comment":
		default:
			writeText(sb, c)
			if blockElements[name] {
				sb.WriteByte(' ')
			}
		}
	})
}
