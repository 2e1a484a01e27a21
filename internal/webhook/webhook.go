// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package webhook delivers announcements to a Discord webhook.
package webhook

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.astrophena.name/feedhook/internal/format"
	"go.astrophena.name/feedhook/internal/gate"
	"go.astrophena.name/feedhook/internal/logger"
	"go.astrophena.name/feedhook/internal/request"
)

// Config configures a Notifier.
type Config struct {
	// URL is the webhook address. It embeds a secret token and never
	// appears in errors.
	URL string
	// Username and AvatarURL optionally override the webhook's defaults.
	Username  string
	AvatarURL string
	// Formatter renders the message. If nil, format.Default is used.
	Formatter format.Formatter
	// HTTPClient is used to deliver messages. If nil, request.DefaultClient
	// is used.
	HTTPClient *http.Client
}

// Notifier posts messages to a webhook.
type Notifier struct {
	url       string
	username  string
	avatarURL string
	formatter format.Formatter
	httpc     *http.Client
	scrubber  *strings.Replacer
}

// New returns a Notifier configured by cfg.
func New(cfg Config) *Notifier {
	n := &Notifier{
		url:       cfg.URL,
		username:  cfg.Username,
		avatarURL: cfg.AvatarURL,
		formatter: cfg.Formatter,
		httpc:     cfg.HTTPClient,
		scrubber:  Scrubber(cfg.URL),
	}
	if n.formatter == nil {
		n.formatter = &format.Default{}
	}
	return n
}

// Scrubber returns a replacer that hides the webhook URL and its token.
func Scrubber(rawURL string) *strings.Replacer {
	if rawURL == "" {
		return strings.NewReplacer()
	}
	oldnew := []string{rawURL, "[EXPUNGED]"}
	if u, err := url.Parse(rawURL); err == nil {
		// Discord webhook URLs look like /api/webhooks/{id}/{token}.
		if i := strings.LastIndexByte(u.Path, '/'); i >= 0 && i < len(u.Path)-1 {
			oldnew = append(oldnew, u.Path[i+1:], "[EXPUNGED]")
		}
	}
	return strings.NewReplacer(oldnew...)
}

// Payload is the body of a Discord execute-webhook request.
type Payload struct {
	Content         string          `json:"content"`
	Username        string          `json:"username,omitempty"`
	AvatarURL       string          `json:"avatar_url,omitempty"`
	AllowedMentions AllowedMentions `json:"allowed_mentions"`
}

// AllowedMentions restricts which mentions in the content notify anyone.
//
// See https://discord.com/developers/docs/resources/message#allowed-mentions-object.
type AllowedMentions struct {
	// Parse is always empty: @everyone, @here and user mentions never ping.
	Parse []string `json:"parse"`
	// Roles lists the only role that may be pinged, if any.
	Roles []string `json:"roles"`
}

// DeliveryError is returned when a message can't be rendered or the webhook
// rejects it.
type DeliveryError struct {
	Err error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivering to webhook: %v", e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// Mentions returns the mention restriction for roleID.
func Mentions(roleID string) AllowedMentions {
	am := AllowedMentions{Parse: []string{}, Roles: []string{}}
	if roleID != "" {
		am.Roles = []string{roleID}
	}
	return am
}

// Render builds the payload announcing item.
func (n *Notifier) Render(ctx context.Context, item *gate.Item, roleID string) (*Payload, error) {
	content, err := n.formatter.Format(ctx, item, roleID)
	if err != nil {
		return nil, err
	}
	return &Payload{
		Content:         content,
		Username:        n.username,
		AvatarURL:       n.avatarURL,
		AllowedMentions: Mentions(roleID),
	}, nil
}

// Deliver renders item and posts it to the webhook. It makes a single
// attempt.
func (n *Notifier) Deliver(ctx context.Context, item *gate.Item, roleID string) error {
	p, err := n.Render(ctx, item, roleID)
	if err != nil {
		return &DeliveryError{Err: err}
	}

	logger.Get(ctx).Debug("delivering message", "link", item.Link, "content", p.Content)

	if _, err := request.Make[request.IgnoreResponse](ctx, request.Params{
		Method:         http.MethodPost,
		URL:            n.url,
		Body:           p,
		WantStatusCode: http.StatusNoContent,
		HTTPClient:     n.httpc,
		Scrubber:       n.scrubber,
	}); err != nil {
		return &DeliveryError{Err: err}
	}
	return nil
}
