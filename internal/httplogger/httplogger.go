// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package httplogger provides a http.RoundTripper middleware that logs HTTP
// requests and responses at debug level.
package httplogger

import (
	"log/slog"
	"net/http"
	"time"
)

// Transport logs every round trip made through Base.
type Transport struct {
	// Base is the underlying transport. Defaults to http.DefaultTransport.
	Base   http.RoundTripper
	Logger *slog.Logger
	// Redact, if set, is applied to logged URLs and errors.
	Redact func(string) string
}

// RoundTrip implements [http.RoundTripper].
func (t *Transport) RoundTrip(r *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	start := time.Now()
	resp, err := base.RoundTrip(r)

	attrs := []any{
		"method", r.Method,
		"url", t.redact(r.URL.Redacted()),
		"duration", time.Since(start).Round(time.Millisecond),
	}
	if resp != nil {
		attrs = append(attrs, "status", resp.StatusCode)
	}
	if err != nil {
		attrs = append(attrs, "error", t.redact(err.Error()))
		t.Logger.Debug("http request failed", attrs...)
		return resp, err
	}
	t.Logger.Debug("http request", attrs...)
	return resp, nil
}

func (t *Transport) redact(s string) string {
	if t.Redact == nil {
		return s
	}
	return t.Redact(s)
}

// Wrap returns a client that behaves like c but logs through logger. A nil c
// stands for a zero http.Client. Clients that already log are returned as is.
func Wrap(c *http.Client, logger *slog.Logger, redact func(string) string) *http.Client {
	if c == nil {
		c = &http.Client{}
	}
	if _, ok := c.Transport.(*Transport); ok {
		return c
	}
	wrapped := *c
	wrapped.Transport = &Transport{Base: c.Transport, Logger: logger, Redact: redact}
	return &wrapped
}
