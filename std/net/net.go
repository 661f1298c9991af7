// Package net fetches remote card resources over HTTP(S).
//
// Requests carry no Origin header and response CORS headers are ignored:
// everything a card references is treated as same-origin for capture.
package net

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const userAgent = "wrapped-export/1.0 (compatible; Go)"

// DefaultMaxBody caps a single fetched resource; card assets are images.
const DefaultMaxBody = 32 << 20

// ErrTooLarge is returned when a response body exceeds the client limit.
var ErrTooLarge = errors.New("resource too large")

// StatusError reports a non-2xx response.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d fetching %s", e.Code, e.URL)
}

// Client fetches resources with a size cap.
type Client struct {
	HTTP    *http.Client
	MaxBody int64
}

// DefaultClient is used by Fetch.
var DefaultClient = &Client{
	HTTP:    &http.Client{Timeout: 30 * time.Second},
	MaxBody: DefaultMaxBody,
}

// Fetch retrieves rawURL with DefaultClient.
func Fetch(ctx context.Context, rawURL string) (body []byte, contentType string, err error) {
	return DefaultClient.Fetch(ctx, rawURL)
}

func (c *Client) Fetch(ctx context.Context, rawURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", &StatusError{URL: rawURL, Code: resp.StatusCode}
	}

	limit := c.MaxBody
	if limit <= 0 {
		limit = DefaultMaxBody
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, "", fmt.Errorf("reading %s: %w", rawURL, err)
	}
	if int64(len(body)) > limit {
		return nil, "", fmt.Errorf("%s: %w (over %d bytes)", rawURL, ErrTooLarge, limit)
	}
	return body, resp.Header.Get("Content-Type"), nil
}

// ResolveURL resolves ref against base. Unparseable input returns ref.
func ResolveURL(base, ref string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}

// IsNetworkURL reports whether s is an http or https URL.
func IsNetworkURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
