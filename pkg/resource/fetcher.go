package resource

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	stdnet "wrapped/std/net"
)

// Fetcher retrieves resources by URI.
type Fetcher interface {
	Fetch(ctx context.Context, uri string) (body []byte, contentType string, err error)
}

// DefaultFetcher loads data: URIs, local files and HTTP(S) resources.
// Relative references resolve against the base, which is either a URL or a
// directory. Resources from any origin are accepted.
type DefaultFetcher struct {
	base string
}

// NewFetcher creates a DefaultFetcher with the given base URL or directory.
func NewFetcher(base string) *DefaultFetcher {
	return &DefaultFetcher{base: base}
}

// Fetch retrieves the resource at the given URI.
func (f *DefaultFetcher) Fetch(ctx context.Context, uri string) ([]byte, string, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return nil, "", fmt.Errorf("empty resource URI")
	}
	if IsDataURI(uri) {
		return DecodeDataURI(uri)
	}

	resolved := uri
	switch {
	case stdnet.IsNetworkURL(uri):
	case stdnet.IsNetworkURL(f.base):
		resolved = stdnet.ResolveURL(f.base, uri)
	case strings.HasPrefix(uri, "file://"):
		u, err := url.Parse(uri)
		if err != nil {
			return nil, "", fmt.Errorf("parsing %s: %w", uri, err)
		}
		resolved = u.Path
	case !filepath.IsAbs(uri) && f.base != "":
		resolved = filepath.Join(f.base, uri)
	}

	if stdnet.IsNetworkURL(resolved) {
		return stdnet.Fetch(ctx, resolved)
	}
	body, err := os.ReadFile(resolved)
	if err != nil {
		return nil, "", err
	}
	return body, mime.TypeByExtension(filepath.Ext(resolved)), nil
}

// IsDataURI reports whether s is a data: URI.
func IsDataURI(s string) bool {
	return strings.HasPrefix(s, "data:")
}

// DecodeDataURI decodes "data:<mime>[;base64],<payload>".
func DecodeDataURI(uri string) ([]byte, string, error) {
	if !IsDataURI(uri) {
		return nil, "", fmt.Errorf("not a data URI")
	}
	comma := strings.IndexByte(uri, ',')
	if comma < 0 {
		return nil, "", fmt.Errorf("malformed data URI: missing comma")
	}
	meta, payload := uri[len("data:"):comma], uri[comma+1:]
	isBase64 := strings.HasSuffix(meta, ";base64")
	mediaType := strings.TrimSuffix(meta, ";base64")
	if mediaType == "" {
		mediaType = "text/plain"
	}
	if isBase64 {
		body, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, "", fmt.Errorf("decoding base64 payload: %w", err)
		}
		return body, mediaType, nil
	}
	body, err := url.PathUnescape(payload)
	if err != nil {
		return nil, "", fmt.Errorf("unescaping data URI: %w", err)
	}
	return []byte(body), mediaType, nil
}

// EncodeDataURI encodes body as a base64 data URI.
func EncodeDataURI(mediaType string, body []byte) string {
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(body)
}
