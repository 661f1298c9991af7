package images

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"sync"

	_ "golang.org/x/image/webp"

	"wrapped/pkg/resource"
)

// Loader decodes images referenced by card markup and caches them by URI.
type Loader struct {
	fetcher resource.Fetcher

	mu    sync.RWMutex
	cache map[string]image.Image
}

func NewLoader(fetcher resource.Fetcher) *Loader {
	if fetcher == nil {
		fetcher = resource.NewFetcher("")
	}
	return &Loader{fetcher: fetcher, cache: make(map[string]image.Image)}
}

// Load returns the decoded image for uri.
func (l *Loader) Load(ctx context.Context, uri string) (image.Image, error) {
	l.mu.RLock()
	if img, ok := l.cache[uri]; ok {
		l.mu.RUnlock()
		return img, nil
	}
	l.mu.RUnlock()

	body, _, err := l.fetcher.Fetch(ctx, uri)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", shorten(uri), err)
	}

	l.mu.Lock()
	l.cache[uri] = img
	l.mu.Unlock()
	return img, nil
}

// Dimensions returns the width and height of an image
func (l *Loader) Dimensions(ctx context.Context, uri string) (width, height int, err error) {
	img, err := l.Load(ctx, uri)
	if err != nil {
		return 0, 0, err
	}
	bounds := img.Bounds()
	return bounds.Dx(), bounds.Dy(), nil
}

// shorten keeps data URIs out of error messages.
func shorten(uri string) string {
	if len(uri) > 64 {
		return uri[:64] + "..."
	}
	return uri
}
