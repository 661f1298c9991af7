package deliver

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
)

// ErrRevoked is returned when a revoked blob is opened.
var ErrRevoked = errors.New("blob revoked")

// Blob is a temporary reference to encoded image bytes, backed by a file.
// It stays readable until Revoke.
type Blob struct {
	path string
	size int

	mu      sync.Mutex
	revoked bool
}

// NewBlob stages data in dir.
func NewBlob(dir string, data []byte) (*Blob, error) {
	f, err := os.CreateTemp(dir, "blob-*.png")
	if err != nil {
		return nil, fmt.Errorf("stage blob: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, fmt.Errorf("stage blob: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return nil, fmt.Errorf("stage blob: %w", err)
	}
	return &Blob{path: f.Name(), size: len(data)}, nil
}

func (b *Blob) Path() string { return b.path }
func (b *Blob) Size() int    { return b.size }

// Open returns a reader over the blob bytes.
func (b *Blob) Open() (io.ReadCloser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.revoked {
		return nil, ErrRevoked
	}
	return os.Open(b.path)
}

// Revoke removes the backing file. Revoking twice is a no-op.
func (b *Blob) Revoke() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.revoked {
		return nil
	}
	b.revoked = true
	if err := os.Remove(b.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (b *Blob) Revoked() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.revoked
}
