// Package deliver saves captured cards to disk, falling back to showing the
// image for a manual save when the primary path is blocked.
package deliver

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"wrapped/pkg/render"
)

// DefaultRevokeGrace is how long a staged blob outlives its save trigger.
const DefaultRevokeGrace = 200 * time.Millisecond

// Saver is the primary delivery path: it turns a staged blob into a file
// the user can find.
type Saver interface {
	Save(b *Blob, filename string) (path string, err error)
}

// Presenter is the fallback: it shows the image with instructions to save
// it manually.
type Presenter interface {
	Present(res render.CaptureResult, filename string) error
}

// Receipt describes what a delivery did.
type Receipt struct {
	Filename string
	// Path is the saved file, empty when the fallback ran.
	Path     string
	Fallback bool
	// Cause is the primary path failure that triggered the fallback.
	Cause error
}

// Deliverer is best effort: Deliver never returns an error and never
// panics.
type Deliverer struct {
	saver     Saver
	presenter Presenter
	blobDir   string
	grace     time.Duration
	log       zerolog.Logger
	pending   sync.WaitGroup
}

type Option func(*Deliverer)

// WithRevokeGrace sets the delay before a staged blob is removed.
func WithRevokeGrace(d time.Duration) Option {
	return func(dl *Deliverer) { dl.grace = d }
}

// WithBlobDir sets where blobs are staged. Defaults to the system temp dir.
func WithBlobDir(dir string) Option {
	return func(dl *Deliverer) { dl.blobDir = dir }
}

func WithLogger(log zerolog.Logger) Option {
	return func(dl *Deliverer) { dl.log = log }
}

func New(saver Saver, presenter Presenter, opts ...Option) *Deliverer {
	d := &Deliverer{
		saver:     saver,
		presenter: presenter,
		blobDir:   os.TempDir(),
		grace:     DefaultRevokeGrace,
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Send delivers res in the background and returns at once. The outcome is
// logged; Wait blocks until it is done.
func (d *Deliverer) Send(res render.CaptureResult, filename string) {
	d.pending.Add(1)
	go func() {
		defer d.pending.Done()
		d.Deliver(res, filename)
	}()
}

// Deliver saves res under filename and reports what happened. It blocks
// for the save itself (or the fallback); revocation of the staged blob
// happens after the grace delay, asynchronously. Callers that do not need
// the receipt use Send.
func (d *Deliverer) Deliver(res render.CaptureResult, filename string) Receipt {
	receipt := Receipt{Filename: filename}
	path, err := d.primary(res, filename)
	if err == nil {
		receipt.Path = path
		d.log.Info().Str("file", filename).Str("path", path).Msg("delivered")
		return receipt
	}

	d.log.Error().Err(err).Str("file", filename).Msg("download failed, presenting image instead")
	receipt.Fallback = true
	receipt.Cause = err
	d.fallback(res, filename)
	return receipt
}

func (d *Deliverer) primary(res render.CaptureResult, filename string) (path string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("save panicked: %v", r)
		}
	}()
	if d.saver == nil {
		return "", fmt.Errorf("no saver configured")
	}
	data, err := res.Bytes()
	if err != nil {
		return "", fmt.Errorf("decode capture: %w", err)
	}
	blob, err := NewBlob(d.blobDir, data)
	if err != nil {
		return "", err
	}
	d.revokeLater(blob)
	return d.saver.Save(blob, filename)
}

// fallback absorbs every failure, panics included.
func (d *Deliverer) fallback(res render.CaptureResult, filename string) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error().Interface("panic", r).Str("file", filename).Msg("fallback presenter panicked")
		}
	}()
	if d.presenter == nil {
		d.log.Error().Str("file", filename).Msg("no fallback presenter")
		return
	}
	if err := d.presenter.Present(res, filename); err != nil {
		d.log.Error().Err(err).Str("file", filename).Msg("fallback presenter failed")
	}
}

func (d *Deliverer) revokeLater(b *Blob) {
	d.pending.Add(1)
	time.AfterFunc(d.grace, func() {
		defer d.pending.Done()
		if err := b.Revoke(); err != nil {
			d.log.Debug().Err(err).Str("blob", b.Path()).Msg("revoke blob")
		}
	})
}

// Wait blocks until every Send and every scheduled revocation has run.
func (d *Deliverer) Wait() {
	d.pending.Wait()
}
