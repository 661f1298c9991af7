// Package stage provides off-screen render targets for story-card export.
//
// A Document models the host page: it has a viewport (the visible window)
// and a registry of attached stages. A Stage is an isolated DOM root with a
// fixed canonical size, placed fully outside the viewport. Its size never
// follows the viewport, so what a card renders into it is independent of
// the user's window.
package stage

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	// ErrReleased is returned when a released stage is used.
	ErrReleased = errors.New("stage released")
	// ErrInvalidSize is returned for non-positive stage dimensions.
	ErrInvalidSize = errors.New("invalid stage size")
)

// offscreenGap keeps stages this far left of the document origin, on top of
// their own width.
const offscreenGap = 9999

type Document struct {
	log zerolog.Logger

	mu       sync.Mutex
	viewport image.Rectangle
	page     image.Rectangle
	stages   map[string]*Stage
}

// NewDocument creates a document whose visible viewport (and initial page
// content) is viewportW x viewportH.
func NewDocument(viewportW, viewportH int, log zerolog.Logger) *Document {
	r := image.Rect(0, 0, viewportW, viewportH)
	return &Document{
		log:      log,
		viewport: r,
		page:     r,
		stages:   make(map[string]*Stage),
	}
}

// SetViewport resizes the host window. Attached stages are unaffected.
func (d *Document) SetViewport(w, h int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.viewport = image.Rect(0, 0, w, h)
}

func (d *Document) Viewport() image.Rectangle {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.viewport
}

// SetPageSize records the size of the in-flow page content.
func (d *Document) SetPageSize(w, h int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.page = image.Rect(0, 0, w, h)
}

// ScrollExtent is the scrollable area: page content and viewport. Stages
// are fixed-position and off-screen and never contribute.
func (d *Document) ScrollExtent() image.Rectangle {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.page.Union(d.viewport)
}

// HitTest returns the id of a stage receiving a pointer event at (x, y) in
// document coordinates. Stages never take pointer events, so this is "" for
// every point; it exists so hosts routing input can ask.
func (d *Document) HitTest(x, y int) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	p := image.Pt(x, y)
	for id, s := range d.stages {
		if s.PointerEvents() && p.In(s.bounds) {
			return id
		}
	}
	return ""
}

// Acquire attaches a new stage of exactly width x height.
func (d *Document) Acquire(width, height int) (*Stage, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	id := uuid.NewString()
	s := newStage(d, id, width, height, d.log.With().Str("stage", id[:8]).Logger())

	d.mu.Lock()
	d.stages[id] = s
	attached := len(d.stages)
	d.mu.Unlock()

	s.log.Debug().Int("width", width).Int("height", height).Int("attached", attached).Msg("stage acquired")
	return s, nil
}

// Release unmounts and detaches the stage. Releasing twice is a no-op.
// When Release returns no timer of the stage is running or will run.
func (d *Document) Release(s *Stage) {
	if s == nil {
		return
	}
	if !s.detach() {
		return
	}
	d.mu.Lock()
	delete(d.stages, s.id)
	attached := len(d.stages)
	d.mu.Unlock()

	s.log.Debug().Int("attached", attached).Msg("stage released")
}

// With acquires a stage, runs fn, and releases the stage on every exit
// path, including a panic in fn. A context that is already done prevents
// the acquisition.
func (d *Document) With(ctx context.Context, width, height int, fn func(*Stage) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s, err := d.Acquire(width, height)
	if err != nil {
		return err
	}
	defer d.Release(s)
	return fn(s)
}

// Attached returns the number of stages currently attached.
func (d *Document) Attached() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.stages)
}

// AttachedIDs returns the ids of attached stages, sorted.
func (d *Document) AttachedIDs() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	ids := make([]string, 0, len(d.stages))
	for id := range d.stages {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
