package export

import (
	"context"
	"errors"
	"sync"

	"wrapped/pkg/deliver"
	"wrapped/pkg/render"
)

// ErrBusy is returned when an export is started while one is running.
var ErrBusy = errors.New("export already running")

// Deliverer hands a capture to the user. Implementations never fail
// loudly; see deliver.Deliverer.
type Deliverer interface {
	Deliver(res render.CaptureResult, filename string) deliver.Receipt
}

// State is the single-card export state.
type State int

const (
	StateIdle State = iota
	StateExporting
	StatePreviewReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateExporting:
		return "Exporting"
	case StatePreviewReady:
		return "PreviewReady"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Terminal reports whether an export may be started from s.
func (s State) Terminal() bool {
	return s != StateExporting
}

// Snapshot is the controller state as seen by a listener.
type Snapshot struct {
	State      State
	Preview    render.CaptureResult
	Err        error
	Downloaded bool
}

// Controller drives one card: export into a preview, then an explicit
// Download. It never retries on its own.
type Controller struct {
	unit     Unit
	pipeline *Pipeline
	sink     Deliverer

	mu         sync.Mutex
	state      State
	preview    render.CaptureResult
	err        error
	downloaded bool
	listeners  []func(Snapshot)
}

func NewController(u Unit, p *Pipeline, sink Deliverer) *Controller {
	return &Controller{unit: u, pipeline: p, sink: sink}
}

func (c *Controller) Unit() Unit { return c.unit }

// OnChange registers fn to be called after every transition, outside the
// controller lock.
func (c *Controller) OnChange(fn func(Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) State() State { return c.Snapshot().State }

// Preview returns the captured image once the state is PreviewReady.
func (c *Controller) Preview() (render.CaptureResult, bool) {
	s := c.Snapshot()
	return s.Preview, s.State == StatePreviewReady
}

// Export captures the card. It may be started from any state except
// Exporting; the previous preview and downloaded flag are discarded.
func (c *Controller) Export(ctx context.Context) error {
	c.mu.Lock()
	if !c.state.Terminal() {
		c.mu.Unlock()
		return ErrBusy
	}
	c.state = StateExporting
	c.preview = render.CaptureResult{}
	c.err = nil
	c.downloaded = false
	c.notifyLocked()

	res, err := c.pipeline.Export(ctx, c.unit)

	c.mu.Lock()
	if err != nil {
		c.state = StateFailed
		c.err = err
	} else {
		c.state = StatePreviewReady
		c.preview = res
	}
	c.notifyLocked()
	return err
}

// Download delivers the preview. It can be repeated; every call is a new
// download of the same capture. Like Batch.DeliverOne it blocks until the
// sink returns its receipt.
func (c *Controller) Download() (deliver.Receipt, error) {
	c.mu.Lock()
	if c.state != StatePreviewReady {
		c.mu.Unlock()
		return deliver.Receipt{}, ErrNotReady
	}
	res := c.preview
	c.mu.Unlock()

	receipt := c.sink.Deliver(res, Filename(c.unit.Title))

	c.mu.Lock()
	if c.state == StatePreviewReady && c.preview.EncodedImage == res.EncodedImage {
		c.downloaded = true
	}
	c.notifyLocked()
	return receipt, nil
}

// notifyLocked releases c.mu before calling listeners.
func (c *Controller) notifyLocked() {
	snap := c.snapshotLocked()
	listeners := append([]func(Snapshot){}, c.listeners...)
	c.mu.Unlock()
	for _, fn := range listeners {
		fn(snap)
	}
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{State: c.state, Preview: c.preview, Err: c.err, Downloaded: c.downloaded}
}
