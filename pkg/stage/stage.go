package stage

import (
	"image"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"wrapped/pkg/dom"
)

// Stage is an isolated render target attached to a Document.
//
// All access to the tree goes through Mutate and View, which serialize with
// timer callbacks. A revision counter increments on every mutation so
// callers can tell when the tree stops changing.
type Stage struct {
	id     string
	doc    *Document
	width  int
	height int
	bounds image.Rectangle
	log    zerolog.Logger

	mu       sync.Mutex
	root     *dom.Node
	attached bool
	revision uint64

	timerMu   sync.Mutex
	timers    map[int]*time.Timer
	hooks     []func()
	nextTimer int
	closed    bool
	inflight  sync.WaitGroup
}

func newStage(d *Document, id string, width, height int, log zerolog.Logger) *Stage {
	origin := image.Pt(-(width + offscreenGap), 0)
	return &Stage{
		id:       id,
		doc:      d,
		width:    width,
		height:   height,
		bounds:   image.Rectangle{Min: origin, Max: origin.Add(image.Pt(width, height))},
		log:      log,
		root:     dom.NewElement("stage", map[string]string{"id": "stage-" + id[:8]}),
		attached: true,
		timers:   make(map[int]*time.Timer),
	}
}

func (s *Stage) ID() string { return s.id }

// Size returns the canonical width and height fixed at acquisition.
func (s *Stage) Size() (width, height int) { return s.width, s.height }

// Bounds is the stage rectangle in document coordinates. It lies entirely
// left of the document origin.
func (s *Stage) Bounds() image.Rectangle { return s.bounds }

// PointerEvents reports whether the stage takes pointer input. It never does.
func (s *Stage) PointerEvents() bool { return false }

// Visible reports whether any part of the stage overlaps the viewport.
func (s *Stage) Visible() bool {
	return s.bounds.Overlaps(s.doc.Viewport())
}

func (s *Stage) Logger() zerolog.Logger { return s.log }

func (s *Stage) Attached() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attached
}

// Revision returns the number of mutations applied so far.
func (s *Stage) Revision() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revision
}

// Mutate runs fn with exclusive access to the stage root and bumps the
// revision.
func (s *Stage) Mutate(fn func(root *dom.Node) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.attached {
		return ErrReleased
	}
	s.revision++
	return fn(s.root)
}

// View runs fn with exclusive access to the stage root without counting a
// mutation.
func (s *Stage) View(fn func(root *dom.Node) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.attached {
		return ErrReleased
	}
	return fn(s.root)
}

// OnUnmount registers fn to run when the stage is released. Hooks may run
// while a timer callback is still executing and must not touch the tree.
// Registering on a released stage runs fn at once.
func (s *Stage) OnUnmount(fn func()) {
	s.timerMu.Lock()
	if s.closed {
		s.timerMu.Unlock()
		fn()
		return
	}
	s.hooks = append(s.hooks, fn)
	s.timerMu.Unlock()
}

// SetTimeout schedules fn to run as a mutation after delay. It may be called
// from inside Mutate or another timer callback. Timers of a released stage
// never fire.
func (s *Stage) SetTimeout(delay time.Duration, fn func(root *dom.Node)) (int, error) {
	s.timerMu.Lock()
	defer s.timerMu.Unlock()
	if s.closed {
		return 0, ErrReleased
	}
	s.nextTimer++
	id := s.nextTimer
	s.inflight.Add(1)
	s.timers[id] = time.AfterFunc(delay, func() { s.fire(id, fn) })
	return id, nil
}

// ClearTimeout cancels a pending timer. Unknown ids are ignored.
func (s *Stage) ClearTimeout(id int) {
	s.timerMu.Lock()
	defer s.timerMu.Unlock()
	t, ok := s.timers[id]
	if !ok {
		return
	}
	delete(s.timers, id)
	if t.Stop() {
		s.inflight.Done()
	}
}

// PendingTimers returns the number of scheduled timers that have not fired.
func (s *Stage) PendingTimers() int {
	s.timerMu.Lock()
	defer s.timerMu.Unlock()
	return len(s.timers)
}

func (s *Stage) fire(id int, fn func(root *dom.Node)) {
	defer s.inflight.Done()

	s.timerMu.Lock()
	_, pending := s.timers[id]
	delete(s.timers, id)
	s.timerMu.Unlock()
	if !pending {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.attached {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.log.Warn().Interface("panic", r).Int("timer", id).Msg("timer callback panicked")
		}
	}()
	s.revision++
	fn(s.root)
}

// detach tears the stage down. It reports false if the stage was already
// detached.
func (s *Stage) detach() bool {
	s.timerMu.Lock()
	if s.closed {
		s.timerMu.Unlock()
		return false
	}
	s.closed = true
	for id, t := range s.timers {
		delete(s.timers, id)
		if t.Stop() {
			s.inflight.Done()
		}
	}
	hooks := s.hooks
	s.hooks = nil
	s.timerMu.Unlock()

	// Hooks run before waiting so they can interrupt a running callback.
	for i := len(hooks) - 1; i >= 0; i-- {
		hooks[i]()
	}
	s.inflight.Wait()

	s.mu.Lock()
	s.attached = false
	s.root.RemoveChildren()
	s.mu.Unlock()
	return true
}
