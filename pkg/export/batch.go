package export

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"wrapped/pkg/deliver"
	"wrapped/pkg/render"
)

// Batch defaults.
const (
	DefaultCooldown = 200 * time.Millisecond
	DefaultStagger  = 100 * time.Millisecond
)

// Phase is a unit's state in a batch.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseRendering
	PhaseCompleted
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseRendering:
		return "rendering"
	case PhaseCompleted:
		return "completed"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// JobState is a read-only view of one unit.
type JobState struct {
	Unit   Unit
	Phase  Phase
	Result render.CaptureResult
	Err    error
}

// Progress counts units attempted by the current (or last) ExportAll.
type Progress struct {
	Attempted int
	Total     int
}

// Percent is the rounded completion percentage.
func (p Progress) Percent() int {
	if p.Total == 0 {
		return 0
	}
	return int(math.Round(float64(p.Attempted) / float64(p.Total) * 100))
}

type job struct {
	unit Unit
	// run serializes exports of this unit.
	run sync.Mutex

	phase  Phase
	result render.CaptureResult
	err    error
	// round is the ExportAll round that last attempted the unit.
	round int
}

// Batch exports a fixed, ordered list of units one at a time and keeps
// each unit's latest capture.
type Batch struct {
	pipeline *Pipeline
	sink     Deliverer
	cooldown time.Duration
	stagger  time.Duration
	log      zerolog.Logger

	// exporting serializes all exports so only one stage is in use.
	exporting sync.Mutex

	mu        sync.Mutex
	jobs      []*job
	index     map[string]*job
	round     int
	running   bool
	listeners []func()
}

type BatchOption func(*Batch)

func WithCooldown(d time.Duration) BatchOption {
	return func(b *Batch) { b.cooldown = d }
}

func WithStagger(d time.Duration) BatchOption {
	return func(b *Batch) { b.stagger = d }
}

func WithBatchLogger(log zerolog.Logger) BatchOption {
	return func(b *Batch) { b.log = log }
}

// NewBatch creates a batch over units. Unit ids must be unique; a later
// duplicate is ignored.
func NewBatch(units []Unit, p *Pipeline, sink Deliverer, opts ...BatchOption) *Batch {
	b := &Batch{
		pipeline: p,
		sink:     sink,
		cooldown: DefaultCooldown,
		stagger:  DefaultStagger,
		log:      zerolog.Nop(),
		index:    make(map[string]*job, len(units)),
	}
	for _, opt := range opts {
		opt(b)
	}
	for _, u := range units {
		if _, dup := b.index[u.ID]; dup {
			b.log.Warn().Str("unit", u.ID).Msg("duplicate unit id ignored")
			continue
		}
		j := &job{unit: u}
		b.jobs = append(b.jobs, j)
		b.index[u.ID] = j
	}
	return b
}

// OnChange registers fn to be called after any unit or progress change.
func (b *Batch) OnChange(fn func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, fn)
}

// ExportAll exports every unit in order, pausing between units. A failed
// unit does not stop the batch. Cancelling ctx stops the batch before the
// next unit; the unit in flight finishes.
func (b *Batch) ExportAll(ctx context.Context) Progress {
	b.mu.Lock()
	b.round++
	round := b.round
	b.running = true
	tasks := make([]func(), len(b.jobs))
	for i, j := range b.jobs {
		tasks[i] = func() { b.export(ctx, j, round) }
	}
	b.notifyLocked()

	started := taskQueue{cooldown: b.cooldown}.run(ctx, tasks)

	b.mu.Lock()
	b.running = false
	progress := b.progressLocked()
	b.notifyLocked()

	b.log.Info().Int("attempted", progress.Attempted).Int("total", progress.Total).Int("started", started).Msg("batch export finished")
	return progress
}

// ExportOne exports a single unit by id.
func (b *Batch) ExportOne(ctx context.Context, id string) error {
	j, err := b.job(id)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.export(ctx, j, 0)
}

func (b *Batch) export(ctx context.Context, j *job, round int) error {
	j.run.Lock()
	defer j.run.Unlock()
	b.exporting.Lock()
	defer b.exporting.Unlock()

	b.mu.Lock()
	j.phase = PhaseRendering
	j.err = nil
	b.notifyLocked()

	res, err := b.pipeline.Export(ctx, j.unit)

	b.mu.Lock()
	if round != 0 {
		j.round = round
	}
	if err != nil {
		j.phase = PhaseFailed
		j.err = err
		j.result = render.CaptureResult{}
	} else {
		j.phase = PhaseCompleted
		j.result = res
	}
	b.notifyLocked()
	return err
}

// DeliverOne delivers the cached capture of a completed unit. Repeated
// calls deliver again without recapturing. It blocks until the sink is
// done, so interactive callers run it off their event goroutine.
func (b *Batch) DeliverOne(id string) (deliver.Receipt, error) {
	j, err := b.job(id)
	if err != nil {
		return deliver.Receipt{}, err
	}
	b.mu.Lock()
	if j.phase != PhaseCompleted {
		b.mu.Unlock()
		return deliver.Receipt{}, ErrNotCompleted
	}
	res := j.result
	b.mu.Unlock()
	return b.sink.Deliver(res, Filename(j.unit.Title)), nil
}

// DeliverAll delivers every completed unit, the unit at list position i
// after i times the stagger delay. It returns the number of deliveries
// scheduled and a channel closed once all of them ran.
func (b *Batch) DeliverAll() (int, <-chan struct{}) {
	type item struct {
		index int
		res   render.CaptureResult
		name  string
	}
	b.mu.Lock()
	var items []item
	for i, j := range b.jobs {
		if j.phase == PhaseCompleted {
			items = append(items, item{index: i, res: j.result, name: Filename(j.unit.Title)})
		}
	}
	b.mu.Unlock()

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(len(items))
	for _, it := range items {
		time.AfterFunc(time.Duration(it.index)*b.stagger, func() {
			defer wg.Done()
			b.sink.Deliver(it.res, it.name)
		})
	}
	go func() {
		wg.Wait()
		close(done)
	}()
	return len(items), done
}

// States returns every unit's state in list order.
func (b *Batch) States() []JobState {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]JobState, len(b.jobs))
	for i, j := range b.jobs {
		out[i] = JobState{Unit: j.unit, Phase: j.phase, Result: j.result, Err: j.err}
	}
	return out
}

// State returns one unit's state.
func (b *Batch) State(id string) (JobState, error) {
	j, err := b.job(id)
	if err != nil {
		return JobState{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return JobState{Unit: j.unit, Phase: j.phase, Result: j.result, Err: j.err}, nil
}

func (b *Batch) Progress() Progress {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.progressLocked()
}

// AllCompleted reports whether every unit holds a capture.
func (b *Batch) AllCompleted() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, j := range b.jobs {
		if j.phase != PhaseCompleted {
			return false
		}
	}
	return len(b.jobs) > 0
}

// Running reports whether ExportAll is in progress.
func (b *Batch) Running() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.running
}

func (b *Batch) Len() int { return len(b.jobs) }

func (b *Batch) job(id string) (*job, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	j, ok := b.index[id]
	if !ok {
		return nil, ErrUnknownUnit
	}
	return j, nil
}

func (b *Batch) progressLocked() Progress {
	p := Progress{Total: len(b.jobs)}
	if b.round == 0 {
		return p
	}
	for _, j := range b.jobs {
		if j.round == b.round {
			p.Attempted++
		}
	}
	return p
}

// notifyLocked releases b.mu before calling listeners.
func (b *Batch) notifyLocked() {
	listeners := append([]func(){}, b.listeners...)
	b.mu.Unlock()
	for _, fn := range listeners {
		fn()
	}
}
