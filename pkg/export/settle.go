package export

import (
	"context"
	"errors"
	"time"

	"wrapped/pkg/stage"
)

// Settle defaults.
const (
	DefaultSettleDelay   = 1500 * time.Millisecond
	DefaultProbeInterval = 50 * time.Millisecond
	DefaultProbeFrames   = 5
	DefaultProbeTimeout  = 5 * time.Second
)

// ErrNotSettled is returned by StabilityProbe when the stage kept changing
// until the timeout.
var ErrNotSettled = errors.New("stage did not settle")

// Settler waits after a mount until the stage is ready to capture.
type Settler interface {
	Settle(ctx context.Context, s *stage.Stage) error
}

// FixedDelay waits a constant time. There is no paint-complete signal from
// card scripts, so the delay is an empirical bound, not a guarantee.
type FixedDelay time.Duration

func (d FixedDelay) Settle(ctx context.Context, _ *stage.Stage) error {
	return sleep(ctx, time.Duration(d))
}

// StabilityProbe polls the stage revision and returns once it has not
// changed for Frames consecutive polls.
type StabilityProbe struct {
	Interval time.Duration
	Frames   int
	Timeout  time.Duration
}

func (p StabilityProbe) Settle(ctx context.Context, s *stage.Stage) error {
	interval, frames, timeout := p.Interval, p.Frames, p.Timeout
	if interval <= 0 {
		interval = DefaultProbeInterval
	}
	if frames <= 0 {
		frames = DefaultProbeFrames
	}
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	last := s.Revision()
	stable := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return ErrNotSettled
		case <-ticker.C:
			rev := s.Revision()
			if rev != last {
				last, stable = rev, 0
				continue
			}
			stable++
			if stable >= frames {
				return nil
			}
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
