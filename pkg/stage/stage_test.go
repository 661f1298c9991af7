package stage

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"wrapped/pkg/dom"
)

func newDoc() *Document {
	return NewDocument(1280, 800, zerolog.Nop())
}

func TestAcquireFixedSizeOffscreen(t *testing.T) {
	for _, vp := range [][2]int{{320, 568}, {1280, 800}, {3840, 2160}} {
		d := NewDocument(vp[0], vp[1], zerolog.Nop())
		s, err := d.Acquire(1080, 1920)
		require.NoError(t, err)

		w, h := s.Size()
		assert.Equal(t, 1080, w)
		assert.Equal(t, 1920, h)
		assert.Less(t, s.Bounds().Max.X, 0, "stage must lie left of the origin")
		assert.False(t, s.Visible())
		assert.False(t, s.PointerEvents())
		d.Release(s)
	}
}

func TestAcquireInvalidSize(t *testing.T) {
	_, err := newDoc().Acquire(0, 1920)
	assert.True(t, errors.Is(err, ErrInvalidSize))
}

func TestStagesDoNotAffectPage(t *testing.T) {
	d := newDoc()
	before := d.ScrollExtent()
	s, err := d.Acquire(1080, 1920)
	require.NoError(t, err)
	defer d.Release(s)

	assert.Equal(t, before, d.ScrollExtent())
	b := s.Bounds()
	assert.Equal(t, "", d.HitTest(b.Min.X+10, b.Min.Y+10))
	assert.Equal(t, "", d.HitTest(10, 10))
}

func TestViewportResizeLeavesStageSize(t *testing.T) {
	d := newDoc()
	s, err := d.Acquire(1080, 1920)
	require.NoError(t, err)
	defer d.Release(s)

	d.SetViewport(200, 200)
	w, h := s.Size()
	assert.Equal(t, 1080, w)
	assert.Equal(t, 1920, h)
}

func TestWithReleasesOnEveryPath(t *testing.T) {
	d := newDoc()
	boom := errors.New("boom")

	err := d.With(context.Background(), 100, 100, func(s *Stage) error { return nil })
	assert.NoError(t, err)
	assert.Equal(t, 0, d.Attached())

	err = d.With(context.Background(), 100, 100, func(s *Stage) error {
		assert.Equal(t, 1, d.Attached())
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, d.Attached())

	assert.Panics(t, func() {
		_ = d.With(context.Background(), 100, 100, func(s *Stage) error { panic("card blew up") })
	})
	assert.Equal(t, 0, d.Attached())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	err = d.With(ctx, 100, 100, func(s *Stage) error { called = true; return nil })
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
	assert.Equal(t, 0, d.Attached())
}

func TestReleaseTwice(t *testing.T) {
	d := newDoc()
	s, err := d.Acquire(10, 10)
	require.NoError(t, err)
	d.Release(s)
	d.Release(s)
	assert.Equal(t, 0, d.Attached())
	assert.False(t, s.Attached())
}

func TestMutateAndRevision(t *testing.T) {
	d := newDoc()
	s, err := d.Acquire(10, 10)
	require.NoError(t, err)

	require.NoError(t, s.Mutate(func(root *dom.Node) error {
		root.AddChild(dom.NewElement("div", nil))
		return nil
	}))
	assert.Equal(t, uint64(1), s.Revision())

	require.NoError(t, s.View(func(root *dom.Node) error {
		assert.Len(t, root.Children, 1)
		return nil
	}))
	assert.Equal(t, uint64(1), s.Revision())

	d.Release(s)
	assert.ErrorIs(t, s.Mutate(func(*dom.Node) error { return nil }), ErrReleased)
	assert.ErrorIs(t, s.View(func(*dom.Node) error { return nil }), ErrReleased)
}

func TestTimerFires(t *testing.T) {
	defer goleak.VerifyNone(t)

	d := newDoc()
	s, err := d.Acquire(10, 10)
	require.NoError(t, err)
	defer d.Release(s)

	done := make(chan struct{})
	_, err = s.SetTimeout(5*time.Millisecond, func(root *dom.Node) {
		root.AddChild(dom.NewText("tick"))
		close(done)
	})
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}
	assert.Equal(t, 0, s.PendingTimers())
	assert.Equal(t, uint64(1), s.Revision())
}

func TestClearTimeout(t *testing.T) {
	d := newDoc()
	s, err := d.Acquire(10, 10)
	require.NoError(t, err)
	defer d.Release(s)

	var fired atomic.Bool
	id, err := s.SetTimeout(20*time.Millisecond, func(*dom.Node) { fired.Store(true) })
	require.NoError(t, err)
	s.ClearTimeout(id)
	s.ClearTimeout(id)

	time.Sleep(50 * time.Millisecond)
	assert.False(t, fired.Load())
}

func TestReleaseCancelsTimers(t *testing.T) {
	defer goleak.VerifyNone(t)

	d := newDoc()
	s, err := d.Acquire(10, 10)
	require.NoError(t, err)

	var fired atomic.Int32
	for i := 0; i < 5; i++ {
		_, err := s.SetTimeout(30*time.Millisecond, func(*dom.Node) { fired.Add(1) })
		require.NoError(t, err)
	}
	var unmounted bool
	s.OnUnmount(func() { unmounted = true })

	d.Release(s)
	assert.True(t, unmounted)
	assert.Equal(t, 0, s.PendingTimers())

	_, err = s.SetTimeout(time.Millisecond, func(*dom.Node) { fired.Add(1) })
	assert.ErrorIs(t, err, ErrReleased)

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())
}

func TestTimerRescheduling(t *testing.T) {
	defer goleak.VerifyNone(t)

	d := newDoc()
	s, err := d.Acquire(10, 10)
	require.NoError(t, err)

	var ticks atomic.Int32
	var tick func(*dom.Node)
	tick = func(*dom.Node) {
		if ticks.Add(1) < 3 {
			_, _ = s.SetTimeout(time.Millisecond, tick)
		}
	}
	_, err = s.SetTimeout(time.Millisecond, tick)
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return ticks.Load() == 3 }, time.Second, 5*time.Millisecond)
	d.Release(s)
}

func TestTimerPanicIsContained(t *testing.T) {
	d := newDoc()
	s, err := d.Acquire(10, 10)
	require.NoError(t, err)
	defer d.Release(s)

	_, err = s.SetTimeout(time.Millisecond, func(*dom.Node) { panic("bad script") })
	require.NoError(t, err)
	assert.Eventually(t, func() bool { return s.PendingTimers() == 0 }, time.Second, 5*time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	assert.NoError(t, s.Mutate(func(*dom.Node) error { return nil }))
}

func TestAttachedIDs(t *testing.T) {
	d := newDoc()
	a, _ := d.Acquire(10, 10)
	b, _ := d.Acquire(10, 10)
	assert.Len(t, d.AttachedIDs(), 2)
	assert.NotEqual(t, a.ID(), b.ID())
	d.Release(a)
	assert.Equal(t, []string{b.ID()}, d.AttachedIDs())
	d.Release(b)
}
