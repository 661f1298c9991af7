package js

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestSetTimeoutUpdatesStage(t *testing.T) {
	defer goleak.VerifyNone(t)

	doc, s, e, _ := mount(t, `<span id="n">start</span>`)
	defer doc.Release(s)

	require.NoError(t, e.Run(context.Background(), []string{
		"setTimeout(function (v) { document.getElementById('n').textContent = v; }, 5, 'done');",
	}))
	assert.Eventually(t, func() bool { return textOf(t, s, "n") == "done" }, time.Second, 5*time.Millisecond)
}

func TestAnimationFrameCountsUp(t *testing.T) {
	defer goleak.VerifyNone(t)

	doc, s, e, _ := mount(t, `<span id="n">0</span>`)
	defer doc.Release(s)

	require.NoError(t, e.Run(context.Background(), []string{`
var el = document.getElementById('n');
var frames = 0;
function tick(ts) {
  if (typeof ts !== 'number') throw new Error('timestamp');
  frames++;
  el.textContent = String(frames);
  if (frames < 5) requestAnimationFrame(tick);
}
requestAnimationFrame(tick);
`}))
	assert.Eventually(t, func() bool { return textOf(t, s, "n") == "5" }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, s.PendingTimers())
}

func TestClearTimeoutFromScript(t *testing.T) {
	doc, s, e, _ := mount(t, `<span id="n">keep</span>`)
	defer doc.Release(s)

	require.NoError(t, e.Run(context.Background(), []string{
		"var id = setTimeout(function () { document.getElementById('n').textContent = 'changed'; }, 10); clearTimeout(id);",
	}))
	assert.Equal(t, 0, s.PendingTimers())
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, "keep", textOf(t, s, "n"))
}

func TestReleaseStopsRunawayCallback(t *testing.T) {
	defer goleak.VerifyNone(t)

	doc, s, e, _ := mount(t, `<div></div>`)
	require.NoError(t, e.Run(context.Background(), []string{
		"setTimeout(function () { for (;;) {} }, 1);",
	}))
	time.Sleep(20 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		doc.Release(s)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("release blocked on a running script")
	}
	assert.False(t, s.Attached())
}

func TestTimersAfterReleaseReturnZero(t *testing.T) {
	doc, s, e, _ := mount(t, `<div></div>`)
	doc.Release(s)

	assert.Equal(t, 0, e.schedule(time.Millisecond, func() {}))
}

func TestCallbackErrorDoesNotStopOthers(t *testing.T) {
	defer goleak.VerifyNone(t)

	doc, s, e, _ := mount(t, `<span id="n"></span>`)
	defer doc.Release(s)

	require.NoError(t, e.Run(context.Background(), []string{`
setTimeout(function () { throw new Error('bad'); }, 1);
setTimeout(function () { document.getElementById('n').textContent = 'ok'; }, 5);
`}))
	assert.Eventually(t, func() bool { return textOf(t, s, "n") == "ok" }, time.Second, 5*time.Millisecond)
}
