package js

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dop251/goja"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"wrapped/pkg/dom"
	"wrapped/pkg/markup"
	"wrapped/pkg/stage"
)

// mount parses src into a fresh stage and returns an engine bound to it.
func mount(t *testing.T, src string) (*stage.Document, *stage.Stage, *Engine, []string) {
	t.Helper()
	doc := stage.NewDocument(1280, 800, zerolog.Nop())
	s, err := doc.Acquire(1080, 1920)
	require.NoError(t, err)
	t.Cleanup(func() { doc.Release(s) })

	frag, err := markup.Parse(src)
	require.NoError(t, err)
	require.NoError(t, s.Mutate(func(root *dom.Node) error {
		for _, n := range frag.Nodes {
			root.AddChild(n)
		}
		return nil
	}))
	return doc, s, New(s, zerolog.Nop()), frag.Scripts
}

func textOf(t *testing.T, s *stage.Stage, id string) string {
	t.Helper()
	var out string
	require.NoError(t, s.View(func(root *dom.Node) error {
		n := root.GetElementByID(id)
		require.NotNil(t, n, "missing #%s", id)
		out = n.TextContent()
		return nil
	}))
	return out
}

func TestRunMutatesStage(t *testing.T) {
	_, s, e, scripts := mount(t, `<div id="count">0</div>
<script>document.getElementById("count").textContent = String(6 * 7);</script>`)

	require.Len(t, scripts, 1)
	before := s.Revision()
	require.NoError(t, e.Run(context.Background(), scripts))
	assert.Equal(t, "42", textOf(t, s, "count"))
	assert.Greater(t, s.Revision(), before)
}

func TestRunScriptError(t *testing.T) {
	_, _, e, _ := mount(t, `<div></div>`)
	err := e.Run(context.Background(), []string{"1;", "throw new Error('boom')"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "script 1")
	assert.Contains(t, err.Error(), "boom")
}

func TestRunSharesGlobals(t *testing.T) {
	_, s, e, _ := mount(t, `<p id="out"></p>`)
	require.NoError(t, e.Run(context.Background(), []string{
		"var total = 0; for (var i = 1; i <= 4; i++) total += i;",
		"document.getElementById('out').textContent = 'sum=' + total;",
	}))
	assert.Equal(t, "sum=10", textOf(t, s, "out"))
}

func TestRunCancelledInterrupts(t *testing.T) {
	defer goleak.VerifyNone(t)

	_, _, e, _ := mount(t, `<div></div>`)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := e.Run(ctx, []string{"for (;;) {}"})
	var interrupted *goja.InterruptedError
	require.True(t, errors.As(err, &interrupted), "got %v", err)
	assert.ErrorIs(t, interrupted.Value().(error), context.DeadlineExceeded)
}

func TestRunOnReleasedStage(t *testing.T) {
	doc, s, e, _ := mount(t, `<div></div>`)
	doc.Release(s)
	assert.ErrorIs(t, e.Run(context.Background(), []string{"1"}), stage.ErrReleased)
}

func TestConsoleDoesNotFail(t *testing.T) {
	_, _, e, _ := mount(t, `<div></div>`)
	assert.NoError(t, e.Run(context.Background(), []string{
		"console.log('a', 1, {x: 2}); console.warn('w'); console.error('e'); console.debug('d')",
	}))
}
