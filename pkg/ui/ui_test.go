package ui

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"fyne.io/fyne/v2/test"
	"fyne.io/fyne/v2/widget"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wrapped/pkg/card"
	"wrapped/pkg/deliver"
	"wrapped/pkg/dom"
	"wrapped/pkg/export"
	"wrapped/pkg/render"
	"wrapped/pkg/stage"
)

type stubCapturer struct{}

func (stubCapturer) Capture(ctx context.Context, s *stage.Stage) (render.CaptureResult, error) {
	w, h := s.Size()
	return render.CaptureResult{EncodedImage: "data:image/png;base64,", SourceWidth: w, SourceHeight: h, Scale: 2}, nil
}

type nopSink struct{}

func (nopSink) Deliver(res render.CaptureResult, filename string) deliver.Receipt {
	return deliver.Receipt{Filename: filename}
}

func testUnits() []export.Unit {
	blank := card.Func(func(ctx context.Context, root *dom.Node) error { return nil })
	return []export.Unit{
		{ID: "hero", Title: "Year Overview", Category: export.CategoryVibes, Payload: blank},
		{ID: "inner-circle", Title: "Inner Circle", Category: export.CategoryVibes, Payload: blank},
		{ID: "messages-loved", Title: "Messages You Loved", Category: export.CategoryMessages, Payload: blank},
		{ID: "personality", Title: "Personality Evaluation", Category: export.CategoryPersonality, Payload: blank},
	}
}

// recordingSink remembers delivered filenames.
type recordingSink struct {
	mu    sync.Mutex
	names []string
}

func (s *recordingSink) Deliver(res render.CaptureResult, filename string) deliver.Receipt {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.names = append(s.names, filename)
	return deliver.Receipt{Filename: filename}
}

func (s *recordingSink) delivered() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.names...)
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	return newTestAppWith(t, nopSink{}, testUnits())
}

func newTestAppWith(t *testing.T, sink export.Deliverer, units []export.Unit) *App {
	t.Helper()
	a := test.NewTempApp(t)
	doc := stage.NewDocument(800, 600, zerolog.Nop())
	p := export.NewPipeline(doc, stubCapturer{}, export.WithSettler(export.FixedDelay(0)))
	return New(context.Background(), a, p, sink, units, zerolog.Nop(), export.WithCooldown(0), export.WithStagger(0))
}

func TestCategoryToggle(t *testing.T) {
	ui := newTestApp(t)
	assert.Equal(t, []string{"hero", "inner-circle"}, ui.VisibleIDs())
	assert.Len(t, ui.list.Objects, 2)
	assert.Equal(t, export.CategoryVibes.Label(), ui.toggle.Selected)

	ui.toggle.SetSelected(export.CategoryMessages.Label())
	assert.Equal(t, []string{"messages-loved"}, ui.VisibleIDs())
	assert.Len(t, ui.list.Objects, 1)

	ui.ShowCategory(export.CategoryPersonality)
	assert.Equal(t, []string{"personality"}, ui.VisibleIDs())
}

func TestSetUnitsResetsControllers(t *testing.T) {
	ui := newTestApp(t)
	before, ok := ui.Controller("hero")
	require.True(t, ok)

	ui.SetUnits(testUnits()[:1])
	after, ok := ui.Controller("hero")
	require.True(t, ok)
	assert.NotSame(t, before, after)
	_, ok = ui.Controller("personality")
	assert.False(t, ok)
	assert.Equal(t, []string{"hero"}, ui.VisibleIDs())
	assert.Equal(t, "1 stories", ui.status.Text)
	assert.Equal(t, "Render All 1 Stories", ui.batch.render.Text)
}

func TestBatchPanelHidesDownloadUntilComplete(t *testing.T) {
	ui := newTestApp(t)
	assert.True(t, ui.batch.download.Hidden)
	assert.Equal(t, "4 stories to render", ui.batch.caption.Text)
	assert.Equal(t, "Download 0 of 4 Stories", ui.batch.download.Text)
	require.Len(t, ui.batch.rows, 4)
	for _, row := range ui.batch.rows {
		assert.Equal(t, "Render", row.action.Text)
		assert.Equal(t, "Not rendered", row.state.Text)
	}
}

func TestBatchPanelPartialFailure(t *testing.T) {
	var broken atomic.Bool
	broken.Store(true)
	ok := card.Func(func(ctx context.Context, root *dom.Node) error { return nil })
	flaky := card.Func(func(ctx context.Context, root *dom.Node) error {
		if broken.Load() {
			return errors.New("mount failed")
		}
		return nil
	})
	sink := &recordingSink{}
	ui := newTestAppWith(t, sink, []export.Unit{
		{ID: "a", Title: "Card A", Category: export.CategoryVibes, Payload: ok},
		{ID: "b", Title: "Card B", Category: export.CategoryVibes, Payload: flaky},
		{ID: "c", Title: "Card C", Category: export.CategoryVibes, Payload: ok},
	})
	panel := ui.batch

	panel.batch.ExportAll(context.Background())
	panel.refresh()

	require.Len(t, panel.rows, 3)
	a, b, c := panel.rows[0], panel.rows[1], panel.rows[2]
	assert.Equal(t, "Download", a.action.Text)
	assert.Equal(t, "Retry", b.action.Text)
	assert.Equal(t, "Download", c.action.Text)
	assert.Contains(t, b.state.Text, "mount failed")
	assert.Equal(t, widget.DangerImportance, b.state.Importance)
	assert.Equal(t, widget.SuccessImportance, a.state.Importance)
	assert.False(t, a.action.Disabled())
	assert.False(t, b.action.Disabled())
	assert.False(t, panel.download.Hidden, "completed stories must stay downloadable")
	assert.Equal(t, "Download 2 of 3 Stories", panel.download.Text)

	test.Tap(a.action)
	test.Tap(c.action)
	assert.Eventually(t, func() bool { return len(sink.delivered()) == 2 }, time.Second, 5*time.Millisecond)
	assert.ElementsMatch(t, []string{"wrapped-card-a.png", "wrapped-card-c.png"}, sink.delivered())

	broken.Store(false)
	test.Tap(b.action)
	assert.Eventually(t, func() bool {
		st, err := panel.batch.State("b")
		return err == nil && st.Phase == export.PhaseCompleted
	}, time.Second, 5*time.Millisecond)
	panel.refresh()
	assert.Equal(t, "Download", b.action.Text)
	assert.True(t, panel.batch.AllCompleted())
	assert.Equal(t, "Download All 3 Stories", panel.download.Text)
}

func TestStatusText(t *testing.T) {
	tests := []struct {
		snap export.Snapshot
		want string
	}{
		{export.Snapshot{State: export.StateIdle}, ""},
		{export.Snapshot{State: export.StateExporting}, "Rendering…"},
		{export.Snapshot{State: export.StatePreviewReady}, "Preview ready"},
		{export.Snapshot{State: export.StatePreviewReady, Downloaded: true}, "Downloaded!"},
		{export.Snapshot{State: export.StateFailed, Err: errors.New("boom")}, "Export failed: boom"},
		{export.Snapshot{State: export.StateFailed}, "Export failed"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusText(tt.snap))
	}
}

func TestProgressText(t *testing.T) {
	assert.Equal(t, "Rendering 2 of 3… 33%", progressText(export.Progress{Attempted: 1, Total: 3}, true, false))
	assert.Equal(t, "Rendering 3 of 3… 100%", progressText(export.Progress{Attempted: 3, Total: 3}, true, false))
	assert.Equal(t, "All stories are ready", progressText(export.Progress{Attempted: 3, Total: 3}, false, true))
	assert.Equal(t, "3 of 3 rendered, some failed", progressText(export.Progress{Attempted: 3, Total: 3}, false, false))
	assert.Equal(t, "3 stories to render", progressText(export.Progress{Total: 3}, false, false))
}

func TestSizeAndDownloadText(t *testing.T) {
	res := render.CaptureResult{SourceWidth: 1080, SourceHeight: 1920, Scale: 2}
	assert.Equal(t, "1080 × 1920px — perfect for Stories", sizeText(res))
	assert.Equal(t, "Download for Instagram", downloadText(false))
	assert.Equal(t, "Downloaded!", downloadText(true))
}

func TestWindowPresenterRejectsBadCapture(t *testing.T) {
	a := test.NewTempApp(t)
	err := WindowPresenter{App: a}.Present(render.CaptureResult{EncodedImage: "not a data url"}, "wrapped-x.png")
	assert.Error(t, err)
}
