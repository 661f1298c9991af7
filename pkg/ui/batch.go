package ui

import (
	"context"
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/rs/zerolog"

	"wrapped/pkg/export"
)

// batchPanel renders and downloads the whole deck. It lives as long as its
// batch so the change listener is registered once.
type batchPanel struct {
	ctx   context.Context
	batch *export.Batch
	log   zerolog.Logger

	progress *widget.ProgressBar
	caption  *widget.Label
	render   *widget.Button
	download *widget.Button
	rows     []*batchRow
	content  fyne.CanvasObject
}

// batchRow is one story in the dialog. Its button renders the story when it
// has no capture and downloads the capture once it has one.
type batchRow struct {
	id     string
	title  string
	state  *widget.Label
	action *widget.Button
	phase  export.Phase
}

func newBatchPanel(ctx context.Context, b *export.Batch, log zerolog.Logger) *batchPanel {
	p := &batchPanel{
		ctx:      ctx,
		batch:    b,
		log:      log,
		progress: widget.NewProgressBar(),
		caption:  widget.NewLabel(""),
	}
	p.render = widget.NewButton(renderText(b.Len()), p.renderAll)
	p.download = widget.NewButton(downloadAllText(b.Len()), p.downloadAll)
	p.download.Importance = widget.HighImportance

	list := container.NewVBox()
	for _, st := range b.States() {
		row := &batchRow{id: st.Unit.ID, title: st.Unit.Title, state: widget.NewLabel("")}
		row.action = widget.NewButton("", func() { p.act(row) })
		p.rows = append(p.rows, row)
		list.Add(container.NewBorder(nil, nil, nil, row.action, container.NewHBox(widget.NewLabel(st.Unit.Title), row.state)))
	}
	scroll := container.NewVScroll(list)
	scroll.SetMinSize(fyne.NewSize(380, 180))
	p.content = container.NewVBox(p.caption, p.progress, scroll, p.render, p.download)

	b.OnChange(func() { fyne.Do(p.refresh) })
	p.refresh()
	return p
}

func renderText(n int) string      { return fmt.Sprintf("Render All %d Stories", n) }
func downloadAllText(n int) string { return fmt.Sprintf("Download All %d Stories", n) }

// downloadReadyText labels the bulk download when only some stories have a
// capture.
func downloadReadyText(ready, total int) string {
	if ready == total {
		return downloadAllText(total)
	}
	return fmt.Sprintf("Download %d of %d Stories", ready, total)
}

func phaseText(st export.JobState) string {
	switch st.Phase {
	case export.PhaseRendering:
		return "Rendering…"
	case export.PhaseCompleted:
		return "Ready"
	case export.PhaseFailed:
		if st.Err != nil {
			return "Failed: " + st.Err.Error()
		}
		return "Failed"
	default:
		return "Not rendered"
	}
}

func phaseImportance(ph export.Phase) widget.Importance {
	switch ph {
	case export.PhaseCompleted:
		return widget.SuccessImportance
	case export.PhaseFailed:
		return widget.DangerImportance
	case export.PhaseRendering:
		return widget.MediumImportance
	default:
		return widget.LowImportance
	}
}

// progressText is the caption for the batch state.
func progressText(p export.Progress, running, allCompleted bool) string {
	switch {
	case running:
		return fmt.Sprintf("Rendering %d of %d… %d%%", min(p.Attempted+1, p.Total), p.Total, p.Percent())
	case allCompleted:
		return "All stories are ready"
	case p.Attempted > 0:
		return fmt.Sprintf("%d of %d rendered, some failed", p.Attempted, p.Total)
	default:
		return fmt.Sprintf("%d stories to render", p.Total)
	}
}

func (p *batchPanel) refresh() {
	prog := p.batch.Progress()
	running := p.batch.Running()
	done := p.batch.AllCompleted()

	p.caption.SetText(progressText(prog, running, done))
	p.progress.SetValue(float64(prog.Percent()) / 100)
	if running {
		p.render.Disable()
	} else {
		p.render.Enable()
	}

	var ready int
	for i, st := range p.batch.States() {
		if st.Phase == export.PhaseCompleted {
			ready++
		}
		if i < len(p.rows) {
			p.rows[i].update(st, running)
		}
	}
	p.download.SetText(downloadReadyText(ready, p.batch.Len()))
	if ready > 0 && !running {
		p.download.Show()
	} else {
		p.download.Hide()
	}
}

func (r *batchRow) update(st export.JobState, running bool) {
	r.phase = st.Phase
	r.state.SetText(phaseText(st))
	r.state.Importance = phaseImportance(st.Phase)
	r.state.Refresh()

	switch st.Phase {
	case export.PhaseCompleted:
		r.action.SetText("Download")
		r.action.Importance = widget.HighImportance
	case export.PhaseFailed:
		r.action.SetText("Retry")
		r.action.Importance = widget.WarningImportance
	default:
		r.action.SetText("Render")
		r.action.Importance = widget.MediumImportance
	}
	r.action.Refresh()
	if running || st.Phase == export.PhaseRendering {
		r.action.Disable()
	} else {
		r.action.Enable()
	}
}

// act downloads a ready story or renders one that has no capture yet.
func (p *batchPanel) act(r *batchRow) {
	r.action.Disable()
	if r.phase == export.PhaseCompleted {
		go func() {
			_, err := p.batch.DeliverOne(r.id)
			fyne.Do(func() {
				r.action.Enable()
				if err != nil {
					p.log.Error().Err(err).Str("unit", r.id).Msg("download failed")
					p.caption.SetText(fmt.Sprintf("Could not download %s", r.title))
					return
				}
				p.caption.SetText(fmt.Sprintf("Downloaded %s", r.title))
			})
		}()
		return
	}
	go func() {
		if err := p.batch.ExportOne(p.ctx, r.id); err != nil {
			p.log.Warn().Err(err).Str("unit", r.id).Msg("story render failed")
		}
		fyne.Do(p.refresh)
	}()
}

func (p *batchPanel) renderAll() {
	p.render.Disable()
	go func() {
		prog := p.batch.ExportAll(p.ctx)
		p.log.Info().Int("attempted", prog.Attempted).Int("total", prog.Total).Msg("batch export finished")
	}()
}

func (p *batchPanel) downloadAll() {
	n, done := p.batch.DeliverAll()
	p.download.Disable()
	go func() {
		<-done
		fyne.Do(func() {
			p.download.Enable()
			p.caption.SetText(fmt.Sprintf("Downloaded %d stories", n))
		})
	}()
}

func (p *batchPanel) show(parent fyne.Window) {
	d := dialog.NewCustom("Share Your Wrapped", "Close", p.content, parent)
	d.Resize(fyne.NewSize(460, 420))
	d.Show()
}
