// Package ui is the desktop front end: a category toggle over the deck,
// per-card export with a preview, and a batch dialog for the whole deck.
package ui

import (
	"context"
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"github.com/rs/zerolog"

	"wrapped/pkg/export"
)

// App is the main window. Methods other than New must run on the fyne UI
// goroutine; callers on other goroutines go through fyne.Do.
type App struct {
	ctx      context.Context
	app      fyne.App
	win      fyne.Window
	pipeline *export.Pipeline
	sink     export.Deliverer
	batchOps []export.BatchOption
	log      zerolog.Logger

	units       []export.Unit
	controllers map[string]*export.Controller
	rows        map[string]fyne.CanvasObject
	batch       *batchPanel
	category    export.Category

	toggle *widget.RadioGroup
	list   *fyne.Container
	status *widget.Label
}

// New builds the window for units. ctx bounds every export started from the
// UI.
func New(ctx context.Context, a fyne.App, p *export.Pipeline, sink export.Deliverer, units []export.Unit, log zerolog.Logger, opts ...export.BatchOption) *App {
	ui := &App{
		ctx:      ctx,
		app:      a,
		win:      a.NewWindow("Wrapped"),
		pipeline: p,
		sink:     sink,
		batchOps: opts,
		log:      log,
		category: export.CategoryVibes,
		list:     container.NewVBox(),
		status:   widget.NewLabel(""),
	}
	ui.win.Resize(fyne.NewSize(720, 900))

	var labels []string
	for _, c := range export.Categories {
		labels = append(labels, c.Label())
	}
	ui.toggle = widget.NewRadioGroup(labels, func(label string) {
		for _, c := range export.Categories {
			if c.Label() == label {
				ui.ShowCategory(c)
				return
			}
		}
	})
	ui.toggle.Horizontal = true
	ui.toggle.Required = true

	share := widget.NewButton("Share Stories", func() { ui.batch.show(ui.win) })
	share.Importance = widget.HighImportance

	top := container.NewBorder(nil, nil, nil, share, ui.toggle)
	ui.win.SetContent(container.NewBorder(top, ui.status, nil, nil, container.NewVScroll(ui.list)))

	ui.SetUnits(units)
	ui.toggle.SetSelected(ui.category.Label())
	return ui
}

// Window returns the main window.
func (a *App) Window() fyne.Window { return a.win }

// ShowAndRun shows the window and runs the fyne event loop.
func (a *App) ShowAndRun() { a.win.ShowAndRun() }

// SetUnits replaces the deck. Controllers and batch state start over.
func (a *App) SetUnits(units []export.Unit) {
	a.units = units
	a.controllers = make(map[string]*export.Controller, len(units))
	a.rows = make(map[string]fyne.CanvasObject, len(units))
	for _, u := range units {
		c := export.NewController(u, a.pipeline, a.sink)
		a.controllers[u.ID] = c
		a.rows[u.ID] = a.cardRow(c)
	}
	a.batch = newBatchPanel(a.ctx, export.NewBatch(units, a.pipeline, a.sink, a.batchOps...), a.log)
	a.status.SetText(fmt.Sprintf("%d stories", len(units)))
	a.ShowCategory(a.category)
}

// ShowCategory lists the cards of c.
func (a *App) ShowCategory(c export.Category) {
	a.category = c
	var rows []fyne.CanvasObject
	for _, u := range a.units {
		if u.Category == c {
			rows = append(rows, a.rows[u.ID])
		}
	}
	a.list.Objects = rows
	a.list.Refresh()
}

// VisibleIDs returns the ids of the listed cards.
func (a *App) VisibleIDs() []string {
	var ids []string
	for _, u := range a.units {
		if u.Category == a.category {
			ids = append(ids, u.ID)
		}
	}
	return ids
}

// Controller returns the controller of the card with id.
func (a *App) Controller(id string) (*export.Controller, bool) {
	c, ok := a.controllers[id]
	return c, ok
}
