package ui

import (
	"errors"
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"wrapped/pkg/export"
	"wrapped/pkg/render"
)

// previewSize is the on-screen size of a story preview, a quarter of the
// canonical story.
var previewSize = fyne.NewSize(export.StoryWidth/4, export.StoryHeight/4)

// statusText is the row caption for a controller snapshot.
func statusText(s export.Snapshot) string {
	switch s.State {
	case export.StateExporting:
		return "Rendering…"
	case export.StatePreviewReady:
		if s.Downloaded {
			return "Downloaded!"
		}
		return "Preview ready"
	case export.StateFailed:
		if s.Err != nil {
			return "Export failed: " + s.Err.Error()
		}
		return "Export failed"
	default:
		return ""
	}
}

// sizeText describes the pixel size of a capture in logical pixels.
func sizeText(res render.CaptureResult) string {
	return fmt.Sprintf("%d × %dpx — perfect for Stories", res.SourceWidth, res.SourceHeight)
}

func downloadText(downloaded bool) string {
	if downloaded {
		return "Downloaded!"
	}
	return "Download for Instagram"
}

func (a *App) cardRow(c *export.Controller) fyne.CanvasObject {
	title := widget.NewLabelWithStyle(c.Unit().Title, fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
	status := widget.NewLabel(statusText(c.Snapshot()))
	status.Truncation = fyne.TextTruncateEllipsis

	var btn *widget.Button
	btn = widget.NewButton("Export", func() {
		btn.Disable()
		go func() {
			err := c.Export(a.ctx)
			fyne.Do(func() {
				switch {
				case errors.Is(err, export.ErrBusy):
				case err != nil:
					a.log.Warn().Err(err).Str("unit", c.Unit().ID).Msg("export failed")
				default:
					a.showPreview(c)
				}
			})
		}()
	})

	c.OnChange(func(s export.Snapshot) {
		fyne.Do(func() {
			status.SetText(statusText(s))
			if s.State == export.StateExporting {
				btn.Disable()
			} else {
				btn.Enable()
			}
		})
	})

	return container.NewBorder(nil, nil, nil, btn, container.NewVBox(title, status))
}

// showPreview opens the preview of a finished export with its download
// action.
func (a *App) showPreview(c *export.Controller) {
	res, ok := c.Preview()
	if !ok {
		return
	}
	img, err := res.Image()
	if err != nil {
		dialog.ShowError(err, a.win)
		return
	}
	pic := canvas.NewImageFromImage(img)
	pic.FillMode = canvas.ImageFillContain
	pic.SetMinSize(previewSize)

	var btn *widget.Button
	btn = widget.NewButton(downloadText(c.Snapshot().Downloaded), func() {
		btn.Disable()
		go func() {
			_, err := c.Download()
			fyne.Do(func() {
				btn.Enable()
				if err != nil {
					dialog.ShowError(err, a.win)
					return
				}
				btn.SetText(downloadText(true))
			})
		}()
	})
	btn.Importance = widget.HighImportance

	content := container.NewVBox(
		container.NewCenter(pic),
		widget.NewLabelWithStyle(sizeText(res), fyne.TextAlignCenter, fyne.TextStyle{}),
		container.NewHBox(layout.NewSpacer(), btn, layout.NewSpacer()),
	)
	dialog.NewCustom(c.Unit().Title, "Close", content, a.win).Show()
}
