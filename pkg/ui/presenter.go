package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"wrapped/pkg/deliver"
	"wrapped/pkg/render"
)

// WindowPresenter is the delivery fallback for the desktop app: the capture
// opens in its own window with instructions and a Save As action.
type WindowPresenter struct {
	App fyne.App
}

func (p WindowPresenter) Present(res render.CaptureResult, filename string) error {
	img, err := res.Image()
	if err != nil {
		return err
	}
	data, err := res.Bytes()
	if err != nil {
		return err
	}
	fyne.Do(func() {
		w := p.App.NewWindow(filename)
		pic := canvas.NewImageFromImage(img)
		pic.FillMode = canvas.ImageFillContain
		pic.SetMinSize(previewSize)

		save := widget.NewButton("Save As…", func() {
			d := dialog.NewFileSave(func(wc fyne.URIWriteCloser, err error) {
				if err != nil || wc == nil {
					return
				}
				defer wc.Close()
				if _, err := wc.Write(data); err != nil {
					dialog.ShowError(err, w)
				}
			}, w)
			d.SetFileName(filename)
			d.Show()
		})

		w.SetContent(container.NewBorder(widget.NewLabel(deliver.SaveInstructions), save, nil, nil, pic))
		w.Show()
	})
	return nil
}
