package deliver

import (
	"fmt"
	"html/template"
	"os"

	"github.com/pkg/browser"

	"wrapped/pkg/render"
)

// SaveInstructions is shown above the image in the fallback page.
const SaveInstructions = `Right-click the image and select "Save Image As..."`

var pageTemplate = template.Must(template.New("fallback").Parse(`<html>
  <head><title>{{.Filename}}</title></head>
  <body style="margin:0;display:flex;justify-content:center;align-items:center;min-height:100vh;background:#111;">
    <div style="text-align:center;">
      <p style="color:white;margin-bottom:16px;">{{.Instructions}}</p>
      <img src="{{.Image}}" alt="{{.Filename}}" style="max-width:100%;max-height:90vh;" />
    </div>
  </body>
</html>
`))

// BrowserPresenter writes a page holding the image and opens it in a new
// browser context.
type BrowserPresenter struct {
	// Dir receives the page. Defaults to the system temp dir.
	Dir string
	// Open shows the page. Defaults to browser.OpenFile.
	Open func(path string) error
}

func (p BrowserPresenter) Present(res render.CaptureResult, filename string) error {
	f, err := os.CreateTemp(p.Dir, "wrapped-preview-*.html")
	if err != nil {
		return fmt.Errorf("fallback page: %w", err)
	}
	err = pageTemplate.Execute(f, map[string]any{
		"Filename":     filename,
		"Instructions": SaveInstructions,
		// Data URLs are produced by the rasterizer, not user input.
		"Image": template.URL(res.EncodedImage),
	})
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(f.Name())
		return fmt.Errorf("fallback page: %w", err)
	}

	open := p.Open
	if open == nil {
		open = browser.OpenFile
	}
	return open(f.Name())
}

// PresenterFunc adapts a function to Presenter.
type PresenterFunc func(res render.CaptureResult, filename string) error

func (f PresenterFunc) Present(res render.CaptureResult, filename string) error {
	return f(res, filename)
}

// SaverFunc adapts a function to Saver.
type SaverFunc func(b *Blob, filename string) (string, error)

func (f SaverFunc) Save(b *Blob, filename string) (string, error) { return f(b, filename) }
