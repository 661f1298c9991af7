// Package deck turns a recap dataset into the exportable story cards.
//
// A deck is a dataset.json plus card templates. The default deck is embedded;
// a data directory can replace the dataset and any template by providing a
// file with the same name.
package deck

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/tidwall/gjson"

	"wrapped/pkg/card"
	"wrapped/pkg/export"
)

// DatasetFile is the dataset path inside a deck.
const DatasetFile = "dataset.json"

//go:embed assets
var assets embed.FS

// ErrDataset is returned when the dataset is missing or not valid JSON.
var ErrDataset = errors.New("invalid dataset")

// Deck is a loaded dataset with the templates to render it.
type Deck struct {
	fsys fs.FS
	data gjson.Result
}

// Default returns the embedded deck.
func Default() (*Deck, error) {
	return Load(embedded())
}

// Open loads a deck from dir. Files missing from dir fall back to the
// embedded deck.
func Open(dir string) (*Deck, error) {
	return Load(overlay{upper: os.DirFS(dir), lower: embedded()})
}

// Load reads the dataset from fsys.
func Load(fsys fs.FS) (*Deck, error) {
	b, err := fs.ReadFile(fsys, DatasetFile)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDataset, err)
	}
	if !gjson.ValidBytes(b) {
		return nil, fmt.Errorf("%w: %s is not valid JSON", ErrDataset, DatasetFile)
	}
	data := gjson.ParseBytes(b)
	if !data.IsObject() {
		return nil, fmt.Errorf("%w: %s must hold an object", ErrDataset, DatasetFile)
	}
	return &Deck{fsys: fsys, data: data}, nil
}

func embedded() fs.FS {
	sub, err := fs.Sub(assets, "assets")
	if err != nil {
		panic(err)
	}
	return sub
}

// Year is the recap year, 0 when the dataset does not name one.
func (d *Deck) Year() int {
	return int(d.data.Get("year").Int())
}

// TotalMessages sums the monthly volume.
func (d *Deck) TotalMessages() int64 {
	var total int64
	for _, m := range d.data.Get("monthlyVolume").Array() {
		total += m.Get("count").Int()
	}
	return total
}

// Units builds one export unit per card, in deck order.
func (d *Deck) Units() ([]export.Unit, error) {
	frame, err := fs.ReadFile(d.fsys, "frame.html")
	if err != nil {
		return nil, fmt.Errorf("read frame: %w", err)
	}

	var units []export.Unit
	for _, e := range d.entries() {
		body, err := fs.ReadFile(d.fsys, "cards/"+e.template+".html")
		if err != nil {
			return nil, fmt.Errorf("card %s: %w", e.id, err)
		}
		tmpl, err := card.NewTemplate(e.id, string(frame)+string(body), nil, e.data)
		if err != nil {
			return nil, fmt.Errorf("card %s: %w", e.id, err)
		}
		units = append(units, export.Unit{
			ID:       e.id,
			Title:    e.title,
			Category: e.category,
			Payload:  tmpl,
		})
	}
	return units, nil
}

// frame is the view data every card template shares.
type frame struct {
	Year   string
	Label  string
	Handle string
	Footer string
}

func (d *Deck) frame(label string) frame {
	year := d.data.Get("year").String()
	return frame{
		Year:   strings.Join(strings.Split(year, ""), " "),
		Label:  label,
		Handle: d.data.Get("handle").String(),
		Footer: d.data.Get("footer").String(),
	}
}

// overlay reads from upper and falls back to lower for missing files.
type overlay struct {
	upper, lower fs.FS
}

func (o overlay) Open(name string) (fs.File, error) {
	f, err := o.upper.Open(name)
	if errors.Is(err, fs.ErrNotExist) {
		return o.lower.Open(name)
	}
	return f, err
}
