package text

import (
	"fmt"
	"strings"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

// FontConfig holds optional paths to font files. Empty paths select the
// bundled Go fonts, so captures never depend on what the host has installed.
type FontConfig struct {
	Regular string
	Bold    string
}

// DefaultFontConfig returns a FontConfig using the bundled Go fonts.
func DefaultFontConfig() FontConfig {
	return FontConfig{}
}

// FontPath returns the configured path for the weight, or "".
func (fc FontConfig) FontPath(bold bool) string {
	if bold && fc.Bold != "" {
		return fc.Bold
	}
	return fc.Regular
}

type faceKey struct {
	size float64
	bold bool
}

// Faces hands out font faces by size and weight. Faces are cached; a Faces
// is safe for concurrent use.
type Faces struct {
	cfg     FontConfig
	regular *truetype.Font
	bold    *truetype.Font

	mu    sync.Mutex
	cache map[faceKey]font.Face
}

func NewFaces(cfg FontConfig) (*Faces, error) {
	regular, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing bundled regular font: %w", err)
	}
	bold, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing bundled bold font: %w", err)
	}
	return &Faces{cfg: cfg, regular: regular, bold: bold, cache: make(map[faceKey]font.Face)}, nil
}

// Fork returns a Faces sharing the parsed fonts but with its own face
// cache. Faces hold glyph buffers, so each concurrent painter forks.
func (f *Faces) Fork() *Faces {
	return &Faces{cfg: f.cfg, regular: f.regular, bold: f.bold, cache: make(map[faceKey]font.Face)}
}

// Face returns the face for size (in device pixels) and weight.
func (f *Faces) Face(size float64, bold bool) (font.Face, error) {
	key := faceKey{size: size, bold: bold}
	f.mu.Lock()
	defer f.mu.Unlock()
	if face, ok := f.cache[key]; ok {
		return face, nil
	}

	var face font.Face
	if path := f.cfg.FontPath(bold); path != "" {
		loaded, err := gg.LoadFontFace(path, size)
		if err != nil {
			return nil, fmt.Errorf("loading font %s: %w", path, err)
		}
		face = loaded
	} else {
		ttf := f.regular
		if bold {
			ttf = f.bold
		}
		face = truetype.NewFace(ttf, &truetype.Options{Size: size, Hinting: font.HintingNone})
	}
	f.cache[key] = face
	return face, nil
}

// MeasureText measures the width and line height of text. If the face
// cannot be loaded, a rough estimate is returned.
func (f *Faces) MeasureText(s string, fontSize float64, bold bool) (width, height float64) {
	face, err := f.Face(fontSize, bold)
	if err != nil {
		return float64(len(s)) * fontSize * 0.6, fontSize * 1.2
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	adv := font.MeasureString(face, s)
	return float64(adv) / 64, float64(face.Metrics().Height) / 64
}

// BreakTextIntoLines greedily breaks text on spaces into lines no wider
// than maxWidth. A single word wider than maxWidth gets a line of its own.
func (f *Faces) BreakTextIntoLines(s string, fontSize float64, bold bool, maxWidth float64) []string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return nil
	}
	if w, _ := f.MeasureText(s, fontSize, bold); w <= maxWidth {
		return []string{strings.Join(words, " ")}
	}

	var lines []string
	current := words[0]
	for _, word := range words[1:] {
		candidate := current + " " + word
		if w, _ := f.MeasureText(candidate, fontSize, bold); w <= maxWidth {
			current = candidate
			continue
		}
		lines = append(lines, current)
		current = word
	}
	return append(lines, current)
}

// Metrics returns the ascent and descent of the face in pixels.
func (f *Faces) Metrics(fontSize float64, bold bool) (ascent, descent float64) {
	face, err := f.Face(fontSize, bold)
	if err != nil {
		return fontSize * 0.9, fontSize * 0.25
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	m := face.Metrics()
	return float64(m.Ascent) / 64, float64(m.Descent) / 64
}
