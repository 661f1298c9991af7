package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"time"

	"github.com/rs/zerolog"

	"wrapped/pkg/dom"
	"wrapped/pkg/images"
	"wrapped/pkg/layout"
	"wrapped/pkg/resource"
	"wrapped/pkg/stage"
	"wrapped/pkg/style"
	"wrapped/pkg/text"
)

// ErrCapture marks a failed rasterization.
var ErrCapture = errors.New("capture failed")

const (
	// DefaultScale renders at twice the stage resolution.
	DefaultScale = 2.0
	// DefaultBackground matches the page behind the cards.
	DefaultBackground = "#0a0a0f"
)

// CaptureResult is an encoded raster of a stage.
type CaptureResult struct {
	EncodedImage string // data:image/png;base64,...
	SourceWidth  int
	SourceHeight int
	Scale        float64
}

// PixelSize returns the raster dimensions.
func (c CaptureResult) PixelSize() (width, height int) {
	return int(float64(c.SourceWidth)*c.Scale + 0.5), int(float64(c.SourceHeight)*c.Scale + 0.5)
}

// Bytes returns the decoded PNG.
func (c CaptureResult) Bytes() ([]byte, error) {
	body, _, err := resource.DecodeDataURI(c.EncodedImage)
	return body, err
}

// Image decodes the raster.
func (c CaptureResult) Image() (image.Image, error) {
	body, err := c.Bytes()
	if err != nil {
		return nil, err
	}
	return png.Decode(bytes.NewReader(body))
}

// Empty reports whether the result holds no image.
func (c CaptureResult) Empty() bool {
	return c.EncodedImage == ""
}

type Option func(*Rasterizer)

func WithScale(scale float64) Option {
	return func(r *Rasterizer) {
		if scale > 0 {
			r.scale = scale
		}
	}
}

func WithBackground(c style.Color) Option {
	return func(r *Rasterizer) { r.background = c }
}

func WithFaces(f *text.Faces) Option {
	return func(r *Rasterizer) { r.faces = f }
}

// WithImages sets where img and background urls are loaded from. Resources
// of any origin are accepted.
func WithImages(src layout.ImageSource) Option {
	return func(r *Rasterizer) { r.images = src }
}

func WithLogger(log zerolog.Logger) Option {
	return func(r *Rasterizer) { r.log = log }
}

// Rasterizer captures stages into PNG data URLs. It is safe for concurrent
// use; each capture works on a snapshot of the stage tree.
type Rasterizer struct {
	scale      float64
	background style.Color
	faces      *text.Faces
	images     layout.ImageSource
	log        zerolog.Logger
}

func NewRasterizer(opts ...Option) (*Rasterizer, error) {
	bg, _ := style.ParseColor(DefaultBackground)
	r := &Rasterizer{
		scale:      DefaultScale,
		background: bg,
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.faces == nil {
		faces, err := text.NewFaces(text.DefaultFontConfig())
		if err != nil {
			return nil, err
		}
		r.faces = faces
	}
	if r.images == nil {
		r.images = images.NewLoader(nil)
	}
	return r, nil
}

func (r *Rasterizer) Scale() float64 { return r.scale }

// Capture rasterizes the current content of s at canonical size times the
// configured scale. Any failure, including a panic while painting, is
// reported as ErrCapture.
func (r *Rasterizer) Capture(ctx context.Context, s *stage.Stage) (res CaptureResult, err error) {
	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: panic: %v", ErrCapture, p)
		}
		if err != nil {
			r.log.Warn().Err(err).Str("stage", s.ID()).Msg("capture failed")
		}
	}()

	if err := ctx.Err(); err != nil {
		return CaptureResult{}, fmt.Errorf("%w: %w", ErrCapture, err)
	}

	var snapshot *dom.Node
	if err := s.View(func(root *dom.Node) error {
		snapshot = root.CloneNode(true)
		return nil
	}); err != nil {
		return CaptureResult{}, fmt.Errorf("%w: %w", ErrCapture, err)
	}

	width, height := s.Size()
	faces := r.faces.Fork()
	box, err := layout.NewLayoutEngine(float64(width), float64(height), faces, r.images).Layout(ctx, snapshot)
	if err != nil {
		return CaptureResult{}, fmt.Errorf("%w: layout: %w", ErrCapture, err)
	}

	rr := NewRenderer(ctx, width, height, r.scale, faces, r.images)
	rr.Render(box, r.background)
	if err := rr.Err(); err != nil {
		return CaptureResult{}, fmt.Errorf("%w: paint: %w", ErrCapture, err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, rr.Image()); err != nil {
		return CaptureResult{}, fmt.Errorf("%w: encode: %w", ErrCapture, err)
	}

	res = CaptureResult{
		EncodedImage: resource.EncodeDataURI("image/png", buf.Bytes()),
		SourceWidth:  width,
		SourceHeight: height,
		Scale:        r.scale,
	}
	pw, ph := res.PixelSize()
	r.log.Debug().
		Str("stage", s.ID()).
		Int("nodes", snapshot.Count()).
		Int("pixel_width", pw).
		Int("pixel_height", ph).
		Int("png_bytes", buf.Len()).
		Dur("took", time.Since(start)).
		Msg("stage captured")
	return res, nil
}
