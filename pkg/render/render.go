// Package render paints laid-out card boxes with gg.
package render

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/fogleman/gg"

	"wrapped/pkg/layout"
	"wrapped/pkg/style"
	"wrapped/pkg/text"
)

// Renderer paints a box tree onto a context whose user space is in stage
// pixels and whose device space is scaled by scale.
type Renderer struct {
	context *gg.Context
	scale   float64
	faces   *text.Faces
	images  layout.ImageSource
	ctx     context.Context
	err     error
}

// NewRenderer creates a renderer for a width x height stage at scale.
func NewRenderer(ctx context.Context, width, height int, scale float64, faces *text.Faces, images layout.ImageSource) *Renderer {
	dc := gg.NewContext(int(math.Round(float64(width)*scale)), int(math.Round(float64(height)*scale)))
	return &Renderer{context: dc, scale: scale, faces: faces, images: images, ctx: ctx}
}

// Image returns the painted canvas.
func (r *Renderer) Image() image.Image {
	return r.context.Image()
}

// Err returns the first resource error hit while painting.
func (r *Renderer) Err() error {
	return r.err
}

// Render clears the canvas to background and paints root.
func (r *Renderer) Render(root *layout.Box, background style.Color) {
	r.context.Identity()
	r.context.SetColor(background.NRGBA())
	r.context.Clear()
	r.context.Scale(r.scale, r.scale)
	r.drawBox(root, 1)
}

func (r *Renderer) setColor(c style.Color, opacity float64) {
	r.context.SetColor(c.WithAlpha(c.A * opacity).NRGBA())
}

func (r *Renderer) drawBox(box *layout.Box, opacity float64) {
	if box.Style != nil && box.Node != nil {
		opacity *= box.Style.Opacity()
	}
	if opacity <= 0 {
		return
	}

	if box.Node != nil {
		r.drawBackground(box, opacity)
		r.drawBorder(box, opacity)
		r.drawImage(box, opacity)
	}

	clip := box.Style != nil && box.Node != nil && box.Style.OverflowHidden()
	if clip {
		r.context.Push()
		b := box.Border
		r.roundedPath(box.X+b, box.Y+b, box.Width-2*b, box.Height-2*b, r.radius(box)-b)
		r.context.Clip()
	}

	r.drawText(box, opacity)
	for _, c := range box.Children {
		if !c.Positioned() {
			r.drawBox(c, opacity)
		}
	}
	for _, c := range box.Children {
		if c.Positioned() {
			r.drawBox(c, opacity)
		}
	}

	if clip {
		r.context.Pop()
	}
}

func (r *Renderer) radius(box *layout.Box) float64 {
	if box.Style == nil {
		return 0
	}
	return box.Style.BorderRadius(box.Width, box.Height)
}

func (r *Renderer) roundedPath(x, y, w, h, radius float64) {
	if w <= 0 || h <= 0 {
		return
	}
	if radius > 0 {
		radius = math.Min(radius, math.Min(w, h)/2)
		r.context.DrawRoundedRectangle(x, y, w, h, radius)
		return
	}
	r.context.DrawRectangle(x, y, w, h)
}

// drawBackground paints color, then gradient, then url image over the
// border box.
func (r *Renderer) drawBackground(box *layout.Box, opacity float64) {
	st := box.Style
	radius := r.radius(box)

	if c, ok := st.BackgroundColor(); ok {
		r.setColor(c, opacity)
		r.roundedPath(box.X, box.Y, box.Width, box.Height, radius)
		r.context.Fill()
	}

	if g, ok := st.BackgroundGradient(); ok {
		r.context.SetFillStyle(r.gradientPattern(g, box, opacity))
		r.roundedPath(box.X, box.Y, box.Width, box.Height, radius)
		r.context.Fill()
	}

	if uri, ok := st.BackgroundImage(); ok {
		img := r.loadImage(uri)
		if img == nil {
			return
		}
		r.context.Push()
		r.roundedPath(box.X, box.Y, box.Width, box.Height, radius)
		r.context.Clip()
		r.drawCover(img, box.X, box.Y, box.Width, box.Height, opacity)
		r.context.Pop()
	}
}

// gradientPattern builds a gg gradient. gg evaluates patterns in device
// space, so geometry is scaled here.
func (r *Renderer) gradientPattern(g *style.Gradient, box *layout.Box, opacity float64) gg.Pattern {
	s := r.scale
	var grad gg.Gradient
	switch g.Type {
	case style.GradientRadial:
		// farthest-corner; ellipses are drawn as circles
		cx, cy := (box.X+box.Width/2)*s, (box.Y+box.Height/2)*s
		rad := math.Hypot(box.Width/2, box.Height/2) * s
		grad = gg.NewRadialGradient(cx, cy, 0, cx, cy, rad)
	default:
		x0, y0, x1, y1 := g.Line(box.X, box.Y, box.Width, box.Height)
		grad = gg.NewLinearGradient(x0*s, y0*s, x1*s, y1*s)
	}
	for _, stop := range g.Stops {
		c := stop.Color
		grad.AddColorStop(stop.Offset, c.WithAlpha(c.A*opacity).NRGBA())
	}
	return grad
}

func (r *Renderer) drawBorder(box *layout.Box, opacity float64) {
	bw := box.Border
	if bw <= 0 {
		return
	}
	r.setColor(box.Style.BorderColor(), opacity)
	r.context.SetLineWidth(bw * r.scale)
	r.roundedPath(box.X+bw/2, box.Y+bw/2, box.Width-bw, box.Height-bw, r.radius(box)-bw/2)
	r.context.Stroke()
}

func (r *Renderer) drawImage(box *layout.Box, opacity float64) {
	if box.Image == nil {
		return
	}
	x, y := box.ContentX(), box.ContentY()
	w, h := box.ContentWidth(), box.ContentHeight()
	bounds := box.Image.Bounds()
	if w <= 0 || h <= 0 || bounds.Empty() {
		return
	}
	r.context.Push()
	r.roundedPath(box.X, box.Y, box.Width, box.Height, r.radius(box))
	r.context.Clip()
	r.context.Translate(x, y)
	r.context.Scale(w/float64(bounds.Dx()), h/float64(bounds.Dy()))
	r.context.DrawImage(fade(box.Image, opacity), -bounds.Min.X, -bounds.Min.Y)
	r.context.Pop()
}

// drawCover scales img to cover the rectangle, centered.
func (r *Renderer) drawCover(img image.Image, x, y, w, h, opacity float64) {
	b := img.Bounds()
	iw, ih := float64(b.Dx()), float64(b.Dy())
	if iw == 0 || ih == 0 {
		return
	}
	k := math.Max(w/iw, h/ih)
	r.context.Push()
	r.context.Translate(x+(w-iw*k)/2, y+(h-ih*k)/2)
	r.context.Scale(k, k)
	r.context.DrawImage(fade(img, opacity), -b.Min.X, -b.Min.Y)
	r.context.Pop()
}

// drawText paints inline lines in device space with device-size faces, so
// glyphs are rasterized at full resolution rather than scaled up.
func (r *Renderer) drawText(box *layout.Box, opacity float64) {
	if len(box.Lines) == 0 {
		return
	}
	r.context.Push()
	defer r.context.Pop()
	r.context.Identity()
	for _, line := range box.Lines {
		baseline := (line.Y + line.Baseline) * r.scale
		for _, f := range line.Fragments {
			face, err := r.faces.Face(f.FontSize*r.scale, f.Bold)
			if err != nil {
				r.fail(fmt.Errorf("font face: %w", err))
				return
			}
			r.context.SetFontFace(face)
			r.setColor(f.Color, opacity)
			r.context.DrawString(f.Text, f.X*r.scale, baseline)
		}
	}
}

func (r *Renderer) loadImage(uri string) image.Image {
	if r.images == nil {
		r.fail(fmt.Errorf("no image source for %s", uri))
		return nil
	}
	img, err := r.images.Load(r.ctx, uri)
	if err != nil {
		r.fail(fmt.Errorf("loading background: %w", err))
		return nil
	}
	return img
}

func (r *Renderer) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

// fade returns img with alpha multiplied by opacity.
func fade(img image.Image, opacity float64) image.Image {
	if opacity >= 1 {
		return img
	}
	b := img.Bounds()
	out := image.NewNRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			px := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			px.A = uint8(float64(px.A) * opacity)
			out.SetNRGBA(x, y, px)
		}
	}
	return out
}
