// Package layout computes box geometry for a mounted card tree.
//
// It supports the subset of CSS story cards are written in: block
// stacking, flex rows and columns with gap, grow, justification and
// alignment, absolute positioning against the parent box, px and %
// lengths, images, and wrapped inline text with mixed runs.
package layout

import (
	"context"
	"errors"
	"fmt"
	"image"

	"wrapped/pkg/dom"
	"wrapped/pkg/style"
	"wrapped/pkg/text"
)

var errEmptySrc = errors.New("img without src")

// ImageSource resolves image references found in markup.
type ImageSource interface {
	Load(ctx context.Context, uri string) (image.Image, error)
}

// Box is a laid-out element. X, Y, Width and Height describe the border
// box in stage pixels.
type Box struct {
	Node    *dom.Node
	Style   *style.Style
	X       float64
	Y       float64
	Width   float64
	Height  float64
	Margin  style.Edges
	Padding style.Edges
	Border  float64

	Children []*Box
	Lines    []Line      // inline content, if any
	Image    image.Image // replaced content of img
}

// ContentX returns the left edge of the content box.
func (b *Box) ContentX() float64 { return b.X + b.Border + b.Padding.Left }

// ContentY returns the top edge of the content box.
func (b *Box) ContentY() float64 { return b.Y + b.Border + b.Padding.Top }

// ContentWidth returns the width of the content box.
func (b *Box) ContentWidth() float64 {
	return b.Width - 2*b.Border - b.Padding.Horizontal()
}

// ContentHeight returns the height of the content box.
func (b *Box) ContentHeight() float64 {
	return b.Height - 2*b.Border - b.Padding.Vertical()
}

// Positioned reports whether the box is out of flow.
func (b *Box) Positioned() bool {
	return b.Style != nil && b.Style.Absolute()
}

// Walk visits b and its descendants depth-first.
func (b *Box) Walk(fn func(*Box)) {
	fn(b)
	for _, c := range b.Children {
		c.Walk(fn)
	}
}

func (b *Box) shift(dx, dy float64) {
	if dx == 0 && dy == 0 {
		return
	}
	b.Walk(func(box *Box) {
		box.X += dx
		box.Y += dy
	})
}

// marginWidth is the outer width including margins.
func (b *Box) marginWidth() float64 { return b.Width + b.Margin.Horizontal() }

// marginHeight is the outer height including margins.
func (b *Box) marginHeight() float64 { return b.Height + b.Margin.Vertical() }

// Line is one line of inline content.
type Line struct {
	Y         float64
	Height    float64
	Baseline  float64 // offset from Y
	Width     float64
	Fragments []Fragment
}

// Fragment is a run of text with a single style placed on a line.
type Fragment struct {
	Text     string
	X        float64
	Width    float64
	FontSize float64
	Bold     bool
	Color    style.Color
}

// LayoutEngine lays out a tree into a fixed-size viewport.
type LayoutEngine struct {
	viewportWidth  float64
	viewportHeight float64
	faces          *text.Faces
	images         ImageSource
}

// NewLayoutEngine creates an engine for a viewport of the given size. A nil
// images source makes every img and background url a layout error.
func NewLayoutEngine(viewportWidth, viewportHeight float64, faces *text.Faces, images ImageSource) *LayoutEngine {
	return &LayoutEngine{
		viewportWidth:  viewportWidth,
		viewportHeight: viewportHeight,
		faces:          faces,
		images:         images,
	}
}

// Layout lays out root so that its box exactly covers the viewport.
func (le *LayoutEngine) Layout(ctx context.Context, root *dom.Node) (*Box, error) {
	lc := &layoutContext{ctx: ctx, le: le}
	box := lc.layoutElement(root, nil, 0, 0, containingBlock{le.viewportWidth, le.viewportHeight}, le.viewportWidth, le.viewportHeight)
	if lc.err != nil {
		return nil, lc.err
	}
	return box, nil
}

type containingBlock struct {
	width  float64
	height float64 // 0 when indefinite
}

// layoutContext carries per-pass state. The first resource error is kept
// and the rest of the pass continues with empty replaced content.
type layoutContext struct {
	ctx context.Context
	le  *LayoutEngine
	err error
}

func (lc *layoutContext) fail(err error) {
	if lc.err == nil {
		lc.err = err
	}
}

func (lc *layoutContext) loadImage(uri string) image.Image {
	if lc.le.images == nil {
		lc.fail(fmt.Errorf("no image source for %s", uri))
		return nil
	}
	img, err := lc.le.images.Load(lc.ctx, uri)
	if err != nil {
		lc.fail(fmt.Errorf("loading image: %w", err))
		return nil
	}
	return img
}

// computeStyle parses the inline style of n, applies tag defaults and
// inherits from parent.
func computeStyle(n *dom.Node, parent *style.Style) *style.Style {
	attr, _ := n.GetAttribute("style")
	st := style.Parse(attr)
	switch n.TagName {
	case "b", "strong":
		if _, ok := st.Get("font-weight"); !ok {
			st.Set("font-weight", "bold")
		}
	}
	return st.Inherit(parent)
}

func isInline(n *dom.Node) bool {
	if n.Type == dom.TextNode {
		return true
	}
	if !dom.IsInlineElement(n.TagName) {
		return false
	}
	st := style.Parse(n.Attributes["style"])
	d, ok := st.Get("display")
	return !ok || d == "inline"
}

func isSkipped(n *dom.Node) bool {
	switch n.TagName {
	case "script", "style", "head", "template":
		return true
	}
	return false
}
