package layout

import (
	"wrapped/pkg/dom"
	"wrapped/pkg/style"
)

// auto marks a size that is not imposed by the parent.
const auto = -1.0

// definiteLength resolves a length property. Percentages against an
// indefinite reference are treated as auto.
func definiteLength(st *style.Style, property string, ref float64) (float64, bool) {
	if st.IsPercent(property) && ref <= 0 {
		return 0, false
	}
	return st.Length(property, ref)
}

// layoutElement lays out n with its margin box starting at (x, y). forceW
// and forceH impose a border-box size when not auto.
func (lc *layoutContext) layoutElement(n *dom.Node, parent *style.Style, x, y float64, cb containingBlock, forceW, forceH float64) *Box {
	st := computeStyle(n, parent)
	if st.Display() == style.DisplayNone {
		return nil
	}
	box := &Box{
		Node:    n,
		Style:   st,
		Margin:  st.Margin(cb.width),
		Padding: st.Padding(cb.width),
		Border:  st.BorderWidth(),
	}
	box.X = x + box.Margin.Left
	box.Y = y + box.Margin.Top
	frameH := box.Padding.Horizontal() + 2*box.Border
	frameV := box.Padding.Vertical() + 2*box.Border

	if n.TagName == "img" {
		lc.layoutImage(box, cb, forceW, forceH, frameH, frameV)
		return box
	}

	switch {
	case forceW >= 0:
		box.Width = forceW
	default:
		if w, ok := definiteLength(st, "width", cb.width); ok {
			if !st.BorderBox() {
				w += frameH
			}
			box.Width = w
		} else {
			box.Width = cb.width - box.Margin.Horizontal()
		}
		if mw, ok := definiteLength(st, "max-width", cb.width); ok {
			if !st.BorderBox() {
				mw += frameH
			}
			if box.Width > mw {
				box.Width = mw
			}
		}
	}
	if box.Width < frameH {
		box.Width = frameH
	}

	specifiedH := auto
	if forceH >= 0 {
		specifiedH = forceH
	} else if h, ok := definiteLength(st, "height", cb.height); ok {
		if !st.BorderBox() {
			h += frameV
		}
		specifiedH = h
	}

	inner := containingBlock{width: box.Width - frameH}
	if specifiedH >= 0 {
		inner.height = max(0, specifiedH-frameV)
	}

	var used float64
	if st.Display() == style.DisplayFlex {
		used = lc.layoutFlex(box, inner)
	} else {
		used = lc.layoutFlow(box, inner)
	}

	if specifiedH >= 0 {
		box.Height = specifiedH
	} else {
		box.Height = used + frameV
	}
	if mh, ok := definiteLength(st, "min-height", cb.height); ok {
		if !st.BorderBox() {
			mh += frameV
		}
		if box.Height < mh {
			box.Height = mh
		}
	}

	lc.layoutPositioned(box)
	return box
}

// layoutImage sizes an img from CSS, its width/height attributes and the
// natural size of the loaded image, keeping the aspect ratio when only one
// side is given.
func (lc *layoutContext) layoutImage(box *Box, cb containingBlock, forceW, forceH, frameH, frameV float64) {
	st := box.Style
	src, _ := box.Node.GetAttribute("src")
	if src != "" {
		box.Image = lc.loadImage(src)
	} else {
		lc.fail(errEmptySrc)
	}

	var natW, natH float64
	if box.Image != nil {
		b := box.Image.Bounds()
		natW, natH = float64(b.Dx()), float64(b.Dy())
	}

	w, hasW := definiteLength(st, "width", cb.width)
	if !hasW {
		if v, ok := box.Node.GetAttribute("width"); ok {
			w, hasW = style.ParseLength(v, cb.width)
		}
	}
	h, hasH := definiteLength(st, "height", cb.height)
	if !hasH {
		if v, ok := box.Node.GetAttribute("height"); ok {
			h, hasH = style.ParseLength(v, cb.height)
		}
	}
	if hasW && st.BorderBox() {
		w -= frameH
	}
	if hasH && st.BorderBox() {
		h -= frameV
	}
	switch {
	case hasW && !hasH && natW > 0:
		h = w * natH / natW
	case hasH && !hasW && natH > 0:
		w = h * natW / natH
	case !hasW && !hasH:
		w, h = natW, natH
	}

	box.Width = max(0, w) + frameH
	box.Height = max(0, h) + frameV
	if forceW >= 0 {
		box.Width = forceW
	}
	if forceH >= 0 {
		box.Height = forceH
	}
}

// layoutFlow stacks block children vertically, or lays out inline content
// when every child is inline. It returns the used content height.
func (lc *layoutContext) layoutFlow(box *Box, inner containingBlock) float64 {
	children := flowChildren(box.Node)
	cx, cy := box.ContentX(), box.ContentY()

	if allInline(children) {
		lines, h := lc.layoutInline(collectRuns(children, box.Style), cx, cy, inner.width, box.Style.TextAlign())
		box.Lines = lines
		return h
	}

	y := cy
	var pending []*dom.Node
	flush := func() {
		if len(pending) == 0 {
			return
		}
		runs := collectRuns(pending, box.Style)
		pending = nil
		if !hasText(runs) {
			return
		}
		lines, h := lc.layoutInline(runs, cx, y, inner.width, box.Style.TextAlign())
		box.Children = append(box.Children, &Box{
			Style: box.Style, X: cx, Y: y, Width: inner.width, Height: h, Lines: lines,
		})
		y += h
	}
	for _, c := range children {
		if isInline(c) {
			pending = append(pending, c)
			continue
		}
		flush()
		child := lc.layoutElement(c, box.Style, cx, y, inner, auto, auto)
		if child == nil {
			continue
		}
		box.Children = append(box.Children, child)
		y += child.marginHeight()
	}
	flush()
	return y - cy
}

// layoutPositioned places absolutely positioned children against the
// padding box of box.
func (lc *layoutContext) layoutPositioned(box *Box) {
	px, py := box.X+box.Border, box.Y+box.Border
	pw, ph := box.Width-2*box.Border, box.Height-2*box.Border
	cb := containingBlock{width: pw, height: ph}

	for _, c := range box.Node.Children {
		if c.Type != dom.ElementNode || isSkipped(c) {
			continue
		}
		st := computeStyle(c, box.Style)
		if !st.Absolute() || st.Display() == style.DisplayNone {
			continue
		}
		m := st.Margin(pw)
		left, hasLeft := definiteLength(st, "left", pw)
		right, hasRight := definiteLength(st, "right", pw)
		top, hasTop := definiteLength(st, "top", ph)
		bottom, hasBottom := definiteLength(st, "bottom", ph)
		_, hasW := definiteLength(st, "width", pw)
		_, hasH := definiteLength(st, "height", ph)

		forceW, forceH := auto, auto
		switch {
		case hasW:
		case hasLeft && hasRight:
			forceW = max(0, pw-left-right-m.Horizontal())
		default:
			forceW = min(lc.maxContentWidth(c, box.Style), max(0, pw-m.Horizontal()))
		}
		if !hasH && hasTop && hasBottom {
			forceH = max(0, ph-top-bottom-m.Vertical())
		}

		child := lc.layoutElement(c, box.Style, px, py, cb, forceW, forceH)
		if child == nil {
			continue
		}
		wantX := px + m.Left
		switch {
		case hasLeft:
			wantX = px + left + m.Left
		case hasRight:
			wantX = px + pw - right - m.Right - child.Width
		}
		wantY := py + m.Top
		switch {
		case hasTop:
			wantY = py + top + m.Top
		case hasBottom:
			wantY = py + ph - bottom - m.Bottom - child.Height
		}
		child.shift(wantX-child.X, wantY-child.Y)
		box.Children = append(box.Children, child)
	}
}

// flowChildren returns the children of n that take part in normal flow.
func flowChildren(n *dom.Node) []*dom.Node {
	out := make([]*dom.Node, 0, len(n.Children))
	for _, c := range n.Children {
		if c.Type == dom.ElementNode {
			if isSkipped(c) {
				continue
			}
			st := style.Parse(c.Attributes["style"])
			if st.Absolute() {
				continue
			}
		}
		out = append(out, c)
	}
	return out
}

func allInline(nodes []*dom.Node) bool {
	for _, n := range nodes {
		if !isInline(n) {
			return false
		}
	}
	return true
}
