package layout

import (
	"wrapped/pkg/dom"
	"wrapped/pkg/style"
)

type flexItem struct {
	node  *dom.Node
	style *style.Style
	box   *Box
}

// flexItems returns the in-flow items of a flex container. Text directly
// inside the container is wrapped in an anonymous item.
func flexItems(n *dom.Node, st *style.Style) []flexItem {
	var items []flexItem
	for _, c := range flowChildren(n) {
		if c.Type == dom.TextNode {
			if !hasText(collectRuns([]*dom.Node{c}, st)) {
				continue
			}
			c = &dom.Node{Type: dom.ElementNode, TagName: "div", Children: []*dom.Node{c}}
		}
		ist := computeStyle(c, st)
		if ist.Display() == style.DisplayNone {
			continue
		}
		items = append(items, flexItem{node: c, style: ist})
	}
	return items
}

// layoutFlex lays out a flex container and returns its used content
// height. Items never wrap.
func (lc *layoutContext) layoutFlex(box *Box, inner containingBlock) float64 {
	items := flexItems(box.Node, box.Style)
	if len(items) == 0 {
		return 0
	}
	if box.Style.FlexRow() {
		return lc.layoutFlexRow(box, items, inner)
	}
	return lc.layoutFlexColumn(box, items, inner)
}

func (lc *layoutContext) layoutFlexRow(box *Box, items []flexItem, inner containingBlock) float64 {
	st := box.Style
	gap := st.Gap()
	cx, cy := box.ContentX(), box.ContentY()

	bases := make([]float64, len(items))
	var used, grow, shrinkable float64
	for i, it := range items {
		m := it.style.Margin(inner.width)
		g := it.style.FlexGrow()
		switch w, ok := definiteLength(it.style, "width", inner.width); {
		case ok:
			if !it.style.BorderBox() {
				w += it.style.Padding(inner.width).Horizontal() + 2*it.style.BorderWidth()
			}
			bases[i] = w
		case g > 0 && it.style.FlexBasisZero():
			bases[i] = 0
		default:
			bases[i] = lc.maxContentWidth(it.node, st)
			shrinkable += bases[i]
		}
		grow += g
		used += bases[i] + m.Horizontal()
	}
	used += gap * float64(len(items)-1)

	free := inner.width - used
	switch {
	case free > 0 && grow > 0:
		for i, it := range items {
			bases[i] += free * it.style.FlexGrow() / grow
		}
		free = 0
	case free < 0 && shrinkable > 0:
		for i, it := range items {
			if _, ok := definiteLength(it.style, "width", inner.width); ok {
				continue
			}
			bases[i] = max(0, bases[i]+free*bases[i]/shrinkable)
		}
		free = 0
	}

	x := cx
	cross := inner.height
	for i := range items {
		b := lc.layoutElement(items[i].node, st, x, cy, inner, bases[i], auto)
		items[i].box = b
		x += b.marginWidth() + gap
		if inner.height <= 0 {
			cross = max(cross, b.marginHeight())
		}
	}

	alignItems := st.AlignItems()
	for i, it := range items {
		b := it.box
		switch it.style.AlignSelf(alignItems) {
		case style.AlignStretch:
			if _, ok := definiteLength(it.style, "height", inner.height); !ok {
				h := max(0, cross-b.Margin.Vertical())
				if h != b.Height {
					b = lc.layoutElement(it.node, st, b.X-b.Margin.Left, cy, inner, b.Width, h)
					items[i].box = b
				}
			}
		case style.AlignCenter:
			b.shift(0, (cross-b.marginHeight())/2)
		case style.AlignEnd:
			b.shift(0, cross-b.marginHeight())
		}
	}

	justify(items, st.JustifyContent(), free, func(b *Box, d float64) { b.shift(d, 0) })
	for _, it := range items {
		box.Children = append(box.Children, it.box)
	}
	return cross
}

func (lc *layoutContext) layoutFlexColumn(box *Box, items []flexItem, inner containingBlock) float64 {
	st := box.Style
	gap := st.Gap()
	cx, cy := box.ContentX(), box.ContentY()
	alignItems := st.AlignItems()

	widthFor := func(it flexItem) float64 {
		if _, ok := definiteLength(it.style, "width", inner.width); ok {
			return auto
		}
		if it.style.AlignSelf(alignItems) == style.AlignStretch {
			return auto
		}
		m := it.style.Margin(inner.width)
		return min(lc.maxContentWidth(it.node, st), max(0, inner.width-m.Horizontal()))
	}

	place := func(heights []float64) float64 {
		y := cy
		for i, it := range items {
			h := auto
			if heights != nil {
				h = heights[i]
			}
			b := lc.layoutElement(it.node, st, cx, y, inner, widthFor(it), h)
			items[i].box = b
			y += b.marginHeight() + gap
		}
		return y - gap - cy
	}

	used := place(nil)
	free := 0.0
	if inner.height > 0 {
		free = inner.height - used
		var grow float64
		for _, it := range items {
			grow += it.style.FlexGrow()
		}
		if free > 0 && grow > 0 {
			heights := make([]float64, len(items))
			for i, it := range items {
				heights[i] = auto
				if g := it.style.FlexGrow(); g > 0 {
					base := it.box.Height
					if it.style.FlexBasisZero() {
						free += base
						base = 0
					}
					heights[i] = base
				}
			}
			for i, it := range items {
				if g := it.style.FlexGrow(); g > 0 {
					heights[i] += free * g / grow
				}
			}
			used = place(heights)
			free = 0
		}
	}

	for _, it := range items {
		b := it.box
		switch it.style.AlignSelf(alignItems) {
		case style.AlignCenter:
			b.shift((inner.width-b.marginWidth())/2, 0)
		case style.AlignEnd:
			b.shift(inner.width-b.marginWidth(), 0)
		}
	}

	justify(items, st.JustifyContent(), free, func(b *Box, d float64) { b.shift(0, d) })
	for _, it := range items {
		box.Children = append(box.Children, it.box)
	}
	if inner.height > 0 {
		return inner.height
	}
	return used
}

// justify distributes leftover main-axis space.
func justify(items []flexItem, j style.Align, free float64, move func(*Box, float64)) {
	if free <= 0 {
		return
	}
	for i, it := range items {
		switch j {
		case style.AlignCenter:
			move(it.box, free/2)
		case style.AlignEnd:
			move(it.box, free)
		case style.AlignSpaceBetween:
			if len(items) > 1 {
				move(it.box, free*float64(i)/float64(len(items)-1))
			}
		}
	}
}
