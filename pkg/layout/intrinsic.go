package layout

import (
	"wrapped/pkg/dom"
	"wrapped/pkg/style"
)

// maxContentWidth is the border-box width n would take with no line
// breaking. Percentages resolve to zero.
func (lc *layoutContext) maxContentWidth(n *dom.Node, parent *style.Style) float64 {
	if n.Type == dom.TextNode {
		return lc.inlineWidth(collectRuns([]*dom.Node{n}, parent))
	}
	st := computeStyle(n, parent)
	if st.Display() == style.DisplayNone {
		return 0
	}
	pad := st.Padding(0)
	frame := pad.Horizontal() + 2*st.BorderWidth()

	if !st.IsPercent("width") {
		if w, ok := st.Length("width", 0); ok {
			if st.BorderBox() {
				return w
			}
			return w + frame
		}
	}
	if n.TagName == "img" {
		return lc.imageWidth(n, st) + frame
	}

	children := flowChildren(n)
	var content float64
	switch {
	case allInline(children):
		content = lc.inlineWidth(collectRuns(children, st))
	case st.Display() == style.DisplayFlex && st.FlexRow():
		count := 0
		for _, c := range children {
			if c.Type == dom.TextNode && !hasText(collectRuns([]*dom.Node{c}, st)) {
				continue
			}
			content += lc.maxContentWidth(c, st) + childMargin(c, st)
			count++
		}
		if count > 1 {
			content += st.Gap() * float64(count-1)
		}
	default:
		for _, c := range children {
			content = max(content, lc.maxContentWidth(c, st)+childMargin(c, st))
		}
	}
	return content + frame
}

func childMargin(n *dom.Node, parent *style.Style) float64 {
	if n.Type != dom.ElementNode {
		return 0
	}
	return computeStyle(n, parent).Margin(0).Horizontal()
}

// imageWidth is the content width of an img without layout constraints.
func (lc *layoutContext) imageWidth(n *dom.Node, st *style.Style) float64 {
	if v, ok := n.GetAttribute("width"); ok {
		if w, ok := style.ParseLength(v, 0); ok {
			return w
		}
	}
	src, _ := n.GetAttribute("src")
	if src == "" || lc.le.images == nil {
		return 0
	}
	img, err := lc.le.images.Load(lc.ctx, src)
	if err != nil {
		return 0
	}
	natW, natH := float64(img.Bounds().Dx()), float64(img.Bounds().Dy())
	if h, ok := st.Length("height", 0); ok && !st.IsPercent("height") && natH > 0 {
		return h * natW / natH
	}
	return natW
}
