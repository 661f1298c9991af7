package layout

import (
	"strings"

	"wrapped/pkg/dom"
	"wrapped/pkg/style"
)

// run is a piece of inline text sharing one computed style.
type run struct {
	text  string
	style *style.Style
	br    bool
}

// collectRuns flattens inline nodes into runs. Block descendants of an
// inline element contribute their text.
func collectRuns(nodes []*dom.Node, parent *style.Style) []run {
	var runs []run
	for _, n := range nodes {
		if n.Type == dom.TextNode {
			if strings.TrimSpace(n.Text) != "" {
				runs = append(runs, run{text: n.Text, style: parent})
			}
			continue
		}
		if isSkipped(n) {
			continue
		}
		if n.TagName == "br" {
			runs = append(runs, run{br: true, style: parent})
			continue
		}
		st := computeStyle(n, parent)
		if st.Display() == style.DisplayNone {
			continue
		}
		runs = append(runs, collectRuns(n.Children, st)...)
	}
	return runs
}

func hasText(runs []run) bool {
	for _, r := range runs {
		if !r.br && strings.TrimSpace(r.text) != "" {
			return true
		}
	}
	return false
}

type word struct {
	text  string
	style *style.Style
	br    bool
}

func splitWords(runs []run) []word {
	var words []word
	for _, r := range runs {
		if r.br {
			words = append(words, word{br: true, style: r.style})
			continue
		}
		t := r.text
		if r.style.Uppercase() {
			t = strings.ToUpper(t)
		}
		for _, w := range strings.Fields(t) {
			words = append(words, word{text: w, style: r.style})
		}
	}
	return words
}

// layoutInline places runs into lines of at most width starting at (x, y)
// and returns the lines with their total height.
func (lc *layoutContext) layoutInline(runs []run, x, y, width float64, align style.TextAlign) ([]Line, float64) {
	faces := lc.le.faces
	var lines []Line
	var cur Line
	cursor := 0.0
	top := y

	finish := func(lineStyle *style.Style) {
		if len(cur.Fragments) == 0 && lineStyle != nil {
			size := lineStyle.FontSize()
			cur.Height = lineStyle.LineHeight(size)
			asc, desc := faces.Metrics(size, lineStyle.Bold())
			cur.Baseline = (cur.Height-(asc+desc))/2 + asc
		}
		cur.Y = y
		cur.Width = cursor
		offset := 0.0
		switch align {
		case style.TextAlignCenter:
			offset = (width - cursor) / 2
		case style.TextAlignRight:
			offset = width - cursor
		}
		for i := range cur.Fragments {
			cur.Fragments[i].X += x + offset
		}
		lines = append(lines, cur)
		y += cur.Height
		cur = Line{}
		cursor = 0
	}

	for _, w := range splitWords(runs) {
		if w.br {
			finish(w.style)
			continue
		}
		size := w.style.FontSize()
		bold := w.style.Bold()
		ww, _ := faces.MeasureText(w.text, size, bold)
		space := 0.0
		if len(cur.Fragments) > 0 {
			space, _ = faces.MeasureText(" ", size, bold)
		}
		if len(cur.Fragments) > 0 && cursor+space+ww > width {
			finish(nil)
			space = 0
		}

		lh := w.style.LineHeight(size)
		asc, desc := faces.Metrics(size, bold)
		baseline := (lh-(asc+desc))/2 + asc
		if baseline > cur.Baseline {
			cur.Height += baseline - cur.Baseline
			cur.Baseline = baseline
		}
		if below := lh - baseline; cur.Height-cur.Baseline < below {
			cur.Height = cur.Baseline + below
		}

		color := w.style.Color()
		n := len(cur.Fragments)
		if n > 0 {
			last := &cur.Fragments[n-1]
			if last.FontSize == size && last.Bold == bold && last.Color == color {
				last.Text += " " + w.text
				last.Width += space + ww
				cursor += space + ww
				continue
			}
		}
		cur.Fragments = append(cur.Fragments, Fragment{
			Text: w.text, X: cursor + space, Width: ww, FontSize: size, Bold: bold, Color: color,
		})
		cursor += space + ww
	}
	if len(cur.Fragments) > 0 {
		finish(nil)
	}
	return lines, y - top
}

// inlineWidth is the width runs take on a single unbroken line.
func (lc *layoutContext) inlineWidth(runs []run) float64 {
	faces := lc.le.faces
	best, cursor := 0.0, 0.0
	first := true
	for _, w := range splitWords(runs) {
		if w.br {
			best = max(best, cursor)
			cursor, first = 0, true
			continue
		}
		size, bold := w.style.FontSize(), w.style.Bold()
		ww, _ := faces.MeasureText(w.text, size, bold)
		if !first {
			space, _ := faces.MeasureText(" ", size, bold)
			cursor += space
		}
		cursor += ww
		first = false
	}
	return max(best, cursor)
}
