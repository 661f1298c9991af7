// Package style parses the inline style attributes of card markup.
package style

import (
	"strconv"
	"strings"
)

type Style struct {
	props map[string]string
}

func NewStyle() *Style {
	return &Style{props: make(map[string]string)}
}

func (s *Style) Get(property string) (string, bool) {
	v, ok := s.props[property]
	return v, ok
}

func (s *Style) Set(property, value string) {
	s.props[property] = value
}

// Len returns the number of declared longhand properties.
func (s *Style) Len() int {
	return len(s.props)
}

// Parse parses a style attribute ("a: b; c: d") into longhands.
func Parse(styleAttr string) *Style {
	st := NewStyle()
	for _, decl := range splitTopLevel(styleAttr, ';') {
		colon := strings.IndexByte(decl, ':')
		if colon < 0 {
			continue
		}
		prop := strings.ToLower(strings.TrimSpace(decl[:colon]))
		val := strings.TrimSpace(decl[colon+1:])
		if prop == "" || val == "" {
			continue
		}
		expandShorthand(st, prop, val)
	}
	return st
}

func expandShorthand(st *Style, property, value string) {
	switch property {
	case "margin", "padding":
		expandBoxProperty(st, property, value)
	case "border":
		expandBorderProperty(st, value)
	case "inset":
		expandBoxProperty(st, "", value)
	case "background":
		if strings.Contains(value, "gradient(") || strings.HasPrefix(value, "url(") {
			st.Set("background-image", value)
		} else {
			st.Set("background-color", value)
		}
	default:
		st.Set(property, value)
	}
}

// expandBoxProperty expands 1-4 values in CSS clockwise order. An empty
// prefix maps onto top/right/bottom/left directly (inset).
func expandBoxProperty(st *Style, prefix, value string) {
	parts := strings.Fields(value)
	var top, right, bottom, left string
	switch len(parts) {
	case 1:
		top, right, bottom, left = parts[0], parts[0], parts[0], parts[0]
	case 2:
		top, right, bottom, left = parts[0], parts[1], parts[0], parts[1]
	case 3:
		top, right, bottom, left = parts[0], parts[1], parts[2], parts[1]
	case 4:
		top, right, bottom, left = parts[0], parts[1], parts[2], parts[3]
	default:
		return
	}
	name := func(side string) string {
		if prefix == "" {
			return side
		}
		return prefix + "-" + side
	}
	st.Set(name("top"), top)
	st.Set(name("right"), right)
	st.Set(name("bottom"), bottom)
	st.Set(name("left"), left)
}

// expandBorderProperty splits "1px solid rgba(...)" into width and color.
func expandBorderProperty(st *Style, value string) {
	for _, part := range splitTopLevel(value, ' ') {
		part = strings.TrimSpace(part)
		switch {
		case part == "":
		case part == "solid" || part == "none" || part == "dashed":
			st.Set("border-style", part)
		case isLength(part):
			st.Set("border-width", part)
		default:
			st.Set("border-color", part)
		}
	}
}

// splitTopLevel splits on sep outside parentheses.
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		case sep:
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}

func isLength(s string) bool {
	_, ok := ParseLength(s, 0)
	return ok
}

// ParseLength parses px, %, or unitless numbers. Percentages resolve
// against ref.
func ParseLength(val string, ref float64) (float64, bool) {
	val = strings.TrimSpace(val)
	switch {
	case strings.HasSuffix(val, "px"):
		n, err := strconv.ParseFloat(strings.TrimSuffix(val, "px"), 64)
		return n, err == nil
	case strings.HasSuffix(val, "%"):
		n, err := strconv.ParseFloat(strings.TrimSuffix(val, "%"), 64)
		return n / 100 * ref, err == nil
	default:
		n, err := strconv.ParseFloat(val, 64)
		return n, err == nil
	}
}

// Length returns the property resolved against ref.
func (s *Style) Length(property string, ref float64) (float64, bool) {
	v, ok := s.props[property]
	if !ok || v == "auto" {
		return 0, false
	}
	return ParseLength(v, ref)
}

func (s *Style) lengthOrZero(property string, ref float64) float64 {
	n, _ := s.Length(property, ref)
	return n
}

type Edges struct {
	Top, Right, Bottom, Left float64
}

func (e Edges) Horizontal() float64 { return e.Left + e.Right }
func (e Edges) Vertical() float64   { return e.Top + e.Bottom }

func (s *Style) edges(prefix string, ref float64) Edges {
	return Edges{
		Top:    s.lengthOrZero(prefix+"-top", ref),
		Right:  s.lengthOrZero(prefix+"-right", ref),
		Bottom: s.lengthOrZero(prefix+"-bottom", ref),
		Left:   s.lengthOrZero(prefix+"-left", ref),
	}
}

// Padding resolves percentages against the containing block width.
func (s *Style) Padding(ref float64) Edges { return s.edges("padding", ref) }
func (s *Style) Margin(ref float64) Edges  { return s.edges("margin", ref) }

func (s *Style) BorderWidth() float64 {
	if st, ok := s.props["border-style"]; ok && st == "none" {
		return 0
	}
	return s.lengthOrZero("border-width", 0)
}

func (s *Style) BorderColor() Color {
	if v, ok := s.props["border-color"]; ok {
		if c, ok := ParseColor(v); ok {
			return c
		}
	}
	return s.Color()
}

// BorderRadius resolves percentages against the smaller box side.
func (s *Style) BorderRadius(w, h float64) float64 {
	ref := w
	if h < w {
		ref = h
	}
	return s.lengthOrZero("border-radius", ref)
}

type Display int

const (
	DisplayBlock Display = iota
	DisplayFlex
	DisplayNone
)

func (s *Style) Display() Display {
	switch s.props["display"] {
	case "flex":
		return DisplayFlex
	case "none":
		return DisplayNone
	}
	return DisplayBlock
}

func (s *Style) FlexRow() bool {
	dir, ok := s.props["flex-direction"]
	return !ok || dir == "row"
}

func (s *Style) Gap() float64 {
	return s.lengthOrZero("gap", 0)
}

func (s *Style) FlexGrow() float64 {
	if v, ok := s.props["flex"]; ok {
		if fields := strings.Fields(v); len(fields) > 0 {
			if n, err := strconv.ParseFloat(fields[0], 64); err == nil {
				return n
			}
		}
	}
	return s.lengthOrZero("flex-grow", 0)
}

type Align int

const (
	AlignStart Align = iota
	AlignCenter
	AlignEnd
	AlignStretch
	AlignSpaceBetween
)

func parseAlign(v string, def Align) Align {
	switch v {
	case "center":
		return AlignCenter
	case "flex-end", "end":
		return AlignEnd
	case "flex-start", "start":
		return AlignStart
	case "stretch":
		return AlignStretch
	case "space-between":
		return AlignSpaceBetween
	}
	return def
}

func (s *Style) JustifyContent() Align {
	return parseAlign(s.props["justify-content"], AlignStart)
}

func (s *Style) AlignItems() Align {
	return parseAlign(s.props["align-items"], AlignStretch)
}

func (s *Style) Absolute() bool {
	return s.props["position"] == "absolute"
}

func (s *Style) OverflowHidden() bool {
	return s.props["overflow"] == "hidden"
}

// FontSize returns the font-size in pixels (default: 16px)
func (s *Style) FontSize() float64 {
	if n, ok := s.Length("font-size", 16); ok && n > 0 {
		return n
	}
	return 16
}

func (s *Style) Bold() bool {
	switch w := s.props["font-weight"]; w {
	case "bold", "bolder":
		return true
	default:
		n, err := strconv.Atoi(w)
		return err == nil && n >= 600
	}
}

// LineHeight returns the line height in pixels for the given font size.
// Unitless values multiply the font size.
func (s *Style) LineHeight(fontSize float64) float64 {
	v, ok := s.props["line-height"]
	if !ok || v == "normal" {
		return fontSize * 1.2
	}
	if strings.HasSuffix(v, "px") {
		n, _ := ParseLength(v, 0)
		return n
	}
	if n, err := strconv.ParseFloat(v, 64); err == nil {
		return n * fontSize
	}
	return fontSize * 1.2
}

type TextAlign int

const (
	TextAlignLeft TextAlign = iota
	TextAlignCenter
	TextAlignRight
)

func (s *Style) TextAlign() TextAlign {
	switch s.props["text-align"] {
	case "center":
		return TextAlignCenter
	case "right":
		return TextAlignRight
	}
	return TextAlignLeft
}

// Uppercase reports text-transform: uppercase.
func (s *Style) Uppercase() bool {
	return s.props["text-transform"] == "uppercase"
}

func (s *Style) Opacity() float64 {
	v, ok := s.props["opacity"]
	if !ok {
		return 1
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil || n > 1 {
		return 1
	}
	if n < 0 {
		return 0
	}
	return n
}

// Color returns the text color (default: white on the dark story frame).
func (s *Style) Color() Color {
	if v, ok := s.props["color"]; ok {
		if c, ok := ParseColor(v); ok {
			return c
		}
	}
	return Color{R: 255, G: 255, B: 255, A: 1}
}

func (s *Style) BackgroundColor() (Color, bool) {
	v, ok := s.props["background-color"]
	if !ok {
		return Color{}, false
	}
	c, ok := ParseColor(v)
	return c, ok && c.A > 0
}

// BackgroundImage returns the url() target of background-image, if any.
func (s *Style) BackgroundImage() (string, bool) {
	v, ok := s.props["background-image"]
	if !ok {
		return "", false
	}
	return ParseURL(v)
}

// BackgroundGradient returns the parsed gradient of background-image, if any.
func (s *Style) BackgroundGradient() (*Gradient, bool) {
	v, ok := s.props["background-image"]
	if !ok {
		return nil, false
	}
	return ParseGradient(v)
}

// ParseURL extracts the target of url(...), with or without quotes.
func ParseURL(v string) (string, bool) {
	v = strings.TrimSpace(v)
	if !strings.HasPrefix(v, "url(") || !strings.HasSuffix(v, ")") {
		return "", false
	}
	inner := strings.TrimSpace(v[4 : len(v)-1])
	inner = strings.Trim(inner, `"'`)
	return inner, inner != ""
}

var inherited = []string{
	"color", "font-size", "font-weight", "line-height", "text-align", "text-transform",
}

// Inherit returns a copy of s with inherited properties filled from parent.
func (s *Style) Inherit(parent *Style) *Style {
	out := NewStyle()
	if parent != nil {
		for _, p := range inherited {
			if v, ok := parent.props[p]; ok {
				out.props[p] = v
			}
		}
	}
	for k, v := range s.props {
		out.props[k] = v
	}
	return out
}

// BorderBox reports box-sizing: border-box.
func (s *Style) BorderBox() bool {
	return s.props["box-sizing"] == "border-box"
}

// AlignSelf returns align-self, falling back to the container's align-items.
func (s *Style) AlignSelf(def Align) Align {
	v, ok := s.props["align-self"]
	if !ok || v == "auto" {
		return def
	}
	return parseAlign(v, def)
}

// FlexBasisZero reports a flex shorthand with a zero basis, as in "flex: 1".
func (s *Style) FlexBasisZero() bool {
	v, ok := s.props["flex"]
	if !ok {
		return false
	}
	fields := strings.Fields(v)
	if len(fields) < 3 {
		return true
	}
	n, ok := ParseLength(fields[2], 0)
	return ok && n == 0
}

// IsPercent reports whether the property is a percentage.
func (s *Style) IsPercent(property string) bool {
	return strings.HasSuffix(strings.TrimSpace(s.props[property]), "%")
}
