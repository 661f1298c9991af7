package style

import (
	"image/color"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Color is an sRGB color with straight (non-premultiplied) alpha in [0,1].
type Color struct {
	R, G, B uint8
	A       float64
}

// RGBA returns the components as floats in [0,1], the form gg expects.
func (c Color) RGBA() (r, g, b, a float64) {
	return float64(c.R) / 255, float64(c.G) / 255, float64(c.B) / 255, c.A
}

// WithAlpha multiplies the alpha channel, used to apply element opacity.
func (c Color) WithAlpha(a float64) Color {
	c.A *= a
	return c
}

// NRGBA converts to the standard library color type.
func (c Color) NRGBA() color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: uint8(c.A*255 + 0.5)}
}

var namedColors = map[string]Color{
	"transparent": {0, 0, 0, 0},
	"white":       {255, 255, 255, 1},
	"black":       {0, 0, 0, 1},
	"red":         {255, 0, 0, 1},
	"green":       {0, 128, 0, 1},
	"blue":        {0, 0, 255, 1},
	"yellow":      {255, 255, 0, 1},
	"orange":      {255, 165, 0, 1},
	"purple":      {128, 0, 128, 1},
	"pink":        {255, 192, 203, 1},
	"gray":        {128, 128, 128, 1},
	"grey":        {128, 128, 128, 1},
	"silver":      {192, 192, 192, 1},
	"navy":        {0, 0, 128, 1},
	"teal":        {0, 128, 128, 1},
}

// ParseColor accepts named colors, #rgb, #rrggbb, #rrggbbaa, rgb() and rgba().
func ParseColor(colorStr string) (Color, bool) {
	s := strings.ToLower(strings.TrimSpace(colorStr))
	if c, ok := namedColors[s]; ok {
		return c, true
	}
	switch {
	case strings.HasPrefix(s, "#"):
		return parseHex(s)
	case strings.HasPrefix(s, "rgba(") || strings.HasPrefix(s, "rgb("):
		return parseRGBFunc(s)
	}
	return Color{}, false
}

func parseHex(s string) (Color, bool) {
	alpha := 1.0
	if len(s) == 9 {
		a, err := strconv.ParseUint(s[7:], 16, 8)
		if err != nil {
			return Color{}, false
		}
		alpha = float64(a) / 255
		s = s[:7]
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return Color{}, false
	}
	r, g, b := c.RGB255()
	return Color{R: r, G: g, B: b, A: alpha}, true
}

func parseRGBFunc(s string) (Color, bool) {
	open := strings.IndexByte(s, '(')
	if !strings.HasSuffix(s, ")") {
		return Color{}, false
	}
	args := strings.FieldsFunc(s[open+1:len(s)-1], func(r rune) bool {
		return r == ',' || r == ' ' || r == '/'
	})
	if len(args) != 3 && len(args) != 4 {
		return Color{}, false
	}
	var ch [3]uint8
	for i := 0; i < 3; i++ {
		n, err := strconv.ParseFloat(args[i], 64)
		if err != nil {
			return Color{}, false
		}
		ch[i] = uint8(clamp(n, 0, 255))
	}
	alpha := 1.0
	if len(args) == 4 {
		a := args[3]
		pct := strings.HasSuffix(a, "%")
		n, err := strconv.ParseFloat(strings.TrimSuffix(a, "%"), 64)
		if err != nil {
			return Color{}, false
		}
		if pct {
			n /= 100
		}
		alpha = clamp(n, 0, 1)
	}
	return Color{R: ch[0], G: ch[1], B: ch[2], A: alpha}, true
}

// Mix blends two colors in linear RGB; t=0 yields c, t=1 yields o.
func (c Color) Mix(o Color, t float64) Color {
	a := colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
	b := colorful.Color{R: float64(o.R) / 255, G: float64(o.G) / 255, B: float64(o.B) / 255}
	ar, ag, ab := a.LinearRgb()
	br, bg, bb := b.LinearRgb()
	mixed := colorful.LinearRgb(ar+(br-ar)*t, ag+(bg-ag)*t, ab+(bb-ab)*t)
	r, g, bl := mixed.Clamped().RGB255()
	return Color{R: r, G: g, B: bl, A: c.A + (o.A-c.A)*t}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
