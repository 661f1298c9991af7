package style

import (
	"testing"
)

func TestParseShorthands(t *testing.T) {
	st := Parse("padding: 60px 20px; margin: 4px; border: 1px solid rgba(255,255,255,0.12); background: #0a0a0f")

	pad := st.Padding(0)
	if pad.Top != 60 || pad.Right != 20 || pad.Bottom != 60 || pad.Left != 20 {
		t.Errorf("padding = %+v", pad)
	}
	if m := st.Margin(0); m.Horizontal() != 8 || m.Vertical() != 8 {
		t.Errorf("margin = %+v", m)
	}
	if w := st.BorderWidth(); w != 1 {
		t.Errorf("border width = %v", w)
	}
	bc := st.BorderColor()
	if bc.R != 255 || bc.A != 0.12 {
		t.Errorf("border color = %+v", bc)
	}
	bg, ok := st.BackgroundColor()
	if !ok || bg.R != 0x0a || bg.B != 0x0f {
		t.Errorf("background = %+v, %v", bg, ok)
	}
}

func TestParseLengthPercent(t *testing.T) {
	tests := []struct {
		in   string
		ref  float64
		want float64
		ok   bool
	}{
		{"40px", 0, 40, true},
		{"50%", 1000, 500, true},
		{"12", 0, 12, true},
		{"auto", 0, 0, false},
		{"wide", 0, 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseLength(tt.in, tt.ref)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("ParseLength(%q, %v) = %v, %v; want %v, %v", tt.in, tt.ref, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want Color
		ok   bool
	}{
		{"#fff", Color{255, 255, 255, 1}, true},
		{"#ec4899", Color{0xec, 0x48, 0x99, 1}, true},
		{"#00000080", Color{0, 0, 0, 128.0 / 255}, true},
		{"rgb(139, 92, 246)", Color{139, 92, 246, 1}, true},
		{"rgba(236,72,153,0.1)", Color{236, 72, 153, 0.1}, true},
		{"transparent", Color{0, 0, 0, 0}, true},
		{"WHITE", Color{255, 255, 255, 1}, true},
		{"#12", Color{}, false},
		{"rgba(1,2)", Color{}, false},
		{"chartreuse-ish", Color{}, false},
	}
	for _, tt := range tests {
		got, ok := ParseColor(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ParseColor(%q) = %+v, %v; want %+v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestInheritKeepsOwnValues(t *testing.T) {
	parent := Parse("color: #ec4899; font-size: 48px; width: 100px")
	child := Parse("font-size: 20px").Inherit(parent)

	if child.FontSize() != 20 {
		t.Errorf("own font-size lost: %v", child.FontSize())
	}
	if c := child.Color(); c.R != 0xec {
		t.Errorf("color not inherited: %+v", c)
	}
	if _, ok := child.Get("width"); ok {
		t.Error("width must not inherit")
	}
}

func TestLineHeight(t *testing.T) {
	if got := Parse("").LineHeight(20); got != 24 {
		t.Errorf("normal line height = %v", got)
	}
	if got := Parse("line-height: 1.5").LineHeight(20); got != 30 {
		t.Errorf("unitless line height = %v", got)
	}
	if got := Parse("line-height: 18px").LineHeight(20); got != 18 {
		t.Errorf("px line height = %v", got)
	}
}

func TestBackgroundImageURL(t *testing.T) {
	st := Parse(`background: url("data:image/png;base64,AAAA")`)
	u, ok := st.BackgroundImage()
	if !ok || u != "data:image/png;base64,AAAA" {
		t.Errorf("url = %q, %v", u, ok)
	}
	if _, ok := st.BackgroundGradient(); ok {
		t.Error("url must not parse as gradient")
	}
}

func TestColorMixLinear(t *testing.T) {
	black := Color{A: 1}
	white := Color{R: 255, G: 255, B: 255, A: 0}

	if got := black.Mix(white, 0); got.R != 0 || got.A != 1 {
		t.Errorf("Mix(0) = %+v", got)
	}
	if got := black.Mix(white, 1); got.R != 255 || got.B != 255 || got.A != 0 {
		t.Errorf("Mix(1) = %+v", got)
	}
	// Halfway in linear light is brighter than the sRGB midpoint.
	mid := black.Mix(white, 0.5)
	if mid.R < 186 || mid.R > 189 || mid.R != mid.G || mid.G != mid.B {
		t.Errorf("Mix(0.5) = %+v, want about 188 grey", mid)
	}
	if mid.A != 0.5 {
		t.Errorf("Mix(0.5) alpha = %v", mid.A)
	}
}
