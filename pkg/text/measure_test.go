package text

import (
	"math"
	"strings"
	"testing"
)

func newFaces(t *testing.T) *Faces {
	t.Helper()
	f, err := NewFaces(DefaultFontConfig())
	if err != nil {
		t.Fatalf("NewFaces: %v", err)
	}
	return f
}

func TestMeasureTextScalesWithSize(t *testing.T) {
	f := newFaces(t)
	w1, h1 := f.MeasureText("Inner Circle", 20, false)
	w2, h2 := f.MeasureText("Inner Circle", 40, false)
	if w1 <= 0 || h1 <= 0 {
		t.Fatalf("expected positive metrics, got %v x %v", w1, h1)
	}
	if w2 < w1*1.8 || w2 > w1*2.2 {
		t.Errorf("doubling size should roughly double width: %v vs %v", w1, w2)
	}
	if h2 <= h1 {
		t.Errorf("height should grow with size: %v vs %v", h1, h2)
	}
}

func TestBoldIsWider(t *testing.T) {
	f := newFaces(t)
	regular, _ := f.MeasureText("Made You Go WHOA", 32, false)
	bold, _ := f.MeasureText("Made You Go WHOA", 32, true)
	if bold <= regular {
		t.Errorf("bold width %v should exceed regular %v", bold, regular)
	}
}

func TestFaceCached(t *testing.T) {
	f := newFaces(t)
	a, err := f.Face(24, true)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := f.Face(24, true)
	if a != b {
		t.Error("expected cached face")
	}
}

func TestMissingFontFileFallsBackToEstimate(t *testing.T) {
	f, err := NewFaces(FontConfig{Regular: "/nonexistent/font.ttf"})
	if err != nil {
		t.Fatal(err)
	}
	w, h := f.MeasureText("abcd", 10, false)
	if math.Abs(w-24) > 1e-9 || math.Abs(h-12) > 1e-9 {
		t.Errorf("estimate = %v x %v", w, h)
	}
}

func TestBreakTextIntoLines(t *testing.T) {
	f := newFaces(t)
	text := "you sent more messages this year than most people send in a lifetime"
	lines := f.BreakTextIntoLines(text, 20, false, 200)
	if len(lines) < 2 {
		t.Fatalf("expected wrapping, got %v", lines)
	}
	if got := strings.Join(lines, " "); got != text {
		t.Errorf("words lost in wrapping: %q", got)
	}
	for _, line := range lines {
		w, _ := f.MeasureText(line, 20, false)
		if w > 200 && strings.Contains(line, " ") {
			t.Errorf("line %q is %v wide", line, w)
		}
	}
}

func TestBreakTextFitsOnOneLine(t *testing.T) {
	f := newFaces(t)
	lines := f.BreakTextIntoLines("  Emoji   Vibe ", 20, false, 1000)
	if len(lines) != 1 || lines[0] != "Emoji Vibe" {
		t.Errorf("got %q", lines)
	}
	if lines := f.BreakTextIntoLines("   ", 20, false, 1000); lines != nil {
		t.Errorf("expected nil for blank text, got %q", lines)
	}
}
