package style

import (
	"math"
	"strconv"
	"strings"
)

type GradientType int

const (
	GradientLinear GradientType = iota
	GradientRadial
)

// ColorStop represents a color and its position in a gradient
type ColorStop struct {
	Color  Color
	Offset float64 // 0.0 to 1.0
}

// Gradient is a parsed linear-gradient() or radial-gradient() value.
type Gradient struct {
	Type  GradientType
	Angle float64 // degrees, CSS convention: 0 = to top, 90 = to right
	Stops []ColorStop
}

// ParseGradient parses linear-gradient(...) and radial-gradient(...).
// Example: "linear-gradient(180deg, #0f0f1a 0%, #1a1a2e 30%, #16213e 70%)"
func ParseGradient(value string) (*Gradient, bool) {
	value = strings.TrimSpace(value)
	var grad Gradient
	var content string
	switch {
	case strings.HasPrefix(value, "linear-gradient(") && strings.HasSuffix(value, ")"):
		grad.Type = GradientLinear
		grad.Angle = 180
		content = value[len("linear-gradient(") : len(value)-1]
	case strings.HasPrefix(value, "radial-gradient(") && strings.HasSuffix(value, ")"):
		grad.Type = GradientRadial
		content = value[len("radial-gradient(") : len(value)-1]
	default:
		return nil, false
	}

	parts := splitTopLevel(content, ',')
	if len(parts) < 2 {
		return nil, false
	}

	first := strings.TrimSpace(parts[0])
	if grad.Type == GradientLinear {
		if angle, ok := parseDirection(first); ok {
			grad.Angle = angle
			parts = parts[1:]
		}
	} else if first == "circle" || first == "ellipse" || strings.HasPrefix(first, "circle ") || strings.HasPrefix(first, "ellipse ") {
		parts = parts[1:]
	}

	for _, part := range parts {
		stop, ok := parseColorStop(strings.TrimSpace(part))
		if !ok {
			return nil, false
		}
		grad.Stops = append(grad.Stops, stop)
	}
	if len(grad.Stops) < 2 {
		return nil, false
	}
	distributeOffsets(grad.Stops)
	return &grad, true
}

func parseDirection(s string) (float64, bool) {
	if strings.HasSuffix(s, "deg") {
		n, err := strconv.ParseFloat(strings.TrimSuffix(s, "deg"), 64)
		return n, err == nil
	}
	switch s {
	case "to top":
		return 0, true
	case "to right":
		return 90, true
	case "to bottom":
		return 180, true
	case "to left":
		return 270, true
	case "to bottom right", "to right bottom":
		return 135, true
	case "to top right", "to right top":
		return 45, true
	case "to bottom left", "to left bottom":
		return 225, true
	case "to top left", "to left top":
		return 315, true
	}
	return 0, false
}

// parseColorStop parses "rgba(1,2,3,0.5) 40%"; offset -1 means unset.
func parseColorStop(s string) (ColorStop, bool) {
	fields := splitTopLevel(s, ' ')
	var parts []string
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			parts = append(parts, f)
		}
	}
	if len(parts) == 0 {
		return ColorStop{}, false
	}
	c, ok := ParseColor(parts[0])
	if !ok {
		return ColorStop{}, false
	}
	stop := ColorStop{Color: c, Offset: -1}
	if len(parts) > 1 {
		if strings.HasSuffix(parts[1], "%") {
			n, err := strconv.ParseFloat(strings.TrimSuffix(parts[1], "%"), 64)
			if err != nil {
				return ColorStop{}, false
			}
			stop.Offset = clamp(n/100, 0, 1)
		}
	}
	return stop, true
}

// distributeOffsets fills unset offsets: first 0, last 1, others spread
// evenly between their positioned neighbours.
func distributeOffsets(stops []ColorStop) {
	if stops[0].Offset < 0 {
		stops[0].Offset = 0
	}
	if last := len(stops) - 1; stops[last].Offset < 0 {
		stops[last].Offset = 1
	}
	for i := 1; i < len(stops); i++ {
		if stops[i].Offset >= 0 {
			continue
		}
		j := i
		for stops[j].Offset < 0 {
			j++
		}
		prev, next := stops[i-1].Offset, stops[j].Offset
		span := j - i + 1
		for k := i; k < j; k++ {
			stops[k].Offset = prev + (next-prev)*float64(k-i+1)/float64(span)
		}
		i = j
	}
}

// Line returns the gradient line endpoints for a w x h box at (x, y),
// following CSS: the line passes through the centre and is long enough
// that the corners get the first and last stop colors.
func (g *Gradient) Line(x, y, w, h float64) (x0, y0, x1, y1 float64) {
	rad := g.Angle * math.Pi / 180
	dx, dy := math.Sin(rad), -math.Cos(rad)
	half := (math.Abs(w*dx) + math.Abs(h*dy)) / 2
	cx, cy := x+w/2, y+h/2
	return cx - dx*half, cy - dy*half, cx + dx*half, cy + dy*half
}

// At samples the gradient color at offset t in [0,1].
func (g *Gradient) At(t float64) Color {
	if t <= g.Stops[0].Offset {
		return g.Stops[0].Color
	}
	for i := 1; i < len(g.Stops); i++ {
		a, b := g.Stops[i-1], g.Stops[i]
		if t <= b.Offset {
			if b.Offset == a.Offset {
				return b.Color
			}
			return a.Color.Mix(b.Color, (t-a.Offset)/(b.Offset-a.Offset))
		}
	}
	return g.Stops[len(g.Stops)-1].Color
}
