package card

import (
	"html/template"
	"strconv"
	"unicode/utf8"
)

// DefaultFuncs are available to every card template.
//
//	comma     1234567 -> "1,234,567"
//	truncate  shortens to n runes with a trailing ellipsis
//	ratio     a/b*scale, 0 when b is 0 (bar widths)
//	css       marks a trusted value as safe inside style attributes
//	inc       i+1 (ranks)
func DefaultFuncs() template.FuncMap {
	return template.FuncMap{
		"comma":    Comma,
		"truncate": Truncate,
		"ratio":    Ratio,
		"css":      func(s string) template.CSS { return template.CSS(s) },
		"inc":      func(i int) int { return i + 1 },
	}
}

// Comma formats n with thousands separators.
func Comma(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := false
	if n < 0 {
		neg = true
		s = s[1:]
	}
	out := make([]byte, 0, len(s)+len(s)/3)
	for i := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, s[i])
	}
	if neg {
		return "-" + string(out)
	}
	return string(out)
}

// Truncate shortens s to at most n runes, ending with an ellipsis when cut.
func Truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}

// Ratio returns a/b scaled, or 0 when b is 0.
func Ratio(a, b int64, scale float64) float64 {
	if b == 0 {
		return 0
	}
	return float64(a) / float64(b) * scale
}
