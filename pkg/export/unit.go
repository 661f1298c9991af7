// Package export turns story cards into fixed-size images: one card at a
// time through Controller, or a whole deck through Batch.
package export

import (
	"errors"
	"regexp"
	"strings"

	"wrapped/pkg/card"
)

// Canonical story size in logical pixels.
const (
	StoryWidth  = 1080
	StoryHeight = 1920
)

var (
	ErrUnknownUnit  = errors.New("unknown unit")
	ErrNotReady     = errors.New("no preview to download")
	ErrNotCompleted = errors.New("unit has no completed capture")
)

// Category groups units in the UI. The pipeline never looks at it.
type Category string

const (
	CategoryVibes       Category = "vibes"
	CategoryMessages    Category = "messages"
	CategoryPersonality Category = "personality"
)

// Categories lists the categories in display order.
var Categories = []Category{CategoryVibes, CategoryMessages, CategoryPersonality}

// Label is the heading shown for the category.
func (c Category) Label() string {
	switch c {
	case CategoryVibes:
		return "✨ Vibes"
	case CategoryMessages:
		return "💌 Messages"
	case CategoryPersonality:
		return "🔮 Personality"
	default:
		return string(c)
	}
}

// Unit is one exportable card.
type Unit struct {
	ID       string
	Title    string
	Category Category
	Payload  card.Renderable
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Filename derives the download name for a title: lowercased, every run of
// characters outside [a-z0-9] collapsed to one hyphen, namespaced and
// suffixed. Leading and trailing hyphens are kept.
func Filename(title string) string {
	return "wrapped-" + nonAlnum.ReplaceAllString(strings.ToLower(title), "-") + ".png"
}

// GroupByCategory splits units by category, preserving order.
func GroupByCategory(units []Unit) map[Category][]Unit {
	out := make(map[Category][]Unit)
	for _, u := range units {
		out[u.Category] = append(out[u.Category], u)
	}
	return out
}
