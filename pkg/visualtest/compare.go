// Package visualtest compares rendered captures pixel by pixel.
package visualtest

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
)

// Result contains the results of an image comparison
type Result struct {
	Match           bool
	DifferentPixels int
	TotalPixels     int
	MaxDifference   int // Max color channel difference found
	Diff            *image.RGBA
}

// Percent is the share of differing pixels, 0-100.
func (r *Result) Percent() float64 {
	if r.TotalPixels == 0 {
		return 0
	}
	return float64(r.DifferentPixels) / float64(r.TotalPixels) * 100
}

// Options configures the image comparison
type Options struct {
	// Tolerance: maximum allowed difference per color channel (0-255)
	Tolerance int

	// FuzzyRadius: if > 0, a pixel matches if it matches any pixel within this radius.
	// Text antialiasing shifts by a pixel between runs on some platforms.
	FuzzyRadius int

	// MaxDifferentPercent: if > 0, pass if the percentage of different pixels is <= this value
	MaxDifferentPercent float64

	// WithDiff builds a diff image: differences in red, the rest in grayscale.
	WithDiff bool
}

// DefaultOptions tolerates small antialiasing differences.
func DefaultOptions() Options {
	return Options{Tolerance: 2}
}

// Compare compares two images pixel-by-pixel. Images of different bounds
// never match and return an error.
func Compare(actual, expected image.Image, opts Options) (*Result, error) {
	ab, eb := actual.Bounds(), expected.Bounds()
	if ab.Size() != eb.Size() {
		return &Result{}, fmt.Errorf("image dimensions differ: actual=%v, expected=%v", ab.Size(), eb.Size())
	}

	result := &Result{
		Match:       true,
		TotalPixels: ab.Dx() * ab.Dy(),
	}
	if opts.WithDiff {
		result.Diff = image.NewRGBA(image.Rect(0, 0, ab.Dx(), ab.Dy()))
	}

	for y := 0; y < ab.Dy(); y++ {
		for x := 0; x < ab.Dx(); x++ {
			a := actual.At(ab.Min.X+x, ab.Min.Y+y)
			diff := channelDiff(a, expected.At(eb.Min.X+x, eb.Min.Y+y))
			result.MaxDifference = max(result.MaxDifference, diff)

			matched := diff <= opts.Tolerance
			if !matched && opts.FuzzyRadius > 0 {
				matched = fuzzyMatch(a, expected, eb.Min.X+x, eb.Min.Y+y, opts.FuzzyRadius, opts.Tolerance)
			}
			if !matched {
				result.Match = false
				result.DifferentPixels++
			}
			if result.Diff != nil {
				if matched {
					g := color.GrayModel.Convert(a).(color.Gray).Y
					result.Diff.Set(x, y, color.RGBA{g, g, g, 255})
				} else {
					result.Diff.Set(x, y, color.RGBA{255, 0, 0, 255})
				}
			}
		}
	}

	if !result.Match && opts.MaxDifferentPercent > 0 && result.Percent() <= opts.MaxDifferentPercent {
		result.Match = true
	}
	return result, nil
}

// CompareFiles decodes two PNG files and compares them.
func CompareFiles(actualPath, expectedPath string, opts Options) (*Result, error) {
	actual, err := LoadPNG(actualPath)
	if err != nil {
		return nil, fmt.Errorf("actual image: %w", err)
	}
	expected, err := LoadPNG(expectedPath)
	if err != nil {
		return nil, fmt.Errorf("expected image: %w", err)
	}
	return Compare(actual, expected, opts)
}

// fuzzyMatch checks if the actual pixel matches any expected pixel within radius of (x, y).
func fuzzyMatch(actual color.Color, expected image.Image, x, y, radius, tolerance int) bool {
	bounds := expected.Bounds()
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			p := image.Pt(x+dx, y+dy)
			if !p.In(bounds) {
				continue
			}
			if channelDiff(actual, expected.At(p.X, p.Y)) <= tolerance {
				return true
			}
		}
	}
	return false
}

// channelDiff is the largest 8-bit channel difference between a and b.
func channelDiff(a, b color.Color) int {
	ar, ag, ab, aa := a.RGBA()
	br, bg, bb, ba := b.RGBA()
	return max(
		absInt(int(ar>>8)-int(br>>8)),
		absInt(int(ag>>8)-int(bg>>8)),
		absInt(int(ab>>8)-int(bb>>8)),
		absInt(int(aa>>8)-int(ba>>8)),
	)
}

// Near reports whether two colours differ by at most tolerance per channel.
func Near(a, b color.Color, tolerance int) bool {
	return channelDiff(a, b) <= tolerance
}

// LoadPNG decodes a PNG file.
func LoadPNG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return png.Decode(f)
}

// SavePNG saves an image as PNG
func SavePNG(img image.Image, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return png.Encode(file, img)
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
