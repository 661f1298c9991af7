package visualtest

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestCompare_Identical(t *testing.T) {
	img := solid(10, 10, color.RGBA{255, 0, 0, 255})

	result, err := Compare(img, img, DefaultOptions())
	if err != nil {
		t.Fatalf("comparison failed: %v", err)
	}
	if !result.Match {
		t.Errorf("expected images to match")
	}
	if result.DifferentPixels != 0 {
		t.Errorf("expected 0 different pixels, got %d", result.DifferentPixels)
	}
}

func TestCompare_Different(t *testing.T) {
	opts := DefaultOptions()
	opts.WithDiff = true

	result, err := Compare(solid(10, 10, color.RGBA{255, 0, 0, 255}), solid(10, 10, color.RGBA{0, 0, 255, 255}), opts)
	if err != nil {
		t.Fatalf("comparison failed: %v", err)
	}
	if result.Match {
		t.Errorf("expected images to not match")
	}
	if result.DifferentPixels != 100 {
		t.Errorf("expected 100 different pixels, got %d", result.DifferentPixels)
	}
	if result.MaxDifference != 255 {
		t.Errorf("expected max difference 255, got %d", result.MaxDifference)
	}
	if got := result.Diff.RGBAAt(3, 3); got != (color.RGBA{255, 0, 0, 255}) {
		t.Errorf("diff pixel = %v, want red", got)
	}
}

func TestCompare_WithTolerance(t *testing.T) {
	a := solid(10, 10, color.RGBA{100, 100, 100, 255})
	b := solid(10, 10, color.RGBA{102, 102, 102, 255})

	opts := DefaultOptions()
	opts.Tolerance = 2
	result, err := Compare(a, b, opts)
	if err != nil {
		t.Fatalf("comparison failed: %v", err)
	}
	if !result.Match {
		t.Errorf("expected images to match with tolerance=2")
	}

	opts.Tolerance = 0
	result, err = Compare(a, b, opts)
	if err != nil {
		t.Fatalf("comparison failed: %v", err)
	}
	if result.Match {
		t.Errorf("expected images to not match with tolerance=0")
	}
}

func TestCompare_FuzzyAndPercent(t *testing.T) {
	a := solid(10, 10, color.White)
	b := solid(10, 10, color.White)
	a.Set(4, 4, color.Black)
	b.Set(5, 4, color.Black)

	result, err := Compare(a, b, Options{})
	if err != nil {
		t.Fatalf("comparison failed: %v", err)
	}
	if result.Match || result.DifferentPixels != 2 {
		t.Fatalf("exact compare: match=%v different=%d, want false/2", result.Match, result.DifferentPixels)
	}

	result, _ = Compare(a, b, Options{FuzzyRadius: 1})
	if !result.Match {
		t.Errorf("expected a one pixel shift to match with FuzzyRadius=1")
	}

	result, _ = Compare(a, b, Options{MaxDifferentPercent: 2})
	if !result.Match {
		t.Errorf("expected 2%% different pixels to pass, got %.2f%%", result.Percent())
	}
}

func TestCompare_DifferentDimensions(t *testing.T) {
	result, err := Compare(image.NewRGBA(image.Rect(0, 0, 10, 10)), image.NewRGBA(image.Rect(0, 0, 20, 20)), DefaultOptions())
	if err == nil {
		t.Errorf("expected error for different dimensions")
	}
	if result != nil && result.Match {
		t.Errorf("expected images with different dimensions to not match")
	}
}

func TestCompare_OffsetBounds(t *testing.T) {
	a := solid(4, 4, color.White)
	b := a.SubImage(image.Rect(0, 0, 4, 4))
	shifted := image.NewRGBA(image.Rect(10, 10, 14, 14))
	for y := 10; y < 14; y++ {
		for x := 10; x < 14; x++ {
			shifted.Set(x, y, color.White)
		}
	}
	result, err := Compare(shifted, b, Options{})
	if err != nil {
		t.Fatalf("comparison failed: %v", err)
	}
	if !result.Match {
		t.Errorf("expected images with the same size but different origins to match")
	}
}

func TestCompareFiles(t *testing.T) {
	tmpDir := t.TempDir()
	path1 := filepath.Join(tmpDir, "img1.png")
	path2 := filepath.Join(tmpDir, "img2.png")
	if err := SavePNG(solid(6, 6, color.White), path1); err != nil {
		t.Fatal(err)
	}
	if err := SavePNG(solid(6, 6, color.White), path2); err != nil {
		t.Fatal(err)
	}

	result, err := CompareFiles(path1, path2, DefaultOptions())
	if err != nil {
		t.Fatalf("comparison failed: %v", err)
	}
	if !result.Match {
		t.Errorf("expected files to match")
	}

	if _, err := CompareFiles(path1, filepath.Join(tmpDir, "missing.png"), DefaultOptions()); err == nil {
		t.Errorf("expected error for a missing file")
	}
	if _, err := os.Stat(path1); err != nil {
		t.Errorf("compare must not remove inputs: %v", err)
	}
}

func TestNear(t *testing.T) {
	if !Near(color.RGBA{10, 10, 15, 255}, color.RGBA{11, 10, 15, 255}, 1) {
		t.Errorf("expected colours one step apart to be near")
	}
	if Near(color.RGBA{10, 10, 15, 255}, color.RGBA{20, 10, 15, 255}, 2) {
		t.Errorf("expected colours ten steps apart not to be near")
	}
}
