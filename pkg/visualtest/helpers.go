package visualtest

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"wrapped/pkg/card"
	"wrapped/pkg/render"
	"wrapped/pkg/stage"
)

// Render mounts payload on a fresh stage of width x height and rasterizes it
// right away. The stage is released before returning.
func Render(ctx context.Context, payload card.Renderable, width, height int, opts ...render.Option) (image.Image, error) {
	r, err := render.NewRasterizer(opts...)
	if err != nil {
		return nil, err
	}
	doc := stage.NewDocument(width, height, zerolog.Nop())

	var res render.CaptureResult
	err = doc.With(ctx, width, height, func(s *stage.Stage) error {
		if err := payload.Mount(ctx, s); err != nil {
			return err
		}
		res, err = r.Capture(ctx, s)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res.Image()
}

// RenderMarkup renders card markup without template data.
func RenderMarkup(ctx context.Context, src string, width, height int, opts ...render.Option) (image.Image, error) {
	tmpl, err := card.NewTemplate("visualtest", src, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	return Render(ctx, tmpl, width, height, opts...)
}

// RenderMarkupToFile renders card markup to a PNG file, creating its directory.
func RenderMarkupToFile(ctx context.Context, src, outputPath string, width, height int, opts ...render.Option) error {
	img, err := RenderMarkup(ctx, src, width, height, opts...)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := SavePNG(img, outputPath); err != nil {
		return fmt.Errorf("save error: %w", err)
	}
	return nil
}
