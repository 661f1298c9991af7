package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"wrapped/pkg/deck"
	"wrapped/pkg/deliver"
	"wrapped/pkg/export"
	"wrapped/pkg/images"
	"wrapped/pkg/render"
	"wrapped/pkg/resource"
	"wrapped/pkg/stage"
	"wrapped/pkg/style"
	"wrapped/pkg/text"
)

func (c *cli) loadDeck() (*deck.Deck, error) {
	if c.cfg.DataDir == "" {
		return deck.Default()
	}
	return deck.Open(c.cfg.DataDir)
}

// selectUnits returns the units named by ids in deck order, or all of them
// when ids is empty.
func selectUnits(units []export.Unit, ids []string) ([]export.Unit, error) {
	if len(ids) == 0 {
		return units, nil
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []export.Unit
	for _, u := range units {
		if want[u.ID] {
			out = append(out, u)
			delete(want, u.ID)
		}
	}
	if len(want) > 0 {
		missing := make([]string, 0, len(want))
		for id := range want {
			missing = append(missing, id)
		}
		sort.Strings(missing)
		return nil, fmt.Errorf("unknown card: %s", strings.Join(missing, ", "))
	}
	return out, nil
}

// fontConfig picks a regular and a bold face from the TrueType files in dir.
// Files with "bold" in their name are bold candidates.
func fontConfig(dir string) (text.FontConfig, error) {
	fc := text.DefaultFontConfig()
	if dir == "" {
		return fc, nil
	}
	matches, err := filepath.Glob(filepath.Join(dir, "*.ttf"))
	if err != nil {
		return fc, err
	}
	sort.Strings(matches)
	for _, m := range matches {
		bold := strings.Contains(strings.ToLower(filepath.Base(m)), "bold")
		switch {
		case bold && fc.Bold == "":
			fc.Bold = m
		case !bold && fc.Regular == "":
			fc.Regular = m
		}
	}
	if fc.Regular == "" {
		return fc, fmt.Errorf("no regular .ttf font in %s", dir)
	}
	return fc, nil
}

func (c *cli) settler() export.Settler {
	if c.cfg.Settle == "probe" {
		return export.StabilityProbe{
			Interval: c.cfg.ProbeInterval,
			Frames:   c.cfg.ProbeFrames,
			Timeout:  c.cfg.ProbeTimeout,
		}
	}
	return export.FixedDelay(c.cfg.SettleDelay)
}

func (c *cli) pipeline() (*export.Pipeline, error) {
	fc, err := fontConfig(c.cfg.FontDir)
	if err != nil {
		return nil, fmt.Errorf("fonts: %w", err)
	}
	faces, err := text.NewFaces(fc)
	if err != nil {
		return nil, err
	}
	bg, ok := style.ParseColor(c.cfg.Background)
	if !ok {
		return nil, fmt.Errorf("background: invalid colour %q", c.cfg.Background)
	}
	base := c.cfg.DataDir
	if base == "" {
		if base, err = os.Getwd(); err != nil {
			return nil, err
		}
	}
	rast, err := render.NewRasterizer(
		render.WithScale(c.cfg.Scale),
		render.WithBackground(bg),
		render.WithFaces(faces),
		render.WithImages(images.NewLoader(resource.NewFetcher(base))),
		render.WithLogger(c.log),
	)
	if err != nil {
		return nil, err
	}

	doc := stage.NewDocument(c.cfg.Width, c.cfg.Height, c.log)
	return export.NewPipeline(doc, rast,
		export.WithSettler(c.settler()),
		export.WithSize(c.cfg.Width, c.cfg.Height),
		export.WithLogger(c.log),
	), nil
}

// deliverer saves to the downloads directory and falls back to presenter,
// or to the browser page when presenter is nil.
func (c *cli) deliverer(presenter deliver.Presenter) *deliver.Deliverer {
	if presenter == nil && c.cfg.Fallback == "browser" {
		presenter = deliver.BrowserPresenter{}
	}
	return deliver.New(deliver.DirSaver{Dir: c.cfg.DownloadsDir}, presenter,
		deliver.WithRevokeGrace(c.cfg.RevokeGrace),
		deliver.WithLogger(c.log),
	)
}

func (c *cli) batchOptions() []export.BatchOption {
	return []export.BatchOption{
		export.WithCooldown(c.cfg.Cooldown),
		export.WithStagger(c.cfg.Stagger),
		export.WithBatchLogger(c.log),
	}
}
