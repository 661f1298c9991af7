package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"wrapped/pkg/visualtest"
)

// newRenderCmd writes captures straight to a directory, named by card id,
// and can check them against reference images.
func newRenderCmd(c *cli) *cobra.Command {
	var (
		out       string
		check     string
		tolerance int
	)
	cmd := &cobra.Command{
		Use:   "render [card-id...]",
		Short: "Render cards to <out>/<id>.png, optionally checking against references",
		Example: `  # Refresh reference images
  wrapped render --out testdata/reference

  # Compare fresh renders against them
  wrapped render --out /tmp/cards --check testdata/reference`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			d, err := c.loadDeck()
			if err != nil {
				return err
			}
			all, err := d.Units()
			if err != nil {
				return err
			}
			units, err := selectUnits(all, args)
			if err != nil {
				return err
			}
			p, err := c.pipeline()
			if err != nil {
				return err
			}
			if err := os.MkdirAll(out, 0o755); err != nil {
				return err
			}

			opts := visualtest.DefaultOptions()
			opts.Tolerance = tolerance
			var mismatched int
			for _, u := range units {
				res, err := p.Export(ctx, u)
				if err != nil {
					return fmt.Errorf("render %s: %w", u.ID, err)
				}
				img, err := res.Image()
				if err != nil {
					return fmt.Errorf("decode %s: %w", u.ID, err)
				}
				path := filepath.Join(out, u.ID+".png")
				if err := visualtest.SavePNG(img, path); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ %s\n", path)

				if check == "" {
					continue
				}
				ref, err := visualtest.LoadPNG(filepath.Join(check, u.ID+".png"))
				if err != nil {
					return err
				}
				result, err := visualtest.Compare(img, ref, opts)
				if err != nil {
					return fmt.Errorf("compare %s: %w", u.ID, err)
				}
				if !result.Match {
					mismatched++
					c.log.Warn().Str("card", u.ID).
						Int("different", result.DifferentPixels).
						Float64("percent", result.Percent()).
						Msg("render differs from reference")
				}
			}
			if mismatched > 0 {
				return fmt.Errorf("%d cards differ from %s", mismatched, check)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "cards", "directory to write PNGs to")
	cmd.Flags().StringVar(&check, "check", "", "directory of reference PNGs to compare against")
	cmd.Flags().IntVar(&tolerance, "tolerance", visualtest.DefaultOptions().Tolerance, "per-channel colour tolerance for --check")
	return cmd
}
