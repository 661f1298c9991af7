package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"wrapped/pkg/export"
)

func newExportCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "export [card-id...]",
		Short: "Render cards and save them to the downloads directory",
		Long: `Export renders the named cards, or every card when none are named, one
at a time. Once all renders finish the PNGs are saved to the downloads
directory. A save that fails falls back to a page showing the image.`,
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
			sink := c.deliverer(nil)
			defer sink.Wait()

			batch := export.NewBatch(units, p, sink, c.batchOptions()...)
			batch.OnChange(func() {
				pr := batch.Progress()
				if batch.Running() {
					c.log.Info().Int("done", pr.Attempted).Int("total", pr.Total).Int("percent", pr.Percent()).Msg("rendering")
				}
			})
			batch.ExportAll(ctx)
			if err := ctx.Err(); err != nil {
				return err
			}

			var failed int
			for _, st := range batch.States() {
				if st.Phase == export.PhaseFailed {
					failed++
					c.log.Error().Err(st.Err).Str("card", st.Unit.ID).Msg("render failed")
				}
			}

			n, done := batch.DeliverAll()
			<-done
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d of %d cards to %s\n", n, len(units), c.cfg.DownloadsDir)
			if failed > 0 {
				return fmt.Errorf("%d cards failed to render", failed)
			}
			return nil
		},
	}
}
