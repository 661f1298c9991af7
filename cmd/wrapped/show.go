package main

import (
	"context"
	"errors"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"github.com/spf13/cobra"

	"wrapped/pkg/deck"
	"wrapped/pkg/deliver"
	"wrapped/pkg/ui"
)

// appID keys fyne preferences and storage for the desktop app.
const appID = "io.github.wrapped.stories"

func newShowCmd(c *cli) *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Open the desktop app to preview and export cards",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if watch && c.cfg.DataDir == "" {
				return errors.New("--watch needs --data")
			}
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			d, err := c.loadDeck()
			if err != nil {
				return err
			}
			units, err := d.Units()
			if err != nil {
				return err
			}
			p, err := c.pipeline()
			if err != nil {
				return err
			}

			a := app.NewWithID(appID)
			var presenter deliver.Presenter
			if c.cfg.Fallback == "browser" {
				presenter = ui.WindowPresenter{App: a}
			}
			sink := c.deliverer(presenter)
			defer sink.Wait()

			gui := ui.New(ctx, a, p, sink, units, c.log, c.batchOptions()...)

			var wg sync.WaitGroup
			if watch {
				wg.Add(1)
				go func() {
					defer wg.Done()
					err := deck.Watch(ctx, c.cfg.DataDir, c.log, func(d *deck.Deck) {
						units, err := d.Units()
						if err != nil {
							c.log.Warn().Err(err).Msg("deck reload skipped")
							return
						}
						fyne.Do(func() { gui.SetUnits(units) })
					})
					if err != nil {
						c.log.Error().Err(err).Msg("deck watcher stopped")
					}
				}()
			}
			closed := make(chan struct{})
			go func() {
				select {
				case <-cmd.Context().Done():
					fyne.Do(a.Quit)
				case <-closed:
				}
			}()

			gui.ShowAndRun()
			close(closed)
			cancel()
			wg.Wait()
			return nil
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", false, "reload the deck when files in --data change")
	return cmd
}
