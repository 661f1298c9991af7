package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"wrapped/pkg/export"
)

func newListCmd(c *cli) *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the cards in the deck",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := c.loadDeck()
			if err != nil {
				return err
			}
			units, err := d.Units()
			if err != nil {
				return err
			}
			if category != "" {
				units = export.GroupByCategory(units)[export.Category(category)]
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCATEGORY\tTITLE")
			for _, u := range units {
				fmt.Fprintf(w, "%s\t%s\t%s\n", u.ID, u.Category, u.Title)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "only list cards in this category (vibes, messages, personality)")
	return cmd
}
