// Command wrapped renders the recap story cards and exports them as PNGs.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"wrapped/pkg/config"
	"wrapped/pkg/logging"
)

var version = "dev"

type cli struct {
	cfg     config.Config
	cfgPath string
	log     zerolog.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	c := &cli{cfg: config.DefaultConfig(), log: zerolog.Nop()}

	root := &cobra.Command{
		Use:   "wrapped",
		Short: "Render and export recap story cards",
		Long: `wrapped renders each recap card at story size (1080x1920 by default),
captures it as a PNG and saves it to your downloads directory.

Configuration is read from ~/.wrapped/config.toml when present. Command line
flags override the file.`,
		Example: `  # List the cards in the embedded deck
  wrapped list

  # Export every card
  wrapped export

  # Export two cards from a custom deck
  wrapped export hero personality --data ./my-deck

  # Open the desktop app and reload when the deck changes
  wrapped show --data ./my-deck --watch`,
		Version:           version,
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&c.cfgPath, "config", "", "path to config file (default: ~/.wrapped/config.toml)")
	config.BindFlags(pf, &c.cfg)

	root.AddCommand(
		newListCmd(c),
		newExportCmd(c),
		newRenderCmd(c),
		newShowCmd(c),
	)
	return root
}

// setup merges the config file under the flags and builds the logger.
func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	path := c.cfgPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	if path != "" && (c.cfgPath != "" || config.FileExists(path)) {
		fc, err := config.LoadFileConfig(path)
		if err != nil {
			return fmt.Errorf("load config %s: %w", path, err)
		}
		if err := config.ApplyFileConfig(&c.cfg, fc, config.Changed(cmd.Flags())); err != nil {
			return fmt.Errorf("config %s: %w", path, err)
		}
	}
	if err := c.cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	level, err := logging.ParseLevel(c.cfg.LogLevel)
	if err != nil {
		return err
	}
	c.log = logging.Stderr(level)
	return nil
}
