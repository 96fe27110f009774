// Package commands implements the scout CLI.
package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"dealerscout/internal/app"
	"dealerscout/internal/config"
	"dealerscout/internal/logger"
	"dealerscout/internal/output"
)

// cli carries per-invocation state shared by the subcommands.
type cli struct {
	v      *viper.Viper
	cfg    *config.Config
	format output.Format
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	c := &cli{v: config.New()}

	root := &cobra.Command{
		Use:   "scout",
		Short: "Find car dealerships near a ZIP code and collect their inventory",
		Long: `Scout searches the map for franchised car dealerships in a region,
scrapes the inventory pages of their websites and stores the listings
in a local sqlite database.

Examples:
  # Find dealerships near a ZIP code
  scout discover 10001

  # Scrape one dealer page and print the listings as YAML
  scout scrape https://dealer.example/inventory --format yaml

  # Discover, scrape and save a whole region
  scout refresh 10001`,
		SilenceUsage:      true,
		PersistentPreRunE: c.init,
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "config file (default ./dealerscout.yaml)")
	flags.String("db", "", "sqlite database path")
	flags.Bool("debug", false, "enable debug logging")
	flags.BoolP("quiet", "q", false, "only log errors")
	flags.Bool("log-json", false, "log as JSON")
	flags.StringP("format", "f", "json", "output format: json, yaml, table")

	_ = c.v.BindPFlag("database.path", flags.Lookup("db"))
	_ = c.v.BindPFlag("log.debug", flags.Lookup("debug"))
	_ = c.v.BindPFlag("log.json", flags.Lookup("log-json"))

	root.AddCommand(
		c.discoverCmd(),
		c.scrapeCmd(),
		c.urlsCmd(),
		c.refreshCmd(),
		c.carsCmd(),
		c.initDBCmd(),
		c.statusCmd(),
		c.importLegacyCmd(),
		c.backupCmd(),
	)
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

func (c *cli) init(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = os.Getenv("DEALERSCOUT_CONFIG")
	}

	cfg, err := config.Load(c.v, path)
	if err != nil {
		return err
	}
	c.cfg = cfg

	quiet, _ := cmd.Flags().GetBool("quiet")
	logger.Init(logger.Options{
		Debug:  cfg.Log.Debug,
		Quiet:  quiet,
		JSON:   cfg.Log.JSON,
		Output: cmd.ErrOrStderr(),
	})

	formatFlag, _ := cmd.Flags().GetString("format")
	c.format, err = output.ParseFormat(formatFlag)
	return err
}

// open wires the pipeline and a signal-aware context.
func (c *cli) open(cmd *cobra.Command) (*app.App, context.Context, func(), error) {
	a, err := app.New(c.cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	return a, ctx, func() {
		cancel()
		if err := a.Close(); err != nil {
			logger.WithError(err).Warn("failed to close database")
		}
	}, nil
}

func (c *cli) print(cmd *cobra.Command, v any) error {
	return output.Write(cmd.OutOrStdout(), c.format, v)
}

// info writes a human note to stderr so stdout stays machine-readable.
func info(cmd *cobra.Command, format string, args ...any) {
	if quiet, _ := cmd.Flags().GetBool("quiet"); quiet {
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(), format+"\n", args...)
}
