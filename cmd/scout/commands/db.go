package commands

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"dealerscout/internal/output"
	"dealerscout/internal/validation"
)

func (c *cli) initDBCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-db",
		Short: "Create the database and its schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, done, err := c.open(cmd)
			if err != nil {
				return err
			}
			defer done()

			info(cmd, "database ready at %s", c.cfg.Database.Path)
			return nil
		},
	}
}

func (c *cli) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show stored dealership and car counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, ctx, done, err := c.open(cmd)
			if err != nil {
				return err
			}
			defer done()

			stats, err := a.DB.Stats(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if c.format != output.FormatTable {
				return c.print(cmd, stats)
			}
			fmt.Fprintf(out, "Database:     %s (schema v%s)\n", c.cfg.Database.Path, stats.SchemaVersion)
			fmt.Fprintf(out, "Dealerships:  %s in %s regions\n",
				humanize.Comma(int64(stats.Dealerships)), humanize.Comma(int64(stats.Regions)))
			fmt.Fprintf(out, "Cars:         %s\n", humanize.Comma(int64(stats.Cars)))
			if stats.LastCarAt != nil {
				fmt.Fprintf(out, "Last scraped: %s\n", humanize.Time(*stats.LastCarAt))
			}
			return nil
		},
	}
}

func (c *cli) importLegacyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import-legacy <path>",
		Short: "Copy dealerships from an older database into a region",
		Long: `Import-legacy reads the dealerships table of an older database file,
which has no zip code column, and stores its rows under --zip. The
import runs once; later calls do nothing.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			zipFlag, _ := cmd.Flags().GetString("zip")
			zip, err := validation.ValidateLocation(zipFlag)
			if err != nil {
				return err
			}

			a, ctx, done, err := c.open(cmd)
			if err != nil {
				return err
			}
			defer done()

			write, err := a.DB.ImportLegacyDealerships(ctx, args[0], zip)
			if err != nil {
				return err
			}
			return c.print(cmd, write)
		},
	}
	cmd.Flags().String("zip", "", "region to file the imported dealerships under (required)")
	_ = cmd.MarkFlagRequired("zip")
	return cmd
}

func (c *cli) backupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Write a consistent copy of the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")
			if dir == "" {
				dir = filepath.Dir(c.cfg.Database.Path)
			}

			a, ctx, done, err := c.open(cmd)
			if err != nil {
				return err
			}
			defer done()

			start := time.Now()
			path, err := a.DB.Backup(ctx, dir)
			if err != nil {
				return err
			}
			info(cmd, "backup written in %s", time.Since(start).Round(time.Millisecond))
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().String("dir", "", "backup directory (default: next to the database)")
	return cmd
}
