package commands

import (
	"github.com/spf13/cobra"

	"dealerscout/internal/validation"
)

func (c *cli) discoverCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "discover <zip>",
		Short: "Search the map for dealerships near a ZIP code or city",
		Long: `Discover opens a browser, searches the map for car dealerships in the
region and stores every result whose name contains a configured brand.

Regions that already have stored dealerships are skipped unless --force
is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			zip, err := validation.ValidateLocation(args[0])
			if err != nil {
				return err
			}
			force, _ := cmd.Flags().GetBool("force")

			a, ctx, done, err := c.open(cmd)
			if err != nil {
				return err
			}
			defer done()

			result, err := a.Service.RunDiscovery(ctx, zip, force)
			if err != nil {
				return err
			}
			if result.Skipped {
				info(cmd, "%d dealerships already stored for %s (use --force to search again)", result.Existing, zip)
			}
			return c.print(cmd, result)
		},
	}
	cmd.Flags().Bool("force", false, "search even if dealerships are already stored")
	return cmd
}

func (c *cli) urlsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "urls <zip>",
		Short: "List stored dealership websites for a region",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			zip, err := validation.ValidateLocation(args[0])
			if err != nil {
				return err
			}

			a, ctx, done, err := c.open(cmd)
			if err != nil {
				return err
			}
			defer done()

			urls, err := a.Service.ListDealershipURLs(ctx, zip)
			if err != nil {
				return err
			}
			return c.print(cmd, urls)
		},
	}
}

func (c *cli) refreshCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "refresh <zip>",
		Short: "Discover if needed, then scrape and save every dealer in a region",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			zip, err := validation.ValidateLocation(args[0])
			if err != nil {
				return err
			}
			force, _ := cmd.Flags().GetBool("force")

			a, ctx, done, err := c.open(cmd)
			if err != nil {
				return err
			}
			defer done()

			summary, err := a.Service.RefreshRegion(ctx, zip, force)
			if err != nil {
				return err
			}
			if summary.Cached {
				info(cmd, "%s was refreshed recently (use --force to scrape again)", zip)
			}
			return c.print(cmd, summary)
		},
	}
	cmd.Flags().Bool("force", false, "ignore the freshness cache")
	return cmd
}
