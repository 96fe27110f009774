package commands

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"dealerscout/internal/models"
	"dealerscout/internal/validation"
)

func (c *cli) scrapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape <url>",
		Short: "Extract car listings from one dealer page",
		Long: `Scrape fetches a dealer inventory page and prints every listing that
carries a year, a price and a mileage. A page that cannot be fetched
yields an empty list.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dealerURL, err := validation.ValidateDealerURL(args[0])
			if err != nil {
				return err
			}
			save, _ := cmd.Flags().GetBool("save")

			a, ctx, done, err := c.open(cmd)
			if err != nil {
				return err
			}
			defer done()

			cars := a.Service.ScrapeInventory(ctx, dealerURL)
			info(cmd, "found %d listings on %s", len(cars), dealerURL)

			if save {
				write, err := a.Service.SaveCars(ctx, cars)
				if err != nil {
					return err
				}
				info(cmd, "saved %d cars (%d failed)", write.Inserted, write.Failed)
			}
			return c.print(cmd, cars)
		},
	}
	cmd.Flags().Bool("save", false, "store the listings")
	return cmd
}

func (c *cli) carsCmd() *cobra.Command {
	var filter models.CarFilter
	cmd := &cobra.Command{
		Use:   "cars",
		Short: "Browse stored cars",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if filter.MinYear > 0 && filter.MaxYear > 0 && filter.MinYear > filter.MaxYear {
				return fmt.Errorf("--min-year must not exceed --max-year")
			}

			a, ctx, done, err := c.open(cmd)
			if err != nil {
				return err
			}
			defer done()

			cars, err := a.Service.Cars(ctx, filter)
			if err != nil {
				return err
			}
			info(cmd, "%s cars", humanize.Comma(int64(len(cars))))
			return c.print(cmd, cars)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&filter.Location, "location", "", "source dealer URL")
	flags.StringVar(&filter.Make, "make", "", "make (case-insensitive)")
	flags.IntVar(&filter.MinYear, "min-year", 0, "minimum model year")
	flags.IntVar(&filter.MaxYear, "max-year", 0, "maximum model year")
	flags.IntVar(&filter.Limit, "limit", 100, "maximum results")
	return cmd
}
