package commands

import (
	"context"
	"fmt"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"school-scraper/internal/crawler"
	"school-scraper/internal/models"
	"school-scraper/internal/repository"
	"school-scraper/internal/storage"
)

var crawlFlags struct {
	cities    []string
	out       string
	warehouse bool
}

func init() {
	crawlCmd.Flags().StringSliceVar(&crawlFlags.cities, "city", nil, "City to crawl, repeatable. Defaults to the configured cities.")
	crawlCmd.Flags().StringVar(&crawlFlags.out, "out", "out/raw_school_info.csv", "Where to write the raw listings CSV.")
	crawlCmd.Flags().BoolVar(&crawlFlags.warehouse, "warehouse", false, "Also append the listings to the warehouse.")
	rootCmd.AddCommand(crawlCmd)
}

func crawlListings(ctx context.Context, cities []string, batch models.Batch) ([]models.Listing, error) {
	if len(cities) == 0 {
		cities = cfg.Crawler.Cities
	}
	if len(cities) == 0 {
		return nil, fmt.Errorf("no cities to crawl")
	}

	sc := crawler.NewSiteCrawler(newLauncher(), crawler.Options{
		BaseURL:  cfg.Crawler.BaseURL,
		State:    cfg.Crawler.State,
		Grades:   crawler.GradesFromMap(cfg.Crawler.Grades),
		Workers:  cfg.Crawler.Workers,
		Timeout:  cfg.Crawler.Timeout,
		MaxPages: cfg.Crawler.MaxPages,
	})

	log.Info().Strs("cities", cities).Str("batch_id", batch.ID).Msg("crawling listings")
	return sc.CrawlCities(ctx, cities, batch)
}

func printCitySummary(listings []models.Listing) {
	byCity := map[string]int{}
	for _, l := range listings {
		byCity[l.City]++
	}
	cities := make([]string, 0, len(byCity))
	for c := range byCity {
		cities = append(cities, c)
	}
	sort.Strings(cities)

	t := newTable()
	t.AppendHeader(table.Row{"City", "Listings"})
	for _, c := range cities {
		t.AppendRow(table.Row{c, byCity[c]})
	}
	t.AppendFooter(table.Row{"Total", len(listings)})
	t.Render()
}

var crawlCmd = &cobra.Command{
	Use:   "crawl [--city <name>]... [--out <location>] [--warehouse]",
	Short: "Crawls search results for each city and grade level into a raw listings CSV.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		batch := newBatch()

		listings, err := crawlListings(ctx, crawlFlags.cities, batch)
		if err != nil {
			return err
		}

		data, err := storage.EncodeListings(listings)
		if err != nil {
			return err
		}
		if err := writeCSV(ctx, crawlFlags.out, data, len(listings)); err != nil {
			return err
		}

		if crawlFlags.warehouse {
			err := withWarehouse(ctx, func(w repository.Warehouse) error {
				n, err := w.AppendListings(ctx, listings)
				logAppend("raw listings", n, err)
				return nil
			})
			if err != nil {
				return err
			}
		}

		printCitySummary(listings)
		return nil
	},
}
