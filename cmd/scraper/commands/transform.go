package commands

import (
	"context"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"school-scraper/internal/geocoder"
	"school-scraper/internal/models"
	"school-scraper/internal/repository"
	"school-scraper/internal/service"
	"school-scraper/internal/storage"
)

var transformFlags struct {
	in        string
	out       string
	warehouse bool
}

func init() {
	transformCmd.Flags().StringVar(&transformFlags.in, "in", "", "Raw listings CSV to enrich.")
	transformCmd.Flags().StringVar(&transformFlags.out, "out", "out/stg_all_schools.csv", "Where to write the enriched CSV.")
	transformCmd.Flags().BoolVar(&transformFlags.warehouse, "warehouse", false, "Also append the enriched rows to the warehouse.")
	transformCmd.MarkFlagRequired("in")
	rootCmd.AddCommand(transformCmd)
}

func newGeoCodeService() *service.GeoCodeService {
	client := geocoder.NewClient(geocoder.Options{
		BaseURL:    cfg.Geocoder.BaseURL,
		UserAgent:  cfg.Geocoder.UserAgent,
		Email:      cfg.Geocoder.Email,
		Timeout:    cfg.Geocoder.Timeout,
		MinDelay:   cfg.Geocoder.MinDelay,
		MaxRetries: cfg.Geocoder.MaxRetries,
		ErrorWait:  cfg.Geocoder.ErrorWait,
	})
	return service.NewGeoCodeService(client, cfg.Geocoder.CacheSize)
}

func transformListings(ctx context.Context, listings []models.Listing) []models.EnrichedListing {
	return service.NewTransformService(newGeoCodeService()).Transform(ctx, listings)
}

func printCategorySummary(rows []models.EnrichedListing) {
	kpis := service.ComputeKPIs(rows)
	located := 0
	for _, r := range rows {
		if r.Location.Valid() {
			located++
		}
	}

	t := newTable()
	t.AppendHeader(table.Row{"Category", "Schools"})
	for _, c := range []models.ScoreCategory{
		models.CategoryAboveAverage,
		models.CategoryAverage,
		models.CategoryBelowAverage,
		models.CategoryUnavailable,
	} {
		t.AppendRow(table.Row{c, kpis.CategoryCounts[string(c)]})
	}
	t.AppendSeparator()
	t.AppendRow(table.Row{"Geocoded", located})
	t.AppendFooter(table.Row{"Total", len(rows)})
	t.Render()
}

var transformCmd = &cobra.Command{
	Use:   "transform --in <location> [--out <location>] [--warehouse]",
	Short: "Deduplicates, scores and geocodes a raw listings CSV.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		data, err := storage.Read(ctx, transformFlags.in, storageOptions())
		if err != nil {
			return err
		}
		listings, err := storage.DecodeListings(data)
		if err != nil {
			return err
		}

		enriched := transformListings(ctx, listings)

		out, err := storage.EncodeEnriched(enriched)
		if err != nil {
			return err
		}
		if err := writeCSV(ctx, transformFlags.out, out, len(enriched)); err != nil {
			return err
		}

		if transformFlags.warehouse {
			err := withWarehouse(ctx, func(w repository.Warehouse) error {
				n, err := w.AppendEnriched(ctx, enriched)
				logAppend("enriched listings", n, err)
				return nil
			})
			if err != nil {
				return err
			}
		}

		printCategorySummary(enriched)
		return nil
	},
}
