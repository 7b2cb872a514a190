package commands

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"school-scraper/internal/crawler"
	"school-scraper/internal/repository"
	"school-scraper/internal/storage"
)

var reviewsFlags struct {
	in        string
	out       string
	warehouse bool
}

func init() {
	reviewsCmd.Flags().StringVar(&reviewsFlags.in, "in", "", "Raw listings CSV to read review links from.")
	reviewsCmd.Flags().StringVar(&reviewsFlags.out, "out", "out/school_reviews.csv", "Where to write the reviews CSV.")
	reviewsCmd.Flags().BoolVar(&reviewsFlags.warehouse, "warehouse", false, "Also append the reviews to the warehouse.")
	reviewsCmd.MarkFlagRequired("in")
	rootCmd.AddCommand(reviewsCmd)
}

var reviewsCmd = &cobra.Command{
	Use:   "reviews --in <location> [--out <location>] [--warehouse]",
	Short: "Collects the review texts of every listing in a raw listings CSV.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		data, err := storage.Read(ctx, reviewsFlags.in, storageOptions())
		if err != nil {
			return err
		}
		listings, err := storage.DecodeListings(data)
		if err != nil {
			return err
		}

		rc := crawler.NewReviewCrawler(newLauncher(), crawler.ReviewOptions{
			Workers:  cfg.Crawler.Workers,
			Timeout:  cfg.Crawler.Timeout,
			MaxPages: cfg.Crawler.MaxPages,
		})
		reviews, err := rc.CrawlAll(ctx, listings)
		if err != nil {
			return err
		}

		out, err := storage.EncodeReviews(reviews)
		if err != nil {
			return err
		}
		if err := writeCSV(ctx, reviewsFlags.out, out, len(reviews)); err != nil {
			return err
		}

		if reviewsFlags.warehouse {
			err := withWarehouse(ctx, func(w repository.Warehouse) error {
				n, err := w.AppendReviews(ctx, reviews)
				logAppend("reviews", n, err)
				return nil
			})
			if err != nil {
				return err
			}
		}

		schools := map[string]struct{}{}
		for _, r := range reviews {
			schools[r.SchoolName+"\x00"+r.Address] = struct{}{}
		}
		t := newTable()
		t.AppendHeader(table.Row{"Listings", "Schools with reviews", "Reviews"})
		t.AppendRow(table.Row{len(listings), len(schools), len(reviews)})
		t.Render()
		return nil
	},
}
