package commands

import (
	"context"
	"path"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"school-scraper/internal/crawler"
	"school-scraper/internal/models"
	"school-scraper/internal/repository"
	"school-scraper/internal/storage"
)

var runFlags struct {
	cities  []string
	outDir  string
	reviews bool
}

func init() {
	runCmd.Flags().StringSliceVar(&runFlags.cities, "city", nil, "City to crawl, repeatable. Defaults to the configured cities.")
	runCmd.Flags().StringVar(&runFlags.outDir, "out-dir", "", "Also write the batch's CSVs under this location.")
	runCmd.Flags().BoolVar(&runFlags.reviews, "reviews", false, "Also collect reviews for the crawled listings.")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run [--city <name>]... [--out-dir <location>] [--reviews]",
	Short: "Crawls, transforms and loads one batch into the warehouse.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		batch := newBatch()

		loader := batchLoader{
			crawl: func(ctx context.Context) ([]models.Listing, error) {
				return crawlListings(ctx, runFlags.cities, batch)
			},
			transform: transformListings,
		}
		if runFlags.reviews {
			rc := crawler.NewReviewCrawler(newLauncher(), crawler.ReviewOptions{
				Workers:  cfg.Crawler.Workers,
				Timeout:  cfg.Crawler.Timeout,
				MaxPages: cfg.Crawler.MaxPages,
			})
			loader.reviews = rc.CrawlAll
		}
		if runFlags.outDir != "" {
			loader.write = func(listings []models.Listing, enriched []models.EnrichedListing, reviews []models.Review) error {
				return writeBatch(cmd, batch, listings, enriched, reviews)
			}
		}

		// A warehouse that cannot be opened aborts the run before any crawling.
		return withWarehouse(ctx, func(w repository.Warehouse) error {
			res, err := loader.load(ctx, w, batch)
			if err != nil {
				return err
			}
			printCitySummary(res.listings)
			printCategorySummary(res.enriched)
			return nil
		})
	},
}

// batchLoader runs the stages of one batch against a warehouse. A nil reviews
// or write stage is skipped.
type batchLoader struct {
	crawl     func(ctx context.Context) ([]models.Listing, error)
	transform func(ctx context.Context, listings []models.Listing) []models.EnrichedListing
	reviews   func(ctx context.Context, listings []models.Listing) ([]models.Review, error)
	write     func(listings []models.Listing, enriched []models.EnrichedListing, reviews []models.Review) error
}

type batchResult struct {
	listings []models.Listing
	enriched []models.EnrichedListing
	reviews  []models.Review
	stored   int64
}

// load returns an error only when a crawl cannot start or the CSVs cannot be
// written. Warehouse failures are logged and the batch carries on.
func (b batchLoader) load(ctx context.Context, w repository.Warehouse, batch models.Batch) (batchResult, error) {
	var res batchResult
	var err error

	if res.listings, err = b.crawl(ctx); err != nil {
		return res, err
	}
	n, err := w.AppendListings(ctx, res.listings)
	logAppend("raw listings", n, err)

	res.enriched = b.transform(ctx, res.listings)
	n, err = w.AppendEnriched(ctx, res.enriched)
	logAppend("enriched listings", n, err)

	if b.reviews != nil {
		if res.reviews, err = b.reviews(ctx, res.listings); err != nil {
			return res, err
		}
		n, err = w.AppendReviews(ctx, res.reviews)
		logAppend("reviews", n, err)
	}

	if b.write != nil {
		if err := b.write(res.listings, res.enriched, res.reviews); err != nil {
			return res, err
		}
	}

	res.stored, err = w.CountBatch(ctx, batch.ID)
	if err != nil {
		log.Error().Err(err).Str("batch_id", batch.ID).Msg("cannot count stored batch rows")
		return res, nil
	}
	log.Info().Str("batch_id", batch.ID).Int64("stored", res.stored).Msg("batch loaded")
	return res, nil
}

func writeBatch(cmd *cobra.Command, batch models.Batch, listings []models.Listing, enriched []models.EnrichedListing, reviews []models.Review) error {
	ctx := cmd.Context()
	prefix := path.Join(runFlags.outDir, batch.ID)
	if loc, err := storage.ParseLocation(runFlags.outDir); err == nil && loc.IsS3() {
		prefix = "s3://" + path.Join(loc.Bucket, loc.Key, batch.ID)
	}

	raw, err := storage.EncodeListings(listings)
	if err != nil {
		return err
	}
	if err := writeCSV(ctx, prefix+"/raw_school_info.csv", raw, len(listings)); err != nil {
		return err
	}

	stg, err := storage.EncodeEnriched(enriched)
	if err != nil {
		return err
	}
	if err := writeCSV(ctx, prefix+"/stg_all_schools.csv", stg, len(enriched)); err != nil {
		return err
	}

	if reviews == nil {
		return nil
	}
	rv, err := storage.EncodeReviews(reviews)
	if err != nil {
		return err
	}
	return writeCSV(ctx, prefix+"/school_reviews.csv", rv, len(reviews))
}
