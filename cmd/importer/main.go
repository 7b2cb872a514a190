package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"school-scraper/internal/config"
	"school-scraper/internal/logger"
	"school-scraper/internal/models"
	"school-scraper/internal/repository"
	"school-scraper/internal/storage"
)

var (
	file      string
	configDir string
)

var rootCmd = &cobra.Command{
	Use:           "importer --file <location>",
	Short:         "Loads an enriched schools CSV into the Postgres warehouse.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(configDir)
		if err != nil {
			return fmt.Errorf("cannot load config: %w", err)
		}
		logger.Setup(cfg.Log)
		return importFile(cmd.Context(), cfg, file)
	},
}

func init() {
	rootCmd.Flags().StringVar(&file, "file", "", "Path or s3:// location of the enriched CSV to import")
	rootCmd.Flags().StringVar(&configDir, "config", "./configs", "Directory holding app.yaml")
	rootCmd.MarkFlagRequired("file")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("import failed")
	}
}

func importFile(ctx context.Context, cfg config.Config, location string) error {
	log.Info().Str("file", location).Msg("starting import")

	data, err := storage.Read(ctx, location, storage.Options{Region: cfg.Storage.Region, Endpoint: cfg.Storage.Endpoint})
	if err != nil {
		return err
	}
	rows, err := storage.DecodeEnriched(data)
	if err != nil {
		return err
	}
	log.Info().Int("records", len(rows)).Msg("parsed records")

	cfg.Warehouse.Driver = "postgres"
	w, err := repository.Open(ctx, cfg.Warehouse)
	if err != nil {
		return err
	}
	defer w.Close()

	if _, err := w.AppendEnriched(ctx, rows); err != nil {
		return err
	}

	if err := verifyImport(ctx, w, rows); err != nil {
		return err
	}

	log.Info().Int("records", len(rows)).Msg("successfully imported")
	return nil
}

// verifyImport checks that every batch in the file is fully present. A batch imported
// twice is reported as a mismatch.
func verifyImport(ctx context.Context, w repository.Warehouse, rows []models.EnrichedListing) error {
	expected := map[string]int64{}
	for _, r := range rows {
		expected[r.Batch.ID]++
	}
	batches := make([]string, 0, len(expected))
	for id := range expected {
		batches = append(batches, id)
	}
	sort.Strings(batches)

	for _, id := range batches {
		count, err := w.CountBatch(ctx, id)
		if err != nil {
			return err
		}
		if count != expected[id] {
			return fmt.Errorf("record count mismatch for batch %q: expected %d, got %d", id, expected[id], count)
		}
	}
	return nil
}
