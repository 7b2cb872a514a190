package commands

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"school-scraper/internal/config"
	"school-scraper/internal/crawler"
	"school-scraper/internal/logger"
	"school-scraper/internal/models"
	"school-scraper/internal/repository"
	"school-scraper/internal/storage"
)

var (
	configDir string
	cfg       config.Config
)

var rootCmd = &cobra.Command{
	Use:           "scraper",
	Short:         "scraper crawls school listings, scores them and loads them into the warehouse.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadConfig(configDir)
		if err != nil {
			return err
		}
		logger.Setup(cfg.Log)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "./configs", "Directory holding app.yaml.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}

func newBatch() models.Batch {
	return models.Batch{ID: uuid.NewString(), ExtractedAt: time.Now().UTC()}
}

func newLauncher() *crawler.ChromeLauncher {
	return &crawler.ChromeLauncher{
		Headless:        cfg.Crawler.Headless,
		UserAgent:       cfg.Crawler.UserAgent,
		NavigateTimeout: cfg.Crawler.Timeout,
		Settle:          cfg.Crawler.PageSettle,
	}
}

func storageOptions() storage.Options {
	return storage.Options{Region: cfg.Storage.Region, Endpoint: cfg.Storage.Endpoint}
}

// withWarehouse opens the configured warehouse for the duration of fn.
func withWarehouse(ctx context.Context, fn func(repository.Warehouse) error) error {
	w, err := repository.Open(ctx, cfg.Warehouse)
	if err != nil {
		return err
	}
	defer w.Close()
	return fn(w)
}

// logAppend reports a warehouse append. Failures are logged, not returned, so
// the remaining stages of a batch still run.
func logAppend(table string, rows int64, err error) {
	if err != nil {
		log.Error().Err(err).Str("table", table).Msg("warehouse append failed, continuing")
		return
	}
	log.Info().Str("table", table).Int64("rows", rows).Msg("appended rows")
}

func writeCSV(ctx context.Context, out string, data []byte, rows int) error {
	if err := storage.Write(ctx, out, data, storageOptions()); err != nil {
		return err
	}
	log.Info().Str("location", out).Int("rows", rows).Msg("wrote csv")
	return nil
}
