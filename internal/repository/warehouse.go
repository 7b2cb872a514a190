package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"school-scraper/internal/config"
	"school-scraper/internal/models"
)

// Warehouse is an append-only destination for one batch's records.
type Warehouse interface {
	EnsureSchema(ctx context.Context) error
	AppendListings(ctx context.Context, listings []models.Listing) (int64, error)
	AppendEnriched(ctx context.Context, rows []models.EnrichedListing) (int64, error)
	AppendReviews(ctx context.Context, reviews []models.Review) (int64, error)
	ListEnriched(ctx context.Context) ([]models.EnrichedListing, error)
	ListReviews(ctx context.Context, school, address string) ([]models.Review, error)
	CountBatch(ctx context.Context, batchID string) (int64, error)
	Close() error
}

// Tables names the warehouse tables.
type Tables struct {
	Raw      string
	Enriched string
	Reviews  string
}

func TablesFrom(cfg config.Warehouse) Tables {
	return Tables{Raw: cfg.RawTable, Enriched: cfg.EnrichedTable, Reviews: cfg.ReviewsTable}
}

// Open connects to the configured warehouse and makes sure its tables exist.
func Open(ctx context.Context, cfg config.Warehouse) (Warehouse, error) {
	var (
		w   Warehouse
		err error
	)
	switch cfg.Driver {
	case "postgres", "":
		var pool *pgxpool.Pool
		pool, err = pgxpool.New(ctx, cfg.DBSource)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to connect to postgres: %w", err)
		}
		if err = pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("repository: failed to reach postgres: %w", err)
		}
		w = NewPostgresRepository(pool, TablesFrom(cfg))
	case "bigquery":
		w, err = NewBigQueryRepository(ctx, cfg.BigQueryProject, cfg.BigQueryDataset, TablesFrom(cfg))
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("repository: unknown warehouse driver %q", cfg.Driver)
	}

	if err := w.EnsureSchema(ctx); err != nil {
		w.Close()
		return nil, err
	}
	return w, nil
}
