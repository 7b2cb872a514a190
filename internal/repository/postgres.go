package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"school-scraper/internal/models"
)

var rawColumns = []string{
	"school_name", "address", "gs_rating", "academic_progress", "test_scores", "equity_scores",
	"school_types", "star_rating", "review_link", "school_link", "city", "batch_id", "extracted_at",
}

var enrichedColumns = append(append([]string{}, rawColumns...),
	"is_prek", "is_elementary", "is_middle", "is_high",
	"is_private", "is_public_district", "is_public_charter",
	"composite_score", "score_category", "lat", "lon",
)

var reviewColumns = []string{"school_name", "address", "review"}

const rawColumnsDDL = `
	school_name TEXT NOT NULL,
	address TEXT,
	gs_rating DOUBLE PRECISION,
	academic_progress DOUBLE PRECISION,
	test_scores DOUBLE PRECISION,
	equity_scores DOUBLE PRECISION,
	school_types TEXT[] NOT NULL DEFAULT '{}',
	star_rating DOUBLE PRECISION,
	review_link TEXT,
	school_link TEXT,
	city TEXT NOT NULL,
	batch_id TEXT NOT NULL,
	extracted_at TIMESTAMPTZ NOT NULL`

// PostgresRepository implements Warehouse for PostgreSQL
type PostgresRepository struct {
	db     *pgxpool.Pool
	tables Tables
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(db *pgxpool.Pool, tables Tables) *PostgresRepository {
	return &PostgresRepository{db: db, tables: tables}
}

func ident(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

// EnsureSchema creates the warehouse tables if they do not exist yet.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	sql := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %[1]s (%[4]s
	);
	CREATE TABLE IF NOT EXISTS %[2]s (%[4]s,
		is_prek BOOLEAN NOT NULL,
		is_elementary BOOLEAN NOT NULL,
		is_middle BOOLEAN NOT NULL,
		is_high BOOLEAN NOT NULL,
		is_private BOOLEAN NOT NULL,
		is_public_district BOOLEAN NOT NULL,
		is_public_charter BOOLEAN NOT NULL,
		composite_score INTEGER,
		score_category TEXT NOT NULL,
		lat DOUBLE PRECISION,
		lon DOUBLE PRECISION
	);
	CREATE INDEX IF NOT EXISTS %[5]s ON %[2]s (batch_id, extracted_at);
	CREATE TABLE IF NOT EXISTS %[3]s (
		school_name TEXT NOT NULL,
		address TEXT NOT NULL,
		review TEXT NOT NULL
	);
	`, ident(r.tables.Raw), ident(r.tables.Enriched), ident(r.tables.Reviews), rawColumnsDDL,
		ident(r.tables.Enriched+"_batch_idx"))

	if _, err := r.db.Exec(ctx, sql); err != nil {
		return fmt.Errorf("repository: failed to create schema: %w", err)
	}
	return nil
}

func rawValues(l models.Listing) []any {
	types := l.Types
	if types == nil {
		types = []string{}
	}
	return []any{
		l.Name, l.Address.Ptr(), l.Rating.Ptr(), l.AcademicProgress.Ptr(), l.TestScores.Ptr(),
		l.Equity.Ptr(), types, l.StarRating.Ptr(), l.ReviewURL.Ptr(), l.ListingURL.Ptr(),
		l.City, l.Batch.ID, l.ExtractedAt,
	}
}

func enrichedValues(e models.EnrichedListing) []any {
	var lat, lon *float64
	if loc, ok := e.Location.Get(); ok {
		lat, lon = &loc.Latitude, &loc.Longitude
	}
	return append(rawValues(e.Listing),
		e.Grades.PreK, e.Grades.Elementary, e.Grades.Middle, e.Grades.High,
		e.SchoolTypes.Private, e.SchoolTypes.PublicDistrict, e.SchoolTypes.PublicCharter,
		e.CompositeScore.Ptr(), string(e.ScoreCategory), lat, lon,
	)
}

func (r *PostgresRepository) copyRows(ctx context.Context, table string, columns []string, n int, row func(i int) []any) (int64, error) {
	if n == 0 {
		return 0, nil
	}
	count, err := r.db.CopyFrom(ctx, pgx.Identifier{table}, columns,
		pgx.CopyFromSlice(n, func(i int) ([]any, error) {
			return row(i), nil
		}),
	)
	if err != nil {
		return count, fmt.Errorf("repository: failed to copy into %s: %w", table, err)
	}
	return count, nil
}

// AppendListings bulk-loads raw listings.
func (r *PostgresRepository) AppendListings(ctx context.Context, listings []models.Listing) (int64, error) {
	return r.copyRows(ctx, r.tables.Raw, rawColumns, len(listings), func(i int) []any {
		return rawValues(listings[i])
	})
}

// AppendEnriched bulk-loads enriched listings.
func (r *PostgresRepository) AppendEnriched(ctx context.Context, rows []models.EnrichedListing) (int64, error) {
	return r.copyRows(ctx, r.tables.Enriched, enrichedColumns, len(rows), func(i int) []any {
		return enrichedValues(rows[i])
	})
}

// AppendReviews bulk-loads review bodies.
func (r *PostgresRepository) AppendReviews(ctx context.Context, reviews []models.Review) (int64, error) {
	return r.copyRows(ctx, r.tables.Reviews, reviewColumns, len(reviews), func(i int) []any {
		rv := reviews[i]
		return []any{rv.SchoolName, rv.Address, rv.Body}
	})
}

// ListEnriched returns every enriched listing of the most recent batch.
func (r *PostgresRepository) ListEnriched(ctx context.Context) ([]models.EnrichedListing, error) {
	table := ident(r.tables.Enriched)
	sql := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE batch_id = (SELECT batch_id FROM %s ORDER BY extracted_at DESC LIMIT 1)
		ORDER BY city, school_name
	`, columnList(enrichedColumns), table, table)

	rows, err := r.db.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to execute schools query: %w", err)
	}
	defer rows.Close()

	var out []models.EnrichedListing
	for rows.Next() {
		e, err := scanEnriched(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan school: %w", err)
		}
		out = append(out, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating rows: %w", err)
	}

	return out, nil
}

func columnList(columns []string) string {
	list := ""
	for i, c := range columns {
		if i > 0 {
			list += ", "
		}
		list += ident(c)
	}
	return list
}

func scanEnriched(rows pgx.Rows) (models.EnrichedListing, error) {
	var (
		e                                           models.EnrichedListing
		address, reviewURL, listingURL              *string
		rating, progress, testScores, equity, stars *float64
		score                                       *int
		category                                    string
		lat, lon                                    *float64
		extractedAt                                 time.Time
	)
	err := rows.Scan(
		&e.Name, &address, &rating, &progress, &testScores, &equity,
		&e.Types, &stars, &reviewURL, &listingURL, &e.City, &e.Batch.ID, &extractedAt,
		&e.Grades.PreK, &e.Grades.Elementary, &e.Grades.Middle, &e.Grades.High,
		&e.SchoolTypes.Private, &e.SchoolTypes.PublicDistrict, &e.SchoolTypes.PublicCharter,
		&score, &category, &lat, &lon,
	)
	if err != nil {
		return e, err
	}

	e.Address = models.FromPtr(address)
	e.Rating = models.FromPtr(rating)
	e.AcademicProgress = models.FromPtr(progress)
	e.TestScores = models.FromPtr(testScores)
	e.Equity = models.FromPtr(equity)
	e.StarRating = models.FromPtr(stars)
	e.ReviewURL = models.FromPtr(reviewURL)
	e.ListingURL = models.FromPtr(listingURL)
	e.ExtractedAt = extractedAt.UTC()
	e.CompositeScore = models.FromPtr(score)
	e.ScoreCategory = models.ScoreCategory(category)
	if lat != nil && lon != nil {
		e.Location = models.Some(models.Coordinates{Latitude: *lat, Longitude: *lon})
	}
	return e, nil
}

// ListReviews returns the stored reviews of one school. An empty address matches any address.
func (r *PostgresRepository) ListReviews(ctx context.Context, school, address string) ([]models.Review, error) {
	sql := fmt.Sprintf(`
		SELECT school_name, address, review
		FROM %s
		WHERE school_name = $1 AND ($2 = '' OR address = $2)
	`, ident(r.tables.Reviews))

	rows, err := r.db.Query(ctx, sql, school, address)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to execute reviews query: %w", err)
	}
	defer rows.Close()

	reviews := []models.Review{}
	for rows.Next() {
		var rv models.Review
		if err := rows.Scan(&rv.SchoolName, &rv.Address, &rv.Body); err != nil {
			return nil, fmt.Errorf("repository: failed to scan review: %w", err)
		}
		reviews = append(reviews, rv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating rows: %w", err)
	}

	return reviews, nil
}

// CountBatch counts the enriched rows stored for one batch.
func (r *PostgresRepository) CountBatch(ctx context.Context, batchID string) (int64, error) {
	sql := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE batch_id = $1", ident(r.tables.Enriched))

	var count int64
	if err := r.db.QueryRow(ctx, sql, batchID).Scan(&count); err != nil {
		return 0, fmt.Errorf("repository: failed to count records: %w", err)
	}
	return count, nil
}

func (r *PostgresRepository) Close() error {
	r.db.Close()
	return nil
}
