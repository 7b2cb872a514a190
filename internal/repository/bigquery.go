package repository

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"

	"school-scraper/internal/models"
)

// bqListing is the BigQuery row shape shared by the raw and enriched tables.
type bqListing struct {
	SchoolName       string               `bigquery:"school_name"`
	Address          bigquery.NullString  `bigquery:"address"`
	GSRating         bigquery.NullFloat64 `bigquery:"gs_rating"`
	AcademicProgress bigquery.NullFloat64 `bigquery:"academic_progress"`
	TestScores       bigquery.NullFloat64 `bigquery:"test_scores"`
	EquityScores     bigquery.NullFloat64 `bigquery:"equity_scores"`
	SchoolTypes      []string             `bigquery:"school_types"`
	StarRating       bigquery.NullFloat64 `bigquery:"star_rating"`
	ReviewLink       bigquery.NullString  `bigquery:"review_link"`
	SchoolLink       bigquery.NullString  `bigquery:"school_link"`
	City             string               `bigquery:"city"`
	BatchID          string               `bigquery:"batch_id"`
	ExtractedAt      time.Time            `bigquery:"extracted_at"`
}

type bqEnriched struct {
	bqListing
	IsPreK           bool                 `bigquery:"is_prek"`
	IsElementary     bool                 `bigquery:"is_elementary"`
	IsMiddle         bool                 `bigquery:"is_middle"`
	IsHigh           bool                 `bigquery:"is_high"`
	IsPrivate        bool                 `bigquery:"is_private"`
	IsPublicDistrict bool                 `bigquery:"is_public_district"`
	IsPublicCharter  bool                 `bigquery:"is_public_charter"`
	CompositeScore   bigquery.NullInt64   `bigquery:"composite_score"`
	ScoreCategory    string               `bigquery:"score_category"`
	Lat              bigquery.NullFloat64 `bigquery:"lat"`
	Lon              bigquery.NullFloat64 `bigquery:"lon"`
}

type bqReview struct {
	SchoolName string `bigquery:"school_name"`
	Address    string `bigquery:"address"`
	Review     string `bigquery:"review"`
}

func nullString(o models.Optional[string]) bigquery.NullString {
	v, ok := o.Get()
	return bigquery.NullString{StringVal: v, Valid: ok}
}

func nullFloat(o models.Optional[float64]) bigquery.NullFloat64 {
	v, ok := o.Get()
	return bigquery.NullFloat64{Float64: v, Valid: ok}
}

func optString(n bigquery.NullString) models.Optional[string] {
	if !n.Valid {
		return models.None[string]()
	}
	return models.Some(n.StringVal)
}

func optFloat(n bigquery.NullFloat64) models.Optional[float64] {
	if !n.Valid {
		return models.None[float64]()
	}
	return models.Some(n.Float64)
}

func toBQListing(l models.Listing) bqListing {
	return bqListing{
		SchoolName:       l.Name,
		Address:          nullString(l.Address),
		GSRating:         nullFloat(l.Rating),
		AcademicProgress: nullFloat(l.AcademicProgress),
		TestScores:       nullFloat(l.TestScores),
		EquityScores:     nullFloat(l.Equity),
		SchoolTypes:      l.Types,
		StarRating:       nullFloat(l.StarRating),
		ReviewLink:       nullString(l.ReviewURL),
		SchoolLink:       nullString(l.ListingURL),
		City:             l.City,
		BatchID:          l.Batch.ID,
		ExtractedAt:      l.ExtractedAt,
	}
}

func toBQEnriched(e models.EnrichedListing) bqEnriched {
	row := bqEnriched{
		bqListing:        toBQListing(e.Listing),
		IsPreK:           e.Grades.PreK,
		IsElementary:     e.Grades.Elementary,
		IsMiddle:         e.Grades.Middle,
		IsHigh:           e.Grades.High,
		IsPrivate:        e.SchoolTypes.Private,
		IsPublicDistrict: e.SchoolTypes.PublicDistrict,
		IsPublicCharter:  e.SchoolTypes.PublicCharter,
		ScoreCategory:    string(e.ScoreCategory),
	}
	if s, ok := e.CompositeScore.Get(); ok {
		row.CompositeScore = bigquery.NullInt64{Int64: int64(s), Valid: true}
	}
	if loc, ok := e.Location.Get(); ok {
		row.Lat = bigquery.NullFloat64{Float64: loc.Latitude, Valid: true}
		row.Lon = bigquery.NullFloat64{Float64: loc.Longitude, Valid: true}
	}
	return row
}

func (row bqEnriched) model() models.EnrichedListing {
	e := models.EnrichedListing{
		Listing: models.Listing{
			Name:             row.SchoolName,
			Address:          optString(row.Address),
			Rating:           optFloat(row.GSRating),
			AcademicProgress: optFloat(row.AcademicProgress),
			TestScores:       optFloat(row.TestScores),
			Equity:           optFloat(row.EquityScores),
			Types:            row.SchoolTypes,
			StarRating:       optFloat(row.StarRating),
			ReviewURL:        optString(row.ReviewLink),
			ListingURL:       optString(row.SchoolLink),
			City:             row.City,
			Batch:            models.Batch{ID: row.BatchID, ExtractedAt: row.ExtractedAt.UTC()},
		},
		Grades: models.GradeFlags{
			PreK: row.IsPreK, Elementary: row.IsElementary, Middle: row.IsMiddle, High: row.IsHigh,
		},
		SchoolTypes: models.TypeFlags{
			Private: row.IsPrivate, PublicDistrict: row.IsPublicDistrict, PublicCharter: row.IsPublicCharter,
		},
		ScoreCategory: models.ScoreCategory(row.ScoreCategory),
	}
	if row.CompositeScore.Valid {
		e.CompositeScore = models.Some(int(row.CompositeScore.Int64))
	}
	if row.Lat.Valid && row.Lon.Valid {
		e.Location = models.Some(models.Coordinates{Latitude: row.Lat.Float64, Longitude: row.Lon.Float64})
	}
	return e
}

// BigQueryRepository implements Warehouse with streaming inserts into one dataset.
type BigQueryRepository struct {
	client  *bigquery.Client
	dataset *bigquery.Dataset
	tables  Tables
}

func NewBigQueryRepository(ctx context.Context, project, dataset string, tables Tables) (*BigQueryRepository, error) {
	client, err := bigquery.NewClient(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to create bigquery client: %w", err)
	}
	return &BigQueryRepository{client: client, dataset: client.Dataset(dataset), tables: tables}, nil
}

func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound
}

func (r *BigQueryRepository) ensureTable(ctx context.Context, name string, row any) error {
	table := r.dataset.Table(name)
	_, err := table.Metadata(ctx)
	if err == nil {
		return nil
	}
	if !isNotFound(err) {
		return fmt.Errorf("repository: failed to inspect table %s: %w", name, err)
	}

	schema, err := bigquery.InferSchema(row)
	if err != nil {
		return fmt.Errorf("repository: failed to infer schema for %s: %w", name, err)
	}
	if err := table.Create(ctx, &bigquery.TableMetadata{Schema: schema}); err != nil {
		return fmt.Errorf("repository: failed to create table %s: %w", name, err)
	}
	return nil
}

func (r *BigQueryRepository) EnsureSchema(ctx context.Context) error {
	if err := r.ensureTable(ctx, r.tables.Raw, bqListing{}); err != nil {
		return err
	}
	if err := r.ensureTable(ctx, r.tables.Enriched, bqEnriched{}); err != nil {
		return err
	}
	return r.ensureTable(ctx, r.tables.Reviews, bqReview{})
}

func put[T any](ctx context.Context, r *BigQueryRepository, table string, rows []T) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if err := r.dataset.Table(table).Inserter().Put(ctx, rows); err != nil {
		return 0, fmt.Errorf("repository: failed to insert into %s: %w", table, err)
	}
	return int64(len(rows)), nil
}

func (r *BigQueryRepository) AppendListings(ctx context.Context, listings []models.Listing) (int64, error) {
	rows := make([]bqListing, len(listings))
	for i, l := range listings {
		rows[i] = toBQListing(l)
	}
	return put(ctx, r, r.tables.Raw, rows)
}

func (r *BigQueryRepository) AppendEnriched(ctx context.Context, enriched []models.EnrichedListing) (int64, error) {
	rows := make([]bqEnriched, len(enriched))
	for i, e := range enriched {
		rows[i] = toBQEnriched(e)
	}
	return put(ctx, r, r.tables.Enriched, rows)
}

func (r *BigQueryRepository) AppendReviews(ctx context.Context, reviews []models.Review) (int64, error) {
	rows := make([]bqReview, len(reviews))
	for i, rv := range reviews {
		rows[i] = bqReview{SchoolName: rv.SchoolName, Address: rv.Address, Review: rv.Body}
	}
	return put(ctx, r, r.tables.Reviews, rows)
}

func (r *BigQueryRepository) tableRef(name string) string {
	return fmt.Sprintf("`%s.%s.%s`", r.dataset.ProjectID, r.dataset.DatasetID, name)
}

func (r *BigQueryRepository) ListEnriched(ctx context.Context) ([]models.EnrichedListing, error) {
	table := r.tableRef(r.tables.Enriched)
	q := r.client.Query(fmt.Sprintf(`
		SELECT * FROM %s
		WHERE batch_id = (SELECT batch_id FROM %s ORDER BY extracted_at DESC LIMIT 1)
		ORDER BY city, school_name`, table, table))

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to execute schools query: %w", err)
	}

	var out []models.EnrichedListing
	for {
		var row bqEnriched
		err := it.Next(&row)
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("repository: error iterating rows: %w", err)
		}
		out = append(out, row.model())
	}
	return out, nil
}

func (r *BigQueryRepository) ListReviews(ctx context.Context, school, address string) ([]models.Review, error) {
	q := r.client.Query(fmt.Sprintf(`
		SELECT school_name, address, review FROM %s
		WHERE school_name = @school AND (@address = '' OR address = @address)`,
		r.tableRef(r.tables.Reviews)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "school", Value: school},
		{Name: "address", Value: address},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to execute reviews query: %w", err)
	}

	reviews := []models.Review{}
	for {
		var row bqReview
		err := it.Next(&row)
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("repository: error iterating rows: %w", err)
		}
		reviews = append(reviews, models.Review{SchoolName: row.SchoolName, Address: row.Address, Body: row.Review})
	}
	return reviews, nil
}

func (r *BigQueryRepository) CountBatch(ctx context.Context, batchID string) (int64, error) {
	q := r.client.Query(fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE batch_id = @batch", r.tableRef(r.tables.Enriched)))
	q.Parameters = []bigquery.QueryParameter{{Name: "batch", Value: batchID}}

	it, err := q.Read(ctx)
	if err != nil {
		return 0, fmt.Errorf("repository: failed to count records: %w", err)
	}
	var row []bigquery.Value
	if err := it.Next(&row); err != nil {
		return 0, fmt.Errorf("repository: failed to count records: %w", err)
	}
	count, _ := row[0].(int64)
	return count, nil
}

func (r *BigQueryRepository) Close() error {
	return r.client.Close()
}
