package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	"school-scraper/internal/models"
)

// RawRow is one line of a raw listings CSV. Unavailable values are empty cells.
type RawRow struct {
	SchoolName       string `csv:"school_name"`
	Address          string `csv:"address"`
	GSRating         string `csv:"gs_rating"`
	AcademicProgress string `csv:"academic_progress"`
	TestScores       string `csv:"test_scores"`
	EquityScores     string `csv:"equity_scores"`
	SchoolTypes      string `csv:"school_types"`
	StarRating       string `csv:"star_rating"`
	ReviewLink       string `csv:"review_link"`
	SchoolLink       string `csv:"school_link"`
	City             string `csv:"city"`
	BatchID          string `csv:"batch_id"`
	ExtractedAt      string `csv:"extracted_at"`
}

// EnrichedRow is one line of an enriched listings CSV.
type EnrichedRow struct {
	RawRow
	IsPreK           string `csv:"is_prek"`
	IsElementary     string `csv:"is_elementary"`
	IsMiddle         string `csv:"is_middle"`
	IsHigh           string `csv:"is_high"`
	IsPrivate        string `csv:"is_private"`
	IsPublicDistrict string `csv:"is_public_district"`
	IsPublicCharter  string `csv:"is_public_charter"`
	CompositeScore   string `csv:"composite_score"`
	ScoreCategory    string `csv:"score_category"`
	Lat              string `csv:"lat"`
	Lon              string `csv:"lon"`
}

type ReviewRow struct {
	SchoolName string `csv:"school_name"`
	Address    string `csv:"address"`
	Review     string `csv:"review"`
}

func formatString(o models.Optional[string]) string {
	return o.OrElse("")
}

func formatFloat(o models.Optional[float64]) string {
	v, ok := o.Get()
	if !ok {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Cells older exports wrote for missing values.
var missingCells = map[string]bool{"": true, "N/A": true, "NaN": true, "nan": true, "None": true}

func parseString(cell string) models.Optional[string] {
	if missingCells[strings.TrimSpace(cell)] {
		return models.None[string]()
	}
	return models.Some(cell)
}

func parseFloat(column, cell string) (models.Optional[float64], error) {
	cell = strings.TrimSpace(cell)
	if missingCells[cell] {
		return models.None[float64](), nil
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return models.None[float64](), fmt.Errorf("invalid %s %q", column, cell)
	}
	return models.Some(v), nil
}

func parseBool(column, cell string) (bool, error) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(cell)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q", column, cell)
	}
	return v, nil
}

func formatTypes(types []string) string {
	if types == nil {
		types = []string{}
	}
	data, _ := json.Marshal(types)
	return string(data)
}

var quotedItem = regexp.MustCompile(`'((?:[^'\\]|\\.)*)'|"((?:[^"\\]|\\.)*)"`)

// ParseTypes reads a JSON array of type tags, or the Python list rendering
// (['Public district', 'High school']) found in older files.
func ParseTypes(cell string) ([]string, error) {
	cell = strings.TrimSpace(cell)
	if missingCells[cell] {
		return []string{}, nil
	}
	var types []string
	if err := json.Unmarshal([]byte(cell), &types); err == nil {
		return types, nil
	}
	if !strings.HasPrefix(cell, "[") || !strings.HasSuffix(cell, "]") {
		return nil, fmt.Errorf("invalid school_types %q", cell)
	}
	types = []string{}
	for _, m := range quotedItem.FindAllStringSubmatch(cell, -1) {
		item := m[1]
		if item == "" {
			item = m[2]
		}
		types = append(types, strings.ReplaceAll(item, `\'`, `'`))
	}
	return types, nil
}

func ToRawRow(l models.Listing) RawRow {
	extracted := ""
	if !l.ExtractedAt.IsZero() {
		extracted = l.ExtractedAt.UTC().Format(time.RFC3339)
	}
	return RawRow{
		SchoolName:       l.Name,
		Address:          formatString(l.Address),
		GSRating:         formatFloat(l.Rating),
		AcademicProgress: formatFloat(l.AcademicProgress),
		TestScores:       formatFloat(l.TestScores),
		EquityScores:     formatFloat(l.Equity),
		SchoolTypes:      formatTypes(l.Types),
		StarRating:       formatFloat(l.StarRating),
		ReviewLink:       formatString(l.ReviewURL),
		SchoolLink:       formatString(l.ListingURL),
		City:             l.City,
		BatchID:          l.Batch.ID,
		ExtractedAt:      extracted,
	}
}

func (r RawRow) Listing() (models.Listing, error) {
	l := models.Listing{
		Name:       r.SchoolName,
		Address:    parseString(r.Address),
		ReviewURL:  parseString(r.ReviewLink),
		ListingURL: parseString(r.SchoolLink),
		City:       r.City,
		Batch:      models.Batch{ID: r.BatchID},
	}

	var err error
	floats := []struct {
		column string
		cell   string
		dst    *models.Optional[float64]
	}{
		{"gs_rating", r.GSRating, &l.Rating},
		{"academic_progress", r.AcademicProgress, &l.AcademicProgress},
		{"test_scores", r.TestScores, &l.TestScores},
		{"equity_scores", r.EquityScores, &l.Equity},
		{"star_rating", r.StarRating, &l.StarRating},
	}
	for _, f := range floats {
		if *f.dst, err = parseFloat(f.column, f.cell); err != nil {
			return l, err
		}
	}

	if l.Types, err = ParseTypes(r.SchoolTypes); err != nil {
		return l, err
	}
	if r.ExtractedAt != "" {
		if l.ExtractedAt, err = time.Parse(time.RFC3339, r.ExtractedAt); err != nil {
			return l, fmt.Errorf("invalid extracted_at %q", r.ExtractedAt)
		}
	}
	return l, nil
}

func ToEnrichedRow(e models.EnrichedListing) EnrichedRow {
	row := EnrichedRow{
		RawRow:           ToRawRow(e.Listing),
		IsPreK:           strconv.FormatBool(e.Grades.PreK),
		IsElementary:     strconv.FormatBool(e.Grades.Elementary),
		IsMiddle:         strconv.FormatBool(e.Grades.Middle),
		IsHigh:           strconv.FormatBool(e.Grades.High),
		IsPrivate:        strconv.FormatBool(e.SchoolTypes.Private),
		IsPublicDistrict: strconv.FormatBool(e.SchoolTypes.PublicDistrict),
		IsPublicCharter:  strconv.FormatBool(e.SchoolTypes.PublicCharter),
		ScoreCategory:    string(e.ScoreCategory),
	}
	if s, ok := e.CompositeScore.Get(); ok {
		row.CompositeScore = strconv.Itoa(s)
	}
	if loc, ok := e.Location.Get(); ok {
		row.Lat = strconv.FormatFloat(loc.Latitude, 'f', -1, 64)
		row.Lon = strconv.FormatFloat(loc.Longitude, 'f', -1, 64)
	}
	return row
}

func (r EnrichedRow) Enriched() (models.EnrichedListing, error) {
	l, err := r.RawRow.Listing()
	if err != nil {
		return models.EnrichedListing{}, err
	}
	e := models.EnrichedListing{Listing: l, ScoreCategory: models.ScoreCategory(r.ScoreCategory)}

	flags := []struct {
		column string
		cell   string
		dst    *bool
	}{
		{"is_prek", r.IsPreK, &e.Grades.PreK},
		{"is_elementary", r.IsElementary, &e.Grades.Elementary},
		{"is_middle", r.IsMiddle, &e.Grades.Middle},
		{"is_high", r.IsHigh, &e.Grades.High},
		{"is_private", r.IsPrivate, &e.SchoolTypes.Private},
		{"is_public_district", r.IsPublicDistrict, &e.SchoolTypes.PublicDistrict},
		{"is_public_charter", r.IsPublicCharter, &e.SchoolTypes.PublicCharter},
	}
	for _, f := range flags {
		if *f.dst, err = parseBool(f.column, f.cell); err != nil {
			return e, err
		}
	}

	// Older exports wrote integer scores as floats; round them like scoring does.
	score, err := parseFloat("composite_score", r.CompositeScore)
	if err != nil {
		return e, err
	}
	if s, ok := score.Get(); ok {
		e.CompositeScore = models.Some(int(math.RoundToEven(s)))
	}
	if e.ScoreCategory == "" {
		e.ScoreCategory = models.CategoryUnavailable
	}

	lat, err := parseFloat("lat", r.Lat)
	if err != nil {
		return e, err
	}
	lon, err := parseFloat("lon", r.Lon)
	if err != nil {
		return e, err
	}
	if la, ok := lat.Get(); ok {
		if lo, ok := lon.Get(); ok {
			e.Location = models.Some(models.Coordinates{Latitude: la, Longitude: lo})
		}
	}
	return e, nil
}

func EncodeListings(listings []models.Listing) ([]byte, error) {
	rows := make([]RawRow, len(listings))
	for i, l := range listings {
		rows[i] = ToRawRow(l)
	}
	return marshal(rows)
}

func EncodeEnriched(enriched []models.EnrichedListing) ([]byte, error) {
	rows := make([]EnrichedRow, len(enriched))
	for i, e := range enriched {
		rows[i] = ToEnrichedRow(e)
	}
	return marshal(rows)
}

func EncodeReviews(reviews []models.Review) ([]byte, error) {
	rows := make([]ReviewRow, len(reviews))
	for i, r := range reviews {
		rows[i] = ReviewRow{SchoolName: r.SchoolName, Address: r.Address, Review: r.Body}
	}
	return marshal(rows)
}

func unmarshal[T any](data []byte) ([]T, error) {
	var rows []T
	if err := gocsv.UnmarshalBytes(data, &rows); err != nil {
		if errors.Is(err, gocsv.ErrEmptyCSVFile) {
			return nil, nil
		}
		return nil, fmt.Errorf("storage: failed to decode csv: %w", err)
	}
	return rows, nil
}

func marshal[T any](rows []T) ([]byte, error) {
	data, err := gocsv.MarshalBytes(&rows)
	if err != nil {
		return nil, fmt.Errorf("storage: failed to encode csv: %w", err)
	}
	return data, nil
}

func DecodeListings(data []byte) ([]models.Listing, error) {
	rows, err := unmarshal[RawRow](data)
	if err != nil {
		return nil, err
	}
	out := make([]models.Listing, 0, len(rows))
	for i, r := range rows {
		l, err := r.Listing()
		if err != nil {
			return nil, fmt.Errorf("storage: row %d: %w", i+1, err)
		}
		out = append(out, l)
	}
	return out, nil
}

func DecodeEnriched(data []byte) ([]models.EnrichedListing, error) {
	rows, err := unmarshal[EnrichedRow](data)
	if err != nil {
		return nil, err
	}
	out := make([]models.EnrichedListing, 0, len(rows))
	for i, r := range rows {
		e, err := r.Enriched()
		if err != nil {
			return nil, fmt.Errorf("storage: row %d: %w", i+1, err)
		}
		out = append(out, e)
	}
	return out, nil
}

func DecodeReviews(data []byte) ([]models.Review, error) {
	rows, err := unmarshal[ReviewRow](data)
	if err != nil {
		return nil, err
	}
	out := make([]models.Review, len(rows))
	for i, r := range rows {
		out[i] = models.Review{SchoolName: r.SchoolName, Address: r.Address, Body: r.Review}
	}
	return out, nil
}
