package storage

import (
	"strings"
	"testing"
	"time"

	"school-scraper/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTypes(t *testing.T) {
	tests := []struct {
		name     string
		cell     string
		expected []string
		wantErr  bool
	}{
		{name: "json", cell: `["Public district","High school"]`, expected: []string{"Public district", "High school"}},
		{name: "python list", cell: `['Public district', 'High school']`, expected: []string{"Public district", "High school"}},
		{name: "python apostrophe", cell: `["Children's Academy", 'Private']`, expected: []string{"Children's Academy", "Private"}},
		{name: "empty list", cell: `[]`, expected: []string{}},
		{name: "empty cell", cell: ``, expected: []string{}},
		{name: "garbage", cell: `Public district`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTypes(tt.cell)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestEncodeListings_Columns(t *testing.T) {
	data, err := EncodeListings([]models.Listing{{
		Name:       "Northwood High",
		Address:    models.Some("4515 Portola Pkwy, Irvine, CA"),
		Rating:     models.Some(9.0),
		TestScores: models.Some(8.5),
		Types:      []string{"Public district", "High school"},
		City:       "Irvine",
		Batch:      models.Batch{ID: "b1", ExtractedAt: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)},
	}})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "school_name,address,gs_rating,academic_progress,test_scores,equity_scores,"+
		"school_types,star_rating,review_link,school_link,city,batch_id,extracted_at", lines[0])
	assert.Equal(t, `Northwood High,"4515 Portola Pkwy, Irvine, CA",9,,8.5,,"[""Public district"",""High school""]",,,,Irvine,b1,2024-06-01T12:00:00Z`, lines[1])
}

func TestListingsRoundTrip(t *testing.T) {
	in := []models.Listing{
		{
			Name:             "Northwood High",
			Address:          models.Some("4515 Portola Pkwy"),
			AcademicProgress: models.Some(6.0),
			Types:            []string{"Public district"},
			ReviewURL:        models.Some("https://example.org/#Reviews"),
			City:             "Irvine",
			Batch:            models.Batch{ID: "b1", ExtractedAt: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)},
		},
		{Name: "Nameless Address", Types: []string{}, City: "Tustin"},
	}

	data, err := EncodeListings(in)
	require.NoError(t, err)
	out, err := DecodeListings(data)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestEnrichedRoundTrip(t *testing.T) {
	in := []models.EnrichedListing{
		{
			Listing:        models.Listing{Name: "Northwood High", Types: []string{"High school"}, City: "Irvine"},
			Grades:         models.GradeFlags{High: true},
			CompositeScore: models.Some(8),
			ScoreCategory:  models.CategoryAboveAverage,
			Location:       models.Some(models.Coordinates{Latitude: 33.7, Longitude: -117.76}),
		},
		{
			Listing:       models.Listing{Name: "Unrated", Types: []string{"Private"}, City: "Irvine"},
			SchoolTypes:   models.TypeFlags{Private: true},
			ScoreCategory: models.CategoryUnavailable,
		},
	}

	data, err := EncodeEnriched(in)
	require.NoError(t, err)
	out, err := DecodeEnriched(data)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestDecodeEnriched_LegacyCells(t *testing.T) {
	data := "school_name,address,school_types,city,is_high,is_private,composite_score,score_category,lat,lon\n" +
		"Northwood High,N/A,\"['Public district', 'High school']\",Irvine,True,False,8.0,Above Average,33.7,\n"

	out, err := DecodeEnriched([]byte(data))
	require.NoError(t, err)
	require.Len(t, out, 1)

	e := out[0]
	assert.False(t, e.Address.Valid())
	assert.Equal(t, []string{"Public district", "High school"}, e.Types)
	assert.True(t, e.Grades.High)
	assert.Equal(t, models.Some(8), e.CompositeScore)
	assert.False(t, e.Location.Valid(), "a location needs both coordinates")
}

func TestDecodeEnriched_FloatCompositeScore(t *testing.T) {
	tests := []struct {
		cell string
		want models.Optional[int]
	}{
		{cell: "7", want: models.Some(7)},
		{cell: "8.0", want: models.Some(8)},
		{cell: "7.6", want: models.Some(8)},
		{cell: "7.4", want: models.Some(7)},
		{cell: "6.5", want: models.Some(6)},
		{cell: "7.5", want: models.Some(8)},
		{cell: "", want: models.None[int]()},
	}
	for _, tt := range tests {
		t.Run(tt.cell, func(t *testing.T) {
			data := "school_name,composite_score\nNorthwood High," + tt.cell + "\n"

			out, err := DecodeEnriched([]byte(data))
			require.NoError(t, err)
			require.Len(t, out, 1)
			assert.Equal(t, tt.want, out[0].CompositeScore)
		})
	}
}

func TestDecodeListings_InvalidNumber(t *testing.T) {
	_, err := DecodeListings([]byte("school_name,gs_rating\nA,nine\n"))
	assert.ErrorContains(t, err, "row 1")
}

func TestDecodeReviews_Empty(t *testing.T) {
	out, err := DecodeReviews(nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}
