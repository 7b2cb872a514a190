package service

import (
	"context"
	"testing"

	"school-scraper/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func school(name, city string, score models.Optional[int], types ...string) models.EnrichedListing {
	l := models.Listing{Name: name, City: city, Types: types, Address: models.Some(name + " address")}
	return models.EnrichedListing{
		Listing:        l,
		Grades:         GradeFlagsFor(types),
		SchoolTypes:    TypeFlagsFor(types),
		CompositeScore: score,
		ScoreCategory:  Categorize(score),
		Location:       models.Some(models.Coordinates{Latitude: 33.6, Longitude: -117.8}),
	}
}

func fixtureSchools() []models.EnrichedListing {
	unlocated := school("Ghost Elementary", "Irvine", models.Some(9), "Public district", "Elementary school")
	unlocated.Location = models.None[models.Coordinates]()
	return []models.EnrichedListing{
		school("Northwood High", "Irvine", models.Some(8), "Public district", "High school"),
		school("Tustin Charter", "Tustin", models.Some(3), "Public charter", "Middle school"),
		school("Irvine Prep", "Irvine", models.Some(5), "Private", "Pre-K, Elementary school"),
		school("Unrated Academy", "Irvine", models.None[int](), "Private", "High school"),
		school("Beckman High", "Tustin", models.Some(8), "Public district", "High school"),
		unlocated,
	}
}

func names(rows []models.EnrichedListing) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Name)
	}
	return out
}

func TestApplyFilter(t *testing.T) {
	rows := fixtureSchools()

	tests := []struct {
		name     string
		filter   Filter
		expected []string
	}{
		{
			name:     "no filter drops unlocated and unscored",
			filter:   Filter{},
			expected: []string{"Northwood High", "Tustin Charter", "Irvine Prep", "Beckman High"},
		},
		{
			name:     "include unavailable",
			filter:   Filter{IncludeUnavailable: true, Cities: []string{"All"}},
			expected: []string{"Northwood High", "Tustin Charter", "Irvine Prep", "Unrated Academy", "Beckman High"},
		},
		{
			name:     "city",
			filter:   Filter{Cities: []string{"Tustin"}},
			expected: []string{"Tustin Charter", "Beckman High"},
		},
		{
			name:     "grades are or-combined",
			filter:   Filter{Grades: []string{"Middle", "Pre-K"}},
			expected: []string{"Tustin Charter", "Irvine Prep"},
		},
		{
			name:     "types",
			filter:   Filter{Types: []string{"Private"}, IncludeUnavailable: true},
			expected: []string{"Irvine Prep", "Unrated Academy"},
		},
		{
			name:     "category",
			filter:   Filter{Category: "Above Average"},
			expected: []string{"Northwood High", "Beckman High"},
		},
		{
			name:     "name search",
			filter:   Filter{Query: "high"},
			expected: []string{"Northwood High", "Beckman High"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, names(ApplyFilter(rows, tt.filter)))
		})
	}
}

func TestComputeKPIs(t *testing.T) {
	rows := ApplyFilter(fixtureSchools(), Filter{IncludeUnavailable: true})
	kpis := ComputeKPIs(rows)

	// (8 + 3 + 5 + 8) / 4 = 6
	assert.Equal(t, models.Some(6.0), kpis.AverageCompositeScore)
	assert.Equal(t, 2, kpis.TopPerformingSchools)
	assert.Equal(t, 1, kpis.SchoolsNeedingAttention)
	assert.Equal(t, 2, kpis.AboveAverageSchools)
	assert.Equal(t, 4, kpis.SchoolsWithScores)
	assert.InDelta(t, 25.0, kpis.PercentNeedingAttention, 1e-9)
	assert.InDelta(t, 50.0, kpis.PercentAboveAverage, 1e-9)
	assert.Equal(t, map[string]int{
		"Above Average":      2,
		"Average":            1,
		"Below Average":      1,
		"Data Not Available": 1,
	}, kpis.CategoryCounts)
}

func TestComputeKPIs_Empty(t *testing.T) {
	kpis := ComputeKPIs(nil)
	assert.False(t, kpis.AverageCompositeScore.Valid())
	assert.Zero(t, kpis.TopPerformingSchools)
	assert.Zero(t, kpis.PercentAboveAverage)
}

func TestBuildMapPoints(t *testing.T) {
	rows := ApplyFilter(fixtureSchools(), Filter{IncludeUnavailable: true})
	points := BuildMapPoints(rows)

	require.Len(t, points, 5)
	assert.Equal(t, "lightskyblue", points[0].Color)
	assert.Equal(t, 8.0, points[0].Size)
	assert.Equal(t, "crimson", points[1].Color)
	assert.Equal(t, "orange", points[2].Color)
	assert.Equal(t, "grey", points[3].Color)
	assert.Equal(t, 0.7, points[3].Size)
}

func TestDashboardService_Cities(t *testing.T) {
	mockRepo := new(MockSchoolRepository)
	mockRepo.On("ListEnriched", mock.Anything).Return(fixtureSchools(), nil)

	cities, err := NewDashboardService(mockRepo).Cities(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Irvine", "Tustin"}, cities)
}

func TestDashboardService_RepositoryError(t *testing.T) {
	mockRepo := new(MockSchoolRepository)
	mockRepo.On("ListEnriched", mock.Anything).Return(nil, assert.AnError)

	_, err := NewDashboardService(mockRepo).KPIs(context.Background(), Filter{})
	assert.ErrorIs(t, err, assert.AnError)
}

func TestDashboardService_Reviews(t *testing.T) {
	mockRepo := new(MockSchoolRepository)
	reviews := []models.Review{{SchoolName: "Northwood High", Address: "a", Body: "Great teachers."}}
	mockRepo.On("ListReviews", mock.Anything, "Northwood High", "a").Return(reviews, nil)

	service := NewDashboardService(mockRepo)

	got, err := service.Reviews(context.Background(), "Northwood High", "a")
	require.NoError(t, err)
	assert.Equal(t, reviews, got)

	_, err = service.Reviews(context.Background(), "", "a")
	assert.Error(t, err)
	mockRepo.AssertExpectations(t)
}
