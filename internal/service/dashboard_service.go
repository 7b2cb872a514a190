package service

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sort"
	"strings"

	"school-scraper/internal/models"
)

// DashboardRepository interface for dependency injection
type DashboardRepository interface {
	ListEnriched(ctx context.Context) ([]models.EnrichedListing, error)
	ListReviews(ctx context.Context, school, address string) ([]models.Review, error)
}

// Filter narrows the dashboard's school table. Empty lists and "All" disable a filter.
type Filter struct {
	Query              string
	Cities             []string
	Grades             []string
	Types              []string
	Category           string
	IncludeUnavailable bool
}

const filterAll = "All"

// Map marker styling.
var categoryColors = map[models.ScoreCategory]string{
	models.CategoryBelowAverage: "crimson",
	models.CategoryAverage:      "orange",
	models.CategoryAboveAverage: "lightskyblue",
	models.CategoryUnavailable:  "grey",
}

const defaultMarkerSize = 0.7

// DashboardService serves the read-only views of the latest batch.
type DashboardService struct {
	repo DashboardRepository
}

func NewDashboardService(repo DashboardRepository) *DashboardService {
	return &DashboardService{repo: repo}
}

func (s *DashboardService) load(ctx context.Context) ([]models.EnrichedListing, error) {
	rows, err := s.repo.ListEnriched(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: failed to load schools: %w", err)
	}
	return rows, nil
}

func (s *DashboardService) Schools(ctx context.Context, f Filter) ([]models.EnrichedListing, error) {
	rows, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return ApplyFilter(rows, f), nil
}

func (s *DashboardService) KPIs(ctx context.Context, f Filter) (models.KPIs, error) {
	rows, err := s.load(ctx)
	if err != nil {
		return models.KPIs{}, err
	}
	return ComputeKPIs(ApplyFilter(rows, f)), nil
}

func (s *DashboardService) MapPoints(ctx context.Context, f Filter) ([]models.MapPoint, error) {
	rows, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return BuildMapPoints(ApplyFilter(rows, f)), nil
}

func (s *DashboardService) Cities(ctx context.Context) ([]string, error) {
	rows, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	set := map[string]struct{}{}
	for _, r := range rows {
		set[r.City] = struct{}{}
	}
	cities := make([]string, 0, len(set))
	for c := range set {
		cities = append(cities, c)
	}
	sort.Strings(cities)
	return cities, nil
}

func (s *DashboardService) Reviews(ctx context.Context, school, address string) ([]models.Review, error) {
	if strings.TrimSpace(school) == "" {
		return nil, fmt.Errorf("service: school cannot be empty")
	}
	reviews, err := s.repo.ListReviews(ctx, school, address)
	if err != nil {
		return nil, fmt.Errorf("service: failed to load reviews: %w", err)
	}
	return reviews, nil
}

func isAll(values []string) bool {
	return len(values) == 0 || slices.Contains(values, filterAll)
}

func containsFold(values []string, v string) bool {
	for _, x := range values {
		if strings.EqualFold(x, v) {
			return true
		}
	}
	return false
}

func matchesGrades(g models.GradeFlags, grades []string) bool {
	return (containsFold(grades, "Pre-K") && g.PreK) ||
		(containsFold(grades, "Elementary") && g.Elementary) ||
		(containsFold(grades, "Middle") && g.Middle) ||
		(containsFold(grades, "High") && g.High)
}

func matchesTypes(t models.TypeFlags, types []string) bool {
	return (containsFold(types, "Private") && t.Private) ||
		(containsFold(types, "Public District") && t.PublicDistrict) ||
		(containsFold(types, "Public Charter") && t.PublicCharter)
}

// ApplyFilter keeps located schools matching every active filter. Grade and type
// selections match when any selected value matches.
func ApplyFilter(rows []models.EnrichedListing, f Filter) []models.EnrichedListing {
	query := strings.ToLower(strings.TrimSpace(f.Query))

	out := []models.EnrichedListing{}
	for _, r := range rows {
		if !r.Location.Valid() {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(r.Name), query) {
			continue
		}
		if !isAll(f.Cities) && !slices.Contains(f.Cities, r.City) {
			continue
		}
		if f.Category != "" && f.Category != filterAll && string(r.ScoreCategory) != f.Category {
			continue
		}
		if !isAll(f.Grades) && !matchesGrades(r.Grades, f.Grades) {
			continue
		}
		if !isAll(f.Types) && !matchesTypes(r.SchoolTypes, f.Types) {
			continue
		}
		if !f.IncludeUnavailable && r.ScoreCategory == models.CategoryUnavailable {
			continue
		}
		out = append(out, r)
	}
	return out
}

func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}

// ComputeKPIs summarizes rows the way the dashboard header shows them.
func ComputeKPIs(rows []models.EnrichedListing) models.KPIs {
	kpis := models.KPIs{
		AverageCompositeScore: models.None[float64](),
		CategoryCounts:        map[string]int{},
	}

	var sum, n, best int
	for _, r := range rows {
		kpis.CategoryCounts[string(r.ScoreCategory)]++
		if r.ScoreCategory != models.CategoryUnavailable {
			kpis.SchoolsWithScores++
		}
		if score, ok := r.CompositeScore.Get(); ok {
			sum += score
			n++
			best = max(best, score)
		}
	}
	if n > 0 {
		kpis.AverageCompositeScore = models.Some(math.RoundToEven(float64(sum) / float64(n)))
		for _, r := range rows {
			if score, ok := r.CompositeScore.Get(); ok && score == best {
				kpis.TopPerformingSchools++
			}
		}
	}

	kpis.SchoolsNeedingAttention = kpis.CategoryCounts[string(models.CategoryBelowAverage)]
	kpis.AboveAverageSchools = kpis.CategoryCounts[string(models.CategoryAboveAverage)]
	kpis.PercentNeedingAttention = percent(kpis.SchoolsNeedingAttention, kpis.SchoolsWithScores)
	kpis.PercentAboveAverage = percent(kpis.AboveAverageSchools, kpis.SchoolsWithScores)
	return kpis
}

// BuildMapPoints turns located rows into map markers sized by composite score.
func BuildMapPoints(rows []models.EnrichedListing) []models.MapPoint {
	points := make([]models.MapPoint, 0, len(rows))
	for _, r := range rows {
		loc, ok := r.Location.Get()
		if !ok {
			continue
		}
		size := defaultMarkerSize
		if score, ok := r.CompositeScore.Get(); ok {
			size = float64(score)
		}
		points = append(points, models.MapPoint{
			Name:             r.Name,
			Address:          r.Address.OrElse(""),
			Latitude:         loc.Latitude,
			Longitude:        loc.Longitude,
			Color:            categoryColors[r.ScoreCategory],
			Size:             size,
			CompositeScore:   r.CompositeScore,
			ScoreCategory:    r.ScoreCategory,
			AcademicProgress: r.AcademicProgress,
			TestScores:       r.TestScores,
			Types:            r.Types,
		})
	}
	return points
}
