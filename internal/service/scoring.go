package service

import (
	"math"
	"slices"
	"strings"

	"school-scraper/internal/models"
)

// Grade-level and school-type labels as they appear in a listing's type tags.
const (
	GradePreK       = "Pre-K"
	GradeElementary = "Elementary school"
	GradeMiddle     = "Middle school"
	GradeHigh       = "High school"

	TypePrivate        = "Private"
	TypePublicDistrict = "Public district"
	TypePublicCharter  = "Public charter"
)

func hasLabel(types []string, label string) bool {
	for _, t := range types {
		if strings.Contains(t, label) {
			return true
		}
	}
	return false
}

// GradeFlagsFor marks a grade level when any type tag contains its label.
func GradeFlagsFor(types []string) models.GradeFlags {
	return models.GradeFlags{
		PreK:       hasLabel(types, GradePreK),
		Elementary: hasLabel(types, GradeElementary),
		Middle:     hasLabel(types, GradeMiddle),
		High:       hasLabel(types, GradeHigh),
	}
}

// TypeFlagsFor marks a school type when the tags contain exactly its label.
func TypeFlagsFor(types []string) models.TypeFlags {
	return models.TypeFlags{
		Private:        slices.Contains(types, TypePrivate),
		PublicDistrict: slices.Contains(types, TypePublicDistrict),
		PublicCharter:  slices.Contains(types, TypePublicCharter),
	}
}

// CompositeScore maps the three 0–10 sub-scores onto 1 + 9 × their normalized mean,
// rounded half to even. It is unavailable when any sub-score is.
func CompositeScore(l models.Listing) models.Optional[int] {
	var sum float64
	for _, sub := range []models.Optional[float64]{l.TestScores, l.AcademicProgress, l.Equity} {
		v, ok := sub.Get()
		if !ok {
			return models.None[int]()
		}
		sum += v / 10
	}
	score := sum/3*9 + 1
	return models.Some(int(math.RoundToEven(score)))
}

// Categorize buckets a composite score.
func Categorize(score models.Optional[int]) models.ScoreCategory {
	s, ok := score.Get()
	switch {
	case !ok:
		return models.CategoryUnavailable
	case s <= 4:
		return models.CategoryBelowAverage
	case s <= 6:
		return models.CategoryAverage
	default:
		return models.CategoryAboveAverage
	}
}

// Enrich derives flags and scores. Location is left for the geocoding step.
func Enrich(l models.Listing) models.EnrichedListing {
	score := CompositeScore(l)
	return models.EnrichedListing{
		Listing:        l,
		Grades:         GradeFlagsFor(l.Types),
		SchoolTypes:    TypeFlagsFor(l.Types),
		CompositeScore: score,
		ScoreCategory:  Categorize(score),
		Location:       models.None[models.Coordinates](),
	}
}
