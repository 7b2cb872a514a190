package models

// KPIs summarizes a filtered set of enriched listings.
type KPIs struct {
	AverageCompositeScore   Optional[float64] `json:"average_composite_score"`
	TopPerformingSchools    int               `json:"top_performing_schools"`
	SchoolsNeedingAttention int               `json:"schools_needing_attention"`
	PercentNeedingAttention float64           `json:"percent_needing_attention"`
	AboveAverageSchools     int               `json:"above_average_schools"`
	PercentAboveAverage     float64           `json:"percent_above_average"`
	SchoolsWithScores       int               `json:"schools_with_scores"`
	CategoryCounts          map[string]int    `json:"category_counts"`
}

// MapPoint is one marker on the school performance map.
type MapPoint struct {
	Name             string            `json:"name"`
	Address          string            `json:"address"`
	Latitude         float64           `json:"lat"`
	Longitude        float64           `json:"lon"`
	Color            string            `json:"color"`
	Size             float64           `json:"size"`
	CompositeScore   Optional[int]     `json:"composite_score"`
	ScoreCategory    ScoreCategory     `json:"score_category"`
	AcademicProgress Optional[float64] `json:"academic_progress"`
	TestScores       Optional[float64] `json:"test_scores"`
	Types            []string          `json:"school_types"`
}

// NearestSchool is the closest listing to a queried point.
type NearestSchool struct {
	School     EnrichedListing `json:"school"`
	DistanceKm float64         `json:"distance_km"`
}
