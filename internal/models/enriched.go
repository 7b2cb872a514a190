package models

// ScoreCategory buckets a composite score.
type ScoreCategory string

const (
	CategoryBelowAverage ScoreCategory = "Below Average"
	CategoryAverage      ScoreCategory = "Average"
	CategoryAboveAverage ScoreCategory = "Above Average"
	CategoryUnavailable  ScoreCategory = "Data Not Available"
)

// Coordinates is a WGS84 point.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// GradeFlags records which grade levels a school serves.
type GradeFlags struct {
	PreK       bool `json:"is_prek"`
	Elementary bool `json:"is_elementary"`
	Middle     bool `json:"is_middle"`
	High       bool `json:"is_high"`
}

// TypeFlags records the school's governance type.
type TypeFlags struct {
	Private        bool `json:"is_private"`
	PublicDistrict bool `json:"is_public_district"`
	PublicCharter  bool `json:"is_public_charter"`
}

// EnrichedListing is a Listing with derived grade flags, composite score and location.
type EnrichedListing struct {
	Listing
	Grades         GradeFlags            `json:"grades"`
	SchoolTypes    TypeFlags             `json:"types"`
	CompositeScore Optional[int]         `json:"composite_score"`
	ScoreCategory  ScoreCategory         `json:"score_category"`
	Location       Optional[Coordinates] `json:"location"`
}
