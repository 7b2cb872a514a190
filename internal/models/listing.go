package models

import (
	"strings"
	"time"
)

// Batch tags every record produced by one end-to-end run.
type Batch struct {
	ID          string    `json:"batch_id"`
	ExtractedAt time.Time `json:"extracted_at"`
}

// Listing is one school as scraped from a search-result card.
type Listing struct {
	Name             string            `json:"school_name"`
	Address          Optional[string]  `json:"address"`
	Rating           Optional[float64] `json:"gs_rating"`
	AcademicProgress Optional[float64] `json:"academic_progress"`
	TestScores       Optional[float64] `json:"test_scores"`
	Equity           Optional[float64] `json:"equity_scores"`
	Types            []string          `json:"school_types"`
	StarRating       Optional[float64] `json:"star_rating"`
	ReviewURL        Optional[string]  `json:"review_link"`
	ListingURL       Optional[string]  `json:"school_link"`
	City             string            `json:"city"`
	Batch
}

// Key identifies a school for deduplication.
type Key struct {
	Name    string
	Address string
}

func (l Listing) Key() Key {
	return Key{
		Name:    strings.TrimSpace(l.Name),
		Address: strings.TrimSpace(l.Address.OrElse("")),
	}
}

// Review is the free-text body of one review left on a school's review page.
type Review struct {
	SchoolName string `json:"school_name"`
	Address    string `json:"address"`
	Body       string `json:"review"`
}
