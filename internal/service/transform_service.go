package service

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"school-scraper/internal/models"
)

// Locator resolves an address and never fails; unknown addresses are unavailable.
type Locator interface {
	Locate(ctx context.Context, address string) models.Optional[models.Coordinates]
}

// TransformService turns raw listings into enriched listings.
type TransformService struct {
	locator Locator
	log     zerolog.Logger
}

func NewTransformService(locator Locator) *TransformService {
	return &TransformService{
		locator: locator,
		log:     log.With().Str("component", "transform_service").Logger(),
	}
}

// Transform deduplicates listings, derives flags and scores and geocodes each
// address. Geocoding failures leave the location unavailable and never stop the batch.
func (s *TransformService) Transform(ctx context.Context, listings []models.Listing) []models.EnrichedListing {
	unique := models.Dedupe(listings)
	out := make([]models.EnrichedListing, 0, len(unique))

	byCity := map[string]int{}
	located := 0
	for _, l := range unique {
		e := Enrich(l)
		if address, ok := l.Address.Get(); ok && ctx.Err() == nil {
			e.Location = s.locator.Locate(ctx, address)
		}
		if e.Location.Valid() {
			located++
		}
		byCity[l.City]++
		out = append(out, e)
	}

	for city, n := range byCity {
		s.log.Info().Str("city", city).Int("schools", n).Msg("finished geocoding for city")
	}
	s.log.Info().
		Int("input", len(listings)).
		Int("unique", len(out)).
		Int("located", located).
		Msg("transform complete")
	return out
}
