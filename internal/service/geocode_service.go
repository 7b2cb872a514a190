package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"school-scraper/internal/geocoder"
	"school-scraper/internal/models"
)

// DefaultCacheSize bounds the geocode cache when no size is configured.
const DefaultCacheSize = 10000

// GeoCodeService resolves addresses through the rate-limited geocoder and remembers
// the most recently used answers.
type GeoCodeService struct {
	geocoder Geocoder
	log      zerolog.Logger
	cache    *lru.Cache[string, models.Optional[models.Coordinates]]
}

// Geocoder interface for dependency injection
type Geocoder interface {
	Geocode(ctx context.Context, address string) (models.Coordinates, error)
}

// NewGeoCodeService creates a new geo code service holding at most cacheSize
// answers. A non-positive size uses DefaultCacheSize.
func NewGeoCodeService(g Geocoder, cacheSize int) *GeoCodeService {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	// lru.New only fails for a non-positive size.
	cache, _ := lru.New[string, models.Optional[models.Coordinates]](cacheSize)
	return &GeoCodeService{
		geocoder: g,
		log:      log.With().Str("component", "geocode_service").Logger(),
		cache:    cache,
	}
}

func normalizeAddress(address string) string {
	return strings.Join(strings.Fields(strings.ToLower(address)), " ")
}

// Geocode resolves one address and reports failures to the caller.
func (s *GeoCodeService) Geocode(ctx context.Context, address string) (models.Coordinates, error) {
	if strings.TrimSpace(address) == "" {
		return models.Coordinates{}, fmt.Errorf("service: address cannot be empty")
	}

	key := normalizeAddress(address)
	if cached, hit := s.cache.Get(key); hit {
		if c, ok := cached.Get(); ok {
			return c, nil
		}
		return models.Coordinates{}, geocoder.ErrNoResult
	}

	coords, err := s.geocoder.Geocode(ctx, address)
	if err != nil {
		if errors.Is(err, geocoder.ErrNoResult) {
			s.cache.Add(key, models.None[models.Coordinates]())
		}
		return models.Coordinates{}, fmt.Errorf("service: failed to geocode address: %w", err)
	}

	s.cache.Add(key, models.Some(coords))
	return coords, nil
}

// Locate never fails: any geocoding error is logged and yields an unavailable location.
func (s *GeoCodeService) Locate(ctx context.Context, address string) models.Optional[models.Coordinates] {
	coords, err := s.Geocode(ctx, address)
	if err != nil {
		s.log.Warn().Err(err).Str("address", address).Msg("geocoding failed")
		return models.None[models.Coordinates]()
	}
	return models.Some(coords)
}
