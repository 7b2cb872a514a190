package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"school-scraper/internal/models"
)

const earthRadiusKm = 6371.0

var ErrInvalidCoordinates = errors.New("service: invalid coordinates")

// NearestSchoolService finds the school closest to a point.
type NearestSchoolService struct {
	repo NearestSchoolRepository
}

// NearestSchoolRepository interface for dependency injection
type NearestSchoolRepository interface {
	ListEnriched(ctx context.Context) ([]models.EnrichedListing, error)
}

func NewNearestSchoolService(repo NearestSchoolRepository) *NearestSchoolService {
	return &NearestSchoolService{repo: repo}
}

func haversineKm(a, b models.Coordinates) float64 {
	rad := func(d float64) float64 { return d * math.Pi / 180 }
	dLat := rad(b.Latitude - a.Latitude)
	dLon := rad(b.Longitude - a.Longitude)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(a.Latitude))*math.Cos(rad(b.Latitude))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}

// Nearest returns the located school closest to (lat, lon), or nil when no school is located.
func (s *NearestSchoolService) Nearest(ctx context.Context, lat, lon float64) (*models.NearestSchool, error) {
	if lat < -90 || lat > 90 {
		return nil, fmt.Errorf("%w: latitude %f", ErrInvalidCoordinates, lat)
	}
	if lon < -180 || lon > 180 {
		return nil, fmt.Errorf("%w: longitude %f", ErrInvalidCoordinates, lon)
	}

	rows, err := s.repo.ListEnriched(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: failed to find nearest school: %w", err)
	}

	origin := models.Coordinates{Latitude: lat, Longitude: lon}
	var nearest *models.NearestSchool
	for _, r := range rows {
		loc, ok := r.Location.Get()
		if !ok {
			continue
		}
		d := haversineKm(origin, loc)
		if nearest == nil || d < nearest.DistanceKm {
			nearest = &models.NearestSchool{School: r, DistanceKm: d}
		}
	}
	return nearest, nil
}
