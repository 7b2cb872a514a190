package service

import (
	"context"
	"fmt"
	"testing"

	"school-scraper/internal/geocoder"
	"school-scraper/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockGeocoder is a mock implementation of the Geocoder interface
type MockGeocoder struct {
	mock.Mock
}

// Geocode implements Geocoder.
func (m *MockGeocoder) Geocode(ctx context.Context, address string) (models.Coordinates, error) {
	args := m.Called(ctx, address)
	return args.Get(0).(models.Coordinates), args.Error(1)
}

func TestGeoCodeService_Geocode(t *testing.T) {
	irvine := models.Coordinates{Latitude: 33.6846, Longitude: -117.8265}

	tests := []struct {
		name        string
		address     string
		mockCoords  models.Coordinates
		mockError   error
		expected    models.Coordinates
		expectError bool
	}{
		{
			name:        "empty address",
			address:     "  ",
			expectError: true,
		},
		{
			name:       "successful lookup",
			address:    "1 Civic Center Plaza, Irvine, CA 92606",
			mockCoords: irvine,
			expected:   irvine,
		},
		{
			name:        "no result",
			address:     "nowhere",
			mockError:   geocoder.ErrNoResult,
			expectError: true,
		},
		{
			name:        "geocoder error",
			address:     "1 Civic Center Plaza, Irvine, CA 92606",
			mockError:   assert.AnError,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Setup
			mockGeocoder := new(MockGeocoder)
			service := NewGeoCodeService(mockGeocoder, 16)

			if tt.name != "empty address" {
				mockGeocoder.On("Geocode", mock.Anything, tt.address).Return(tt.mockCoords, tt.mockError)
			}

			// Execute
			result, err := service.Geocode(context.Background(), tt.address)

			// Assert
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expected, result)
			}
			mockGeocoder.AssertExpectations(t)
		})
	}
}

func TestGeoCodeService_CachesAnswers(t *testing.T) {
	mockGeocoder := new(MockGeocoder)
	coords := models.Coordinates{Latitude: 1, Longitude: 2}
	mockGeocoder.On("Geocode", mock.Anything, "1 Main St").Return(coords, nil).Once()
	mockGeocoder.On("Geocode", mock.Anything, "nowhere").Return(models.Coordinates{}, geocoder.ErrNoResult).Once()

	service := NewGeoCodeService(mockGeocoder, 16)
	ctx := context.Background()

	for range 2 {
		got, err := service.Geocode(ctx, "1 Main St")
		require.NoError(t, err)
		assert.Equal(t, coords, got)
	}
	got, err := service.Geocode(ctx, "  1 MAIN st ")
	require.NoError(t, err)
	assert.Equal(t, coords, got)

	for range 2 {
		_, err := service.Geocode(ctx, "nowhere")
		assert.ErrorIs(t, err, geocoder.ErrNoResult)
	}
	mockGeocoder.AssertExpectations(t)
}

func TestGeoCodeService_TransientErrorsAreNotCached(t *testing.T) {
	mockGeocoder := new(MockGeocoder)
	mockGeocoder.On("Geocode", mock.Anything, "1 Main St").Return(models.Coordinates{}, assert.AnError).Twice()

	service := NewGeoCodeService(mockGeocoder, 16)
	for range 2 {
		_, err := service.Geocode(context.Background(), "1 Main St")
		assert.ErrorIs(t, err, assert.AnError)
	}
	mockGeocoder.AssertExpectations(t)
}

func TestGeoCodeService_Locate(t *testing.T) {
	mockGeocoder := new(MockGeocoder)
	coords := models.Coordinates{Latitude: 1, Longitude: 2}
	mockGeocoder.On("Geocode", mock.Anything, "known").Return(coords, nil)
	mockGeocoder.On("Geocode", mock.Anything, "broken").Return(models.Coordinates{}, assert.AnError)

	service := NewGeoCodeService(mockGeocoder, 16)

	assert.Equal(t, models.Some(coords), service.Locate(context.Background(), "known"))
	assert.False(t, service.Locate(context.Background(), "broken").Valid())
}

func TestGeoCodeService_CacheIsBounded(t *testing.T) {
	tests := []struct {
		name      string
		cacheSize int
		lookups   []string
		calls     map[string]int
	}{
		{
			name:      "repeat within capacity is cached",
			cacheSize: 2,
			lookups:   []string{"a", "b", "a", "b"},
			calls:     map[string]int{"a": 1, "b": 1},
		},
		{
			name:      "least recently used answer is evicted",
			cacheSize: 2,
			lookups:   []string{"a", "b", "c", "a"},
			calls:     map[string]int{"a": 2, "b": 1, "c": 1},
		},
		{
			name:      "recent use keeps an answer",
			cacheSize: 2,
			lookups:   []string{"a", "b", "a", "c", "a"},
			calls:     map[string]int{"a": 1, "b": 1, "c": 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockGeocoder := new(MockGeocoder)
			for address, n := range tt.calls {
				mockGeocoder.On("Geocode", mock.Anything, address).Return(models.Coordinates{}, nil).Times(n)
			}
			service := NewGeoCodeService(mockGeocoder, tt.cacheSize)

			for _, address := range tt.lookups {
				_, err := service.Geocode(context.Background(), address)
				require.NoError(t, err)
			}
			mockGeocoder.AssertExpectations(t)
			assert.LessOrEqual(t, service.cache.Len(), tt.cacheSize)
		})
	}
}

func TestNewGeoCodeService_DefaultCacheSize(t *testing.T) {
	service := NewGeoCodeService(new(MockGeocoder), 0)
	for i := range DefaultCacheSize + 5 {
		service.cache.Add(fmt.Sprintf("addr-%d", i), models.None[models.Coordinates]())
	}
	assert.Equal(t, DefaultCacheSize, service.cache.Len())
}
