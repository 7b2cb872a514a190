package geocoder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"

	"school-scraper/internal/models"
)

var tracer = otel.Tracer("school-scraper/internal/geocoder")

// ErrNoResult is returned when the service knows no location for an address.
var ErrNoResult = errors.New("geocoder: no result")

// Geocoder resolves a free-form address to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (models.Coordinates, error)
}

type Options struct {
	BaseURL   string
	UserAgent string
	// Email is sent in the From header, as the Nominatim usage policy asks.
	Email      string
	Timeout    time.Duration
	MinDelay   time.Duration
	MaxRetries int
	ErrorWait  time.Duration
}

// Client talks to a Nominatim-compatible search endpoint. Requests are serialized:
// at most one is in flight, consecutive requests are at least MinDelay apart and
// failed requests are retried up to MaxRetries times after ErrorWait.
type Client struct {
	http *resty.Client
	mu   sync.Mutex
}

func NewClient(opts Options) *Client {
	httpClient := resty.New()
	httpClient.SetBaseURL(strings.TrimRight(opts.BaseURL, "/"))
	if opts.Timeout > 0 {
		httpClient.SetTimeout(opts.Timeout)
	}
	httpClient.SetHeader("User-Agent", opts.UserAgent)
	httpClient.SetHeader("Accept-Language", "en")
	if opts.Email != "" {
		httpClient.SetHeader("From", opts.Email)
	}

	httpClient.SetRetryCount(max(opts.MaxRetries, 0))
	httpClient.SetRetryWaitTime(opts.ErrorWait)
	httpClient.SetRetryMaxWaitTime(opts.ErrorWait)
	httpClient.AddRetryCondition(func(res *resty.Response, err error) bool {
		if err != nil {
			return true
		}
		return res.StatusCode() == http.StatusTooManyRequests || res.StatusCode() >= 500
	})

	// burst 1 keeps every request, retries included, at least MinDelay apart
	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.MinDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(opts.MinDelay), 1)
	}
	httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return limiter.Wait(req.Context())
	})

	return &Client{http: httpClient}
}

type searchResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

func (c *Client) Geocode(ctx context.Context, address string) (models.Coordinates, error) {
	ctx, span := tracer.Start(ctx, "Geocode")
	defer span.End()
	span.SetAttributes(attribute.String("address", address))

	coords, err := c.geocode(ctx, address)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "geocoding failed")
	}
	return coords, err
}

func (c *Client) geocode(ctx context.Context, address string) (models.Coordinates, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return models.Coordinates{}, fmt.Errorf("geocoder: empty address")
	}

	c.mu.Lock()
	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"format": "json",
			"limit":  "1",
			"q":      address,
		}).
		Get("/search")
	c.mu.Unlock()
	if err != nil {
		return models.Coordinates{}, fmt.Errorf("geocoder: request: %w", err)
	}
	if res.StatusCode() != http.StatusOK {
		return models.Coordinates{}, fmt.Errorf("geocoder: unexpected status %d", res.StatusCode())
	}

	var results []searchResult
	if err := json.Unmarshal(res.Body(), &results); err != nil {
		return models.Coordinates{}, fmt.Errorf("geocoder: decode response: %w", err)
	}
	if len(results) == 0 {
		return models.Coordinates{}, ErrNoResult
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return models.Coordinates{}, fmt.Errorf("geocoder: invalid latitude %q: %w", results[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return models.Coordinates{}, fmt.Errorf("geocoder: invalid longitude %q: %w", results[0].Lon, err)
	}
	return models.Coordinates{Latitude: lat, Longitude: lon}, nil
}
