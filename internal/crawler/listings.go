package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"school-scraper/internal/models"
)

var tracer = otel.Tracer("school-scraper/internal/crawler")

// Grade is a grade-level search filter, e.g. {"e", "Elementary"}.
type Grade struct {
	Code  string
	Label string
}

// GradesFromMap orders a code → label mapping by code.
func GradesFromMap(m map[string]string) []Grade {
	grades := make([]Grade, 0, len(m))
	for code, label := range m {
		grades = append(grades, Grade{Code: code, Label: label})
	}
	sort.Slice(grades, func(i, j int) bool { return grades[i].Code < grades[j].Code })
	return grades
}

type Options struct {
	BaseURL  string
	State    string
	Grades   []Grade
	Workers  int
	Timeout  time.Duration
	MaxPages int
}

// SiteCrawler walks the school search results of each city.
type SiteCrawler struct {
	launcher Launcher
	opts     Options
	log      zerolog.Logger
}

func NewSiteCrawler(launcher Launcher, opts Options) *SiteCrawler {
	return &SiteCrawler{
		launcher: launcher,
		opts:     opts,
		log:      log.With().Str("component", "site_crawler").Logger(),
	}
}

func citySlug(city string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(city)), " ", "-")
}

// SearchURL is the results page for one city and grade level.
func SearchURL(baseURL, state, city, gradeCode string) string {
	return fmt.Sprintf("%s/%s/%s/schools/?gradeLevels=%s",
		strings.TrimRight(baseURL, "/"),
		citySlug(state),
		citySlug(city),
		url.QueryEscape(gradeCode),
	)
}

// CrawlCities crawls every city on a bounded pool of browser sessions and returns
// the deduplicated listings. Only a session startup failure is returned as an error.
func (c *SiteCrawler) CrawlCities(ctx context.Context, cities []string, batch models.Batch) ([]models.Listing, error) {
	ctx, span := tracer.Start(ctx, "CrawlCities")
	defer span.End()

	results := make([][]models.Listing, len(cities))
	err := runSessions(ctx, c.launcher, c.opts.Workers, len(cities), func(ctx context.Context, page Page, i int) {
		results[i] = c.CrawlCity(ctx, page, cities[i], batch)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	var all []models.Listing
	for _, r := range results {
		all = append(all, r...)
	}
	return models.Dedupe(all), nil
}

// CrawlCity crawls all grade levels of one city on an already open page.
func (c *SiteCrawler) CrawlCity(ctx context.Context, page Page, city string, batch models.Batch) []models.Listing {
	_, span := tracer.Start(ctx, "CrawlCity")
	span.SetAttributes(attribute.String("city", city))
	defer span.End()

	var all []models.Listing
	for _, grade := range c.opts.Grades {
		if ctx.Err() != nil {
			break
		}
		listings := c.crawlGrade(ctx, page, city, grade, batch)
		c.log.Info().
			Str("city", city).
			Str("grade", grade.Label).
			Int("schools", len(listings)).
			Msg("finished grade")
		all = append(all, listings...)
	}

	span.SetAttributes(attribute.Int("schools", len(all)))
	return models.Dedupe(all)
}

func (c *SiteCrawler) crawlGrade(ctx context.Context, page Page, city string, grade Grade, batch models.Batch) []models.Listing {
	logger := c.log.With().Str("city", city).Str("grade", grade.Label).Logger()

	target := SearchURL(c.opts.BaseURL, c.opts.State, city, grade.Code)
	if err := page.Navigate(target); err != nil {
		logger.Warn().Err(err).Str("url", target).Msg("cannot open search results")
		return nil
	}

	var listings []models.Listing
	previous := ""
	for n := 1; ctx.Err() == nil; n++ {
		if err := page.WaitFor(SelSchoolCard, c.opts.Timeout); err != nil {
			logger.Info().Err(err).Int("page", n).Msg("no school cards rendered, ending pagination")
			break
		}

		doc, err := awaitChange(ctx, page, previous, c.opts.Timeout, pageSignature)
		if errors.Is(err, ErrTimeout) {
			logger.Info().Err(err).Int("page", n).Msg("timed out waiting for next results page, ending pagination")
			break
		}
		if err != nil {
			logger.Warn().Err(err).Int("page", n).Msg("cannot read results page")
			break
		}
		previous = pageSignature(doc)

		pageURL := page.URL()
		if pageURL == "" {
			pageURL = target
		}
		found := extractListings(doc, pageURL, city, batch)
		logger.Debug().Int("page", n).Int("schools", len(found)).Msg("scraped results page")
		listings = append(listings, found...)

		if c.opts.MaxPages > 0 && n >= c.opts.MaxPages {
			logger.Warn().Int("max_pages", c.opts.MaxPages).Msg("page limit reached")
			break
		}
		if !hasNextPage(doc) {
			break
		}
		if err := page.ClickFirst(SelNextPage); err != nil {
			logger.Info().Err(err).Int("page", n).Msg("cannot advance to next page")
			break
		}
	}
	return listings
}
