package crawler

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"

	"school-scraper/internal/models"
)

type ReviewOptions struct {
	Workers  int
	Timeout  time.Duration
	MaxPages int
}

// ReviewCrawler collects review texts from school review pages.
type ReviewCrawler struct {
	launcher Launcher
	opts     ReviewOptions
	log      zerolog.Logger
}

func NewReviewCrawler(launcher Launcher, opts ReviewOptions) *ReviewCrawler {
	return &ReviewCrawler{
		launcher: launcher,
		opts:     opts,
		log:      log.With().Str("component", "review_crawler").Logger(),
	}
}

// CrawlAll fetches the reviews of every listing that has a review page.
func (c *ReviewCrawler) CrawlAll(ctx context.Context, listings []models.Listing) ([]models.Review, error) {
	ctx, span := tracer.Start(ctx, "CrawlReviews")
	defer span.End()

	var targets []models.Listing
	for _, l := range listings {
		if l.ReviewURL.Valid() {
			targets = append(targets, l)
		}
	}

	results := make([][]models.Review, len(targets))
	err := runSessions(ctx, c.launcher, c.opts.Workers, len(targets), func(ctx context.Context, page Page, i int) {
		l := targets[i]
		link, _ := l.ReviewURL.Get()
		for _, body := range c.Crawl(ctx, page, link) {
			results[i] = append(results[i], models.Review{
				SchoolName: l.Name,
				Address:    l.Address.OrElse(""),
				Body:       body,
			})
		}
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	var reviews []models.Review
	for _, r := range results {
		reviews = append(reviews, r...)
	}
	span.SetAttributes(attribute.Int("reviews", len(reviews)))
	return reviews, nil
}

// Crawl returns every review text reachable from reviewURL. Non-HTTP links yield nothing.
func (c *ReviewCrawler) Crawl(ctx context.Context, page Page, reviewURL string) []string {
	logger := c.log.With().Str("url", reviewURL).Logger()

	if !strings.HasPrefix(reviewURL, "http") {
		logger.Warn().Msg("invalid review link")
		return nil
	}
	if err := page.Navigate(reviewURL); err != nil {
		logger.Warn().Err(err).Msg("cannot open review page")
		return nil
	}
	if err := page.WaitFor(SelReviewList, c.opts.Timeout); err != nil {
		logger.Info().Err(err).Msg("review list did not render")
		return nil
	}

	var reviews []string
	previous := ""
	for n := 1; ctx.Err() == nil; n++ {
		if _, err := page.ClickAll(SelReviewMore); err != nil {
			logger.Debug().Err(err).Int("page", n).Msg("cannot expand reviews")
		}

		html, err := page.HTML()
		if err != nil {
			logger.Warn().Err(err).Int("page", n).Msg("cannot read review page")
			break
		}
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
		if err != nil {
			logger.Warn().Err(err).Int("page", n).Msg("cannot parse review page")
			break
		}

		found := extractReviews(doc)
		previous = reviewSignature(doc)

		for _, r := range found {
			if !slices.Contains(reviews, r) {
				reviews = append(reviews, r)
			}
		}

		if c.opts.MaxPages > 0 && n >= c.opts.MaxPages {
			break
		}
		if !hasNextReviewPage(doc) {
			logger.Debug().Int("page", n).Msg("no more review pages")
			break
		}
		if err := page.ClickLast(SelReviewNextPage); err != nil {
			logger.Info().Err(err).Msg("cannot advance to next review page")
			break
		}
		if err := page.WaitFor(SelReviewList, c.opts.Timeout); err != nil {
			logger.Info().Err(err).Msg("timed out waiting for next review page")
			break
		}
		if _, err := awaitChange(ctx, page, previous, c.opts.Timeout, reviewSignature); err != nil {
			logger.Info().Err(err).Int("page", n+1).Msg("review page did not change, ending pagination")
			break
		}
	}
	return reviews
}

func reviewSignature(doc *goquery.Document) string {
	return strings.Join(extractReviews(doc), "\x00")
}
