package crawler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"school-scraper/internal/models"
)

const base = "https://gs.test"

func newTestCrawler(site *fakeSite, grades ...Grade) *SiteCrawler {
	return NewSiteCrawler(site, Options{
		BaseURL:  base,
		State:    "california",
		Grades:   grades,
		Workers:  2,
		Timeout:  time.Millisecond,
		MaxPages: 10,
	})
}

func names(listings []models.Listing) []string {
	out := make([]string, 0, len(listings))
	for _, l := range listings {
		out = append(out, l.Name)
	}
	return out
}

func TestSiteCrawler_PaginatesUntilNoNextControl(t *testing.T) {
	site := &fakeSite{routes: map[string][]string{
		SearchURL(base, "california", "Irvine", "e"): {
			resultsPage(true, card("Alpha Elementary", "1 A St", ""), card("Beta Elementary", "2 B St", "")),
			resultsPage(true, card("Gamma Elementary", "3 C St", "")),
			resultsPage(false, card("Delta Elementary", "4 D St", "")),
		},
	}}
	crawler := newTestCrawler(site, Grade{"e", "Elementary"})

	listings, err := crawler.CrawlCities(context.Background(), []string{"Irvine"}, models.Batch{ID: "b"})
	require.NoError(t, err)

	assert.Equal(t, []string{"Alpha Elementary", "Beta Elementary", "Gamma Elementary", "Delta Elementary"}, names(listings))
	assert.Equal(t, 1, site.opened)
	assert.Equal(t, 1, site.closed)
}

func TestSiteCrawler_TimeoutEndsOnlyThatGrade(t *testing.T) {
	site := &fakeSite{routes: map[string][]string{
		// the second page never renders cards
		SearchURL(base, "california", "Irvine", "e"): {
			resultsPage(true, card("Alpha Elementary", "1 A St", "")),
			"<html><body>loading</body></html>",
		},
		SearchURL(base, "california", "Irvine", "m"): {
			resultsPage(false, card("Mu Middle", "5 M St", "")),
		},
	}}
	crawler := newTestCrawler(site, Grade{"e", "Elementary"}, Grade{"m", "Middle"})

	listings, err := crawler.CrawlCities(context.Background(), []string{"Irvine"}, models.Batch{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Alpha Elementary", "Mu Middle"}, names(listings))
}

func TestSiteCrawler_DeduplicatesAcrossGrades(t *testing.T) {
	shared := card("Unified K-8", "7 K St", `<div class="filter-chips"><span class="filter-chip">Elementary school</span></div>`)
	sharedMiddle := card("Unified K-8", "7 K St", `<div class="filter-chips"><span class="filter-chip">Middle school</span></div>`)
	site := &fakeSite{routes: map[string][]string{
		SearchURL(base, "california", "Irvine", "e"): {resultsPage(false, shared)},
		SearchURL(base, "california", "Irvine", "m"): {resultsPage(false, sharedMiddle)},
	}}
	crawler := newTestCrawler(site, Grade{"e", "Elementary"}, Grade{"m", "Middle"})

	listings, err := crawler.CrawlCities(context.Background(), []string{"Irvine"}, models.Batch{})
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, []string{"Elementary school", "Middle school"}, listings[0].Types)
}

func TestSiteCrawler_UnchangedPageStops(t *testing.T) {
	same := resultsPage(true, card("Loop School", "1 L St", ""))
	site := &fakeSite{routes: map[string][]string{
		SearchURL(base, "california", "Irvine", "e"): {same, same, same},
	}}
	crawler := newTestCrawler(site, Grade{"e", "Elementary"})

	listings, err := crawler.CrawlCities(context.Background(), []string{"Irvine"}, models.Batch{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Loop School"}, names(listings))
	assert.Len(t, site.clicked, 1)
}

func TestSiteCrawler_WaitsForSlowNextPage(t *testing.T) {
	tests := []struct {
		name string
		lag  int
	}{
		{name: "renders immediately", lag: 0},
		{name: "one stale read", lag: 1},
		{name: "several stale reads", lag: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			site := &fakeSite{lag: tt.lag, routes: map[string][]string{
				SearchURL(base, "california", "Irvine", "e"): {
					resultsPage(true, card("Alpha Elementary", "1 A St", "")),
					resultsPage(false, card("Beta Elementary", "2 B St", "")),
				},
			}}
			crawler := newTestCrawler(site, Grade{"e", "Elementary"})
			crawler.opts.Timeout = 2 * time.Second

			listings, err := crawler.CrawlCities(context.Background(), []string{"Irvine"}, models.Batch{})
			require.NoError(t, err)
			assert.Equal(t, []string{"Alpha Elementary", "Beta Elementary"}, names(listings))
		})
	}
}

func TestAwaitChange(t *testing.T) {
	alpha := resultsPage(true, card("Alpha Elementary", "1 A St", ""))
	beta := resultsPage(false, card("Beta Elementary", "2 B St", ""))
	link := SearchURL(base, "california", "Irvine", "e")

	tests := []struct {
		name     string
		pages    []string
		lag      int
		previous bool
		wantErr  error
		want     string
	}{
		{name: "first read accepted", pages: []string{alpha}, want: "Alpha Elementary\x00"},
		{name: "changed page", pages: []string{alpha, beta}, previous: true, want: "Beta Elementary\x00"},
		{name: "stale then changed", pages: []string{alpha, beta}, lag: 2, previous: true, want: "Beta Elementary\x00"},
		{name: "never changes", pages: []string{alpha, alpha}, previous: true, wantErr: ErrTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			site := &fakeSite{lag: tt.lag, routes: map[string][]string{link: tt.pages}}
			page, err := site.Open(context.Background())
			require.NoError(t, err)
			require.NoError(t, page.Navigate(link))

			previous := ""
			if tt.previous {
				previous = "Alpha Elementary\x00"
				require.NoError(t, page.ClickFirst(SelNextPage))
			}

			doc, err := awaitChange(context.Background(), page, previous, 300*time.Millisecond, pageSignature)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, pageSignature(doc))
		})
	}
}

func TestAwaitChange_ContextCancelled(t *testing.T) {
	same := resultsPage(true, card("Loop School", "1 L St", ""))
	link := SearchURL(base, "california", "Irvine", "e")
	site := &fakeSite{routes: map[string][]string{link: {same}}}
	page, err := site.Open(context.Background())
	require.NoError(t, err)
	require.NoError(t, page.Navigate(link))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = awaitChange(ctx, page, "Loop School\x00", time.Minute, pageSignature)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestSiteCrawler_MultipleCities(t *testing.T) {
	site := &fakeSite{routes: map[string][]string{
		SearchURL(base, "california", "Irvine", "h"):     {resultsPage(false, card("Irvine High", "1 I St", ""))},
		SearchURL(base, "california", "Tustin", "h"):     {resultsPage(false, card("Tustin High", "1 T St", ""))},
		SearchURL(base, "california", "Santa Ana", "h"):  {resultsPage(false, card("Santa Ana High", "1 S St", ""))},
		SearchURL(base, "california", "Costa Mesa", "h"): {resultsPage(false, card("Costa Mesa High", "1 C St", ""))},
	}}
	crawler := newTestCrawler(site, Grade{"h", "High"})

	listings, err := crawler.CrawlCities(context.Background(), []string{"Irvine", "Tustin", "Santa Ana", "Costa Mesa"}, models.Batch{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Irvine High", "Tustin High", "Santa Ana High", "Costa Mesa High"}, names(listings))
	assert.Equal(t, 2, site.opened, "one session per worker")
	assert.Equal(t, site.opened, site.closed)
}

func TestSiteCrawler_SessionStartFailureAborts(t *testing.T) {
	site := &fakeSite{openErr: errors.New("chrome not installed")}
	crawler := newTestCrawler(site, Grade{"e", "Elementary"})

	_, err := crawler.CrawlCities(context.Background(), []string{"Irvine"}, models.Batch{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSessionStart)
}

func TestSiteCrawler_UnknownCityYieldsNothing(t *testing.T) {
	site := &fakeSite{routes: map[string][]string{}}
	crawler := newTestCrawler(site, Grade{"e", "Elementary"})

	listings, err := crawler.CrawlCities(context.Background(), []string{"Atlantis"}, models.Batch{})
	require.NoError(t, err)
	assert.Empty(t, listings)
}
