package crawler

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"school-scraper/internal/models"
)

var innerWhitespace = regexp.MustCompile(`\s\s+`)

// cleanText normalizes rendered text the way a browser would report it.
func cleanText(s string) string {
	s = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return ' '
		}
		if !unicode.IsPrint(r) {
			return -1
		}
		return r
	}, s)
	s = innerWhitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

func optionalText(sel *goquery.Selection) models.Optional[string] {
	if sel.Length() == 0 {
		return models.None[string]()
	}
	text := cleanText(sel.First().Text())
	if text == "" {
		return models.None[string]()
	}
	return models.Some(text)
}

// parseScore reads the leading number of texts such as "7/10" or "8".
func parseScore(text models.Optional[string]) models.Optional[float64] {
	raw, ok := text.Get()
	if !ok {
		return models.None[float64]()
	}
	raw = strings.TrimSpace(strings.SplitN(raw, "/", 2)[0])
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Debug().Str("text", raw).Msg("unparseable score")
		return models.None[float64]()
	}
	return models.Some(v)
}

func resolveHref(base *url.URL, sel *goquery.Selection) models.Optional[string] {
	href, ok := sel.First().Attr("href")
	href = strings.TrimSpace(href)
	if !ok || href == "" {
		return models.None[string]()
	}
	ref, err := url.Parse(href)
	if err != nil {
		log.Debug().Err(err).Str("href", href).Msg("invalid link")
		return models.None[string]()
	}
	if base != nil {
		ref = base.ResolveReference(ref)
	}
	return models.Some(ref.String())
}

func extractCard(card *goquery.Selection, base *url.URL, city string, batch models.Batch) (models.Listing, bool) {
	name := cleanText(card.Find(selName).First().Text())
	if name == "" {
		return models.Listing{}, false
	}

	address := models.None[string]()
	if addr, ok := optionalText(card.Find(selAddress)).Get(); ok {
		addr = strings.TrimSpace(strings.SplitN(addr, "•", 2)[0])
		if addr != "" {
			address = models.Some(addr)
		}
	}

	subratings := map[string]models.Optional[float64]{}
	card.Find(selSubrating).Each(func(_ int, s *goquery.Selection) {
		label := cleanText(s.Find(selSubratingName).First().Text())
		if label == "" {
			return
		}
		subratings[label] = parseScore(optionalText(s.Find(selSubratingVal)))
	})

	types := []string{}
	card.Find(selTypeChip).Each(func(_ int, s *goquery.Selection) {
		if t := cleanText(s.Text()); t != "" {
			types = append(types, t)
		}
	})

	return models.Listing{
		Name:             name,
		Address:          address,
		Rating:           parseScore(optionalText(card.Find(selRating))),
		AcademicProgress: subratings[subratingAcademicProgress],
		TestScores:       subratings[subratingTestScores],
		Equity:           subratings[subratingEquity],
		Types:            types,
		StarRating:       parseScore(optionalText(card.Find(selStarRating))),
		ReviewURL:        resolveHref(base, card.Find(selReviewLink)),
		ListingURL:       resolveHref(base, card.Find(selListingLink)),
		City:             city,
		Batch:            batch,
	}, true
}

func extractListings(doc *goquery.Document, pageURL, city string, batch models.Batch) []models.Listing {
	base, err := url.Parse(pageURL)
	if err != nil {
		base = nil
	}

	var listings []models.Listing
	doc.Find(SelSchoolCard).Each(func(i int, card *goquery.Selection) {
		listing, ok := extractCard(card, base, city, batch)
		if !ok {
			log.Warn().Int("card", i).Str("city", city).Msg("skipping school card without a name")
			return
		}
		listings = append(listings, listing)
	})
	return listings
}

// ParseListings extracts one Listing per school card of a rendered results page.
func ParseListings(html, pageURL, city string, batch models.Batch) ([]models.Listing, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}
	return extractListings(doc, pageURL, city, batch), nil
}

func hasNextPage(doc *goquery.Document) bool {
	next := doc.Find(SelNextPage)
	return next.Length() > 0 && !next.First().HasClass("disabled")
}

// pageSignature identifies a results page by the schools on it.
func pageSignature(doc *goquery.Document) string {
	var b strings.Builder
	doc.Find(SelSchoolCard).Each(func(_ int, card *goquery.Selection) {
		b.WriteString(cleanText(card.Find(selName).First().Text()))
		b.WriteByte(0)
	})
	return b.String()
}

// ParseReviews returns the non-empty review texts of a rendered review page.
func ParseReviews(html string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}
	return extractReviews(doc), nil
}

func extractReviews(doc *goquery.Document) []string {
	var reviews []string
	doc.Find(SelReviewText).Each(func(_ int, s *goquery.Selection) {
		// drop the More/Less toggle
		body := s.Clone()
		body.Find("a").Remove()
		if text := cleanText(body.Text()); text != "" {
			reviews = append(reviews, text)
		}
	})
	return reviews
}

func hasNextReviewPage(doc *goquery.Document) bool {
	buttons := doc.Find(SelReviewNextPage)
	if buttons.Length() == 0 {
		return false
	}
	inner, err := buttons.Last().Html()
	if err != nil {
		return false
	}
	return strings.Contains(inner, nextPageIcon)
}
