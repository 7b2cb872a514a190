package models

import (
	"slices"
)

// Dedupe keeps one listing per (name, address), in first-seen order. Later duplicates
// fill fields the first one was missing and contribute their type tags.
func Dedupe(listings []Listing) []Listing {
	index := make(map[Key]int, len(listings))
	out := make([]Listing, 0, len(listings))

	for _, l := range listings {
		key := l.Key()
		if i, dup := index[key]; dup {
			out[i] = mergeListing(out[i], l)
			continue
		}
		index[key] = len(out)
		out = append(out, l)
	}
	return out
}

func fill[T any](a, b Optional[T]) Optional[T] {
	if a.Valid() {
		return a
	}
	return b
}

func mergeListing(a, b Listing) Listing {
	a.Rating = fill(a.Rating, b.Rating)
	a.AcademicProgress = fill(a.AcademicProgress, b.AcademicProgress)
	a.TestScores = fill(a.TestScores, b.TestScores)
	a.Equity = fill(a.Equity, b.Equity)
	a.StarRating = fill(a.StarRating, b.StarRating)
	a.ReviewURL = fill(a.ReviewURL, b.ReviewURL)
	a.ListingURL = fill(a.ListingURL, b.ListingURL)

	types := slices.Clone(a.Types)
	for _, t := range b.Types {
		if !slices.Contains(types, t) {
			types = append(types, t)
		}
	}
	a.Types = types
	return a
}
