package crawler

// Search results page.
const (
	SelSchoolCard = "li.school-card"
	SelNextPage   = "a.next_page"

	selName          = "a.name"
	selAddress       = ".address"
	selRating        = ".gs-rating .circle-rating--search-page"
	selSubrating     = ".subratings .subrating"
	selSubratingName = ".name"
	selSubratingVal  = ".circle-rating--xx-small"
	selTypeChip      = ".filter-chips .filter-chip"
	selStarRating    = ".user-rating .five-stars .rating-value"
	selReviewLink    = `a[href*="/reviews/"]`
	selListingLink   = "div.header > a"
)

// Sub-rating labels as rendered on a card.
const (
	subratingAcademicProgress = "Academic Progress"
	subratingTestScores       = "Test Scores"
	subratingEquity           = "Equity"
)

// Review page.
const (
	SelReviewList     = "div.review-list-column"
	SelReviewMore     = "div.review-list-column div.five-star-review div.comment > span > span > a"
	SelReviewText     = "div.review-list-column div.five-star-review div.comment > span"
	SelReviewNextPage = "a.anchor-button:not(.disabled)"

	nextPageIcon = "icon-chevron-right"
)
