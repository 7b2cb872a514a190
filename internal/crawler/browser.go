package crawler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

var (
	// ErrSessionStart is returned when a browser session cannot be opened. It aborts the run.
	ErrSessionStart = errors.New("crawler: cannot start browser session")
	// ErrTimeout is returned when a wait for an element exceeds its timeout.
	ErrTimeout = errors.New("crawler: timed out waiting for element")
	// ErrNotFound is returned when a click target is not on the page.
	ErrNotFound = errors.New("crawler: element not found")
)

// Page is one controllable browser tab. A Page is owned by a single goroutine.
type Page interface {
	Navigate(url string) error
	// WaitFor blocks until selector matches at least one element, or returns ErrTimeout.
	WaitFor(selector string, timeout time.Duration) error
	// HTML returns a snapshot of the rendered document.
	HTML() (string, error)
	// URL is the address of the current document.
	URL() string
	ClickFirst(selector string) error
	// ClickLast scrolls the last match into view and clicks it.
	ClickLast(selector string) error
	// ClickAll clicks every match and reports how many were clicked.
	ClickAll(selector string) (int, error)
	Close() error
}

// Launcher opens browser sessions.
type Launcher interface {
	Open(ctx context.Context) (Page, error)
}

// pagePollInterval spaces re-reads of a page that has not re-rendered yet.
const pagePollInterval = 100 * time.Millisecond

// awaitChange reads the page until its signature differs from previous. It
// returns ErrTimeout once timeout has elapsed and at least two reads matched.
// An empty previous accepts the first read.
func awaitChange(ctx context.Context, page Page, previous string, timeout time.Duration, signature func(*goquery.Document) string) (*goquery.Document, error) {
	deadline := time.Now().Add(timeout)
	for reads := 1; ; reads++ {
		html, err := page.HTML()
		if err != nil {
			return nil, err
		}
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
		if err != nil {
			return nil, err
		}
		if previous == "" || signature(doc) != previous {
			return doc, nil
		}

		wait := time.Until(deadline)
		if wait <= 0 && reads > 1 {
			return nil, fmt.Errorf("page unchanged after %s: %w", timeout, ErrTimeout)
		}
		wait = min(max(wait, 0), pagePollInterval)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
}
