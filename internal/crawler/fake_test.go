package crawler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// fakeSite serves canned documents. Each URL maps to the sequence of documents
// reached by clicking through its pagination.
type fakeSite struct {
	mu      sync.Mutex
	routes  map[string][]string
	openErr error
	// lag is how many reads after a click still return the previous document.
	lag     int
	opened  int
	closed  int
	clicked []string
}

func (s *fakeSite) Open(ctx context.Context) (Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.openErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrSessionStart, s.openErr)
	}
	s.opened++
	return &fakePage{site: s}, nil
}

type fakePage struct {
	site  *fakeSite
	url   string
	pages []string
	index int
	stale int
}

func (p *fakePage) Navigate(url string) error {
	p.site.mu.Lock()
	defer p.site.mu.Unlock()
	pages, ok := p.site.routes[url]
	if !ok {
		return fmt.Errorf("navigate %s: 404", url)
	}
	p.url = url
	p.pages = pages
	p.index = 0
	return nil
}

func (p *fakePage) current() string {
	if p.index >= len(p.pages) {
		return "<html><body></body></html>"
	}
	return p.pages[p.index]
}

func (p *fakePage) count(selector string) int {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(p.current()))
	if err != nil {
		return 0
	}
	return doc.Find(selector).Length()
}

func (p *fakePage) WaitFor(selector string, timeout time.Duration) error {
	if p.count(selector) == 0 {
		return fmt.Errorf("wait for %q: %w", selector, ErrTimeout)
	}
	return nil
}

func (p *fakePage) HTML() (string, error) {
	if p.stale > 0 && p.index > 0 {
		p.stale--
		return p.pages[p.index-1], nil
	}
	return p.current(), nil
}

func (p *fakePage) URL() string {
	return p.url
}

func (p *fakePage) click(selector string) error {
	if p.count(selector) == 0 {
		return fmt.Errorf("click %q: %w", selector, ErrNotFound)
	}
	p.site.mu.Lock()
	p.site.clicked = append(p.site.clicked, selector)
	p.stale = p.site.lag
	p.site.mu.Unlock()
	p.index++
	return nil
}

func (p *fakePage) ClickFirst(selector string) error { return p.click(selector) }
func (p *fakePage) ClickLast(selector string) error  { return p.click(selector) }

func (p *fakePage) ClickAll(selector string) (int, error) {
	n := p.count(selector)
	p.site.mu.Lock()
	for i := 0; i < n; i++ {
		p.site.clicked = append(p.site.clicked, selector)
	}
	p.site.mu.Unlock()
	return n, nil
}

func (p *fakePage) Close() error {
	p.site.mu.Lock()
	defer p.site.mu.Unlock()
	p.site.closed++
	return nil
}

func card(name, address string, extra string) string {
	return fmt.Sprintf(`<li class="school-card">
	<div class="header"><a href="/california/irvine/%s/">x</a></div>
	<a class="name">%s</a>
	<div class="address">%s • Irvine, CA</div>
	%s
</li>`, strings.ToLower(strings.ReplaceAll(name, " ", "-")), name, address, extra)
}

func resultsPage(next bool, cards ...string) string {
	pager := ""
	if next {
		pager = `<a class="next_page" href="#">Next</a>`
	}
	return "<html><body><ol>" + strings.Join(cards, "") + "</ol>" + pager + "</body></html>"
}
