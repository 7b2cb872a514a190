package crawler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// ChromeLauncher starts a dedicated headless Chrome process per session.
type ChromeLauncher struct {
	Headless        bool
	UserAgent       string
	NavigateTimeout time.Duration
	// Settle is slept after every click so that the page can start re-rendering.
	Settle time.Duration
}

func (l *ChromeLauncher) Open(ctx context.Context) (Page, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", l.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if l.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(l.UserAgent))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	// the first Run starts the browser; it must not be bound to a short-lived context
	if err := chromedp.Run(tabCtx); err != nil {
		tabCancel()
		allocCancel()
		return nil, fmt.Errorf("%w: %w", ErrSessionStart, err)
	}

	navTimeout := l.NavigateTimeout
	if navTimeout <= 0 {
		navTimeout = 60 * time.Second
	}

	return &chromePage{
		ctx:        tabCtx,
		navTimeout: navTimeout,
		settle:     l.Settle,
		cancel: func() {
			tabCancel()
			allocCancel()
		},
	}, nil
}

type chromePage struct {
	ctx        context.Context
	cancel     context.CancelFunc
	navTimeout time.Duration
	settle     time.Duration
	url        string
}

func (p *chromePage) Navigate(url string) error {
	ctx, cancel := context.WithTimeout(p.ctx, p.navTimeout)
	defer cancel()

	if err := chromedp.Run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate %s: %w", url, mapTimeout(err))
	}
	p.url = url
	return nil
}

func (p *chromePage) WaitFor(selector string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(p.ctx, timeout)
	defer cancel()

	if err := chromedp.Run(ctx, chromedp.WaitReady(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("wait for %q: %w", selector, mapTimeout(err))
	}
	return nil
}

func (p *chromePage) HTML() (string, error) {
	var html string
	err := chromedp.Run(p.ctx,
		chromedp.Location(&p.url),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("read document: %w", err)
	}
	return html, nil
}

func (p *chromePage) URL() string {
	return p.url
}

const clickOneScript = `(() => {
	const els = document.querySelectorAll(%s);
	if (els.length === 0) return false;
	const el = els[%s];
	el.scrollIntoView(true);
	el.click();
	return true;
})()`

const clickAllScript = `(() => {
	const els = Array.from(document.querySelectorAll(%s));
	els.forEach(el => el.click());
	return els.length;
})()`

func (p *chromePage) clickOne(selector, index string) error {
	quoted, err := json.Marshal(selector)
	if err != nil {
		return err
	}

	var found bool
	script := fmt.Sprintf(clickOneScript, quoted, index)
	if err := chromedp.Run(p.ctx, chromedp.Evaluate(script, &found)); err != nil {
		return fmt.Errorf("click %q: %w", selector, err)
	}
	if !found {
		return fmt.Errorf("click %q: %w", selector, ErrNotFound)
	}
	return p.pause()
}

func (p *chromePage) ClickFirst(selector string) error {
	return p.clickOne(selector, "0")
}

func (p *chromePage) ClickLast(selector string) error {
	return p.clickOne(selector, "els.length - 1")
}

func (p *chromePage) ClickAll(selector string) (int, error) {
	quoted, err := json.Marshal(selector)
	if err != nil {
		return 0, err
	}

	var n int
	script := fmt.Sprintf(clickAllScript, quoted)
	if err := chromedp.Run(p.ctx, chromedp.Evaluate(script, &n)); err != nil {
		return 0, fmt.Errorf("click all %q: %w", selector, err)
	}
	if n > 0 {
		return n, p.pause()
	}
	return n, nil
}

func (p *chromePage) pause() error {
	if p.settle <= 0 {
		return nil
	}
	return chromedp.Run(p.ctx, chromedp.Sleep(p.settle))
}

func (p *chromePage) Close() error {
	p.cancel()
	return nil
}

func mapTimeout(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return err
}
