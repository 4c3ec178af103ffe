package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/byteowlz/tailr/internal/browser"
)

type BrowserOptions struct {
	Headless     bool
	UserAgent    string
	Cookies      []*http.Cookie
	WaitSelector string
	Timeout      time.Duration
}

// BrowserPage keeps a Chrome tab open on the job page. Each Snapshot reads
// the live DOM, so panels rendered after load appear on later snapshots.
type BrowserPage struct {
	url         string
	tab         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
	timeout     time.Duration
}

// NewBrowserPage starts Chrome, injects cookies and navigates to url. It
// returns once the body is ready; the job panel may still be loading.
func NewBrowserPage(ctx context.Context, url string, opts BrowserOptions) (*BrowserPage, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	tab, cancelTab := chromedp.NewContext(allocCtx)

	page := &BrowserPage{
		url:         url,
		tab:         tab,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
		timeout:     opts.Timeout,
	}

	tasks := chromedp.Tasks{}
	if len(opts.Cookies) > 0 {
		params := browser.CookieParams(opts.Cookies, url)
		tasks = append(tasks, chromedp.ActionFunc(func(ctx context.Context) error {
			return network.SetCookies(params).Do(ctx)
		}))
	}
	tasks = append(tasks, chromedp.Navigate(url))
	if opts.WaitSelector != "" {
		tasks = append(tasks, chromedp.WaitVisible(opts.WaitSelector, chromedp.ByQuery))
	} else {
		tasks = append(tasks, chromedp.WaitReady("body", chromedp.ByQuery))
	}

	// The browser is bound to the context of the first Run; start it on the
	// tab itself so the navigation timeout below does not close it.
	if err := chromedp.Run(tab); err != nil {
		page.Close()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	runCtx, cancel := context.WithTimeout(tab, opts.Timeout)
	defer cancel()
	if err := chromedp.Run(runCtx, tasks); err != nil {
		page.Close()
		return nil, fmt.Errorf("failed to load %s in browser: %w", url, err)
	}

	return page, nil
}

func (p *BrowserPage) URL() string { return p.url }

// Snapshot serializes the current document. ctx bounds the wait in addition
// to the page's own timeout.
func (p *BrowserPage) Snapshot(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	runCtx, cancel := context.WithTimeout(p.tab, p.timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var html string
	if err := chromedp.Run(runCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("failed to read page DOM: %w", err)
	}
	return html, nil
}

func (p *BrowserPage) Close() error {
	p.cancelTab()
	p.cancelAlloc()
	return nil
}
