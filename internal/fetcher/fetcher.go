// Package fetcher opens job pages as snapshot sources: a static HTTP fetch, a
// live Chrome tab, or a local file.
package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/byteowlz/tailr/internal/detect"
	"github.com/byteowlz/tailr/internal/logging"
)

// Page is an opened job page. Snapshot returns the current serialized
// document; Close releases whatever holds it open.
type Page interface {
	URL() string
	Snapshot(ctx context.Context) (string, error)
	Close() error
}

type RenderMode string

const (
	RenderAuto   RenderMode = "auto"
	RenderAlways RenderMode = "always"
	RenderNever  RenderMode = "never"
)

// ParseRenderMode accepts the values of the --render flag.
func ParseRenderMode(s string) (RenderMode, error) {
	switch m := RenderMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return RenderAuto, nil
	case RenderAuto, RenderAlways, RenderNever:
		return m, nil
	default:
		return "", fmt.Errorf("invalid render mode %q (want auto, always or never)", s)
	}
}

// CookieProvider supplies the cookies to send with a page request.
type CookieProvider interface {
	CookiesFor(ctx context.Context, targetURL string) ([]*http.Cookie, error)
}

type Options struct {
	Render       RenderMode
	Timeout      time.Duration
	JSTimeout    time.Duration
	UserAgent    string
	BrowserAgent string
	WaitSelector string
	Headless     bool
	Cookies      CookieProvider
	Log          *logging.Logger
}

// spaPlatforms render the posting client side; a static fetch only gets the shell.
var spaPlatforms = map[detect.PlatformKind]bool{
	detect.LinkedIn: true,
	detect.Workday:  true,
}

type launchFunc func(ctx context.Context, url string, opts BrowserOptions) (Page, error)

// Opener picks a page source per URL according to Options.Render.
type Opener struct {
	client *http.Client
	agents *UserAgentSelector
	opts   Options
	log    *logging.Logger
	launch launchFunc
}

func NewOpener(opts Options) *Opener {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.JSTimeout <= 0 {
		opts.JSTimeout = opts.Timeout
	}
	if opts.Render == "" {
		opts.Render = RenderAuto
	}
	return &Opener{
		client: &http.Client{Timeout: opts.Timeout},
		agents: NewUserAgentSelector(),
		opts:   opts,
		log:    opts.Log.With("fetch"),
		launch: func(ctx context.Context, url string, bo BrowserOptions) (Page, error) {
			page, err := NewBrowserPage(ctx, url, bo)
			if err != nil {
				return nil, err
			}
			return page, nil
		},
	}
}

// Open returns a page for url. The caller must Close it.
func (o *Opener) Open(ctx context.Context, url string) (Page, error) {
	cookies := o.cookies(ctx, url)

	switch o.opts.Render {
	case RenderNever:
		return asPage(o.static(ctx, url, cookies))
	case RenderAlways:
		return o.browser(ctx, url, cookies)
	}

	if kind := detect.Route(url); spaPlatforms[kind] {
		o.log.Debugf("%s pages render client side, using browser", kind)
		page, err := o.browser(ctx, url, cookies)
		if err == nil {
			return page, nil
		}
		o.log.Printf("browser unavailable, falling back to static fetch: %v", err)
		return asPage(o.static(ctx, url, cookies))
	}

	page, err := o.static(ctx, url, cookies)
	if err != nil {
		return nil, err
	}
	if !needsJSRendering(page.html) {
		return page, nil
	}

	o.log.Debugf("static HTML of %s looks script-rendered, retrying in browser", url)
	rendered, err := o.browser(ctx, url, cookies)
	if err != nil {
		o.log.Printf("browser unavailable, keeping static HTML: %v", err)
		return page, nil
	}
	return rendered, nil
}

func (o *Opener) cookies(ctx context.Context, url string) []*http.Cookie {
	if o.opts.Cookies == nil {
		return nil
	}
	cookies, err := o.opts.Cookies.CookiesFor(ctx, url)
	if err != nil {
		o.log.Printf("continuing without cookies: %v", err)
		return nil
	}
	o.log.Debugf("using %d browser cookie(s) for %s", len(cookies), url)
	return cookies
}

func (o *Opener) userAgent() string {
	if o.opts.UserAgent != "" {
		return o.opts.UserAgent
	}
	return o.agents.Pick(o.opts.BrowserAgent)
}

func (o *Opener) static(ctx context.Context, url string, cookies []*http.Cookie) (*StaticPage, error) {
	return FetchStatic(ctx, o.client, url, o.userAgent(), cookies)
}

// asPage keeps a failed fetch from turning into a non-nil Page holding a nil pointer.
func asPage(p *StaticPage, err error) (Page, error) {
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (o *Opener) browser(ctx context.Context, url string, cookies []*http.Cookie) (Page, error) {
	return o.launch(ctx, url, BrowserOptions{
		Headless:     o.opts.Headless,
		UserAgent:    o.userAgent(),
		Cookies:      cookies,
		WaitSelector: o.opts.WaitSelector,
		Timeout:      o.opts.JSTimeout,
	})
}

var frameworkMarkers = []string{
	"data-reactroot", "data-react-helmet", "__next_data__", "ng-app", "ng-version",
	"data-v-app", "id=\"root\"></div>", "id=\"app\"></div>",
}

// needsJSRendering guesses whether the static HTML is an unrendered client-side app shell.
func needsJSRendering(html string) bool {
	lower := strings.ToLower(html)

	for _, marker := range frameworkMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}

	bodyText := visibleBodyText(html)
	if strings.Contains(lower, "loading") && len(bodyText) < 500 {
		return true
	}
	return strings.Count(lower, "<script") > 5 && len(bodyText) < 1000
}

func visibleBodyText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}
	body := doc.Find("body")
	body.Find("script, style, noscript").Remove()
	return strings.TrimSpace(body.Text())
}
