// Package browser reads the user's browser cookies so logged-in job boards
// (LinkedIn in particular) render the full posting.
package browser

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/browserutils/kooky"
	_ "github.com/browserutils/kooky/browser/all"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
)

type BrowserType string

const (
	BrowserAuto    BrowserType = "auto"
	BrowserChrome  BrowserType = "chrome"
	BrowserFirefox BrowserType = "firefox"
	BrowserSafari  BrowserType = "safari"
	BrowserZen     BrowserType = "zen"
)

// autoOrder is the preference order when no browser is configured. The first
// browser holding any cookie for the host wins.
var autoOrder = []BrowserType{BrowserChrome, BrowserFirefox, BrowserZen, BrowserSafari}

// classifyOrder puts Zen ahead of Firefox since Zen profiles report as Firefox.
var classifyOrder = []BrowserType{BrowserChrome, BrowserZen, BrowserFirefox, BrowserSafari}

// ParseBrowserType maps a config or flag value to a BrowserType.
func ParseBrowserType(s string) (BrowserType, error) {
	switch bt := BrowserType(strings.ToLower(strings.TrimSpace(s))); bt {
	case "":
		return BrowserAuto, nil
	case BrowserAuto, BrowserChrome, BrowserFirefox, BrowserSafari, BrowserZen:
		return bt, nil
	default:
		return "", fmt.Errorf("unknown browser %q (want auto, chrome, firefox, safari or zen)", s)
	}
}

// StoredCookie is a cookie together with the browser it was read from.
type StoredCookie struct {
	Browser string
	Path    string
	Cookie  *http.Cookie
}

// CookieSource yields every cookie the local browsers hold.
type CookieSource func(ctx context.Context) ([]StoredCookie, error)

// CookieJar selects the cookies for a page from a CookieSource.
type CookieJar struct {
	browserType BrowserType
	source      CookieSource
}

// NewCookieJar reads from the local browser profiles through kooky.
func NewCookieJar(browserType BrowserType) *CookieJar {
	return NewCookieJarFrom(browserType, kookySource)
}

// NewCookieJarFrom uses an explicit source.
func NewCookieJarFrom(browserType BrowserType, source CookieSource) *CookieJar {
	if browserType == "" {
		browserType = BrowserAuto
	}
	return &CookieJar{browserType: browserType, source: source}
}

// CookiesFor returns the unexpired cookies whose domain covers targetURL's host.
func (j *CookieJar) CookiesFor(ctx context.Context, targetURL string) ([]*http.Cookie, error) {
	u, err := url.Parse(targetURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	host := u.Hostname()

	stored, err := j.source(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read browser cookies: %w", err)
	}

	now := time.Now()
	byBrowser := make(map[BrowserType][]*http.Cookie)
	for _, sc := range stored {
		c := sc.Cookie
		if c == nil || !matchesDomain(c.Domain, host) || expired(c, now) {
			continue
		}
		for _, bt := range classifyOrder {
			if matchesBrowser(sc.Browser, sc.Path, bt) {
				byBrowser[bt] = append(byBrowser[bt], c)
				break
			}
		}
	}

	if j.browserType != BrowserAuto {
		return byBrowser[j.browserType], nil
	}
	for _, bt := range autoOrder {
		if cookies := byBrowser[bt]; len(cookies) > 0 {
			return cookies, nil
		}
	}
	return nil, nil
}

func kookySource(ctx context.Context) ([]StoredCookie, error) {
	var out []StoredCookie
	for cookie, err := range kooky.TraverseCookies(ctx) {
		if err != nil {
			// Unreadable profiles are common (locked DBs, missing keychain access).
			continue
		}
		out = append(out, StoredCookie{
			Browser: cookie.Browser.Browser(),
			Path:    cookie.Browser.FilePath(),
			Cookie: &http.Cookie{
				Name:     cookie.Name,
				Value:    cookie.Value,
				Path:     cookie.Path,
				Domain:   cookie.Domain,
				Expires:  cookie.Expires,
				Secure:   cookie.Secure,
				HttpOnly: cookie.HttpOnly,
			},
		})
	}
	return out, nil
}

func matchesBrowser(name, path string, bt BrowserType) bool {
	name = strings.ToLower(name)
	path = strings.ToLower(path)
	switch bt {
	case BrowserChrome:
		return strings.Contains(name, "chrome") || strings.Contains(name, "chromium")
	case BrowserZen:
		return strings.Contains(name, "zen") || (strings.Contains(name, "firefox") && strings.Contains(path, "zen"))
	case BrowserFirefox:
		return strings.Contains(name, "firefox")
	case BrowserSafari:
		return strings.Contains(name, "safari")
	}
	return false
}

func matchesDomain(cookieDomain, host string) bool {
	cookieDomain = strings.TrimPrefix(cookieDomain, ".")
	if cookieDomain == "" || host == "" {
		return false
	}
	return host == cookieDomain || strings.HasSuffix(host, "."+cookieDomain)
}

func expired(c *http.Cookie, now time.Time) bool {
	return !c.Expires.IsZero() && c.Expires.Before(now)
}

// CookieParams converts cookies for network.SetCookies. Cookies without a
// domain are bound to pageURL.
func CookieParams(cookies []*http.Cookie, pageURL string) []*network.CookieParam {
	params := make([]*network.CookieParam, 0, len(cookies))
	for _, c := range cookies {
		p := &network.CookieParam{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HTTPOnly: c.HttpOnly,
		}
		if p.Domain == "" {
			p.URL = pageURL
		}
		if !c.Expires.IsZero() {
			exp := cdp.TimeSinceEpoch(c.Expires)
			p.Expires = &exp
		}
		params = append(params, p)
	}
	return params
}
