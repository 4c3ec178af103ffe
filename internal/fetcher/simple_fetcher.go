package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// maxPageBytes caps how much of a response is read; job pages are far smaller.
const maxPageBytes = 8 << 20

// StaticPage is a page fetched once over plain HTTP. Its document never
// changes, so every Snapshot returns the same HTML.
type StaticPage struct {
	url  string
	html string
}

// FetchStatic GETs url with browser-like headers.
func FetchStatic(ctx context.Context, client *http.Client, url, userAgent string, cookies []*http.Cookie) (*StaticPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	setBrowserHeaders(req, userAgent)
	for _, c := range cookies {
		req.AddCookie(c)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP error: %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &StaticPage{url: url, html: string(body)}, nil
}

// NewStaticPage wraps HTML that was obtained elsewhere.
func NewStaticPage(url, html string) *StaticPage {
	return &StaticPage{url: url, html: html}
}

func (p *StaticPage) URL() string { return p.url }

func (p *StaticPage) Snapshot(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return p.html, nil
}

func (p *StaticPage) Close() error { return nil }

// setBrowserHeaders makes the request look like a top-level navigation.
// Accept-Encoding is left to the transport so it decompresses transparently.
func setBrowserHeaders(req *http.Request, userAgent string) {
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
	req.Header.Set("Sec-Fetch-Dest", "document")
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	req.Header.Set("Sec-Fetch-Site", "none")
	req.Header.Set("Sec-Fetch-User", "?1")
}
