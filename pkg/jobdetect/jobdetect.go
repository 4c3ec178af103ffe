// Package jobdetect is the public entry point: it opens pages and runs the
// detection pipeline over them, one at a time or in batches.
package jobdetect

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/byteowlz/tailr/internal/browser"
	"github.com/byteowlz/tailr/internal/config"
	"github.com/byteowlz/tailr/internal/detect"
	"github.com/byteowlz/tailr/internal/fetcher"
	"github.com/byteowlz/tailr/internal/logging"
	"github.com/byteowlz/tailr/internal/processor"
)

// Opener loads a page for detection.
type Opener interface {
	Open(ctx context.Context, url string) (fetcher.Page, error)
}

// Report is the detection outcome for one address.
type Report struct {
	URL      string
	Result   detect.Result
	Attempts int
	Duration time.Duration
	Err      error
}

// Message is the wire form of the report; open failures fill the error field.
func (r Report) Message() detect.Message {
	m := r.Result.Message()
	if r.Err != nil {
		m.Error = r.Err.Error()
	}
	return m
}

// Options tunes a Detector built with New.
type Options struct {
	Concurrency    int
	RequestsPerSec float64
	Burst          int
	Log            *logging.Logger
}

type Detector struct {
	detector    *detect.Detector
	opener      Opener
	limiter     *HostLimiter
	concurrency int
	log         *logging.Logger
}

// New wires a detector and opener together.
func New(d *detect.Detector, opener Opener, opts Options) *Detector {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &Detector{
		detector:    d,
		opener:      opener,
		limiter:     NewHostLimiter(opts.RequestsPerSec, opts.Burst),
		concurrency: opts.Concurrency,
		log:         opts.Log.With("batch"),
	}
}

// FromConfig builds a Detector with the page sources and thresholds from cfg.
// A nil cookies provider disables cookie injection.
func FromConfig(cfg *config.Config, cookies fetcher.CookieProvider, log *logging.Logger) (*Detector, error) {
	render, err := fetcher.ParseRenderMode(cfg.Detection.Render)
	if err != nil {
		return nil, err
	}

	opener := fetcher.NewOpener(fetcher.Options{
		Render:       render,
		Timeout:      time.Duration(cfg.Network.Timeout) * time.Second,
		JSTimeout:    time.Duration(cfg.Detection.JSTimeout) * time.Second,
		UserAgent:    cfg.Network.UserAgent,
		BrowserAgent: cfg.Network.BrowserAgent,
		WaitSelector: cfg.Detection.WaitForSelector,
		Headless:     cfg.Browser.Headless,
		Cookies:      cookies,
		Log:          log,
	})

	retry := RetryPolicy(cfg)
	thresholds := Thresholds(cfg)
	d := detect.New(detect.Options{
		Retry:      &retry,
		Thresholds: &thresholds,
		Reader:     processor.NewContentProcessor(),
		Log:        log,
	})

	return New(d, opener, Options{
		Concurrency:    cfg.Parallel.MaxConcurrency,
		RequestsPerSec: cfg.Parallel.RequestsPerSec,
		Burst:          cfg.Parallel.Burst,
		Log:            log,
	}), nil
}

// CookiesFromConfig returns the browser cookie jar named in cfg, or nil when
// cookie injection is off.
func CookiesFromConfig(cfg *config.Config) (fetcher.CookieProvider, error) {
	if !cfg.Browser.Cookies {
		return nil, nil
	}
	bt, err := browser.ParseBrowserType(cfg.Browser.Default)
	if err != nil {
		return nil, err
	}
	return browser.NewCookieJar(bt), nil
}

func RetryPolicy(cfg *config.Config) detect.RetryPolicy {
	return detect.RetryPolicy{
		Budget: cfg.Detection.RetryBudget,
		Delay:  time.Duration(cfg.Detection.RetryDelayMS) * time.Millisecond,
	}
}

func Thresholds(cfg *config.Config) detect.Thresholds {
	t := detect.DefaultThresholds()
	if cfg.Detection.MinRuleDescription > 0 {
		t.MinRuleDescription = cfg.Detection.MinRuleDescription
	}
	if cfg.Detection.MinDescription > 0 {
		t.MinDescription = cfg.Detection.MinDescription
	}
	if cfg.Detection.MinGenericDescription > 0 {
		t.MinGenericDescription = cfg.Detection.MinGenericDescription
	}
	if len(cfg.Detection.RoleKeywords) > 0 {
		t.RoleKeywords = cfg.Detection.RoleKeywords
	}
	if len(cfg.Detection.SectionKeywords) > 0 {
		t.SectionKeywords = cfg.Detection.SectionKeywords
	}
	return t
}

// Detect opens url and runs detection on it. Unrecognized addresses are
// answered without loading the page.
func (d *Detector) Detect(ctx context.Context, url string) Report {
	start := time.Now()

	if detect.Route(url) == detect.Unrecognized {
		out := d.detector.Detect(ctx, unopened(url))
		return Report{URL: url, Result: out.Result, Attempts: out.Attempts, Duration: time.Since(start)}
	}

	if err := d.limiter.WaitURL(ctx, url); err != nil {
		return Report{URL: url, Result: detect.NotFound(), Duration: time.Since(start), Err: err}
	}

	page, err := d.opener.Open(ctx, url)
	if err != nil {
		d.log.Printf("failed to open %s: %v", url, err)
		return Report{URL: url, Result: detect.NotFound(), Duration: time.Since(start), Err: err}
	}

	rep := d.DetectPage(ctx, page)
	rep.Duration = time.Since(start)
	return rep
}

// DetectPage runs detection on an already opened page and closes it.
func (d *Detector) DetectPage(ctx context.Context, page fetcher.Page) Report {
	start := time.Now()
	defer func() {
		if err := page.Close(); err != nil {
			d.log.Debugf("closing %s: %v", page.URL(), err)
		}
	}()

	out := d.detector.Detect(ctx, page)
	return Report{
		URL:      page.URL(),
		Result:   out.Result,
		Attempts: out.Attempts,
		Duration: time.Since(start),
	}
}

// DetectAll detects every url concurrently. Reports come back in input
// order and a failing url never aborts the rest.
func (d *Detector) DetectAll(ctx context.Context, urls []string) []Report {
	reports := make([]Report, len(urls))
	if len(urls) == 0 {
		return reports
	}

	var g errgroup.Group
	g.SetLimit(d.concurrency)

	for i, url := range urls {
		g.Go(func() error {
			d.log.Debugf("[%d/%d] %s", i+1, len(urls), url)
			reports[i] = d.Detect(ctx, url)
			return nil
		})
	}
	_ = g.Wait()

	found := 0
	for _, r := range reports {
		if r.Result.Found {
			found++
		}
	}
	d.log.Printf("%d of %d pages had a job posting", found, len(urls))
	return reports
}

// unopened stands in for pages the router rejects; it is never snapshotted.
type unopened string

func (u unopened) URL() string { return string(u) }

func (u unopened) Snapshot(context.Context) (string, error) {
	return "", fmt.Errorf("page %s was not opened", string(u))
}
