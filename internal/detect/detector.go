package detect

import (
	"context"

	"github.com/byteowlz/tailr/internal/dom"
	"github.com/byteowlz/tailr/internal/logging"
)

// Source supplies the page address and a fresh copy of its document.
type Source interface {
	URL() string
	Snapshot(ctx context.Context) (string, error)
}

// Options configures a Detector. Zero values fall back to the defaults.
type Options struct {
	Retry      *RetryPolicy
	Thresholds *Thresholds
	Reader     ArticleReader
	Log        *logging.Logger
}

// Detector runs Router -> Extractor against a Source, retrying on NotFound.
type Detector struct {
	extractors   map[PlatformKind]Extractor
	orchestrator *Orchestrator
	log          *logging.Logger
}

// New builds a detector with one extractor per recognized platform.
func New(opts Options) *Detector {
	retry := DefaultRetryPolicy()
	if opts.Retry != nil {
		retry = *opts.Retry
	}
	thresholds := DefaultThresholds()
	if opts.Thresholds != nil {
		thresholds = *opts.Thresholds
	}

	d := &Detector{
		extractors:   make(map[PlatformKind]Extractor),
		orchestrator: NewOrchestrator(retry, opts.Log),
		log:          opts.Log.With("detect"),
	}
	for _, kind := range []PlatformKind{LinkedIn, Lever, Greenhouse, Workday} {
		d.extractors[kind] = NewPlatformExtractor(Profiles[kind], thresholds, opts.Log)
	}
	d.extractors[GenericCareerPage] = NewGenericExtractor(thresholds, opts.Reader, opts.Log)
	return d
}

// SetExtractor overrides the extractor used for a platform.
func (d *Detector) SetExtractor(ex Extractor) {
	d.extractors[ex.Kind()] = ex
}

// SetSleep replaces the wait between attempts.
func (d *Detector) SetSleep(fn SleepFunc) {
	d.orchestrator.SetSleep(fn)
}

// Detect runs the pipeline with retries. Unrecognized addresses return
// NotFound at once since the route cannot change between attempts.
func (d *Detector) Detect(ctx context.Context, src Source) Outcome {
	url := src.URL()
	if Route(url) == Unrecognized {
		d.log.Printf("no matching platform for %s", url)
		return Outcome{Result: NotFound(), State: Exhausted, Attempts: 1}
	}

	out := d.orchestrator.Run(ctx, func(ctx context.Context) Result {
		return d.Once(ctx, src)
	})
	d.log.Printf("%s: %s after %d attempt(s)", url, out.State, out.Attempts)
	return out
}

// Once runs the pipeline a single time against a fresh snapshot.
func (d *Detector) Once(ctx context.Context, src Source) Result {
	url := src.URL()
	ex, ok := d.extractors[Route(url)]
	if !ok {
		return NotFound()
	}

	html, err := src.Snapshot(ctx)
	if err != nil {
		d.log.Printf("%v", &ExtractionError{Kind: ExtractorFailure, Platform: ex.Kind(), Err: err})
		return NotFound()
	}

	doc, err := dom.Parse(html)
	if err != nil {
		d.log.Printf("%v", &ExtractionError{Kind: ExtractorFailure, Platform: ex.Kind(), Err: err})
		return NotFound()
	}

	return d.Extract(doc, url)
}

// Extract routes url and runs the matching extractor over doc.
func (d *Detector) Extract(doc dom.Document, url string) Result {
	kind := Route(url)
	ex, ok := d.extractors[kind]
	if !ok {
		return NotFound()
	}
	d.log.Debugf("%s extractor for %s", kind, url)
	return Run(ex, doc, url, d.log)
}
