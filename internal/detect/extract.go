package detect

import (
	"fmt"

	"github.com/byteowlz/tailr/internal/dom"
	"github.com/byteowlz/tailr/internal/logging"
)

// Extractor turns a document into a record for one platform.
type Extractor interface {
	Kind() PlatformKind
	Extract(doc dom.Document, sourceURL string) (JobRecord, error)
}

// PlatformExtractor runs a Profile's chains through the matcher.
type PlatformExtractor struct {
	profile    Profile
	thresholds Thresholds
	matcher    *Matcher
	log        *logging.Logger
}

// NewPlatformExtractor builds the extractor for one of the dedicated platforms.
func NewPlatformExtractor(p Profile, t Thresholds, log *logging.Logger) *PlatformExtractor {
	return &PlatformExtractor{
		profile:    p,
		thresholds: t,
		matcher:    NewMatcher(log),
		log:        log.With(string(p.Kind)),
	}
}

func (e *PlatformExtractor) Kind() PlatformKind { return e.profile.Kind }

func (e *PlatformExtractor) Extract(doc dom.Document, sourceURL string) (JobRecord, error) {
	p := e.profile
	if doc == nil {
		return JobRecord{}, &ExtractionError{Kind: ExtractorFailure, Platform: p.Kind, Err: errNoDocument}
	}

	title, _ := e.matcher.Match(doc, p.Title, p.titleValidator())
	company := e.matchOr(doc, p.Company, companyLength, UnknownCompany)
	location := e.matchOr(doc, p.Location, locationLength, p.DefaultLocation)

	description, ok := e.matcher.Match(doc, p.Description, LongerThan(e.thresholds.MinRuleDescription))
	if !ok {
		description = doc.VisibleText()
		e.log.Debugf("using visible page text as description: %d chars", len([]rune(description)))
	}

	e.log.Debugf("title=%q company=%q location=%q description=%d chars",
		preview(title, 50), company, location, len([]rune(description)))

	if title == "" {
		return JobRecord{}, rejection(p.Kind, "title", errMissingTitle)
	}
	if len([]rune(description)) <= e.thresholds.MinDescription {
		return JobRecord{}, rejection(p.Kind, "description", errShortDescription)
	}

	return JobRecord{
		Title:       title,
		Company:     company,
		Location:    location,
		Description: description,
		SourceURL:   sourceURL,
	}, nil
}

func (e *PlatformExtractor) matchOr(doc dom.Document, chain Chain, v Validator, fallback string) string {
	if s, ok := e.matcher.Match(doc, chain, v); ok {
		return s
	}
	return fallback
}

// Run extracts with ex and folds every failure, panics included, into
// NotFound. It is the only place extraction errors are observed.
func Run(ex Extractor, doc dom.Document, sourceURL string, log *logging.Logger) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			err := &ExtractionError{Kind: ExtractorFailure, Platform: ex.Kind(), Err: fmt.Errorf("panic: %v", r)}
			log.Printf("%v", err)
			res = NotFound()
		}
	}()

	job, err := ex.Extract(doc, sourceURL)
	if err != nil {
		log.Debugf("%v", err)
		return NotFound()
	}
	return Found(job)
}
