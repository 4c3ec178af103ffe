package detect

import (
	"strings"

	"github.com/byteowlz/tailr/internal/dom"
	"github.com/byteowlz/tailr/internal/logging"
)

// ArticleReader pulls the main article text out of a page.
type ArticleReader interface {
	ArticleText(html, pageURL string) (string, error)
}

// GenericExtractor handles career pages on unknown sites. The page identity is
// unconfirmed, so it applies a stricter length bar and a keyword check.
type GenericExtractor struct {
	profile    Profile
	thresholds Thresholds
	matcher    *Matcher
	reader     ArticleReader
	log        *logging.Logger
}

// NewGenericExtractor builds the fallback extractor. reader may be nil.
func NewGenericExtractor(t Thresholds, reader ArticleReader, log *logging.Logger) *GenericExtractor {
	return &GenericExtractor{
		profile:    Profiles[GenericCareerPage],
		thresholds: t,
		matcher:    NewMatcher(log),
		reader:     reader,
		log:        log.With(string(GenericCareerPage)),
	}
}

func (e *GenericExtractor) Kind() PlatformKind { return GenericCareerPage }

func (e *GenericExtractor) Extract(doc dom.Document, sourceURL string) (JobRecord, error) {
	p := e.profile
	if doc == nil {
		return JobRecord{}, &ExtractionError{Kind: ExtractorFailure, Platform: p.Kind, Err: errNoDocument}
	}

	title, _ := e.matcher.Match(doc, p.Title, p.titleValidator())
	company := e.company(doc)

	location, ok := e.matcher.Match(doc, p.Location, locationLength)
	if !ok {
		location = p.DefaultLocation
	}

	description := e.description(doc, sourceURL)

	if title == "" {
		return JobRecord{}, rejection(p.Kind, "title", errMissingTitle)
	}
	if len([]rune(description)) <= e.thresholds.MinGenericDescription {
		return JobRecord{}, rejection(p.Kind, "description", errShortDescription)
	}
	if !e.plausible(title, description) {
		return JobRecord{}, rejection(p.Kind, "keywords", errImplausiblePosting)
	}

	return JobRecord{
		Title:       title,
		Company:     company,
		Location:    location,
		Description: description,
		SourceURL:   sourceURL,
	}, nil
}

// company tries the site-name metadata, then the first "|" segment of the
// page title.
func (e *GenericExtractor) company(doc dom.Document) string {
	if s, ok := e.matcher.Match(doc, e.profile.Company, NonEmpty); ok {
		return s
	}
	if seg := strings.TrimSpace(strings.Split(doc.Title(), "|")[0]); seg != "" {
		return seg
	}
	return UnknownCompany
}

func (e *GenericExtractor) description(doc dom.Document, sourceURL string) string {
	if s, ok := e.matcher.Match(doc, e.profile.Description, LongerThan(e.thresholds.MinRuleDescription)); ok {
		return s
	}

	if e.reader != nil {
		text, err := e.reader.ArticleText(doc.HTML(), sourceURL)
		if err != nil {
			e.log.Debugf("article extraction failed: %v", err)
		} else if len([]rune(text)) > e.thresholds.MinRuleDescription {
			e.log.Debugf("using article text as description: %d chars", len([]rune(text)))
			return text
		}
	}

	return doc.VisibleText()
}

func (e *GenericExtractor) plausible(title, description string) bool {
	return containsAny(strings.ToLower(title), e.thresholds.RoleKeywords) ||
		containsAny(strings.ToLower(description), e.thresholds.SectionKeywords)
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, strings.ToLower(k)) {
			return true
		}
	}
	return false
}
