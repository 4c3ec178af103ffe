package detect

import (
	"strings"

	"github.com/byteowlz/tailr/internal/dom"
	"github.com/byteowlz/tailr/internal/logging"
)

// Rule locates one candidate value. An empty Attr reads the element's trimmed
// text; otherwise the named attribute is read.
type Rule struct {
	Selector string
	Attr     string
}

// Chain is an ordered list of rules, newest markup first.
type Chain []Rule

// Validator accepts or rejects a candidate value.
type Validator func(string) bool

// Matcher evaluates rule chains against a document.
type Matcher struct {
	log *logging.Logger
}

// NewMatcher returns a matcher that traces rule evaluation to log at debug level.
func NewMatcher(log *logging.Logger) *Matcher {
	return &Matcher{log: log.With("match")}
}

// Match returns the first candidate accepted by validate. Rules after the
// winning one are not evaluated. Lookup errors count as a miss.
func (m *Matcher) Match(doc dom.Document, chain Chain, validate Validator) (string, bool) {
	if doc == nil {
		return "", false
	}

	for _, rule := range chain {
		el, ok, err := doc.Lookup(rule.Selector)
		if err != nil {
			m.log.Debugf("skip %q: %v", rule.Selector, &ExtractionError{Kind: RuleLookupFailure, Err: err})
			continue
		}
		if !ok {
			continue
		}

		var candidate string
		if rule.Attr == "" {
			candidate = el.Text()
		} else {
			v, exists := el.Attr(rule.Attr)
			if !exists {
				continue
			}
			candidate = strings.TrimSpace(v)
		}

		if validate == nil || validate(candidate) {
			m.log.Debugf("matched %q: %q", rule.Selector, preview(candidate, 60))
			return candidate, true
		}
	}

	return "", false
}

// Match evaluates chain with a silent matcher.
func Match(doc dom.Document, chain Chain, validate Validator) (string, bool) {
	return NewMatcher(nil).Match(doc, chain, validate)
}

// LengthBetween accepts values whose length is strictly between min and max.
func LengthBetween(min, max int) Validator {
	return func(s string) bool {
		n := len([]rune(s))
		return n > min && n < max
	}
}

// LongerThan accepts values strictly longer than min.
func LongerThan(min int) Validator {
	return func(s string) bool {
		return len([]rune(s)) > min
	}
}

// NonEmpty accepts any value with visible characters.
func NonEmpty(s string) bool {
	return strings.TrimSpace(s) != ""
}

// Excluding wraps v so that values containing any denied phrase
// (case-insensitive substring) are rejected.
func Excluding(v Validator, denied ...string) Validator {
	return func(s string) bool {
		if !v(s) {
			return false
		}
		lower := strings.ToLower(s)
		for _, d := range denied {
			if d != "" && strings.Contains(lower, strings.ToLower(d)) {
				return false
			}
		}
		return true
	}
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
