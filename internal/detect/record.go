// Package detect implements the job-posting extraction engine: URL routing,
// selector chains per platform, the generic fallback and the retry loop.
package detect

import (
	"encoding/json"
	"errors"
	"fmt"
)

const (
	UnknownCompany      = "Unknown Company"
	DefaultLocation     = "Remote"
	UnspecifiedLocation = "Location not specified"
)

// PlatformKind identifies which extractor handles a page.
type PlatformKind string

const (
	LinkedIn          PlatformKind = "linkedin"
	Lever             PlatformKind = "lever"
	Greenhouse        PlatformKind = "greenhouse"
	Workday           PlatformKind = "workday"
	GenericCareerPage PlatformKind = "generic"
	Unrecognized      PlatformKind = "unrecognized"
)

// JobRecord is one extracted posting. It is rebuilt on every pass and handed
// to the caller unchanged.
type JobRecord struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	Description string `json:"description"`
	SourceURL   string `json:"url"`
}

// Result is the outcome of a detection pass: a record or nothing.
type Result struct {
	Found bool
	Job   JobRecord
}

// Found wraps a record.
func Found(job JobRecord) Result {
	return Result{Found: true, Job: job}
}

// NotFound is the empty outcome.
func NotFound() Result {
	return Result{}
}

// Message is the wire form answered to detection requests.
type Message struct {
	Found bool       `json:"found"`
	Data  *JobRecord `json:"data"`
	Error string     `json:"error,omitempty"`
}

// Message converts the result into its wire form.
func (r Result) Message() Message {
	if !r.Found {
		return Message{}
	}
	job := r.Job
	return Message{Found: true, Data: &job}
}

// MarshalJSON encodes the result as its wire form.
func (r Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Message())
}

// ErrorKind classifies extraction failures. None of them escape the detector.
type ErrorKind string

const (
	RuleLookupFailure   ErrorKind = "rule_lookup"
	ExtractorFailure    ErrorKind = "extractor"
	ValidationRejection ErrorKind = "validation"
)

// ExtractionError describes why an extractor produced no record.
type ExtractionError struct {
	Kind     ErrorKind
	Platform PlatformKind
	Field    string
	Err      error
}

func (e *ExtractionError) Error() string {
	msg := fmt.Sprintf("%s: %s failure", e.Platform, e.Kind)
	if e.Field != "" {
		msg += " on " + e.Field
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

var (
	errMissingTitle       = errors.New("no title candidate passed validation")
	errShortDescription   = errors.New("description below minimum length")
	errImplausiblePosting = errors.New("no role or section keywords found")
	errNoDocument         = errors.New("document unavailable")
)

func rejection(kind PlatformKind, field string, err error) *ExtractionError {
	return &ExtractionError{Kind: ValidationRejection, Platform: kind, Field: field, Err: err}
}
