package tailor

import (
	"context"
	"errors"
	"strings"

	"github.com/byteowlz/tailr/internal/detect"
	"github.com/byteowlz/tailr/internal/processor"
)

var (
	ErrNoResume = errors.New("no résumé loaded")
	ErrNoJob    = errors.New("no job posting detected")
	ErrNoResult = errors.New("nothing has been tailored yet")
)

var rule = strings.Repeat("=", 50)

// Session holds the state of one tailoring run: the résumé, the current job
// and the generated documents. Setting a new job clears earlier results.
type Session struct {
	resume      string
	job         *detect.JobRecord
	result      *Response
	instruction string
	clean       *processor.ContentProcessor
}

func NewSession() *Session {
	return &Session{clean: processor.NewContentProcessor()}
}

func (s *Session) SetResume(text string) {
	s.resume = text
}

func (s *Session) SetJob(job detect.JobRecord) {
	s.job = &job
	s.result = nil
}

func (s *Session) SetInstructions(text string) {
	s.instruction = strings.TrimSpace(text)
}

func (s *Session) Job() (detect.JobRecord, bool) {
	if s.job == nil {
		return detect.JobRecord{}, false
	}
	return *s.job, true
}

// CanTailor reports whether both a résumé and a job are present.
func (s *Session) CanTailor() bool {
	return strings.TrimSpace(s.resume) != "" && s.job != nil
}

// Request builds the service request from the current state.
func (s *Session) Request() (Request, error) {
	if strings.TrimSpace(s.resume) == "" {
		return Request{}, ErrNoResume
	}
	if s.job == nil {
		return Request{}, ErrNoJob
	}
	return Request{
		Resume:             s.resume,
		JobDescription:     s.job.Description,
		JobTitle:           s.job.Title,
		Company:            s.job.Company,
		Location:           s.job.Location,
		CustomInstructions: s.instruction,
	}, nil
}

// Tailor sends the current state to b and stores the result with all markup
// stripped.
func (s *Session) Tailor(ctx context.Context, b Backend) (*Response, error) {
	req, err := s.Request()
	if err != nil {
		return nil, err
	}

	resp, err := b.Tailor(ctx, req)
	if err != nil {
		return nil, err
	}

	s.result = &Response{
		Resume:      s.clean.StripMarkup(resp.Resume),
		CoverLetter: s.clean.StripMarkup(resp.CoverLetter),
	}
	return s.result, nil
}

// Render produces the downloadable file: the tailored résumé followed by the
// cover letter, each under a ruled heading.
func (s *Session) Render() (string, error) {
	if s.result == nil {
		return "", ErrNoResult
	}

	var b strings.Builder
	b.WriteString("TAILORED RESUME\n")
	b.WriteString(rule)
	b.WriteString("\n\n")
	b.WriteString(s.result.Resume)
	b.WriteString("\n\n\nCOVER LETTER\n")
	b.WriteString(rule)
	b.WriteString("\n\n")
	b.WriteString(s.result.CoverLetter)
	return b.String(), nil
}

// Filename is tailored-application-<company>.txt, or
// tailored-application-job.txt when the company is unknown.
func (s *Session) Filename() string {
	company := ""
	if s.job != nil {
		company = strings.TrimSpace(s.job.Company)
	}
	if company == "" {
		company = "job"
	}
	company = strings.NewReplacer("/", "-", `\`, "-").Replace(company)
	return "tailored-application-" + company + ".txt"
}
