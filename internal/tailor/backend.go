// Package tailor talks to the résumé-tailoring service and keeps the state of
// one tailoring session.
package tailor

import (
	"context"
	"fmt"
)

// Request is what the service needs to tailor a résumé to one posting.
type Request struct {
	Resume             string `json:"resume" validate:"required"`
	JobDescription     string `json:"jobDescription" validate:"required"`
	JobTitle           string `json:"jobTitle" validate:"required"`
	Company            string `json:"company" validate:"required"`
	Location           string `json:"location"`
	CustomInstructions string `json:"customInstructions,omitempty" validate:"omitempty,max=2000"`
}

// Response holds the generated documents.
type Response struct {
	Resume      string `json:"resume"`
	CoverLetter string `json:"coverLetter"`
}

// Backend is the interface for tailoring services
type Backend interface {
	// Name returns the unique identifier for this backend
	Name() string

	// Tailor sends one request and returns the generated documents
	Tailor(ctx context.Context, req Request) (*Response, error)

	// IsAvailable checks if the backend is properly configured
	IsAvailable() bool
}

// TransportError is a failed call to the service. It is shown to the user
// as is and never retried.
type TransportError struct {
	BaseURL string
	Status  int
	Err     error
}

func (e *TransportError) Error() string {
	msg := e.Err.Error()
	if e.Status != 0 {
		msg = fmt.Sprintf("HTTP %d: %s", e.Status, msg)
	}
	return fmt.Sprintf("tailoring request failed: %s (make sure the tailoring service at %s is reachable)", msg, e.BaseURL)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
