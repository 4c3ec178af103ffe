package tailor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const tailorPath = "/api/tailor"

// TokenFunc returns the bearer token for the service, or "" for none.
type TokenFunc func() (string, error)

// HTTPBackend posts tailoring requests to a remote service.
type HTTPBackend struct {
	BaseURL string
	Timeout time.Duration
	Token   TokenFunc
	client  *http.Client
	valid   *validator.Validate
}

// NewHTTPBackend creates a backend for the service at baseURL
func NewHTTPBackend(baseURL string, timeout time.Duration, token TokenFunc) *HTTPBackend {
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	return &HTTPBackend{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Timeout: timeout,
		Token:   token,
		client:  &http.Client{Timeout: timeout},
		valid:   validator.New(),
	}
}

func (b *HTTPBackend) Name() string {
	return "http"
}

// IsAvailable reports whether a base URL is configured
func (b *HTTPBackend) IsAvailable() bool {
	return b.BaseURL != ""
}

// Tailor validates req, posts it and decodes the generated documents.
func (b *HTTPBackend) Tailor(ctx context.Context, req Request) (*Response, error) {
	if !b.IsAvailable() {
		return nil, fmt.Errorf("tailor: no service URL configured (set tailor.base_url)")
	}
	if err := b.valid.Struct(req); err != nil {
		return nil, fmt.Errorf("tailor: invalid request: %w", err)
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("tailor: failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.BaseURL+tailorPath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("tailor: failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	if b.Token != nil {
		token, err := b.Token()
		if err != nil {
			return nil, fmt.Errorf("tailor: failed to read service token: %w", err)
		}
		if token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := b.client.Do(httpReq)
	if err != nil {
		return nil, &TransportError{BaseURL: b.BaseURL, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{BaseURL: b.BaseURL, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{BaseURL: b.BaseURL, Status: resp.StatusCode, Err: errors.New(serviceMessage(body))}
	}

	var out Response
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("tailor: failed to parse response: %w", err)
	}
	if out.Resume == "" && out.CoverLetter == "" {
		return nil, fmt.Errorf("tailor: service returned no documents")
	}
	return &out, nil
}

// serviceMessage pulls the message out of an error body ({"error"},
// {"message"} or FastAPI's {"detail"}), falling back to the raw text.
func serviceMessage(body []byte) string {
	var e struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Detail  string `json:"detail"`
	}
	if json.Unmarshal(body, &e) == nil {
		for _, msg := range []string{e.Error, e.Message, e.Detail} {
			if msg != "" {
				return msg
			}
		}
	}
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		return "empty response"
	}
	return msg
}
