package tailor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func validRequest() Request {
	return Request{
		Resume:         "Jane Doe\nGo developer",
		JobDescription: "Build APIs in Go.",
		JobTitle:       "Backend Engineer",
		Company:        "Acme",
		Location:       "Remote",
	}
}

func TestHTTPBackend_Name(t *testing.T) {
	b := NewHTTPBackend("http://localhost:8000", 0, nil)
	if b.Name() != "http" {
		t.Errorf("expected 'http', got %q", b.Name())
	}
}

func TestHTTPBackend_Defaults(t *testing.T) {
	b := NewHTTPBackend("http://localhost:8000/", 0, nil)
	if b.Timeout != 120*time.Second {
		t.Errorf("expected default timeout 120s, got %v", b.Timeout)
	}
	if b.BaseURL != "http://localhost:8000" {
		t.Errorf("expected trailing slash trimmed, got %q", b.BaseURL)
	}
}

func TestHTTPBackend_IsAvailable(t *testing.T) {
	if NewHTTPBackend("", 0, nil).IsAvailable() {
		t.Error("backend without URL should not be available")
	}
	if !NewHTTPBackend("http://x", 0, nil).IsAvailable() {
		t.Error("backend with URL should be available")
	}
}

func TestHTTPBackend_Tailor_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/api/tailor" {
			t.Errorf("expected /api/tailor, got %s", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected JSON content type, got %q", ct)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer secret" {
			t.Errorf("expected bearer token, got %q", auth)
		}

		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}
		for _, key := range []string{"resume", "jobDescription", "jobTitle", "company", "location"} {
			if _, ok := body[key]; !ok {
				t.Errorf("request body missing %q", key)
			}
		}
		if _, ok := body["customInstructions"]; ok {
			t.Error("empty customInstructions should be omitted")
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"resume":"Tailored CV","coverLetter":"Dear Acme"}`))
	}))
	defer server.Close()

	b := NewHTTPBackend(server.URL, 5*time.Second, func() (string, error) { return "secret", nil })
	resp, err := b.Tailor(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Tailor failed: %v", err)
	}
	if resp.Resume != "Tailored CV" || resp.CoverLetter != "Dear Acme" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestHTTPBackend_Tailor_NoTokenHeaderWhenEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "" {
			t.Errorf("expected no Authorization header, got %q", auth)
		}
		w.Write([]byte(`{"resume":"r","coverLetter":"c"}`))
	}))
	defer server.Close()

	b := NewHTTPBackend(server.URL, 5*time.Second, func() (string, error) { return "", nil })
	if _, err := b.Tailor(context.Background(), validRequest()); err != nil {
		t.Fatalf("Tailor failed: %v", err)
	}
}

func TestHTTPBackend_Tailor_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"model overloaded"}`))
	}))
	defer server.Close()

	b := NewHTTPBackend(server.URL, 5*time.Second, nil)
	_, err := b.Tailor(context.Background(), validRequest())
	if err == nil {
		t.Fatal("expected error for 500 response")
	}

	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected *TransportError, got %T", err)
	}
	if te.Status != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", te.Status)
	}
	if !strings.Contains(err.Error(), "model overloaded") {
		t.Errorf("expected service message in error, got: %v", err)
	}
	if !strings.Contains(err.Error(), "make sure the tailoring service at "+server.URL+" is reachable") {
		t.Errorf("expected reachability hint, got: %v", err)
	}
}

func TestHTTPBackend_Tailor_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	calls := 0
	b := NewHTTPBackend(url, 2*time.Second, func() (string, error) { calls++; return "", nil })
	_, err := b.Tailor(context.Background(), validRequest())

	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected *TransportError, got %v", err)
	}
	if te.Status != 0 {
		t.Errorf("expected no status for connection failure, got %d", te.Status)
	}
	if calls != 1 {
		t.Errorf("transport failures must not be retried, token read %d times", calls)
	}
}

func TestHTTPBackend_Tailor_InvalidRequest(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { hits++ }))
	defer server.Close()

	req := validRequest()
	req.JobTitle = ""

	_, err := NewHTTPBackend(server.URL, 5*time.Second, nil).Tailor(context.Background(), req)
	if err == nil || !strings.Contains(err.Error(), "JobTitle") {
		t.Errorf("expected validation error naming JobTitle, got %v", err)
	}
	if hits != 0 {
		t.Error("invalid request should not reach the service")
	}
}

func TestHTTPBackend_Tailor_MalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer server.Close()

	_, err := NewHTTPBackend(server.URL, 5*time.Second, nil).Tailor(context.Background(), validRequest())
	if err == nil || !strings.Contains(err.Error(), "failed to parse response") {
		t.Errorf("expected parse error, got %v", err)
	}
}

func TestHTTPBackend_Tailor_TokenError(t *testing.T) {
	b := NewHTTPBackend("http://127.0.0.1:1", 5*time.Second, func() (string, error) {
		return "", errors.New("keychain locked")
	})
	_, err := b.Tailor(context.Background(), validRequest())
	if err == nil || !strings.Contains(err.Error(), "keychain locked") {
		t.Errorf("expected token error, got %v", err)
	}
}

func TestServiceMessage(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{`{"error":"bad input"}`, "bad input"},
		{`{"message":"slow down"}`, "slow down"},
		{`{"detail":"Error tailoring resume: model timeout"}`, "Error tailoring resume: model timeout"},
		{"plain failure", "plain failure"},
		{"", "empty response"},
	}
	for _, tt := range tests {
		if got := serviceMessage([]byte(tt.body)); got != tt.want {
			t.Errorf("serviceMessage(%q) = %q, want %q", tt.body, got, tt.want)
		}
	}
}
