package detect

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoute(t *testing.T) {
	tests := []struct {
		url      string
		expected PlatformKind
	}{
		{"https://www.linkedin.com/jobs/view/3912345678/", LinkedIn},
		{"https://www.linkedin.com/jobs/search/?currentJobId=1", LinkedIn},
		{"https://jobs.lever.co/acme/5f1c2a9e", Lever},
		{"https://job-boards.greenhouse.io/doordashusa/jobs/7063751", Greenhouse},
		{"https://boards.greenhouse.io/company/jobs/123", Greenhouse},
		{"https://acme.wd5.myworkdayjobs.com/en-US/External/job/Berlin/Engineer_R123", Workday},
		{"https://example.com/careers/backend-engineer", GenericCareerPage},
		{"https://example.com/jobs/42", GenericCareerPage},
		{"https://example.com/job/42", GenericCareerPage},
		{"https://www.linkedin.com/feed/", Unrecognized},
		{"https://example.com/about", Unrecognized},
		{"", Unrecognized},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.expected, Route(tt.url))
		})
	}
}

func TestRoute_PlatformBeatsGenericMarker(t *testing.T) {
	assert.Equal(t, Lever, Route("https://jobs.lever.co/acme/jobs/123"))
	assert.Equal(t, Greenhouse, Route("https://boards.greenhouse.io/acme/careers/jobs/1"))
	assert.Equal(t, Workday, Route("https://acme.myworkdayjobs.com/careers/job/1"))
}

func TestIsJobPage(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://www.linkedin.com/jobs/view/1", true},
		{"https://jobs.lever.co/acme/1", true},
		{"https://boards.greenhouse.io/acme/jobs/1", true},
		{"https://example.com/careers", true},
		{"https://example.com/jobs/1", true},
		// Workday and bare /job paths route to an extractor but carry no badge.
		{"https://acme.wd1.myworkdayjobs.com/External/details/1", false},
		{"https://example.com/job/1", false},
		{"https://example.com/", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, IsJobPage(tt.url))
		})
	}
}
