package detect

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/byteowlz/tailr/internal/dom"
	"github.com/byteowlz/tailr/internal/logging"
)

const jobText = "We are looking for an engineer to design, build and operate the services behind our hiring platform. " +
	"You will own features end to end and work closely with product and design."

const linkedInPage = `<html><head><title>Senior Backend Engineer | Acme Corp | LinkedIn</title></head><body>
<nav><h2>My Network</h2><h2>Messaging</h2></nav>
<div class="job-details-jobs-unified-top-card__job-title"><h1 class="t-24 t-bold">Senior Backend Engineer</h1></div>
<div class="job-details-jobs-unified-top-card__company-name"><a href="/company/acme">Acme Corp</a></div>
<span class="job-details-jobs-unified-top-card__bullet">Berlin, Germany</span>
<div class="jobs-description__content"><div class="jobs-description-content__text">` + jobText + `</div></div>
</body></html>`

const leverPage = `<html><body>
<div class="main-header-logo"><img alt="Globex" src="/logo.png"></div>
<div class="posting-headline"><h2>Data Analyst</h2>
<div class="posting-categories"><div class="location">New York, NY</div></div></div>
<div class="section-wrapper page-full-width"><div class="posting-description">` + jobText + `</div></div>
</body></html>`

const greenhousePage = `<html><body>
<div id="header"><h1 class="app-title">Product Designer</h1>
<span class="company-name">Initech</span><div class="location">Austin, TX</div></div>
<div id="content">` + jobText + `</div>
</body></html>`

const workdayPage = `<html><body>
<h2 data-automation-id="jobPostingHeader">Staff Platform Engineer</h2>
<div data-automation-id="companyName">Umbrella</div>
<div data-automation-id="locations">Remote - US</div>
<div data-automation-id="jobPostingDescription">` + jobText + `</div>
</body></html>`

func parse(t *testing.T, html string) dom.Document {
	t.Helper()
	doc, err := dom.Parse(html)
	require.NoError(t, err)
	return doc
}

func newTestDetector() *Detector {
	return New(Options{Log: logging.Discard()})
}

func TestPlatformExtractors_ExactFields(t *testing.T) {
	tests := []struct {
		name string
		url  string
		html string
		want JobRecord
	}{
		{
			name: "linkedin",
			url:  "https://www.linkedin.com/jobs/view/1",
			html: linkedInPage,
			want: JobRecord{Title: "Senior Backend Engineer", Company: "Acme Corp", Location: "Berlin, Germany"},
		},
		{
			name: "lever",
			url:  "https://jobs.lever.co/globex/abc",
			html: leverPage,
			want: JobRecord{Title: "Data Analyst", Company: "Globex", Location: "New York, NY"},
		},
		{
			name: "greenhouse",
			url:  "https://boards.greenhouse.io/initech/jobs/9",
			html: greenhousePage,
			want: JobRecord{Title: "Product Designer", Company: "Initech", Location: "Austin, TX"},
		},
		{
			name: "workday",
			url:  "https://umbrella.wd5.myworkdayjobs.com/en-US/External/job/1",
			html: workdayPage,
			want: JobRecord{Title: "Staff Platform Engineer", Company: "Umbrella", Location: "Remote - US"},
		},
	}

	d := newTestDetector()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := d.Extract(parse(t, tt.html), tt.url)
			require.True(t, res.Found)

			want := tt.want
			want.Description = jobText
			want.SourceURL = tt.url
			assert.Equal(t, want, res.Job)
		})
	}
}

func TestPlatformExtractors_Defaults(t *testing.T) {
	html := `<body><div class="posting-headline"><h2>Site Reliability Engineer</h2></div>
<div class="posting-description">` + jobText + `</div></body>`

	res := newTestDetector().Extract(parse(t, html), "https://jobs.lever.co/x/1")

	require.True(t, res.Found)
	assert.Equal(t, UnknownCompany, res.Job.Company)
	assert.Equal(t, DefaultLocation, res.Job.Location)
}

func TestPlatformExtractors_NoTitleMeansNotFound(t *testing.T) {
	long := strings.Repeat(jobText+" ", 10)
	pages := map[string]string{
		"https://www.linkedin.com/jobs/view/1":           `<body><div class="jobs-description-content__text">` + long + `</div></body>`,
		"https://jobs.lever.co/x/1":                      `<body><div class="content">` + long + `</div></body>`,
		"https://boards.greenhouse.io/x/jobs/1":          `<body><div id="content">` + long + `</div></body>`,
		"https://x.wd1.myworkdayjobs.com/External/job/1": `<body><div data-automation-id="jobPostingDescription">` + long + `</div></body>`,
		"https://example.com/careers/1":                  `<body><main>` + long + ` responsibilities</main></body>`,
	}

	d := newTestDetector()
	for url, html := range pages {
		t.Run(url, func(t *testing.T) {
			res := d.Extract(parse(t, html), url)
			assert.False(t, res.Found)
		})
	}
}

func TestPlatformExtractors_VisibleTextFallback(t *testing.T) {
	html := `<body><h1 class="app-title">QA Engineer</h1><p>` + jobText + `</p><script>ignored()</script></body>`
	doc := parse(t, html)

	res := newTestDetector().Extract(doc, "https://boards.greenhouse.io/x/jobs/1")

	require.True(t, res.Found)
	assert.Equal(t, doc.VisibleText(), res.Job.Description)
	assert.NotContains(t, res.Job.Description, "ignored()")
}

func TestPlatformExtractors_ShortDescriptionRejected(t *testing.T) {
	html := `<body><h1 class="app-title">QA Engineer</h1><p>Apply now.</p></body>`

	res := newTestDetector().Extract(parse(t, html), "https://boards.greenhouse.io/x/jobs/1")

	assert.False(t, res.Found)
}

func TestPlatformExtractor_ReportsValidationRejection(t *testing.T) {
	ex := NewPlatformExtractor(Profiles[Workday], DefaultThresholds(), logging.Discard())

	_, err := ex.Extract(parse(t, `<body><p>nothing here</p></body>`), "https://x.myworkdayjobs.com/1")

	var exErr *ExtractionError
	require.ErrorAs(t, err, &exErr)
	assert.Equal(t, ValidationRejection, exErr.Kind)
	assert.Equal(t, Workday, exErr.Platform)
	assert.Equal(t, "title", exErr.Field)
}

func TestDetectorExtract_Idempotent(t *testing.T) {
	d := newTestDetector()
	doc := parse(t, linkedInPage)
	url := "https://www.linkedin.com/jobs/view/1"

	first := d.Extract(doc, url)
	second := d.Extract(doc, url)

	assert.Equal(t, first, second)
}

type panickingExtractor struct{}

func (panickingExtractor) Kind() PlatformKind { return Lever }

func (panickingExtractor) Extract(dom.Document, string) (JobRecord, error) {
	panic("malformed document")
}

func TestRun_RecoversPanics(t *testing.T) {
	d := newTestDetector()
	d.SetExtractor(panickingExtractor{})

	res := d.Extract(parse(t, leverPage), "https://jobs.lever.co/globex/abc")

	assert.False(t, res.Found)
}

func TestResult_Message(t *testing.T) {
	job := JobRecord{Title: "t", Company: "c", Location: "l", Description: "d", SourceURL: "u"}

	found := Found(job).Message()
	assert.True(t, found.Found)
	require.NotNil(t, found.Data)
	assert.Equal(t, job, *found.Data)

	missing := NotFound().Message()
	assert.False(t, missing.Found)
	assert.Nil(t, missing.Data)
}

func TestResult_MarshalJSON(t *testing.T) {
	b, err := NotFound().MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"found":false,"data":null}`, string(b))

	b, err = Found(JobRecord{Title: "Engineer", Company: "Acme", Location: "Remote", Description: "desc", SourceURL: "https://x"}).MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"found":true,"data":{"title":"Engineer","company":"Acme","location":"Remote","description":"desc","url":"https://x"}}`, string(b))
}
