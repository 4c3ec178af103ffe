package detect

import "strings"

type route struct {
	marker string
	kind   PlatformKind
}

// routes are tested in order; platform markers come before the generic path
// markers so a Lever URL under /jobs still goes to the Lever extractor.
var routes = []route{
	{"linkedin.com/jobs", LinkedIn},
	{"lever.co", Lever},
	{"greenhouse.io", Greenhouse},
	{"myworkdayjobs.com", Workday},
	{"/careers", GenericCareerPage},
	{"/jobs", GenericCareerPage},
	{"/job", GenericCareerPage},
}

// Route classifies a page address.
func Route(url string) PlatformKind {
	for _, r := range routes {
		if strings.Contains(url, r.marker) {
			return r.kind
		}
	}
	return Unrecognized
}

var badgePatterns = []string{
	"linkedin.com/jobs",
	"jobs.lever.co",
	"boards.greenhouse.io",
	"/careers",
	"/jobs",
}

// IsJobPage reports whether url should carry the job-page badge. It uses its
// own pattern list, independent of Route.
func IsJobPage(url string) bool {
	for _, p := range badgePatterns {
		if strings.Contains(url, p) {
			return true
		}
	}
	return false
}
