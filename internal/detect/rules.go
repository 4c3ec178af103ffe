package detect

// Profile is the declarative rule set for one platform. Chains are ordered
// from the current markup to the oldest known layout.
type Profile struct {
	Kind            PlatformKind
	Title           Chain
	Company         Chain
	Location        Chain
	Description     Chain
	TitleDenylist   []string
	DefaultLocation string
}

// Thresholds are the length and keyword constants the extractors gate on.
type Thresholds struct {
	// MinRuleDescription is the length a description rule must exceed before
	// the visible page text is used instead.
	MinRuleDescription int
	// MinDescription gates platform extractors.
	MinDescription int
	// MinGenericDescription gates the generic extractor.
	MinGenericDescription int
	RoleKeywords          []string
	SectionKeywords       []string
}

// DefaultThresholds returns the values the extractors were tuned with.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinRuleDescription:    100,
		MinDescription:        50,
		MinGenericDescription: 200,
		RoleKeywords:          []string{"engineer", "developer", "manager", "designer", "analyst"},
		SectionKeywords:       []string{"responsibilities", "qualifications", "requirements", "experience", "skills"},
	}
}

// commonTitleDenylist rejects page chrome that tends to sit in the first heading.
var commonTitleDenylist = []string{"sign in", "log in", "page not found"}

var (
	titleLength    = LengthBetween(3, 200)
	companyLength  = LengthBetween(1, 100)
	locationLength = LengthBetween(2, 100)
)

// Profiles is the rule table for every platform with a dedicated extractor,
// plus the candidate lists the generic extractor starts from.
var Profiles = map[PlatformKind]Profile{
	LinkedIn: {
		Kind: LinkedIn,
		Title: Chain{
			{Selector: "h1.t-24.t-bold"},
			{Selector: "h2.t-24.t-bold"},
			{Selector: ".job-details-jobs-unified-top-card__job-title h1"},
			{Selector: ".job-details-jobs-unified-top-card__job-title"},
			{Selector: ".jobs-unified-top-card__job-title h1"},
			{Selector: ".jobs-unified-top-card__job-title"},
			{Selector: ".t-24.t-bold.job-details-jobs-unified-top-card__job-title"},
			{Selector: "h1.job-title"},
			{Selector: "h2.job-title"},
			{Selector: "[data-job-title]"},
			{Selector: "article h1"},
			{Selector: "article h2"},
			{Selector: "h1.t-24"},
			{Selector: "h2.t-24"},
			{Selector: "h1"},
			{Selector: "h2"},
		},
		Company: Chain{
			{Selector: ".job-details-jobs-unified-top-card__company-name a"},
			{Selector: ".job-details-jobs-unified-top-card__company-name"},
			{Selector: ".jobs-unified-top-card__company-name a"},
			{Selector: ".jobs-unified-top-card__company-name"},
			{Selector: `a.app-aware-link[href*="/company/"]`},
			{Selector: ".jobs-details-top-card__company-url"},
			{Selector: ".jobs-company-name"},
			{Selector: "[data-test-company-name]"},
		},
		Location: Chain{
			{Selector: ".job-details-jobs-unified-top-card__primary-description-container .t-black--light.mt2"},
			{Selector: ".job-details-jobs-unified-top-card__bullet"},
			{Selector: ".jobs-unified-top-card__bullet"},
			{Selector: ".jobs-unified-top-card__workplace-type"},
			{Selector: ".jobs-details-top-card__location"},
			{Selector: `[class*="location"]`},
		},
		Description: Chain{
			{Selector: ".jobs-description__content .jobs-description-content__text"},
			{Selector: ".jobs-description-content__text"},
			{Selector: ".jobs-description__content"},
			{Selector: ".jobs-box__html-content"},
			{Selector: "#job-details"},
			{Selector: "article.jobs-description"},
			{Selector: `[class*="job-description"]`},
		},
		TitleDenylist:   []string{"linkedin", "search", "my network", "messaging"},
		DefaultLocation: DefaultLocation,
	},
	Lever: {
		Kind: Lever,
		Title: Chain{
			{Selector: ".posting-headline h2"},
			{Selector: ".posting-header h2"},
			{Selector: "h2"},
		},
		Company: Chain{
			{Selector: ".main-header-logo img", Attr: "alt"},
			{Selector: ".main-header-text a"},
		},
		Location: Chain{
			{Selector: ".posting-categories .location"},
			{Selector: ".posting-category.location"},
		},
		Description: Chain{
			{Selector: `[data-qa="job-description"]`},
			{Selector: ".posting-description"},
			{Selector: ".section-wrapper.page-full-width"},
			{Selector: ".content"},
		},
		DefaultLocation: DefaultLocation,
	},
	Greenhouse: {
		Kind: Greenhouse,
		Title: Chain{
			{Selector: ".job__title h1"},
			{Selector: ".app-title"},
			{Selector: "h1"},
		},
		Company: Chain{
			{Selector: ".company-name"},
			{Selector: `meta[property="og:site_name"]`, Attr: "content"},
		},
		Location: Chain{
			{Selector: ".job__location"},
			{Selector: ".location"},
		},
		Description: Chain{
			{Selector: ".job__description.body"},
			{Selector: ".job__description"},
			{Selector: "#content"},
		},
		DefaultLocation: DefaultLocation,
	},
	Workday: {
		Kind: Workday,
		Title: Chain{
			{Selector: `[data-automation-id="jobPostingHeader"]`},
			{Selector: "h2"},
		},
		Company: Chain{
			{Selector: `[data-automation-id="companyName"]`},
			{Selector: `meta[property="og:site_name"]`, Attr: "content"},
		},
		Location: Chain{
			{Selector: `[data-automation-id="locations"]`},
			{Selector: `[data-automation-id="location"]`},
		},
		Description: Chain{
			{Selector: `[data-automation-id="jobPostingDescription"]`},
			{Selector: `[data-automation-id="jobDescription"]`},
		},
		DefaultLocation: DefaultLocation,
	},
	GenericCareerPage: {
		Kind: GenericCareerPage,
		Title: Chain{
			{Selector: "h1.job-title"},
			{Selector: "[data-job-title]"},
			{Selector: "h1"},
			{Selector: "h2"},
		},
		Company: Chain{
			{Selector: `meta[property="og:site_name"]`, Attr: "content"},
		},
		Location: Chain{
			{Selector: `[itemprop="jobLocation"]`},
			{Selector: `[class*="job-location"]`},
			{Selector: `[class*="location"]`},
		},
		Description: Chain{
			{Selector: "main"},
		},
		DefaultLocation: UnspecifiedLocation,
	},
}

// titleValidator combines the length bound with the common and per-platform denylists.
func (p Profile) titleValidator() Validator {
	denied := append(append([]string{}, commonTitleDenylist...), p.TitleDenylist...)
	return Excluding(titleLength, denied...)
}
