package filter

// ExclusionPatterns match text that is about jobs, recruitment, events or
// application advice rather than a funding offer. Matched case-insensitively
// against the normalized title and body.
var ExclusionPatterns = []string{
	`job.{0,10}vacanc`,
	`employme.*opportunit`,
	`career.{0,10}fair`,
	`recruitment`,
	`hiring`,
	`workshop`,
	`seminar`,
	`conference`,
	`\bevents?\b`,
	`how\s+to\s+apply`,
	`application\s+tips`,
	`interview`,
	`motivational\s+letter`,
	`cv\s+writing`,
}

// GenericIndicators are terms at least one of which must appear in a bursary page
var GenericIndicators = []string{
	"bursary",
	"bursaries",
	"scholarship",
	"funding",
	"grant",
	"financial aid",
	"award",
	"support",
	"assistance",
	"student aid",
}
