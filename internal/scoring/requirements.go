package scoring

import (
	"regexp"
	"strconv"
)

var (
	minAverageRe  = regexp.MustCompile(`(?i)(\d{2})\s*%.*(average|aggregate)`)
	citizenshipRe = regexp.MustCompile(`(?i)\bSouth African citizen\b`)
)

// Requirements are eligibility hints pulled out of an opportunity's text
type Requirements struct {
	MinAverage  *int   `json:"min_average,omitempty"`
	Citizenship string `json:"citizenship,omitempty"` // ISO country code
}

// IsZero reports whether nothing was extracted
func (r Requirements) IsZero() bool {
	return r.MinAverage == nil && r.Citizenship == ""
}

// ExtractRequirements finds a minimum average ("65% average") and a
// citizenship requirement in free text.
func ExtractRequirements(text string) Requirements {
	var r Requirements

	if m := minAverageRe.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			r.MinAverage = &n
		}
	}

	if citizenshipRe.MatchString(text) {
		r.Citizenship = "ZA"
	}

	return r
}
