package filter

import (
	"fmt"
	"regexp"
	"strings"
)

// Layer identifies which check made the decision
type Layer string

const (
	LayerCandidate   Layer = "candidate"
	LayerEmptyTitle  Layer = "empty_title"
	LayerExcluded    Layer = "excluded"
	LayerNoIndicator Layer = "no_indicator"
)

// Result represents the outcome of filtering one piece of scraped text
type Result struct {
	Include bool   // Whether the text looks like a bursary opportunity
	Layer   Layer  // Which check made the decision
	Reason  string // Human-readable reason
}

// Candidate is a raw (url, title, text) triple produced by a fetcher
type Candidate struct {
	URL   string `json:"url"`
	Title string `json:"title"`
	Text  string `json:"text"`
}

// FilteredCandidate combines a candidate with its filter result
type FilteredCandidate struct {
	Candidate Candidate
	Result    Result
}

// Filter rejects text that is clearly not a bursary offering: job adverts,
// recruitment drives, events and application guides.
type Filter struct {
	exclusions []*regexp.Regexp
	indicators []string
}

// New creates a Filter with the built-in pattern tables
func New() *Filter {
	f, err := NewWithPatterns(ExclusionPatterns, GenericIndicators)
	if err != nil {
		// the built-in tables are constant and covered by tests
		panic(err)
	}
	return f
}

// NewWithPatterns creates a Filter from custom exclusion regexes and indicator terms
func NewWithPatterns(exclusions, indicators []string) (*Filter, error) {
	f := &Filter{indicators: make([]string, 0, len(indicators))}

	for _, p := range exclusions {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("invalid exclusion pattern %q: %w", p, err)
		}
		f.exclusions = append(f.exclusions, re)
	}

	for _, term := range indicators {
		if term = strings.ToLower(strings.TrimSpace(term)); term != "" {
			f.indicators = append(f.indicators, term)
		}
	}

	return f, nil
}

// IsCandidate reports whether title and text look like a bursary opportunity
func (f *Filter) IsCandidate(title, text string) bool {
	return f.Apply(title, text).Include
}

// Apply runs title and text through the checks in order
func (f *Filter) Apply(title, text string) Result {
	// Check 1: a title is mandatory
	if strings.TrimSpace(title) == "" {
		return Result{
			Include: false,
			Layer:   LayerEmptyTitle,
			Reason:  "Empty title",
		}
	}

	combined := Combine(title, text)

	// Check 2: hard exclusions
	if pattern, ok := f.Excluded(combined); ok {
		return Result{
			Include: false,
			Layer:   LayerExcluded,
			Reason:  fmt.Sprintf("Matches exclusion pattern: %q", pattern),
		}
	}

	// Check 3: at least one generic indicator
	for _, term := range f.indicators {
		if strings.Contains(combined, term) {
			return Result{
				Include: true,
				Layer:   LayerCandidate,
				Reason:  fmt.Sprintf("Contains indicator %q", term),
			}
		}
	}

	return Result{
		Include: false,
		Layer:   LayerNoIndicator,
		Reason:  "No bursary indicator found",
	}
}

// Excluded returns the first exclusion pattern matching normalized text
func (f *Filter) Excluded(normalized string) (string, bool) {
	for _, re := range f.exclusions {
		if re.MatchString(normalized) {
			return strings.TrimPrefix(re.String(), "(?i)"), true
		}
	}
	return "", false
}

// ApplyBatch applies filtering to multiple candidates
func (f *Filter) ApplyBatch(candidates []Candidate) []FilteredCandidate {
	results := make([]FilteredCandidate, 0, len(candidates))

	for _, c := range candidates {
		results = append(results, FilteredCandidate{
			Candidate: c,
			Result:    f.Apply(c.Title, c.Text),
		})
	}

	return results
}

// Included returns only candidates that passed
func Included(filtered []FilteredCandidate) []Candidate {
	var included []Candidate
	for _, f := range filtered {
		if f.Result.Include {
			included = append(included, f.Candidate)
		}
	}
	return included
}

// Stats returns filtering statistics
type Stats struct {
	Total       int
	Candidates  int
	EmptyTitle  int
	Excluded    int
	NoIndicator int
}

// GetStats returns statistics about filtered candidates
func GetStats(filtered []FilteredCandidate) Stats {
	stats := Stats{Total: len(filtered)}

	for _, f := range filtered {
		switch f.Result.Layer {
		case LayerCandidate:
			stats.Candidates++
		case LayerEmptyTitle:
			stats.EmptyTitle++
		case LayerExcluded:
			stats.Excluded++
		case LayerNoIndicator:
			stats.NoIndicator++
		}
	}

	return stats
}
