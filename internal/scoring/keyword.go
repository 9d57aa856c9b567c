package scoring

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/vijay-prabhu/bursary-matcher/internal/filter"
)

// Keyword weights
const (
	primaryTitlePoints       = 20
	primaryDescriptionPoints = 10
	secondaryTitlePoints     = 8
	secondaryDescPoints      = 4
	patternPoints            = 25
	multiPrimaryBonus        = 15 // two or more primary keywords
	multiSecondaryBonus      = 10 // three or more secondary keywords

	courseVerbatimPoints = 30
	coursePartialPoints  = 20
	coursePartialRatio   = 0.5
	courseMinWordLength  = 4
	courseBoostCap       = 40

	fallbackScore             = 10
	fallbackDescriptionLength = 50
	maxScore                  = 100

	hitContextSize = 40 // bytes of text kept either side of an explained hit
)

// KeywordHit is one matched keyword and the points it earned
type KeywordHit struct {
	Keyword string `json:"keyword"`
	InTitle bool   `json:"in_title"`
	Points  int    `json:"points"`
	Context string `json:"context,omitempty"` // surrounding text, set by Explain
}

// CourseHit describes how one of the user's courses matched
type CourseHit struct {
	Course   string  `json:"course"`
	Verbatim bool    `json:"verbatim"`
	Ratio    float64 `json:"ratio,omitempty"`
	Points   int     `json:"points"`
}

// Breakdown explains how a keyword score was reached
type Breakdown struct {
	Score         int          `json:"score"`
	Rejected      bool         `json:"rejected"`
	Reason        string       `json:"reason,omitempty"`
	Field         string       `json:"field,omitempty"`
	FieldScore    int          `json:"field_score"`
	PrimaryHits   []KeywordHit `json:"primary_hits,omitempty"`
	SecondaryHits []KeywordHit `json:"secondary_hits,omitempty"`
	PatternHits   []string     `json:"pattern_hits,omitempty"`
	Bonus         int          `json:"bonus"`
	CourseBoost   int          `json:"course_boost"`
	CourseHits    []CourseHit  `json:"course_hits,omitempty"`
	Fallback      bool         `json:"fallback"`
}

// KeywordScorer scores text against the user's industries and courses using
// the field-mapping vocabularies. Safe for concurrent use.
type KeywordScorer struct {
	filter *filter.Filter
	fields map[string]*field
}

// NewKeywordScorer creates a scorer with the built-in field mappings
func NewKeywordScorer(f *filter.Filter) *KeywordScorer {
	s, err := NewKeywordScorerWithMappings(f, FieldMappings)
	if err != nil {
		// the built-in mappings are constant and covered by tests
		panic(err)
	}
	return s
}

// NewKeywordScorerWithMappings creates a scorer with custom field mappings
func NewKeywordScorerWithMappings(f *filter.Filter, mappings map[string]FieldMapping) (*KeywordScorer, error) {
	if f == nil {
		f = filter.New()
	}
	fields, err := compileFields(mappings)
	if err != nil {
		return nil, err
	}
	return &KeywordScorer{filter: f, fields: fields}, nil
}

// Score returns the relevance of title/description to the profile, 0 to 100
func (s *KeywordScorer) Score(title, description string, industries, courses []string) int {
	return s.breakdown(title, description, industries, courses).Score
}

// Explain scores like Score and reports every contribution, with the text
// around each keyword hit
func (s *KeywordScorer) Explain(title, description string, industries, courses []string) Breakdown {
	b := s.breakdown(title, description, industries, courses)

	text := strings.Join(strings.Fields(title+" "+description), " ")
	for _, hits := range [][]KeywordHit{b.PrimaryHits, b.SecondaryHits} {
		for i := range hits {
			hits[i].Context, _ = filter.KeywordContext(text, hits[i].Keyword, hitContextSize)
		}
	}
	return b
}

func (s *KeywordScorer) breakdown(title, description string, industries, courses []string) Breakdown {
	var b Breakdown

	if strings.TrimSpace(title) == "" {
		b.Rejected = true
		b.Reason = "empty title"
		return b
	}

	if result := s.filter.Apply(title, description); !result.Include {
		b.Rejected = true
		b.Reason = result.Reason
		return b
	}

	industries = cleanList(industries)
	courses = cleanList(courses)

	titleText := filter.Normalize(title)
	combined := filter.Combine(title, description)

	// Field component: best single industry, never the sum
	for _, industry := range industries {
		f, ok := s.fields[industry]
		if !ok {
			continue
		}
		fb := scoreField(f, titleText, combined)
		if b.Field == "" || fb.FieldScore > b.FieldScore {
			fb.Field = industry
			b.Field, b.FieldScore = fb.Field, fb.FieldScore
			b.PrimaryHits, b.SecondaryHits, b.PatternHits, b.Bonus = fb.PrimaryHits, fb.SecondaryHits, fb.PatternHits, fb.Bonus
		}
	}

	b.CourseBoost, b.CourseHits = courseBoost(combined, courses)

	b.Score = min(maxScore, b.FieldScore+b.CourseBoost)

	if b.Score == 0 && len(industries) == 0 && len(courses) == 0 &&
		utf8.RuneCountInString(strings.TrimSpace(description)) > fallbackDescriptionLength {
		b.Score = fallbackScore
		b.Fallback = true
	}

	return b
}

// scoreField computes the per-industry score
func scoreField(f *field, titleText, combined string) Breakdown {
	var b Breakdown

	for _, kw := range f.primary {
		if !filter.ContainsWord(combined, kw) {
			continue
		}
		hit := KeywordHit{Keyword: kw, Points: primaryDescriptionPoints}
		if filter.ContainsWord(titleText, kw) {
			hit.InTitle = true
			hit.Points = primaryTitlePoints
		}
		b.PrimaryHits = append(b.PrimaryHits, hit)
		b.FieldScore += hit.Points
	}

	for _, kw := range f.secondary {
		if !filter.ContainsWord(combined, kw) {
			continue
		}
		hit := KeywordHit{Keyword: kw, Points: secondaryDescPoints}
		if filter.ContainsWord(titleText, kw) {
			hit.InTitle = true
			hit.Points = secondaryTitlePoints
		}
		b.SecondaryHits = append(b.SecondaryHits, hit)
		b.FieldScore += hit.Points
	}

	for _, re := range f.patterns {
		if re.MatchString(combined) {
			b.PatternHits = append(b.PatternHits, strings.TrimPrefix(re.String(), "(?i)"))
			b.FieldScore += patternPoints
		}
	}

	if len(b.PrimaryHits) >= 2 {
		b.Bonus += multiPrimaryBonus
	}
	if len(b.SecondaryHits) >= 3 {
		b.Bonus += multiSecondaryBonus
	}
	b.FieldScore += b.Bonus

	return b
}

// courseBoost rewards course names found in the text, capped at courseBoostCap
func courseBoost(combined string, courses []string) (int, []CourseHit) {
	boost := 0
	var hits []CourseHit

	for _, course := range courses {
		name := filter.Normalize(course)

		if filter.ContainsWord(combined, name) {
			hits = append(hits, CourseHit{Course: course, Verbatim: true, Points: courseVerbatimPoints})
			boost += courseVerbatimPoints
			continue
		}

		var words []string
		for _, w := range strings.Fields(name) {
			if utf8.RuneCountInString(w) >= courseMinWordLength {
				words = append(words, w)
			}
		}
		if len(words) == 0 {
			continue
		}

		present := 0
		for _, w := range words {
			if filter.ContainsWord(combined, w) {
				present++
			}
		}

		ratio := float64(present) / float64(len(words))
		if ratio >= coursePartialRatio {
			points := int(math.Round(coursePartialPoints * ratio))
			hits = append(hits, CourseHit{Course: course, Ratio: ratio, Points: points})
			boost += points
		}
	}

	return min(boost, courseBoostCap), hits
}

// cleanList drops blank and duplicate entries, keeping order
func cleanList(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" || seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	return out
}
