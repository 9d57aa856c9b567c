// Package ranking orders scored opportunities and shapes the match payload.
package ranking

import (
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/vijay-prabhu/bursary-matcher/internal/scoring"
)

// Method records which scorer produced a candidate's score
type Method string

const (
	MethodKeyword  Method = "keyword"
	MethodSemantic Method = "semantic"
)

// Candidate is a scored opportunity waiting to be ranked
type Candidate struct {
	OpportunityID string
	URL           string
	Title         string
	Description   string
	Score         int
	Quality       scoring.Quality
	Method        Method
	Similarity    float64 // semantic only
	Requirements  scoring.Requirements
}

// Match is one entry of the payload returned to callers
type Match struct {
	OpportunityID string               `json:"opportunity_id"`
	Title         string               `json:"title"`
	URL           string               `json:"url"`
	Description   string               `json:"description"`
	Score         int                  `json:"score"`
	Quality       scoring.Quality      `json:"quality"`
	Method        Method               `json:"method"`
	Requirements  scoring.Requirements `json:"requirements,omitzero"`
}

// Limits bounds the number of returned matches
type Limits struct {
	Default int
	Max     int
}

// Clamp returns the effective limit: Default when limit is not positive,
// and never more than Max
func (l Limits) Clamp(limit int) int {
	if limit <= 0 {
		limit = l.Default
	}
	if l.Max > 0 && limit > l.Max {
		limit = l.Max
	}
	return max(1, limit)
}

// Rank sorts candidates by descending score and keeps the first limit.
// Equal scores keep their input order. The input slice is not modified.
func Rank(candidates []Candidate, limit int) []Candidate {
	ranked := make([]Candidate, len(candidates))
	copy(ranked, candidates)

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if limit >= 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// Merge combines independently scored candidate lists, keeping the higher
// score per opportunity. Ties keep the earlier list's entry. Order follows
// first appearance across the lists.
func Merge(lists ...[]Candidate) []Candidate {
	index := make(map[string]int)
	var merged []Candidate

	for _, list := range lists {
		for _, c := range list {
			key := mergeKey(c)
			if i, ok := index[key]; ok {
				if c.Score > merged[i].Score {
					merged[i] = c
				}
				continue
			}
			index[key] = len(merged)
			merged = append(merged, c)
		}
	}

	return merged
}

func mergeKey(c Candidate) string {
	if c.OpportunityID != "" {
		return c.OpportunityID
	}
	return c.URL
}

// Payload shapes ranked candidates for callers, truncating descriptions
// to descriptionLimit characters
func Payload(ranked []Candidate, descriptionLimit int) []Match {
	matches := make([]Match, 0, len(ranked))
	for _, c := range ranked {
		title := strings.TrimSpace(c.Title)
		if title == "" {
			title = "Untitled"
		}
		matches = append(matches, Match{
			OpportunityID: c.OpportunityID,
			Title:         title,
			URL:           c.URL,
			Description:   Truncate(c.Description, descriptionLimit, ""),
			Score:         c.Score,
			Quality:       c.Quality,
			Method:        c.Method,
			Requirements:  c.Requirements,
		})
	}
	return matches
}

// Truncate cuts s to at most limit characters, appending suffix when it cuts
func Truncate(s string, limit int, suffix string) string {
	if limit < 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit]) + suffix
}

// Summary reports how much of the incoming corpus survived filtering
type Summary struct {
	OriginalCount    int     `json:"original_count"`
	FilteredCount    int     `json:"filtered_count"`
	FilteredOut      int     `json:"filtered_out"`
	FilterEfficiency float64 `json:"filter_efficiency"` // percent kept, one decimal
}

// Summarize builds a Summary from the candidate counts before and after filtering
func Summarize(original, filtered int) Summary {
	s := Summary{
		OriginalCount: original,
		FilteredCount: filtered,
		FilteredOut:   original - filtered,
	}
	if original > 0 {
		pct := float64(filtered) / float64(original) * 100
		s.FilterEfficiency = math.Round(pct*10) / 10
	}
	return s
}
