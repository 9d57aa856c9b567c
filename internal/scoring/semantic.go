package scoring

import (
	"context"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/vijay-prabhu/bursary-matcher/internal/config"
	"github.com/vijay-prabhu/bursary-matcher/internal/embeddings"
)

const opportunityDescriptionLimit = 500

// Boilerplate anchors both sides of a comparison in "education funding"
// space so unrelated pairs sit on a common similarity floor.
var (
	profileLead = "Student seeking educational funding"
	profileTail = []string{
		"Need bursary support",
		"Looking for scholarship funding",
		"Tertiary education financial assistance",
	}
	opportunityTail = []string{
		"Educational opportunity",
		"Student funding",
		"Academic support",
	}
)

// Qualification is one declared field of study and its courses
type Qualification struct {
	Industry string
	Courses  []string
}

// ProfileText builds the text embedded for a user's profile
func ProfileText(quals []Qualification) string {
	parts := []string{profileLead}
	for _, q := range quals {
		if industry := strings.TrimSpace(q.Industry); industry != "" {
			parts = append(parts, "Studying "+industry)
		}
		for _, c := range q.Courses {
			if c = strings.TrimSpace(c); c != "" {
				parts = append(parts, "Taking "+c)
			}
		}
	}
	parts = append(parts, profileTail...)
	return strings.Join(parts, " | ")
}

// OpportunityText builds the text embedded for an opportunity when it is
// compared against a profile
func OpportunityText(title, description string) string {
	var parts []string
	if title = strings.TrimSpace(title); title != "" {
		parts = append(parts, title)
	}
	if description = strings.TrimSpace(description); description != "" {
		parts = append(parts, truncateRunes(description, opportunityDescriptionLimit))
	}
	parts = append(parts, opportunityTail...)
	return strings.Join(parts, " | ")
}

// SemanticResult is the outcome of comparing a profile with an opportunity
type SemanticResult struct {
	Similarity float64 `json:"similarity"`
	Score      int     `json:"score"`
	Quality    Quality `json:"quality"`
	Match      bool    `json:"match"`     // similarity reached the minimum threshold
	NoSignal   bool    `json:"no_signal"` // similarity undefined (missing or zero vector)
}

// SemanticScorer compares embeddings with cosine similarity. It holds the
// embedding provider handle it was constructed with.
type SemanticScorer struct {
	provider   embeddings.Provider
	thresholds config.SemanticThresholds
}

// NewSemanticScorer creates a scorer using provider and tier thresholds
func NewSemanticScorer(provider embeddings.Provider, thresholds config.SemanticThresholds) *SemanticScorer {
	return &SemanticScorer{provider: provider, thresholds: thresholds}
}

// Provider returns the embedding provider handle
func (s *SemanticScorer) Provider() embeddings.Provider {
	return s.provider
}

// Embed embeds text; an empty vector means the text could not be embedded
func (s *SemanticScorer) Embed(ctx context.Context, text string) ([]float32, error) {
	return s.provider.Embed(ctx, text)
}

// Score embeds both texts and compares them
func (s *SemanticScorer) Score(ctx context.Context, profileText, opportunityText string) (SemanticResult, error) {
	pv, err := s.provider.Embed(ctx, profileText)
	if err != nil {
		return SemanticResult{}, err
	}
	ov, err := s.provider.Embed(ctx, opportunityText)
	if err != nil {
		return SemanticResult{}, err
	}
	return s.Compare(pv, ov), nil
}

// Compare classifies the similarity of two precomputed vectors
func (s *SemanticScorer) Compare(profileVec, opportunityVec []float32) SemanticResult {
	sim, ok := embeddings.Cosine(profileVec, opportunityVec)
	if !ok {
		return SemanticResult{NoSignal: true, Quality: QualityNone}
	}

	r := SemanticResult{
		Similarity: sim,
		Score:      similarityScore(sim),
		Quality:    SemanticQuality(sim, s.thresholds),
	}
	r.Match = r.Quality != QualityNone
	return r
}

// similarityScore maps similarity to floor(sim*100) clamped to [0, 100]
func similarityScore(sim float64) int {
	score := int(math.Floor(sim * 100))
	return max(0, min(maxScore, score))
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}
