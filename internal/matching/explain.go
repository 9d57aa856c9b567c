package matching

import (
	"context"

	"github.com/vijay-prabhu/bursary-matcher/internal/database"
	"github.com/vijay-prabhu/bursary-matcher/internal/scoring"
)

// Explanation breaks down how one title/description scores for a profile
type Explanation struct {
	Keyword        scoring.Breakdown       `json:"keyword"`
	KeywordQuality scoring.Quality         `json:"keyword_quality"`
	KeywordMatch   bool                    `json:"keyword_match"` // reached the minimum keyword score
	Semantic       *scoring.SemanticResult `json:"semantic,omitempty"`
	Requirements   scoring.Requirements    `json:"requirements,omitzero"`
	Warnings       []string                `json:"warnings,omitempty"`
}

// Explain scores a single opportunity for profile without storing anything.
// A nil profile is treated as empty.
func (s *Service) Explain(ctx context.Context, profile *database.UserProfile, title, description string) *Explanation {
	if profile == nil {
		profile = &database.UserProfile{}
	}

	e := &Explanation{
		Keyword:      s.keyword.Explain(title, description, profile.Industries(), profile.Courses()),
		Requirements: scoring.ExtractRequirements(title + " " + description),
	}
	e.KeywordQuality = scoring.KeywordQuality(e.Keyword.Score, s.cfg.KeywordTiers)

	minScore := s.cfg.KeywordMinScoreNoProfile
	if !profile.IsEmpty() {
		minScore = s.cfg.KeywordMinScore
	}
	e.KeywordMatch = e.Keyword.Score > 0 && e.Keyword.Score >= minScore

	if s.semantic == nil || e.Keyword.Rejected {
		return e
	}

	sr, err := s.semantic.Score(ctx, scoring.ProfileText(qualifications(profile)), scoring.OpportunityText(title, description))
	if err != nil {
		e.Warnings = append(e.Warnings, (&ProviderError{Provider: s.semantic.Provider().Name(), Err: err}).Error())
		return e
	}
	e.Semantic = &sr
	return e
}

// Profile loads a user's profile
func (s *Service) Profile(ctx context.Context, userID string) (*database.UserProfile, error) {
	return s.store.GetProfile(ctx, userID)
}
