package matching

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/vijay-prabhu/bursary-matcher/internal/database"
	"github.com/vijay-prabhu/bursary-matcher/internal/filter"
	"github.com/vijay-prabhu/bursary-matcher/internal/ranking"
)

const storedDescriptionLimit = 200

// StoredMatch is a previously computed match as shown to the user
type StoredMatch struct {
	OpportunityID string    `json:"opportunity_id"`
	Title         string    `json:"title"`
	URL           string    `json:"url"`
	Description   string    `json:"description"`
	Score         int       `json:"score"`
	Quality       string    `json:"quality"`
	Method        string    `json:"method"`
	MatchedOn     time.Time `json:"matched_on"`
}

// ListMatches returns a user's stored matches, best first, with
// descriptions shortened for display
func (s *Service) ListMatches(ctx context.Context, userID string, limit int) ([]StoredMatch, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrUserRequired
	}

	details, err := s.store.ListMatches(ctx, userID, limit)
	if err != nil {
		return nil, err
	}

	out := make([]StoredMatch, 0, len(details))
	for _, d := range details {
		title := strings.TrimSpace(d.Title)
		if title == "" {
			title = "Untitled Bursary"
		}
		desc := strings.TrimSpace(d.Description)
		if desc == "" {
			desc = "No description available"
		}
		out = append(out, StoredMatch{
			OpportunityID: d.OpportunityID,
			Title:         title,
			URL:           d.URL,
			Description:   ranking.Truncate(desc, storedDescriptionLimit, "..."),
			Score:         d.Score,
			Quality:       d.Quality,
			Method:        d.Method,
			MatchedOn:     d.MatchedOn,
		})
	}
	return out, nil
}

// StoredCandidates returns the stored catalogue as candidates, so a run can
// match against everything imported or scraped so far
func (s *Service) StoredCandidates(ctx context.Context) ([]filter.Candidate, error) {
	opps, err := s.store.ListOpportunities(ctx, database.OpportunityListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list opportunities: %w", err)
	}

	candidates := make([]filter.Candidate, 0, len(opps))
	for _, o := range opps {
		candidates = append(candidates, filter.Candidate{URL: o.URL, Title: o.Title, Text: o.Description})
	}
	return candidates, nil
}
