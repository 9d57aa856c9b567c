package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vijay-prabhu/bursary-matcher/internal/database"
	"github.com/vijay-prabhu/bursary-matcher/internal/filter"
	"github.com/vijay-prabhu/bursary-matcher/internal/matching"
)

const defaultListLimit = 20

func (s *Server) registerHandlers() {
	s.handlers["compute_matches"] = s.handleComputeMatches
	s.handlers["list_matches"] = s.handleListMatches
	s.handlers["score_opportunity"] = s.handleScoreOpportunity
	s.handlers["list_opportunities"] = s.handleListOpportunities
	s.handlers["get_stats"] = s.handleGetStats
}

// decodeParams unmarshals tool arguments; absent arguments leave dst zero
func decodeParams(params json.RawMessage, dst any) error {
	if len(params) == 0 || string(params) == "null" {
		return nil
	}
	if err := json.Unmarshal(params, dst); err != nil {
		return fmt.Errorf("invalid parameters: %w", err)
	}
	return nil
}

type computeMatchesParams struct {
	UserID     string             `json:"user_id"`
	Candidates []filter.Candidate `json:"candidates"`
	Strategy   string             `json:"strategy"`
	Limit      int                `json:"limit"`
}

type computeMatchesResult struct {
	*matching.Result
	PersistError string `json:"persist_error,omitempty"`
}

func (s *Server) handleComputeMatches(ctx context.Context, params json.RawMessage) (any, error) {
	var p computeMatchesParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if strings.TrimSpace(p.UserID) == "" {
		return nil, matching.ErrUserRequired
	}

	candidates := p.Candidates
	if candidates == nil {
		var err error
		if candidates, err = s.svc.StoredCandidates(ctx); err != nil {
			return nil, err
		}
	}

	result, err := s.svc.ComputeMatches(ctx, p.UserID, candidates, matching.Options{
		Limit:    p.Limit,
		Strategy: matching.Strategy(p.Strategy),
	})
	if err != nil {
		return nil, err
	}

	out := computeMatchesResult{Result: result}
	if result.PersistErr != nil {
		out.PersistError = result.PersistErr.Error()
	}
	return out, nil
}

type listMatchesParams struct {
	UserID string `json:"user_id"`
	Limit  int    `json:"limit"`
}

func (s *Server) handleListMatches(ctx context.Context, params json.RawMessage) (any, error) {
	var p listMatchesParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}

	matches, err := s.svc.ListMatches(ctx, p.UserID, p.Limit)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return "No stored matches. Run compute_matches first.", nil
	}
	return matches, nil
}

type scoreParams struct {
	UserID      string `json:"user_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (s *Server) handleScoreOpportunity(ctx context.Context, params json.RawMessage) (any, error) {
	var p scoreParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if strings.TrimSpace(p.Title) == "" {
		return nil, errors.New("title is required")
	}

	var profile *database.UserProfile
	if id := strings.TrimSpace(p.UserID); id != "" {
		var err error
		if profile, err = s.svc.Profile(ctx, id); err != nil {
			return nil, fmt.Errorf("database error: %w", err)
		}
	}

	return s.svc.Explain(ctx, profile, p.Title, p.Description), nil
}

type listOpportunitiesParams struct {
	Search    string `json:"search"`
	SinceDays int    `json:"since_days"`
	Limit     int    `json:"limit"`
}

func (s *Server) handleListOpportunities(ctx context.Context, params json.RawMessage) (any, error) {
	var p listOpportunitiesParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}

	opts := database.OpportunityListOptions{Limit: defaultListLimit}
	if q := strings.TrimSpace(p.Search); q != "" {
		opts.Search = &q
	}
	if p.SinceDays > 0 {
		since := time.Now().AddDate(0, 0, -p.SinceDays)
		opts.Since = &since
	}
	if p.Limit > 0 {
		opts.Limit = p.Limit
	}

	opps, err := s.store.ListOpportunities(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if opps == nil {
		opps = []database.Opportunity{}
	}
	return opps, nil
}

func (s *Server) handleGetStats(ctx context.Context, _ json.RawMessage) (any, error) {
	stats, err := s.store.GetStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return stats, nil
}
