// Package matching computes, persists and lists bursary matches for a user.
package matching

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/vijay-prabhu/bursary-matcher/internal/config"
	"github.com/vijay-prabhu/bursary-matcher/internal/database"
	"github.com/vijay-prabhu/bursary-matcher/internal/embeddings"
	"github.com/vijay-prabhu/bursary-matcher/internal/filter"
	"github.com/vijay-prabhu/bursary-matcher/internal/logger"
	"github.com/vijay-prabhu/bursary-matcher/internal/ranking"
	"github.com/vijay-prabhu/bursary-matcher/internal/scoring"
)

// Strategy selects which scorers a run uses
type Strategy string

const (
	StrategyKeyword  Strategy = "keyword"
	StrategySemantic Strategy = "semantic"
	StrategyBoth     Strategy = "both"
)

// ParseStrategy validates a strategy name; empty means fallback
func ParseStrategy(name string, fallback Strategy) (Strategy, error) {
	switch s := Strategy(strings.ToLower(strings.TrimSpace(name))); s {
	case "":
		return fallback, nil
	case StrategyKeyword, StrategySemantic, StrategyBoth:
		return s, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}

func (s Strategy) keyword() bool  { return s == StrategyKeyword || s == StrategyBoth }
func (s Strategy) semantic() bool { return s == StrategySemantic || s == StrategyBoth }

// Store is the persistence the matching service needs
type Store interface {
	UpsertOpportunity(ctx context.Context, o *database.Opportunity) (bool, error)
	ListOpportunities(ctx context.Context, opts database.OpportunityListOptions) ([]database.Opportunity, error)
	GetEmbedding(ctx context.Context, opportunityID string) (*database.Embedding, error)
	SaveEmbedding(ctx context.Context, e *database.Embedding) (bool, error)
	GetProfile(ctx context.Context, userID string) (*database.UserProfile, error)
	UpsertMatch(ctx context.Context, m *database.Match) error
	ListMatches(ctx context.Context, userID string, limit int) ([]database.MatchDetail, error)
}

// Service runs the filter, scorers, ranker and store for match requests
type Service struct {
	store    Store
	filter   *filter.Filter
	keyword  *scoring.KeywordScorer
	semantic *scoring.SemanticScorer // nil when embeddings are disabled
	cfg      config.MatchingConfig
	limits   ranking.Limits
	log      *zap.Logger
}

// NewService creates a Service. provider may be nil, in which case the
// semantic strategy yields no matches and runs are reported as partial.
func NewService(store Store, provider embeddings.Provider, cfg config.MatchingConfig, log *zap.Logger) *Service {
	f := filter.New()
	s := &Service{
		store:   store,
		filter:  f,
		keyword: scoring.NewKeywordScorer(f),
		cfg:     cfg,
		limits:  ranking.Limits{Default: cfg.DefaultLimit, Max: cfg.MaxLimit},
		log:     logger.Component(log, "matching"),
	}
	if provider != nil {
		s.semantic = scoring.NewSemanticScorer(provider, cfg.Semantic)
	}
	return s
}

// Options configures a compute_matches run
type Options struct {
	Limit    int      // 0 = configured default; capped at the configured max
	Strategy Strategy // empty = configured default
	Progress ProgressCallback
}

// Result is the outcome of a compute_matches run
type Result struct {
	UserID    string          `json:"user_id"`
	Strategy  Strategy        `json:"strategy"`
	Matches   []ranking.Match `json:"matches"`
	Summary   ranking.Summary `json:"summary"`
	Scored    int             `json:"scored"`    // candidates that survived a threshold
	Persisted int             `json:"persisted"` // match rows written
	Partial   bool            `json:"partial"`   // semantic scoring was skipped or incomplete
	NoSignal  bool            `json:"no_signal"` // nothing could be scored at all
	Warnings  []string        `json:"warnings,omitempty"`

	// PersistErr holds *PersistenceError values for writes that failed.
	// Matches are populated regardless.
	PersistErr error `json:"-"`
}

// item is a deduplicated candidate that passed the filter
type item struct {
	opp database.Opportunity // ID is empty when storing it failed
	req scoring.Requirements
}

// run carries per-request state shared by scoring workers
type run struct {
	industries []string
	courses    []string
	minKeyword int
	profileVec []float32

	semanticOn  bool
	mu          sync.Mutex
	failedItems int   // opportunities the provider could not embed
	providerErr error // first of those failures
}

func (r *run) fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failedItems++
	if r.providerErr == nil {
		r.providerErr = err
	}
}

type scored struct {
	keyword  *ranking.Candidate
	semantic *ranking.Candidate
}

// ComputeMatches scores candidates for userID, upserts every match that
// survives its threshold and returns the top matches. Bad or empty
// candidates are skipped, never reported as errors. The returned error is
// non-nil only for invalid arguments, an unreadable profile or cancellation.
func (s *Service) ComputeMatches(ctx context.Context, userID string, candidates []filter.Candidate, opts Options) (*Result, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrUserRequired
	}

	strategy, err := ParseStrategy(string(opts.Strategy), Strategy(s.cfg.Strategy))
	if err != nil {
		return nil, err
	}
	limit := s.limits.Clamp(opts.Limit)

	log := s.log.With(zap.String(logger.FieldUser, userID), zap.String("strategy", string(strategy)))

	profile, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	result := &Result{UserID: userID, Strategy: strategy, Matches: []ranking.Match{}}
	var perr persistErrors

	// Dedup by URL and filter
	items := s.prepare(candidates, opts.Progress)
	result.Summary = ranking.Summarize(len(candidates), len(items))

	// Store opportunities so matches have a key
	s.storeOpportunities(ctx, items, database.SourceImport, &perr, opts.Progress)

	r := &run{
		industries: profile.Industries(),
		courses:    profile.Courses(),
		minKeyword: s.cfg.KeywordMinScoreNoProfile,
	}
	if !profile.IsEmpty() {
		r.minKeyword = s.cfg.KeywordMinScore
	}

	if strategy.semantic() {
		s.prepareSemantic(ctx, profile, r, result)
	}

	// Score
	rep := newReporter(opts.Progress, PhaseScoring, len(items), "Scoring opportunities")
	results := fanOut(ctx, len(items), s.cfg.Workers, func(ctx context.Context, i int) scored {
		return s.scoreItem(ctx, items[i], strategy, r)
	}, rep.report)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var keywordList, semanticList []ranking.Candidate
	for _, sc := range results {
		if sc.keyword != nil {
			keywordList = append(keywordList, *sc.keyword)
		}
		if sc.semantic != nil {
			semanticList = append(semanticList, *sc.semantic)
		}
	}

	if r.semanticOn && r.failedItems > 0 {
		err := fmt.Errorf("%d of %d opportunities not scored: %w", r.failedItems, len(items), r.providerErr)
		s.markPartial(result, &ProviderError{Provider: s.semantic.Provider().Name(), Err: err})
		log.Warn("semantic scoring incomplete", zap.Int("failed", r.failedItems), zap.Error(r.providerErr))
	}

	merged := ranking.Merge(keywordList, semanticList)
	result.Scored = len(merged)

	// Persist every surviving candidate, not only the returned ones
	result.Persisted = s.saveMatches(ctx, userID, merged, &perr, opts.Progress)
	result.PersistErr = perr.err()
	if result.PersistErr != nil {
		log.Error("failed to persist matches", zap.Error(result.PersistErr))
	}

	ranked := ranking.Rank(merged, limit)
	result.Matches = ranking.Payload(ranked, s.cfg.DescriptionLimit)

	if len(merged) == 0 && (profile.IsEmpty() || (strategy == StrategySemantic && result.Partial)) {
		result.NoSignal = true
	}

	log.Info("computed matches",
		zap.Int("candidates", len(candidates)),
		zap.Int("filtered", len(items)),
		zap.Int("scored", result.Scored),
		zap.Int("returned", len(result.Matches)),
		zap.Bool("partial", result.Partial),
	)

	return result, nil
}

// prepare deduplicates candidates by URL, keeping the first, and drops
// anything the exclusion filter rejects
func (s *Service) prepare(candidates []filter.Candidate, progress ProgressCallback) []item {
	rep := newReporter(progress, PhaseFiltering, len(candidates), "Filtering candidates")
	seen := make(map[string]bool, len(candidates))
	unique := make([]filter.Candidate, 0, len(candidates))

	for _, c := range candidates {
		c.URL = strings.TrimSpace(c.URL)
		if c.URL == "" || seen[c.URL] {
			continue
		}
		seen[c.URL] = true
		unique = append(unique, c)
	}

	filtered := s.filter.ApplyBatch(unique)
	stats := filter.GetStats(filtered)
	s.log.Debug("filtered candidates",
		zap.Int("received", len(candidates)),
		zap.Int("unique", stats.Total),
		zap.Int("kept", stats.Candidates),
		zap.Int("empty_title", stats.EmptyTitle),
		zap.Int("excluded", stats.Excluded),
		zap.Int("no_indicator", stats.NoIndicator),
	)

	kept := filter.Included(filtered)
	items := make([]item, 0, len(kept))
	for _, c := range kept {
		title := strings.TrimSpace(c.Title)
		desc := strings.TrimSpace(c.Text)
		req := scoring.ExtractRequirements(title + " " + desc)
		opp := database.Opportunity{URL: c.URL, Title: title, Description: desc, MinAverage: req.MinAverage}
		if req.Citizenship != "" {
			citizenship := req.Citizenship
			opp.Citizenship = &citizenship
		}
		items = append(items, item{opp: opp, req: req})
	}
	rep.report(len(candidates))

	return items
}

// storeOpportunities upserts each item, filling in its ID
func (s *Service) storeOpportunities(ctx context.Context, items []item, source database.Source, perr *persistErrors, progress ProgressCallback) (created int) {
	rep := newReporter(progress, PhaseStoring, len(items), "Storing opportunities")
	for i := range items {
		items[i].opp.Source = source
		isNew, err := s.store.UpsertOpportunity(ctx, &items[i].opp)
		if err != nil {
			items[i].opp.ID = ""
			perr.add("upsert_opportunity", err)
		} else if isNew {
			created++
		}
		rep.report(i + 1)
	}
	return created
}

// prepareSemantic embeds the profile once for the run
func (s *Service) prepareSemantic(ctx context.Context, profile *database.UserProfile, r *run, result *Result) {
	if s.semantic == nil {
		s.markPartial(result, fmt.Errorf("semantic matching is disabled: %w", embeddings.ErrDisabled))
		return
	}

	vec, err := s.semantic.Embed(ctx, scoring.ProfileText(qualifications(profile)))
	if err != nil {
		provider := s.semantic.Provider()
		perr := &ProviderError{Provider: provider.Name(), Err: err}
		s.log.Warn("profile embedding failed", append(logger.ProviderFields(provider.Name(), provider.Model()), zap.Error(err))...)
		s.markPartial(result, perr)
		return
	}
	if len(vec) == 0 {
		s.markPartial(result, errors.New("profile text could not be embedded"))
		return
	}

	r.profileVec = vec
	r.semanticOn = true
}

func qualifications(profile *database.UserProfile) []scoring.Qualification {
	quals := make([]scoring.Qualification, 0, len(profile.Qualifications))
	for _, q := range profile.Qualifications {
		quals = append(quals, scoring.Qualification{Industry: q.Industry, Courses: q.Courses})
	}
	return quals
}

func (s *Service) markPartial(result *Result, err error) {
	result.Partial = true
	result.Warnings = append(result.Warnings, err.Error())
}

// scoreItem runs the enabled scorers for one opportunity
func (s *Service) scoreItem(ctx context.Context, it item, strategy Strategy, r *run) scored {
	var out scored

	base := ranking.Candidate{
		OpportunityID: it.opp.ID,
		URL:           it.opp.URL,
		Title:         it.opp.Title,
		Description:   it.opp.Description,
		Requirements:  it.req,
	}

	if strategy.keyword() {
		score := s.keyword.Score(it.opp.Title, it.opp.Description, r.industries, r.courses)
		if score > 0 && score >= r.minKeyword {
			c := base
			c.Score = score
			c.Quality = scoring.KeywordQuality(score, s.cfg.KeywordTiers)
			c.Method = ranking.MethodKeyword
			out.keyword = &c
		}
	}

	if r.semanticOn {
		vec, err := s.opportunityVector(ctx, it, len(r.profileVec))
		if err != nil {
			r.fail(err)
			return out
		}
		sr := s.semantic.Compare(r.profileVec, vec)
		if sr.Match {
			c := base
			c.Score = sr.Score
			c.Quality = sr.Quality
			c.Similarity = sr.Similarity
			c.Method = ranking.MethodSemantic
			out.semantic = &c
		}
	}

	return out
}

// opportunityVector prefers the stored embedding and otherwise embeds the
// opportunity text for this run only. A stored vector whose length differs
// from the profile vector was made by another model and is ignored.
func (s *Service) opportunityVector(ctx context.Context, it item, dims int) ([]float32, error) {
	if it.opp.ID != "" {
		e, err := s.store.GetEmbedding(ctx, it.opp.ID)
		if err != nil {
			s.log.Warn("failed to load stored embedding", zap.String("opportunity_id", it.opp.ID), zap.Error(err))
		} else if e != nil && len(e.Vector) == dims {
			return e.Vector, nil
		}
	}
	return s.semantic.Embed(ctx, scoring.OpportunityText(it.opp.Title, it.opp.Description))
}

// saveMatches upserts each merged candidate that has a stored opportunity
func (s *Service) saveMatches(ctx context.Context, userID string, merged []ranking.Candidate, perr *persistErrors, progress ProgressCallback) int {
	rep := newReporter(progress, PhaseSaving, len(merged), "Saving matches")
	saved := 0
	for i, c := range merged {
		rep.report(i + 1)
		if c.OpportunityID == "" {
			continue
		}
		if ctx.Err() != nil {
			perr.add("upsert_match", ctx.Err())
			continue
		}
		err := s.store.UpsertMatch(ctx, &database.Match{
			UserID:        userID,
			OpportunityID: c.OpportunityID,
			Score:         c.Score,
			Quality:       c.Quality.String(),
			Method:        string(c.Method),
		})
		if err != nil {
			perr.add("upsert_match", err)
			continue
		}
		saved++
	}
	return saved
}
