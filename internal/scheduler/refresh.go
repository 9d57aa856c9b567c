package scheduler

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/vijay-prabhu/bursary-matcher/internal/database"
	"github.com/vijay-prabhu/bursary-matcher/internal/embeddings"
	"github.com/vijay-prabhu/bursary-matcher/internal/filter"
	"github.com/vijay-prabhu/bursary-matcher/internal/logger"
	"github.com/vijay-prabhu/bursary-matcher/internal/matching"
	"github.com/vijay-prabhu/bursary-matcher/internal/scraper"
)

// Store is the part of the match store a refresh reads
type Store interface {
	ListUserIDs(ctx context.Context) ([]string, error)
	GetProfile(ctx context.Context, userID string) (*database.UserProfile, error)
	KnownURLs(ctx context.Context) (map[string]bool, error)
}

// Fetcher produces candidates for a set of industries
type Fetcher interface {
	FetchCandidates(ctx context.Context, industries []string, known map[string]bool) ([]filter.Candidate, scraper.Stats, error)
}

// Catalog stores candidates and keeps their embeddings current
type Catalog interface {
	Ingest(ctx context.Context, candidates []filter.Candidate, source database.Source, progress matching.ProgressCallback) (*matching.IngestResult, error)
	Reembed(ctx context.Context, progress matching.ProgressCallback) (*matching.ReembedResult, error)
}

// RefreshResult reports one refresh cycle
type RefreshResult struct {
	Users      int                     `json:"users"`
	Industries []string                `json:"industries"`
	Scrape     scraper.Stats           `json:"scrape"`
	Ingest     *matching.IngestResult  `json:"ingest,omitempty"`
	Reembed    *matching.ReembedResult `json:"reembed,omitempty"`
}

// Refresher scrapes new opportunities for the industries of every stored
// profile, stores them, then re-embeds the catalogue.
type Refresher struct {
	store   Store
	fetcher Fetcher
	catalog Catalog
	log     *zap.Logger
}

// NewRefresher creates a Refresher
func NewRefresher(store Store, fetcher Fetcher, catalog Catalog, log *zap.Logger) *Refresher {
	return &Refresher{
		store:   store,
		fetcher: fetcher,
		catalog: catalog,
		log:     logger.Component(log, "refresh"),
	}
}

// Refresh runs one cycle. A scrape failure does not stop the re-embed step;
// both errors are returned joined.
func (r *Refresher) Refresh(ctx context.Context) (*RefreshResult, error) {
	r.log.Info("refresh cycle started")

	users, err := r.store.ListUserIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	result := &RefreshResult{Users: len(users)}
	var errs []error

	if len(users) == 0 {
		r.log.Info("no stored profiles, nothing to scrape")
	} else {
		industries, err := r.industries(ctx, users)
		if err != nil {
			return nil, err
		}
		result.Industries = industries

		if err := r.scrape(ctx, result); err != nil {
			errs = append(errs, err)
		}
	}

	if ctx.Err() != nil {
		return result, ctx.Err()
	}

	reembed, err := r.catalog.Reembed(ctx, nil)
	switch {
	case errors.Is(err, embeddings.ErrDisabled):
		r.log.Info("embedding provider disabled, skipping re-embed")
	case err != nil:
		errs = append(errs, fmt.Errorf("re-embed: %w", err))
	default:
		result.Reembed = reembed
	}

	r.log.Info("refresh cycle complete",
		zap.Int("users", result.Users),
		zap.Int("candidates", result.Scrape.Candidates),
		zap.Int("errors", len(errs)),
	)

	return result, errors.Join(errs...)
}

func (r *Refresher) scrape(ctx context.Context, result *RefreshResult) error {
	known, err := r.store.KnownURLs(ctx)
	if err != nil {
		return fmt.Errorf("failed to load known urls: %w", err)
	}

	candidates, stats, err := r.fetcher.FetchCandidates(ctx, result.Industries, known)
	result.Scrape = stats
	if err != nil {
		return fmt.Errorf("scrape: %w", err)
	}
	if len(candidates) == 0 {
		return nil
	}

	ingest, err := r.catalog.Ingest(ctx, candidates, database.SourceScraper, nil)
	if err != nil {
		return fmt.Errorf("ingest: %w", err)
	}
	result.Ingest = ingest
	if ingest.PersistErr != nil {
		return fmt.Errorf("ingest: %w", ingest.PersistErr)
	}
	return nil
}

// industries returns the union of the users' industries in first-seen order
func (r *Refresher) industries(ctx context.Context, users []string) ([]string, error) {
	var industries []string
	seen := make(map[string]bool)

	for _, id := range users {
		profile, err := r.store.GetProfile(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load profile %s: %w", id, err)
		}
		for _, ind := range profile.Industries() {
			if !seen[ind] {
				seen[ind] = true
				industries = append(industries, ind)
			}
		}
	}

	return industries, nil
}
