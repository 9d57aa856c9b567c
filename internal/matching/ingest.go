package matching

import (
	"context"

	"go.uber.org/zap"

	"github.com/vijay-prabhu/bursary-matcher/internal/database"
	"github.com/vijay-prabhu/bursary-matcher/internal/filter"
	"github.com/vijay-prabhu/bursary-matcher/internal/ranking"
)

// IngestResult reports how a batch of fetched candidates was stored
type IngestResult struct {
	Summary ranking.Summary `json:"summary"`
	Created int             `json:"created"`
	Updated int             `json:"updated"`

	PersistErr error `json:"-"`
}

// Ingest stores candidates as opportunities without scoring them. Candidates
// are deduplicated by URL and must pass the exclusion filter.
func (s *Service) Ingest(ctx context.Context, candidates []filter.Candidate, source database.Source, progress ProgressCallback) (*IngestResult, error) {
	items := s.prepare(candidates, progress)

	var perr persistErrors
	created := s.storeOpportunities(ctx, items, source, &perr, progress)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stored := 0
	for _, it := range items {
		if it.opp.ID != "" {
			stored++
		}
	}

	result := &IngestResult{
		Summary:    ranking.Summarize(len(candidates), len(items)),
		Created:    created,
		Updated:    stored - created,
		PersistErr: perr.err(),
	}

	s.log.Info("ingested opportunities",
		zap.String("source", string(source)),
		zap.Int("candidates", len(candidates)),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
	)
	if result.PersistErr != nil {
		s.log.Error("failed to store some opportunities", zap.Error(result.PersistErr))
	}

	return result, nil
}
