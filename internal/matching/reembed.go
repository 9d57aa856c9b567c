package matching

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/vijay-prabhu/bursary-matcher/internal/database"
	"github.com/vijay-prabhu/bursary-matcher/internal/embeddings"
	"github.com/vijay-prabhu/bursary-matcher/internal/logger"
	"github.com/vijay-prabhu/bursary-matcher/internal/scoring"
)

// ReembedResult reports a re-embed run
type ReembedResult struct {
	Total   int `json:"total"`   // opportunities with embeddable text
	Created int `json:"created"` // opportunities that had no vector before
	Updated int `json:"updated"`
	Skipped int `json:"skipped"` // blank corpus or provider returned nothing
	Failed  int `json:"failed"`

	PersistErr error `json:"-"`
}

// EmbeddingCorpus is the text stored as an opportunity's embedding. It is
// the same text scoring embeds when no vector is stored, and empty when the
// opportunity has neither title nor description.
func EmbeddingCorpus(o database.Opportunity) string {
	if strings.TrimSpace(o.Title) == "" && strings.TrimSpace(o.Description) == "" {
		return ""
	}
	return scoring.OpportunityText(o.Title, o.Description)
}

type embedded struct {
	vec []float32
	err error
}

// Reembed computes and stores an embedding for every opportunity. This is
// the only operation that writes embedding vectors.
func (s *Service) Reembed(ctx context.Context, progress ProgressCallback) (*ReembedResult, error) {
	if s.semantic == nil {
		return nil, embeddings.ErrDisabled
	}
	provider := s.semantic.Provider()
	log := s.log.With(logger.ProviderFields(provider.Name(), provider.Model())...)

	opps, err := s.store.ListOpportunities(ctx, database.OpportunityListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list opportunities: %w", err)
	}

	result := &ReembedResult{}
	var work []database.Opportunity
	for _, o := range opps {
		if EmbeddingCorpus(o) == "" {
			result.Skipped++
			continue
		}
		work = append(work, o)
	}
	result.Total = len(work)

	rep := newReporter(progress, PhaseEmbedding, len(work), "Embedding opportunities")
	vectors := fanOut(ctx, len(work), s.cfg.Workers, func(ctx context.Context, i int) embedded {
		vec, err := s.semantic.Embed(ctx, EmbeddingCorpus(work[i]))
		return embedded{vec: vec, err: err}
	}, rep.report)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var perr persistErrors
	var firstProviderErr error
	for i, v := range vectors {
		switch {
		case v.err != nil:
			result.Failed++
			if firstProviderErr == nil {
				firstProviderErr = v.err
			}
			continue
		case len(v.vec) == 0:
			result.Skipped++
			continue
		}

		created, err := s.store.SaveEmbedding(ctx, &database.Embedding{
			OpportunityID: work[i].ID,
			Vector:        v.vec,
			Provider:      provider.Name(),
			Model:         provider.Model(),
		})
		if err != nil {
			result.Failed++
			perr.add("save_embedding", err)
			continue
		}
		if created {
			result.Created++
		} else {
			result.Updated++
		}
	}
	result.PersistErr = perr.err()

	log.Info("re-embedded opportunities",
		zap.Int("total", result.Total),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
	)

	// Nothing embedded at all: the backend is down rather than flaky
	if firstProviderErr != nil && result.Created+result.Updated == 0 {
		return result, &ProviderError{Provider: provider.Name(), Err: firstProviderErr}
	}
	if firstProviderErr != nil {
		log.Warn("some opportunities failed to embed", zap.Error(firstProviderErr))
	}

	return result, nil
}
