package embeddings

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/vijay-prabhu/bursary-matcher/internal/config"
	"github.com/vijay-prabhu/bursary-matcher/internal/logger"
)

// FromConfig returns a lazily initialized provider for cfg, or ErrDisabled
// when the provider is "none". Nothing is dialed until the first Embed call.
func FromConfig(cfg config.EmbeddingConfig, log *zap.Logger) (*Lazy, error) {
	log = logger.WithFields(logger.Component(log, "embeddings"), logger.ProviderFields(cfg.Provider, cfg.Model)...)

	var build func(ctx context.Context) (Provider, error)
	switch cfg.Provider {
	case "none", "":
		return nil, ErrDisabled
	case "ollama":
		build = func(ctx context.Context) (Provider, error) {
			return NewOllama(cfg.Host, cfg.Model, cfg.Timeout()), nil
		}
	case "gemini":
		build = func(ctx context.Context) (Provider, error) {
			return NewGemini(ctx, cfg.APIKey, cfg.Model)
		}
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", cfg.Provider)
	}

	return NewLazy(cfg.Provider, cfg.Model, func(ctx context.Context) (Provider, error) {
		p, err := build(ctx)
		if err != nil {
			log.Error("embedding provider initialization failed", zap.Error(err))
			return nil, err
		}

		if cfg.Cache.Enabled {
			cache, err := NewRedisCache(ctx, cfg.Cache.RedisURL)
			if err != nil {
				log.Warn("embedding cache unavailable, continuing without it", zap.Error(err))
			} else {
				p = NewCached(p, cache, cfg.Cache.TTL(), log)
			}
		}

		log.Info("embedding provider ready")
		return p, nil
	}), nil
}
