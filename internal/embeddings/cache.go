package embeddings

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/vijay-prabhu/bursary-matcher/internal/logger"
)

// Cache stores JSON values by key
type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (hit bool, err error)
	SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error
}

// RedisCache is a Cache backed by redis
type RedisCache struct {
	rdb *redis.Client
}

// NewRedisCache connects to redis at url ("redis://host:port/db" or "host:port")
func NewRedisCache(ctx context.Context, url string) (*RedisCache, error) {
	var opt *redis.Options
	if strings.HasPrefix(url, "redis://") || strings.HasPrefix(url, "rediss://") {
		parsed, err := redis.ParseURL(url)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		opt = parsed
	} else {
		opt = &redis.Options{Addr: url}
	}

	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &RedisCache{rdb: rdb}, nil
}

// GetJSON loads key into dst; corrupt entries are deleted and reported as a miss
func (c *RedisCache) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	s, err := c.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(s), dst); err != nil {
		_ = c.rdb.Del(ctx, key).Err()
		return false, nil
	}
	return true, nil
}

// SetJSON stores val under key for ttl
func (c *RedisCache) SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error {
	b, err := json.Marshal(val)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, b, ttl).Err()
}

// Close releases the redis connection pool
func (c *RedisCache) Close() error {
	return c.rdb.Close()
}

// Cached wraps a Provider with a read-through vector cache. Cache failures
// are logged and never fail an embedding call.
type Cached struct {
	next  Provider
	cache Cache
	ttl   time.Duration
	log   *zap.Logger
}

// NewCached wraps next with cache
func NewCached(next Provider, cache Cache, ttl time.Duration, log *zap.Logger) *Cached {
	return &Cached{
		next:  next,
		cache: cache,
		ttl:   ttl,
		log:   logger.Component(log, "embedding-cache"),
	}
}

// Name returns the wrapped provider name
func (c *Cached) Name() string { return c.next.Name() }

// Model returns the wrapped provider model
func (c *Cached) Model() string { return c.next.Model() }

// Health probes the wrapped provider
func (c *Cached) Health(ctx context.Context) error { return Check(ctx, c.next) }

// Embed returns a cached vector or embeds and stores it
func (c *Cached) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	key := cacheKey(c.next.Name(), c.next.Model(), text)

	var vec []float32
	hit, err := c.cache.GetJSON(ctx, key, &vec)
	if err != nil {
		c.log.Warn("cache read failed", zap.Error(err))
	} else if hit && len(vec) > 0 {
		return vec, nil
	}

	vec, err = c.next.Embed(ctx, text)
	if err != nil || len(vec) == 0 {
		return vec, err
	}

	if err := c.cache.SetJSON(ctx, key, vec, c.ttl); err != nil {
		c.log.Warn("cache write failed", zap.Error(err))
	}

	return vec, nil
}

func cacheKey(provider, model, text string) string {
	sum := sha256.Sum256([]byte(text))
	return "bursary:embedding:" + provider + ":" + model + ":" + hex.EncodeToString(sum[:])
}
