package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/vijay-prabhu/bursary-matcher/internal/config"
	"github.com/vijay-prabhu/bursary-matcher/internal/database"
	"github.com/vijay-prabhu/bursary-matcher/internal/database/postgres"
	"github.com/vijay-prabhu/bursary-matcher/internal/embeddings"
	"github.com/vijay-prabhu/bursary-matcher/internal/logger"
	"github.com/vijay-prabhu/bursary-matcher/internal/matching"
)

// app holds everything a command needs once config is loaded
type app struct {
	cfg   *config.Config
	log   *zap.Logger
	store database.Store
	svc   *matching.Service

	provider embeddings.Provider // nil when embeddings are disabled
}

// openApp loads config and opens the store, logger and matching service.
// Callers must call close.
func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.Log.JSON, cfg.Log.Debug)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		_ = log.Sync()
		return nil, err
	}

	provider, err := openProvider(cfg, log)
	if err != nil {
		store.Close()
		_ = log.Sync()
		return nil, err
	}

	return &app{
		cfg:   cfg,
		log:   log,
		store: store,
		svc:   matching.NewService(store, provider, cfg.Matching, log),

		provider: provider,
	}, nil
}

// checkProvider probes the embedding backend; nil when embeddings are off
func (a *app) checkProvider(ctx context.Context) error {
	if a.provider == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return embeddings.Check(ctx, a.provider)
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		a.log.Warn("failed to close store", zap.Error(err))
	}
	_ = a.log.Sync()
}

func openStore(ctx context.Context, cfg *config.Config) (database.Store, error) {
	switch cfg.Database.Driver {
	case "postgres":
		s, err := postgres.Open(ctx, cfg.Database.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		return s, nil
	default:
		if err := cfg.EnsureDirectories(); err != nil {
			return nil, err
		}
		db, err := database.Open(cfg.Database.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		return db, nil
	}
}

// openProvider returns nil when embeddings are disabled. The explicit nil
// return keeps a typed nil *Lazy out of the interface.
func openProvider(cfg *config.Config, log *zap.Logger) (embeddings.Provider, error) {
	p, err := embeddings.FromConfig(cfg.Embedding, log)
	if errors.Is(err, embeddings.ErrDisabled) {
		log.Info("embedding provider disabled, semantic matching unavailable")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// warnPersist prints write failures that did not stop a run
func warnPersist(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "Warning: some results were not stored: %v\n", err)
}

// statusf prints a progress line unless stdout carries JSON
func statusf(format string, args ...any) {
	if outputFmt == "json" {
		return
	}
	fmt.Printf(format, args...)
}

// progress returns the terminal progress printer, or nil for JSON output
func progress(t *Terminal) matching.ProgressCallback {
	if outputFmt == "json" {
		return nil
	}
	return t.ProgressPrinter()
}
