// Package server exposes match computation and the stored catalogue over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vijay-prabhu/bursary-matcher/internal/config"
	"github.com/vijay-prabhu/bursary-matcher/internal/database"
	"github.com/vijay-prabhu/bursary-matcher/internal/logger"
	"github.com/vijay-prabhu/bursary-matcher/internal/matching"
)

const shutdownTimeout = 10 * time.Second

// Store is the part of the match store the HTTP layer reads directly
type Store interface {
	ListOpportunities(ctx context.Context, opts database.OpportunityListOptions) ([]database.Opportunity, error)
	GetProfile(ctx context.Context, userID string) (*database.UserProfile, error)
	SaveProfile(ctx context.Context, p *database.UserProfile) error
	GetStats(ctx context.Context) (*database.Stats, error)
	Health(ctx context.Context) error
	Driver() string
}

// Server is the gin HTTP API
type Server struct {
	engine *gin.Engine
	svc    *matching.Service
	store  Store
	cfg    config.ServerConfig
	log    *zap.Logger
}

// New creates a Server with its routes registered
func New(svc *matching.Service, store Store, cfg config.ServerConfig, log *zap.Logger) *Server {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}

	s := &Server{
		engine: gin.New(),
		svc:    svc,
		store:  store,
		cfg:    cfg,
		log:    logger.Component(log, "server"),
	}

	s.engine.Use(RequestLogger(s.log), gin.Recovery())
	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.GET("/health", s.health)

	api := s.engine.Group("/api")
	api.GET("/stats", s.stats)
	api.GET("/opportunities", s.listOpportunities)
	api.POST("/opportunities/embed", s.reembed)
	api.POST("/score", s.score)

	users := api.Group("/users/:user_id")
	users.GET("/profile", s.getProfile)
	users.PUT("/profile", s.putProfile)
	users.POST("/matches", s.computeMatches)
	users.GET("/matches", s.listMatches)
}

// Handler returns the HTTP handler, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr(),
		Handler:      s.engine,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 5 * time.Minute, // match runs embed every candidate
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
