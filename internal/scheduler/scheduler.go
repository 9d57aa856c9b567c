// Package scheduler runs the periodic catalogue refresh on a cron spec.
package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/vijay-prabhu/bursary-matcher/internal/logger"
)

// Job is one scheduled unit of work
type Job interface {
	Refresh(ctx context.Context) (*RefreshResult, error)
}

// Scheduler wraps robfig/cron and triggers refresh cycles
type Scheduler struct {
	cron       *cron.Cron
	job        Job
	spec       string // cron spec, e.g. "@every 24h"
	runOnStart bool
	log        *zap.Logger
}

// New creates a Scheduler. Overlapping runs are skipped.
func New(job Job, spec string, runOnStart bool, log *zap.Logger) *Scheduler {
	log = logger.Component(log, "scheduler")
	cl := cronLogger{log: log.Sugar()}

	return &Scheduler{
		cron:       cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		job:        job,
		spec:       spec,
		runOnStart: runOnStart,
		log:        log,
	}
}

// Start registers the job and starts the scheduler. With runOnStart one
// cycle also runs immediately through the same chain.
func (s *Scheduler) Start(ctx context.Context) error {
	id, err := s.cron.AddFunc(s.spec, func() {
		s.run(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	s.log.Info("cron started", zap.String("spec", s.spec))

	if s.runOnStart {
		go s.cron.Entry(id).WrappedJob.Run()
	}

	return nil
}

// Stop stops scheduling new runs. The returned context is done once any
// running cycle has finished.
func (s *Scheduler) Stop() context.Context {
	ctx := s.cron.Stop()
	s.log.Info("cron stopped")
	return ctx
}

func (s *Scheduler) run(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if _, err := s.job.Refresh(ctx); err != nil {
		s.log.Error("refresh cycle failed", zap.Error(err))
	}
}

// cronLogger adapts zap to cron.Logger
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}
