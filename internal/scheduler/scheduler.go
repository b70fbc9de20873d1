// Package scheduler runs the nightly planning job. Each night at the
// configured hour it generates the plan for the following day, so the user
// wakes up to a schedule that already exists.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"metaconscious/internal/planner"
	"metaconscious/internal/store"
)

// Scheduler owns the cron runner. All state lives on the handle; create
// one with New and keep it for the process lifetime.
type Scheduler struct {
	engine *planner.Engine
	store  *store.Store
	hour   int
	logger *zap.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	started bool
}

// New builds a scheduler that fires daily at the given hour (0-23).
func New(engine *planner.Engine, st *store.Store, hour int, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		engine: engine,
		store:  st,
		hour:   hour,
		logger: logger,
	}
}

// Start registers the nightly job and launches the cron runner. Calling
// Start on a running scheduler is a no-op.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		s.logger.Debug("scheduler already running")
		return nil
	}

	c := cron.New()
	spec := fmt.Sprintf("0 %d * * *", s.hour)
	if _, err := c.AddFunc(spec, s.runNightly); err != nil {
		return fmt.Errorf("failed to schedule nightly planning: %w", err)
	}

	c.Start()
	s.cron = c
	s.started = true
	s.logger.Info("nightly planning scheduled", zap.String("cron", spec))
	return nil
}

// Stop halts the cron runner and waits for an in-flight job to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	<-s.cron.Stop().Done()
	s.cron = nil
	s.started = false
	s.logger.Info("scheduler stopped")
}

// runNightly generates tomorrow's plan for the provisioned user. Failures
// are logged and swallowed; the next tick tries again.
func (s *Scheduler) runNightly() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	user, err := s.store.GetUser(ctx)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.logger.Error("nightly planning: user lookup failed", zap.Error(err))
		}
		return
	}

	tomorrow := time.Now().AddDate(0, 0, 1).Format("2006-01-02")
	s.logger.Info("nightly planning started", zap.String("date", tomorrow))

	if _, _, err := s.engine.GenerateDailyPlan(ctx, user.ID, tomorrow); err != nil {
		s.logger.Error("nightly planning failed",
			zap.String("date", tomorrow),
			zap.Error(err))
		return
	}
	s.logger.Info("nightly planning complete", zap.String("date", tomorrow))
}
