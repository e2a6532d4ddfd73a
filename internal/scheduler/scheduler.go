package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/checksheet/internal/config"
	"github.com/mamadbah2/checksheet/pkg/metrics"
)

// Evictor drops sessions idle for longer than ttl and reports how many went.
type Evictor interface {
	EvictIdle(ttl time.Duration) int
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron    *cron.Cron
	evictor Evictor
	cfg     config.SessionConfig
	metrics *metrics.InspectionMetrics
	logger  *zap.Logger
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(cfg config.SessionConfig, evictor Evictor, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	// SkipIfStillRunning keeps sweeps from overlapping on a slow tick.
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))

	return &Scheduler{
		cron:    c,
		evictor: evictor,
		cfg:     cfg,
		logger:  logger,
	}
}

// WithMetrics records sweep outcomes on m.
func (s *Scheduler) WithMetrics(m *metrics.InspectionMetrics) *Scheduler {
	s.metrics = m
	return s
}

// Start registers the session sweep and starts the scheduler.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler", zap.String("sweep_schedule", s.cfg.SweepSchedule))

	if _, err := s.cron.AddFunc(s.cfg.SweepSchedule, s.sweepSessions); err != nil {
		return fmt.Errorf("schedule session sweep %q: %w", s.cfg.SweepSchedule, err)
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) sweepSessions() {
	start := time.Now()
	evicted := s.evictor.EvictIdle(s.cfg.IdleTTL)
	s.metrics.SessionSweep(evicted, time.Since(start))
	if evicted > 0 {
		s.logger.Info("idle sessions evicted", zap.Int("count", evicted), zap.Duration("idle_ttl", s.cfg.IdleTTL))
	}
}
