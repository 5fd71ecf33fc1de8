package cache

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Sweeper runs the expiry sweep on a fixed cadence
type Sweeper struct {
	store *Store
	cron  *cron.Cron
	cfg   *Config
	log   logrus.FieldLogger
}

// NewSweeper creates a sweeper for the given store
func NewSweeper(log logrus.FieldLogger, store *Store, cfg *Config) *Sweeper {
	return &Sweeper{
		store: store,
		cfg:   cfg,
		log:   log.WithField("component", "cache-sweeper"),
	}
}

// Start schedules the periodic sweep
func (s *Sweeper) Start() error {
	s.cron = cron.New()

	spec := fmt.Sprintf("@every %s", s.cfg.SweepInterval())
	if _, err := s.cron.AddFunc(spec, s.sweep); err != nil {
		return fmt.Errorf("failed to schedule cache sweep: %w", err)
	}

	s.cron.Start()
	s.log.WithField("interval", s.cfg.SweepInterval()).Info("Cache sweeper started")

	return nil
}

// Stop halts the schedule and waits for a running sweep to finish
func (s *Sweeper) Stop() error {
	if s.cron == nil {
		return nil
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.log.Info("Cache sweeper stopped")

	return nil
}

func (s *Sweeper) sweep() {
	if _, err := s.store.SweepExpired(context.Background()); err != nil {
		s.log.WithError(err).Error("Cache sweep failed")
	}
}
