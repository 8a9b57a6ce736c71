package app

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/your-org/pouchprint-backend/internal/config"
)

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// sweepTimeout bounds a single stale-order sweep.
const sweepTimeout = 2 * time.Minute

// StaleOrderCanceller cancels unpaid orders older than a cutoff.
type StaleOrderCanceller interface {
	CancelStaleOrders(ctx context.Context, olderThan time.Duration) (int, error)
}

// Scheduler runs the background jobs of the API process.
type Scheduler struct {
	sched  *cron.Cron
	cfg    config.SchedulerConfig
	orders StaleOrderCanceller
	log    *logrus.Entry
}

// NewScheduler registers the jobs but does not start them.
func NewScheduler(cfg config.SchedulerConfig, orders StaleOrderCanceller, log *logrus.Logger) (*Scheduler, error) {
	s := &Scheduler{
		sched:  cron.New(cron.WithLocation(time.UTC), cron.WithParser(cronParser)),
		cfg:    cfg,
		orders: orders,
		log:    log.WithField("component", "scheduler"),
	}

	if _, err := s.sched.AddFunc(cfg.StaleOrderSpec, s.SweepStaleOrders); err != nil {
		return nil, fmt.Errorf("invalid stale order schedule %q: %w", cfg.StaleOrderSpec, err)
	}

	return s, nil
}

// Start runs the cron loop in its own goroutine. It is a no-op when the
// scheduler is disabled.
func (s *Scheduler) Start() {
	if !s.cfg.Enabled {
		s.log.Info("⏸️  Scheduler disabled")
		return
	}
	s.sched.Start()
	s.log.WithField("stale_order_spec", s.cfg.StaleOrderSpec).Info("⏰ Scheduler started")
}

// Stop halts the cron loop and waits for running jobs up to ctx's deadline.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.sched.Stop()
	select {
	case <-done.Done():
		s.log.Info("✅ Scheduler stopped")
	case <-ctx.Done():
		s.log.Warn("Scheduler stop timed out with jobs still running")
	}
}

// SweepStaleOrders cancels orders that stayed unpaid past the configured age.
func (s *Scheduler) SweepStaleOrders() {
	defer func() {
		if r := recover(); r != nil {
			s.log.WithField("panic", r).Error("Stale order sweep panicked")
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	start := time.Now()
	n, err := s.orders.CancelStaleOrders(ctx, s.cfg.StaleOrderAfter)
	if err != nil {
		s.log.WithError(err).Error("Stale order sweep failed")
		return
	}

	entry := s.log.WithFields(logrus.Fields{
		"cancelled": n,
		"duration":  time.Since(start).String(),
	})
	if n > 0 {
		entry.Info("Cancelled stale unpaid orders")
		return
	}
	entry.Debug("No stale orders")
}
