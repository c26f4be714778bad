// Package jobs runs background maintenance on a cron schedule.
package jobs

import (
	"context"
	"time"

	"coursecart-be/internal/logger"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const DefaultSweepSpec = "@every 5m"

// OrderExpirer moves stale PENDING orders to EXPIRED.
type OrderExpirer interface {
	ExpireStale(ctx context.Context, olderThan time.Duration) (int, error)
}

type Scheduler struct {
	cron    *cron.Cron
	orders  OrderExpirer
	maxAge  time.Duration
	timeout time.Duration
}

func NewScheduler(orders OrderExpirer, maxAge time.Duration) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		orders:  orders,
		maxAge:  maxAge,
		timeout: time.Minute,
	}
}

// ScheduleOrderExpiry registers the stale order sweep under spec.
func (s *Scheduler) ScheduleOrderExpiry(spec string) error {
	if spec == "" {
		spec = DefaultSweepSpec
	}
	_, err := s.cron.AddFunc(spec, func() {
		s.SweepOrders(context.Background())
	})
	if err != nil {
		return err
	}

	logger.L().Info("order expiry scheduled",
		zap.String("spec", spec),
		zap.Duration("max_age", s.maxAge),
	)
	return nil
}

// SweepOrders runs one expiry pass.
func (s *Scheduler) SweepOrders(ctx context.Context) int {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	log := logger.FromCtx(ctx).With(zap.String("job", "order_expiry"))

	n, err := s.orders.ExpireStale(ctx, s.maxAge)
	if err != nil {
		log.Error("order expiry failed", zap.Error(err))
		return 0
	}
	if n > 0 {
		log.Info("stale orders expired", zap.Int("count", n))
	}
	return n
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}
