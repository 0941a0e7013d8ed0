package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Refreshable is the slice of the task service the refresher needs.
type Refreshable interface {
	Refresh(ctx context.Context) error
}

// ConnectionHealth abstracts the connection monitor.
type ConnectionHealth interface {
	IsOnline() bool
}

// RefresherConfig controls the polling schedule.
type RefresherConfig struct {
	Interval time.Duration
}

// Refresher periodically reconciles the in-memory collection with the remote
// store. It is the fallback for missed realtime notifications; the task
// service itself skips a refresh while local writes are still persisting.
type Refresher struct {
	target  Refreshable
	monitor ConnectionHealth
	logger  *zap.Logger
	cron    *cron.Cron
	cfg     RefresherConfig
}

func NewRefresher(target Refreshable, monitor ConnectionHealth, logger *zap.Logger, cfg RefresherConfig) *Refresher {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &Refresher{
		target:  target,
		monitor: monitor,
		logger:  logger,
		cfg:     cfg,
		cron:    cron.New(cron.WithSeconds()),
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	_, _ = r.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		if err := r.Run(ctx); err != nil {
			r.logger.Warn("periodic refresh failed", zap.Error(err))
		}
	})

	return r
}

// Start launches the cron scheduler.
func (r *Refresher) Start() {
	if r == nil || r.cron == nil {
		return
	}
	r.cron.Start()
	r.logger.Info("refresher started", zap.Duration("interval", r.cfg.Interval))
}

// Stop gracefully stops the scheduler.
func (r *Refresher) Stop(ctx context.Context) {
	if r == nil || r.cron == nil {
		return
	}
	stopCtx := r.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	r.logger.Info("refresher stopped")
}

// Run performs one refresh pass, skipped while the backend is unreachable.
func (r *Refresher) Run(ctx context.Context) error {
	if r.monitor != nil && !r.monitor.IsOnline() {
		r.logger.Debug("skipping refresh (offline)")
		return nil
	}
	return r.target.Refresh(ctx)
}
