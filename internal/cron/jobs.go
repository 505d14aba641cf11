package cronrunner

import (
	"context"
	"time"

	"go.uber.org/zap"

	"creditdash/internal/config"
	"creditdash/internal/logger"
	"creditdash/internal/repository"
)

// Sweeper drops expired entries from an in-process cache.
type Sweeper interface {
	Sweep() int
}

type FreshnessSource interface {
	Freshness(ctx context.Context) (*repository.Freshness, error)
}

// Jobs holds the dependencies of the scheduled jobs. Nil fields disable the
// matching job.
type Jobs struct {
	Cache     Sweeper
	Warehouse FreshnessSource
	Location  *time.Location
	Timeout   time.Duration
	Logger    *zap.Logger
	Now       func() time.Time
}

// Register adds the configured jobs to r.
func Register(r *Runner, cfg config.CronConfig, jobs Jobs) error {
	if jobs.Cache != nil {
		if _, err := r.Add("cache_sweep", cfg.CacheSweep, jobs.SweepCache); err != nil {
			return err
		}
	}
	if jobs.Warehouse != nil {
		if _, err := r.Add("freshness_probe", cfg.FreshnessProbe, func(ctx context.Context) {
			_, _ = jobs.ProbeFreshness(ctx)
		}); err != nil {
			return err
		}
	}
	return nil
}

func (j Jobs) SweepCache(context.Context) {
	n := j.Cache.Sweep()
	if n > 0 {
		logger.OrNop(j.Logger).Debug("cache sweep", zap.Int("evicted", n))
	}
}

// FreshnessReport describes how far the warehouse lags the reporting date.
type FreshnessReport struct {
	Today      time.Time
	LatestDate time.Time
	Empty      bool
	Stale      bool
	LagDays    int
}

// ProbeFreshness compares the newest snapshot date with today in the
// reporting timezone and warns when the load is behind.
func (j Jobs) ProbeFreshness(ctx context.Context) (FreshnessReport, error) {
	log := logger.OrNop(j.Logger)
	if j.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.Timeout)
		defer cancel()
	}
	now := time.Now
	if j.Now != nil {
		now = j.Now
	}
	loc := j.Location
	if loc == nil {
		loc = time.UTC
	}
	report := FreshnessReport{Today: repository.DateOnly(now().In(loc))}

	f, err := j.Warehouse.Freshness(ctx)
	if err != nil {
		log.Warn("freshness probe failed", zap.Error(err))
		return report, err
	}
	if f == nil {
		report.Empty = true
		report.Stale = true
		log.Warn("warehouse has no position snapshots")
		return report, nil
	}
	report.LatestDate = repository.DateOnly(time.Time(f.LatestDate))
	if report.LatestDate.Before(report.Today) {
		report.Stale = true
		report.LagDays = int(report.Today.Sub(report.LatestDate).Hours() / 24)
		log.Warn("warehouse snapshot is behind",
			zap.String("latest_date", report.LatestDate.Format(time.DateOnly)),
			zap.Int("lag_days", report.LagDays))
		return report, nil
	}
	log.Info("warehouse snapshot is current",
		zap.String("latest_date", report.LatestDate.Format(time.DateOnly)),
		zap.Int64("deals", f.DealCount))
	return report, nil
}
