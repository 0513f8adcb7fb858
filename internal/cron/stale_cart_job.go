package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/northwind-labs/storefront/pkg/logger"
	"github.com/northwind-labs/storefront/pkg/metrics"
)

const (
	defaultStaleCartAge   = 30 * 24 * time.Hour
	defaultStaleCartBatch = 500
	maxStaleCartBatches   = 50
)

type StaleCartJobParams struct {
	Logger     *logger.Logger
	Repository staleCartRepo
	Metrics    *metrics.CronJobMetrics
	MaxAge     time.Duration
	BatchSize  int
}

type staleCartRepo interface {
	DeleteStaleEmpty(ctx context.Context, cutoff time.Time, limit int) (int64, error)
}

// NewStaleCartJob prunes empty carts that have not been touched for MaxAge.
func NewStaleCartJob(params StaleCartJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	maxAge := params.MaxAge
	if maxAge <= 0 {
		maxAge = defaultStaleCartAge
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultStaleCartBatch
	}
	return &staleCartJob{
		logg:    params.Logger,
		repo:    params.Repository,
		metrics: params.Metrics,
		maxAge:  maxAge,
		batch:   batch,
		now:     time.Now,
	}, nil
}

type staleCartJob struct {
	logg    *logger.Logger
	repo    staleCartRepo
	metrics *metrics.CronJobMetrics
	maxAge  time.Duration
	batch   int
	now     func() time.Time
}

func (j *staleCartJob) Name() string { return "stale-cart-prune" }

func (j *staleCartJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.maxAge)
	var total int64
	batches := 0
	for batches < maxStaleCartBatches {
		if err := ctx.Err(); err != nil {
			return err
		}
		deleted, err := j.repo.DeleteStaleEmpty(ctx, cutoff, j.batch)
		if err != nil {
			return fmt.Errorf("stale cart prune after %d rows: %w", total, err)
		}
		batches++
		total += deleted
		j.metrics.AddPrunedCarts(deleted)
		if deleted < int64(j.batch) {
			break
		}
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"batches":      batches,
		"rows_deleted": total,
	})
	j.logg.Info(logCtx, "stale cart prune complete")
	return nil
}
