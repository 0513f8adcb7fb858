package cron

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"go.uber.org/multierr"

	"github.com/northwind-labs/storefront/pkg/logger"
	"github.com/northwind-labs/storefront/pkg/metrics"
)

const defaultInterval = 24 * time.Hour

// ServiceParams configure the cron service.
type ServiceParams struct {
	Logger   *logger.Logger
	Registry *Registry
	Lock     Lock
	Metrics  *metrics.CronJobMetrics
	Interval time.Duration
	// JobTimeout bounds a single job run; zero leaves jobs unbounded.
	JobTimeout time.Duration
}

// Service runs every registered job once per interval while holding the
// cluster-wide lock.
type Service struct {
	params ServiceParams
}

func NewService(params ServiceParams) (*Service, error) {
	switch {
	case params.Logger == nil:
		return nil, errors.New("cron: logger required")
	case params.Lock == nil:
		return nil, errors.New("cron: lock required")
	}
	if params.Registry == nil {
		params.Registry = NewRegistry()
	}
	if params.Interval <= 0 {
		params.Interval = defaultInterval
	}
	return &Service{params: params}, nil
}

// Run executes a cycle immediately and then once per interval until ctx ends.
func (s *Service) Run(ctx context.Context) error {
	logg := s.params.Logger
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			logg.Info(ctx, "cron.stopped")
			return ctx.Err()
		case <-timer.C:
			if err := s.RunOnce(ctx); err != nil {
				logg.Error(ctx, "cron.cycle_failed", err)
			}
			timer.Reset(s.params.Interval)
		}
	}
}

// RunOnce executes one cycle and returns the combined job failures. A cycle
// whose lock is held elsewhere is skipped without error.
func (s *Service) RunOnce(ctx context.Context) error {
	logg, lock := s.params.Logger, s.params.Lock

	acquired, err := lock.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("lock acquire: %w", err)
	}
	if !acquired {
		if reporter, ok := lock.(HolderReporter); ok {
			if holder, err := reporter.Holder(ctx); err == nil && holder != "" {
				ctx = logg.WithField(ctx, "lock_holder", holder)
			}
		}
		logg.Info(ctx, "cron.cycle_skipped")
		s.params.Metrics.IncSkipped()
		return nil
	}
	defer func() {
		// A cancelled cycle still frees the lock for the next worker.
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
			logg.Error(ctx, "cron.lock_release_failed", err)
		}
	}()

	jobs := s.params.Registry.Jobs()
	logg.Info(logg.WithField(ctx, "jobs", len(jobs)), "cron.cycle_start")
	var failures error
	for _, job := range jobs {
		failures = multierr.Append(failures, s.runJob(ctx, job))
	}
	logg.Info(logg.WithField(ctx, "failed", len(multierr.Errors(failures))), "cron.cycle_done")
	return failures
}

func (s *Service) runJob(ctx context.Context, job Job) (err error) {
	logg, name := s.params.Logger, job.Name()
	ctx = logg.WithFields(ctx, map[string]any{"job": name, "event": "cron.job"})
	if s.params.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.params.JobTimeout)
		defer cancel()
	}

	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
			ctx = logg.WithField(ctx, "stack", string(debug.Stack()))
		}
		elapsed := time.Since(start)
		s.params.Metrics.ObserveRun(name, elapsed, err)
		done := logg.WithField(ctx, "duration_ms", elapsed.Milliseconds())
		if err != nil {
			err = fmt.Errorf("%s: %w", name, err)
			logg.Error(done, "cron.job_failed", err)
			return
		}
		logg.Info(done, "cron.job_done")
	}()

	return job.Run(ctx)
}
