package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCronJobMetricsObserveRun(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)

	m.ObserveRun("stale-cart-prune", 250*time.Millisecond, nil)
	m.ObserveRun("negative-stock-audit", time.Second, errors.New("db down"))

	mfs, err := reg.Gather()
	require.NoError(t, err)

	ok, err := findMetric(mfs, "storefront_cron_job_runs_total", "job", "stale-cart-prune", "outcome", RunSuccess)
	require.NoError(t, err)
	assert.Equal(t, 1.0, ok.GetCounter().GetValue())

	failed, err := findMetric(mfs, "storefront_cron_job_runs_total", "job", "negative-stock-audit", "outcome", RunFailure)
	require.NoError(t, err)
	assert.Equal(t, 1.0, failed.GetCounter().GetValue())

	sum, err := fetchHistogramSum(mfs, "storefront_cron_job_duration_seconds", "job", "stale-cart-prune")
	require.NoError(t, err)
	assert.InDelta(t, 0.25, sum, 1e-9)

	last, err := findMetric(mfs, "storefront_cron_job_last_success_timestamp_seconds", "job", "stale-cart-prune")
	require.NoError(t, err)
	assert.Greater(t, last.GetGauge().GetValue(), 0.0)

	_, err = findMetric(mfs, "storefront_cron_job_last_success_timestamp_seconds", "job", "negative-stock-audit")
	assert.Error(t, err, "failed runs must not advance the last-success gauge")
}

func TestCronJobMetricsMaintenanceSignals(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)

	m.IncSkipped()
	m.AddPrunedCarts(3)
	m.AddPrunedCarts(0)
	m.SetOversoldProducts(4)
	m.SetOversoldProducts(2)

	mfs, err := reg.Gather()
	require.NoError(t, err)

	skipped := findMetricFamily(mfs, "storefront_cron_cycles_skipped_total")
	require.NotNil(t, skipped)
	assert.Equal(t, 1.0, skipped.GetMetric()[0].GetCounter().GetValue())

	pruned := findMetricFamily(mfs, "storefront_cron_carts_pruned_total")
	require.NotNil(t, pruned)
	assert.Equal(t, 3.0, pruned.GetMetric()[0].GetCounter().GetValue())

	oversold := findMetricFamily(mfs, "storefront_cron_oversold_products")
	require.NotNil(t, oversold)
	assert.Equal(t, 2.0, oversold.GetMetric()[0].GetGauge().GetValue())
}

func TestCronJobMetricsNilSafe(t *testing.T) {
	var nilMetrics *CronJobMetrics
	assert.NotPanics(t, func() {
		nilMetrics.ObserveRun("x", time.Second, nil)
		nilMetrics.IncSkipped()
		nilMetrics.AddPrunedCarts(1)
		nilMetrics.SetOversoldProducts(1)

		unregistered := NewCronJobMetrics(nil)
		unregistered.ObserveRun("", time.Second, errors.New("x"))
		unregistered.IncSkipped()
	})
}
