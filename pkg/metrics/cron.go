package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	RunSuccess = "success"
	RunFailure = "failure"
)

// CronJobMetrics covers the cron worker: per-job runs plus the storefront
// maintenance signals (pruned carts, oversold products).
type CronJobMetrics struct {
	duration    *prometheus.HistogramVec
	runs        *prometheus.CounterVec
	lastSuccess *prometheus.GaugeVec
	skipped     prometheus.Counter
	pruned      prometheus.Counter
	oversold    prometheus.Gauge
}

// NewCronJobMetrics registers the collectors on reg. A nil registerer yields a no-op value.
func NewCronJobMetrics(reg prometheus.Registerer) *CronJobMetrics {
	if reg == nil {
		return &CronJobMetrics{}
	}
	m := &CronJobMetrics{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cron_job_duration_seconds",
			Help:      "Duration of cron jobs in seconds.",
			Buckets:   []float64{.05, .1, .5, 1, 5, 15, 30, 60, 120},
		}, []string{"job"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cron_job_runs_total",
			Help:      "Cron job executions by outcome.",
		}, []string{"job", "outcome"}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cron_job_last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run of each job.",
		}, []string{"job"}),
		skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cron_cycles_skipped_total",
			Help:      "Cycles skipped because another worker held the lock.",
		}),
		pruned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cron_carts_pruned_total",
			Help:      "Stale empty carts deleted by the prune job.",
		}),
		oversold: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cron_oversold_products",
			Help:      "Products with negative stock at the last audit.",
		}),
	}
	reg.MustRegister(m.duration, m.runs, m.lastSuccess, m.skipped, m.pruned, m.oversold)
	return m
}

// ObserveRun records one execution of job. A nil err counts as success.
func (c *CronJobMetrics) ObserveRun(job string, duration time.Duration, err error) {
	if c == nil || c.runs == nil {
		return
	}
	job = normalizeLabel(job)
	c.duration.WithLabelValues(job).Observe(duration.Seconds())
	if err != nil {
		c.runs.WithLabelValues(job, RunFailure).Inc()
		return
	}
	c.runs.WithLabelValues(job, RunSuccess).Inc()
	c.lastSuccess.WithLabelValues(job).SetToCurrentTime()
}

func (c *CronJobMetrics) IncSkipped() {
	if c == nil || c.skipped == nil {
		return
	}
	c.skipped.Inc()
}

func (c *CronJobMetrics) AddPrunedCarts(n int64) {
	if c == nil || c.pruned == nil || n <= 0 {
		return
	}
	c.pruned.Add(float64(n))
}

func (c *CronJobMetrics) SetOversoldProducts(n int) {
	if c == nil || c.oversold == nil {
		return
	}
	c.oversold.Set(float64(n))
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
