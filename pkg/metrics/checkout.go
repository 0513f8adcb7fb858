package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Checkout outcomes.
const (
	OutcomePlaced            = "placed"
	OutcomeEmptyOrder        = "empty_order"
	OutcomeProductNotFound   = "product_not_found"
	OutcomeInsufficientStock = "insufficient_stock"
	OutcomeRejected          = "rejected"
	OutcomeError             = "error"
)

// CheckoutMetrics records order placement results.
type CheckoutMetrics struct {
	orders   *prometheus.CounterVec
	duration *prometheus.HistogramVec
	revenue  prometheus.Counter
}

// NewCheckoutMetrics registers the checkout collectors on reg. A nil registerer
// yields a no-op recorder.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	orders := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "checkout_orders_total",
		Help:      "Order placement attempts by consistency mode and outcome.",
	}, []string{"mode", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "checkout_duration_seconds",
		Help:      "Duration of order placement in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"mode"})
	revenue := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "checkout_revenue_total",
		Help:      "Sum of total_price over placed orders.",
	})
	reg.MustRegister(orders, duration, revenue)
	return &CheckoutMetrics{orders: orders, duration: duration, revenue: revenue}
}

// Observe records one placement attempt.
func (c *CheckoutMetrics) Observe(mode, outcome string, elapsed time.Duration) {
	if c == nil || c.orders == nil {
		return
	}
	c.orders.WithLabelValues(normalizeLabel(mode), normalizeLabel(outcome)).Inc()
	c.duration.WithLabelValues(normalizeLabel(mode)).Observe(elapsed.Seconds())
}

// AddRevenue adds a placed order's total.
func (c *CheckoutMetrics) AddRevenue(total float64) {
	if c == nil || c.revenue == nil || total <= 0 {
		return
	}
	c.revenue.Add(total)
}
