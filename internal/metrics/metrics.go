package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// Metrics groups the collectors exported on /metrics.
type Metrics struct {
	SalesCompleted prometheus.Counter
	SalesFailed    *prometheus.CounterVec
	SaleAmount     prometheus.Histogram
	RequestLatency *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg. Tests pass a fresh
// prometheus.NewRegistry() so repeated construction does not collide.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SalesCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "meditrack_sales_completed_total",
			Help: "Number of sales committed",
		}),
		SalesFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "meditrack_sales_failed_total",
			Help: "Number of sale completions rejected or rolled back",
		}, []string{"reason"}),
		SaleAmount: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "meditrack_sale_grand_total",
			Help:    "Grand total of committed sales",
			Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000},
		}),
		RequestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "meditrack_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	reg.MustRegister(m.SalesCompleted, m.SalesFailed, m.SaleAmount, m.RequestLatency)
	return m
}

// ObserveSale records a committed sale.
func (m *Metrics) ObserveSale(grandTotal decimal.Decimal) {
	if m == nil {
		return
	}
	m.SalesCompleted.Inc()
	m.SaleAmount.Observe(grandTotal.InexactFloat64())
}

// ObserveFailure records a sale that did not commit.
func (m *Metrics) ObserveFailure(reason string) {
	if m == nil {
		return
	}
	m.SalesFailed.WithLabelValues(reason).Inc()
}
