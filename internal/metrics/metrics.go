// Package metrics holds the Prometheus collectors for memoflow.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Review outcomes used as the "outcome" label.
const (
	OutcomeSuccess       = "success"
	OutcomeConfiguration = "configuration_error"
	OutcomeEmpty         = "empty_response"
	OutcomeMalformed     = "malformed_response"
	OutcomeFailed        = "failed"
)

// Collector owns a private registry so tests can build as many as they like.
type Collector struct {
	registry *prometheus.Registry

	Reviews        *prometheus.CounterVec
	ReviewDuration prometheus.Histogram
	Memos          prometheus.Gauge
	StorageErrors  *prometheus.CounterVec
}

// New creates a Collector with metrics under namespace.
func New(namespace string) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		Reviews: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reviews_total",
			Help:      "Review generation attempts by outcome.",
		}, []string{"outcome"}),
		ReviewDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "review_duration_seconds",
			Help:      "Time spent waiting on the analysis service.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		}),
		Memos: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "memos_total",
			Help:      "Number of stored memos.",
		}),
		StorageErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "storage_errors_total",
			Help:      "Failed record store accesses by key.",
		}, []string{"key"}),
	}
	c.registry.MustRegister(c.Reviews, c.ReviewDuration, c.Memos, c.StorageErrors)
	return c
}

// ObserveReview records one review attempt.
func (c *Collector) ObserveReview(outcome string, took time.Duration) {
	if c == nil {
		return
	}
	c.Reviews.WithLabelValues(outcome).Inc()
	c.ReviewDuration.Observe(took.Seconds())
}

// SetMemoCount updates the stored memo gauge.
func (c *Collector) SetMemoCount(n int) {
	if c == nil {
		return
	}
	c.Memos.Set(float64(n))
}

// StorageError satisfies store.ErrorRecorder.
func (c *Collector) StorageError(key string) {
	if c == nil {
		return
	}
	c.StorageErrors.WithLabelValues(key).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
