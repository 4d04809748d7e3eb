// Package metrics holds the prometheus collectors for request authentication.
// Every method is safe on a nil *Metrics so components can run without a registry.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "skillguard"

// Cache operation labels
const (
	CacheHit        = "hit"
	CacheMiss       = "miss"
	CacheStore      = "store"
	CacheStoreError = "store_error"
	CacheEvict      = "evict"
)

// Metrics groups the collectors exported by the gateway
type Metrics struct {
	validations   *prometheus.CounterVec
	fetches       *prometheus.CounterVec
	fetchDuration prometheus.Histogram
	cacheOps      *prometheus.CounterVec
}

// New creates the collectors and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		validations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validations_total",
			Help:      "Request validations by outcome.",
		}, []string{"outcome"}),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cert_fetches_total",
			Help:      "Certificate downloads by result.",
		}, []string{"result"}),
		fetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cert_fetch_duration_seconds",
			Help:      "Time spent downloading signing certificates.",
			Buckets:   prometheus.DefBuckets,
		}),
		cacheOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cert_cache_operations_total",
			Help:      "Certificate cache operations by kind.",
		}, []string{"op"}),
	}
	reg.MustRegister(m.validations, m.fetches, m.fetchDuration, m.cacheOps)
	return m
}

// ObserveValidation counts one validation outcome
func (m *Metrics) ObserveValidation(outcome string) {
	if m == nil {
		return
	}
	m.validations.WithLabelValues(outcome).Inc()
}

// ObserveFetch records one certificate download
func (m *Metrics) ObserveFetch(result string, took time.Duration) {
	if m == nil {
		return
	}
	m.fetches.WithLabelValues(result).Inc()
	m.fetchDuration.Observe(took.Seconds())
}

// ObserveCache counts one cache operation
func (m *Metrics) ObserveCache(op string) {
	if m == nil {
		return
	}
	m.cacheOps.WithLabelValues(op).Inc()
}
