package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveValidation("valid")
	m.ObserveValidation("valid")
	m.ObserveValidation("invalid_timestamp")
	m.ObserveFetch("ok", 20*time.Millisecond)
	m.ObserveCache(CacheHit)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.validations.WithLabelValues("valid")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.validations.WithLabelValues("invalid_timestamp")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.fetches.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheOps.WithLabelValues(CacheHit)))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveValidation("valid")
		m.ObserveFetch("ok", time.Second)
		m.ObserveCache(CacheMiss)
	})
}
