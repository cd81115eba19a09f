// Package metrics exposes Prometheus collectors for source fetches,
// dropped records, answer confidence and the result cache.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agentstation/permitmap/pkg/permits"
)

const namespace = "permitmap"

// Cache lookup results.
const (
	CacheHit  = "hit"
	CacheMiss = "miss"
)

// Metrics owns its registry so several instances can coexist in one process.
type Metrics struct {
	registry *prometheus.Registry

	fetchTotal    *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
	recordsTotal  *prometheus.CounterVec
	droppedTotal  *prometheus.CounterVec
	confidence    prometheus.Histogram
	responded     prometheus.Gauge
	cacheRequests *prometheus.CounterVec
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.fetchTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "source_fetch_total",
		Help:      "Connector invocations by city and outcome",
	}, []string{"city", "outcome", "error_kind"})
	m.fetchDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "source_fetch_duration_seconds",
		Help:      "Time spent in one connector invocation",
		Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
	}, []string{"city"})
	m.recordsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "records_total",
		Help:      "Valid records returned by city",
	}, []string{"city"})
	m.droppedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "records_dropped_total",
		Help:      "Raw records discarded by city and reason",
	}, []string{"city", "reason"})
	m.confidence = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "aggregate_confidence",
		Help:      "Confidence of aggregate answers",
		Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
	})
	m.responded = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_aggregate_responded_ratio",
		Help:      "Share of attempted sources that responded to the last query",
	})
	m.cacheRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_requests_total",
		Help:      "Result cache lookups by result",
	}, []string{"result"})

	m.registry.MustRegister(
		m.fetchTotal, m.fetchDuration, m.recordsTotal, m.droppedTotal,
		m.confidence, m.responded, m.cacheRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveSource records one settled connector invocation. It has the
// signature of an aggregator observer.
func (m *Metrics) ObserveSource(r permits.SourceResult) {
	m.fetchTotal.WithLabelValues(r.City, string(r.Outcome), r.ErrorKind).Inc()
	m.fetchDuration.WithLabelValues(r.City).Observe(r.Duration.Seconds())
	m.recordsTotal.WithLabelValues(r.City).Add(float64(len(r.Items)))
	if r.DroppedCount > 0 {
		m.droppedTotal.WithLabelValues(r.City, permits.WarnInvalidRecord).Add(float64(r.DroppedCount))
	}
	if r.DuplicateCount > 0 {
		m.droppedTotal.WithLabelValues(r.City, permits.WarnDuplicateID).Add(float64(r.DuplicateCount))
	}
}

// ObserveAggregate records the confidence of one answer.
func (m *Metrics) ObserveAggregate(a permits.AggregateResult) {
	m.confidence.Observe(a.Confidence)
	if a.Attempted > 0 {
		m.responded.Set(float64(a.Responded) / float64(a.Attempted))
	} else {
		m.responded.Set(0)
	}
}

// CacheLookup counts a cache hit or miss.
func (m *Metrics) CacheLookup(hit bool) {
	result := CacheMiss
	if hit {
		result = CacheHit
	}
	m.cacheRequests.WithLabelValues(result).Inc()
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
