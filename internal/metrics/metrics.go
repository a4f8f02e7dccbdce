// Package metrics exposes Prometheus collectors for engine and service
// operations.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "hdkg"

// Metrics holds the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	Operations      *prometheus.CounterVec
	Duration        *prometheus.HistogramVec
	TriplesAdded    prometheus.Counter
	TriplesSkipped  prometheus.Counter
	Symbols         prometheus.Gauge
	Triples         prometheus.Gauge
	ChunksProcessed *prometheus.CounterVec
}

// New creates the collectors on a fresh registry together with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "engine",
				Name:      "operations_total",
				Help:      "Engine operations by name and outcome",
			},
			[]string{"operation", "status"},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "engine",
				Name:      "operation_duration_seconds",
				Help:      "Engine operation latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		TriplesAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "graph",
			Name:      "triples_added_total",
			Help:      "Triples accepted into the graph",
		}),
		TriplesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "graph",
			Name:      "triples_duplicate_total",
			Help:      "Triples ignored because they were already present",
		}),
		Symbols: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "memory",
			Name:      "symbols",
			Help:      "Symbols held in item memory",
		}),
		Triples: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "graph",
			Name:      "triples",
			Help:      "Triples held in the graph",
		}),
		ChunksProcessed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "preprocess",
				Name:      "chunks_total",
				Help:      "Text chunks preprocessed by detected language",
			},
			[]string{"language"},
		),
	}
	m.registry.MustRegister(
		m.Operations,
		m.Duration,
		m.TriplesAdded,
		m.TriplesSkipped,
		m.Symbols,
		m.Triples,
		m.ChunksProcessed,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Observe records one operation's outcome and latency.
func (m *Metrics) Observe(operation string, start time.Time, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.Operations.WithLabelValues(operation, status).Inc()
	m.Duration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// TripleAdded counts an accepted or duplicate triple.
func (m *Metrics) TripleAdded(added bool) {
	if m == nil {
		return
	}
	if added {
		m.TriplesAdded.Inc()
		return
	}
	m.TriplesSkipped.Inc()
}

// SetSizes records the current store sizes.
func (m *Metrics) SetSizes(symbols, triples int) {
	if m == nil {
		return
	}
	m.Symbols.Set(float64(symbols))
	m.Triples.Set(float64(triples))
}

// ChunkProcessed counts one preprocessed chunk.
func (m *Metrics) ChunkProcessed(language string) {
	if m == nil {
		return
	}
	m.ChunksProcessed.WithLabelValues(language).Inc()
}
