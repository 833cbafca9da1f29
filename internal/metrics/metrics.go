package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/brettbedarf/simfs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for one file system instance.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	Operations          *prometheus.CounterVec
	PersistenceFailures prometheus.Counter
	SnapshotDuration    prometheus.Histogram
	Nodes               prometheus.Gauge
}

// New creates the collectors on a private registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "simfs_operations_total",
				Help: "Total number of file system operations by result",
			},
			[]string{"op", "result"},
		),
		PersistenceFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "simfs_persistence_failures_total",
				Help: "Mutations applied in memory whose snapshot write failed",
			},
		),
		SnapshotDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "simfs_snapshot_duration_seconds",
				Help:    "Time spent writing whole-tree snapshots",
				Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
			},
		),
		Nodes: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "simfs_nodes",
				Help: "Number of nodes in the tree, root included",
			},
		),
	}
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveOperation counts one operation under a result label derived from err
func (m *Metrics) ObserveOperation(op string, err error) {
	if m == nil {
		return
	}
	m.Operations.WithLabelValues(op, Result(err)).Inc()
}

func (m *Metrics) ObservePersistenceFailure() {
	if m == nil {
		return
	}
	m.PersistenceFailures.Inc()
}

func (m *Metrics) ObserveSnapshot(d time.Duration) {
	if m == nil {
		return
	}
	m.SnapshotDuration.Observe(d.Seconds())
}

func (m *Metrics) SetNodes(n int) {
	if m == nil {
		return
	}
	m.Nodes.Set(float64(n))
}

// Result maps an operation error to a low-cardinality label value
func Result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, simfs.ErrPersistence):
		return "persistence_failure"
	case errors.Is(err, simfs.ErrInvalidName):
		return "invalid_name"
	case errors.Is(err, simfs.ErrInvalidPath):
		return "invalid_path"
	case errors.Is(err, simfs.ErrNotFound):
		return "not_found"
	case errors.Is(err, simfs.ErrAlreadyExists):
		return "already_exists"
	case errors.Is(err, simfs.ErrNotADirectory):
		return "not_a_directory"
	case errors.Is(err, simfs.ErrIsADirectory):
		return "is_a_directory"
	case errors.Is(err, simfs.ErrUnsupported):
		return "unsupported"
	default:
		return "error"
	}
}
