// Package metrics exposes Prometheus counters for engine operations.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Set bundles the engine's metrics on a private registry so tests can create
// independent instances without collector collisions.
type Set struct {
	registry *prometheus.Registry

	Operations     *prometheus.CounterVec
	AssistFailures prometheus.Counter
	LogEntries     prometheus.Counter
}

// NewSet creates and registers the engine metric set.
func NewSet() *Set {
	reg := prometheus.NewRegistry()
	s := &Set{
		registry: reg,
		Operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chemlab_operations_total",
			Help: "Experiment state machine operations by name and outcome.",
		}, []string{"op", "outcome"}),
		AssistFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chemlab_assist_failures_total",
			Help: "External collaborator calls that fell back to a safe default.",
		}),
		LogEntries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chemlab_lab_log_entries_total",
			Help: "Entries appended to the lab log.",
		}),
	}
	reg.MustRegister(s.Operations, s.AssistFailures, s.LogEntries)
	return s
}

// RecordOp counts one operation with an ok/error outcome.
func (s *Set) RecordOp(op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	s.Operations.WithLabelValues(op, outcome).Inc()
}

// Handler serves the registry in Prometheus exposition format.
func (s *Set) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}
