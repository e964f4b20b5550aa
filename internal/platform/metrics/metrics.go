// Package metrics exposes Prometheus counters for task status transitions
// and the HTTP handler that serves them.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Failure reasons used as the "reason" label.
const (
	ReasonIllegalTransition      = "illegal_transition"
	ReasonConcurrentModification = "concurrent_modification"
	ReasonNotFound               = "not_found"
	ReasonTimeout                = "timeout"
	ReasonCanceled               = "canceled"
	ReasonInternal               = "internal"
)

var (
	transitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taskflow_transitions_total",
		Help: "Total number of applied task status transitions by operation, from and to status",
	}, []string{"operation", "from", "to"})

	transitionFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taskflow_transition_failures_total",
		Help: "Total number of rejected or failed task status transitions by operation and reason",
	}, []string{"operation", "reason"})

	transitionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "taskflow_transition_duration_seconds",
		Help:    "Duration of task status transition operations by operation",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"operation"})

	auditRecordFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "taskflow_audit_record_failures_total",
		Help: "Total number of audit events that could not be recorded",
	})

	forbiddenStatusWritesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taskflow_forbidden_status_writes_total",
		Help: "Total number of status writes refused or overridden outside the lifecycle operations",
	}, []string{"path"})
)

// RecordTransition counts an applied transition.
func RecordTransition(operation, from, to string) {
	transitionsTotal.WithLabelValues(operation, from, to).Inc()
}

// RecordTransitionFailure counts a transition that was refused or failed.
func RecordTransitionFailure(operation, reason string) {
	transitionFailuresTotal.WithLabelValues(operation, reason).Inc()
}

// ObserveTransitionDuration records how long a transition operation took.
func ObserveTransitionDuration(operation string, d time.Duration) {
	transitionDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// RecordAuditFailure counts an audit event that could not be recorded.
func RecordAuditFailure() {
	auditRecordFailuresTotal.Inc()
}

// RecordForbiddenStatusWrite counts a status write attempted through path
// ("create" or "field_update").
func RecordForbiddenStatusWrite(path string) {
	forbiddenStatusWritesTotal.WithLabelValues(path).Inc()
}

// Handler returns the HTTP handler serving the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
