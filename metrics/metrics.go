// Package metrics keeps Prometheus counters for capability calls, approval
// transitions and run outcomes. All methods are safe on a nil *Metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "planner"

// Metrics owns a private registry so several services can coexist in one
// process.
type Metrics struct {
	registry           *prometheus.Registry
	capabilityCalls    *prometheus.CounterVec
	capabilityDuration *prometheus.HistogramVec
	transitions        *prometheus.CounterVec
	runs               *prometheus.CounterVec
	degraded           prometheus.Counter
}

// New creates and registers the planner collectors.
func New() *Metrics {
	ret := &Metrics{
		registry: prometheus.NewRegistry(),
		capabilityCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "capability_calls_total",
			Help:      "Capability invocations by capability and result.",
		}, []string{"capability", "result"}),
		capabilityDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "capability_call_duration_seconds",
			Help:      "Capability invocation latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"capability"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "approval_transitions_total",
			Help:      "Approval requests entering a status.",
		}, []string{"action", "status"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Goal runs by outcome.",
		}, []string{"outcome"}),
		degraded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "degraded_evaluations_total",
			Help:      "Evaluations excluded from the average after retries.",
		}),
	}
	ret.registry.MustRegister(ret.capabilityCalls, ret.capabilityDuration, ret.transitions, ret.runs, ret.degraded)
	return ret
}

// Registry exposes the underlying registry, e.g. for promhttp.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveCapability records one capability call.
func (m *Metrics) ObserveCapability(name string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.capabilityCalls.WithLabelValues(name, result).Inc()
	m.capabilityDuration.WithLabelValues(name).Observe(elapsed.Seconds())
}

// ObserveTransition records a request entering status.
func (m *Metrics) ObserveTransition(action, status string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(action, status).Inc()
}

// ObserveRun records the outcome of a goal run; failed runs use "error".
func (m *Metrics) ObserveRun(outcome string) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(outcome).Inc()
}

// ObserveDegraded counts one degraded evaluation.
func (m *Metrics) ObserveDegraded() {
	if m == nil {
		return
	}
	m.degraded.Inc()
}

// WriteTextfile dumps all metrics in the text exposition format, replacing
// path atomically (node exporter textfile collector layout).
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
