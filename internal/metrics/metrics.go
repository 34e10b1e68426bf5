package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "study_agent"

// Recorder owns the flow's prometheus collectors. A nil *Recorder is valid
// and records nothing.
type Recorder struct {
	registry     *prometheus.Registry
	steps        *prometheus.CounterVec
	halts        *prometheus.CounterVec
	violations   *prometheus.CounterVec
	topicSwitch  *prometheus.CounterVec
	stepDuration *prometheus.HistogramVec
	failures     *prometheus.CounterVec
}

// NewRecorder registers the collectors on a private registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "steps_total",
			Help:      "Responder steps executed, by step.",
		}, []string{"step"}),
		halts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "halts_total",
			Help:      "Driver halts, by signal.",
		}, []string{"signal"}),
		violations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "consistency_violations_total",
			Help:      "Consistency violations detected after a step, by kind.",
		}, []string{"kind"}),
		topicSwitch: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "topic_switches_total",
			Help:      "Topic switches applied, by kind.",
		}, []string{"kind"}),
		stepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "step_duration_seconds",
			Help:      "Duration of flow graph nodes, by node.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"step"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "responder_failures_total",
			Help:      "Responder failures translated into a human-input request, by step.",
		}, []string{"step"}),
	}
	r.registry.MustRegister(
		r.steps, r.halts, r.violations, r.topicSwitch, r.stepDuration, r.failures,
		collectors.NewGoCollector(),
	)
	return r
}

func (r *Recorder) Step(step string) {
	if r == nil {
		return
	}
	r.steps.WithLabelValues(step).Inc()
}

func (r *Recorder) Halt(signal string) {
	if r == nil {
		return
	}
	r.halts.WithLabelValues(signal).Inc()
}

func (r *Recorder) Violation(kind string) {
	if r == nil {
		return
	}
	r.violations.WithLabelValues(kind).Inc()
}

func (r *Recorder) TopicSwitch(kind string) {
	if r == nil {
		return
	}
	r.topicSwitch.WithLabelValues(kind).Inc()
}

func (r *Recorder) ResponderFailure(step string) {
	if r == nil {
		return
	}
	r.failures.WithLabelValues(step).Inc()
}

func (r *Recorder) ObserveStep(step string, d time.Duration) {
	if r == nil {
		return
	}
	r.stepDuration.WithLabelValues(step).Observe(d.Seconds())
}

// Registry exposes the underlying registry for tests and custom exporters.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Handler serves the registry in the prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
