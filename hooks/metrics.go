package hooks

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360studio/knowhook/workflow"
)

// Metrics instruments evaluation passes. Constructed per orchestrator
// against an explicit registerer; no process-global collectors.
type Metrics struct {
	hooksEvaluated    prometheus.Counter
	hooksTriggered    prometheus.Counter
	workflowsExecuted *prometheus.CounterVec
	passDuration      prometheus.Histogram
}

// NewMetrics creates and registers pass metrics. Pass the result to
// WithMetrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		hooksEvaluated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "knowhook",
			Subsystem: "hooks",
			Name:      "evaluated_total",
			Help:      "Hooks whose predicates were evaluated.",
		}),
		hooksTriggered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "knowhook",
			Subsystem: "hooks",
			Name:      "triggered_total",
			Help:      "Hooks whose predicates evaluated true.",
		}),
		workflowsExecuted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "knowhook",
			Subsystem: "workflows",
			Name:      "executed_total",
			Help:      "Workflow runs, by outcome.",
		}, []string{"outcome"}),
		passDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "knowhook",
			Subsystem: "hooks",
			Name:      "pass_duration_seconds",
			Help:      "Duration of evaluation passes.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.hooksEvaluated, m.hooksTriggered, m.workflowsExecuted, m.passDuration)
	return m
}

func (m *Metrics) hookEvaluated() {
	if m != nil {
		m.hooksEvaluated.Inc()
	}
}

func (m *Metrics) hookTriggered() {
	if m != nil {
		m.hooksTriggered.Inc()
	}
}

func (m *Metrics) workflowExecuted(run *workflow.ExecutionResult) {
	if m == nil {
		return
	}
	outcome := "succeeded"
	if !run.Success {
		outcome = "failed"
	}
	m.workflowsExecuted.WithLabelValues(outcome).Inc()
}

func (m *Metrics) observePass(res *EvaluationResult) {
	if m != nil {
		m.passDuration.Observe(res.EvaluationTime.Seconds())
	}
}
