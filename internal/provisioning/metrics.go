package provisioning

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records pipeline activity. A nil *Metrics records nothing.
type Metrics struct {
	stepExecutions *prometheus.CounterVec
	stepDuration   *prometheus.HistogramVec
	rollbacks      *prometheus.CounterVec
	runs           *prometheus.CounterVec
}

// NewMetrics creates the pipeline metrics and registers them with reg when reg is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		stepExecutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "provisioner",
				Subsystem: "pipeline",
				Name:      "step_executions_total",
				Help:      "Total number of step executions by type, mode and result",
			},
			[]string{"step_type", "mode", "result"},
		),
		stepDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "provisioner",
				Subsystem: "pipeline",
				Name:      "step_duration_seconds",
				Help:      "Duration of step execution in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~20s
			},
			[]string{"step_type"},
		),
		rollbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "provisioner",
				Subsystem: "pipeline",
				Name:      "rollbacks_total",
				Help:      "Total number of step rollbacks by type and result",
			},
			[]string{"step_type", "result"},
		),
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "provisioner",
				Subsystem: "pipeline",
				Name:      "runs_total",
				Help:      "Total number of provisioning runs by terminal status",
			},
			[]string{"status"},
		),
	}

	if reg != nil {
		reg.MustRegister(m.stepExecutions, m.stepDuration, m.rollbacks, m.runs)
	}
	return m
}

func (m *Metrics) observeStep(step Step, mode Mode, d time.Duration) {
	if m == nil {
		return
	}
	m.stepExecutions.WithLabelValues(step.Type(), string(mode), stepOutcomeLabel(step)).Inc()
	m.stepDuration.WithLabelValues(step.Type()).Observe(d.Seconds())
}

func (m *Metrics) observeRollback(step Step) {
	if m == nil {
		return
	}
	m.rollbacks.WithLabelValues(step.Type(), step.Result().String()).Inc()
}

func (m *Metrics) observeRun(status RunStatus) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(string(status)).Inc()
}

func stepOutcomeLabel(step Step) string {
	if step.Status() == StatusFailed {
		return "ERROR"
	}
	return step.Result().String()
}
