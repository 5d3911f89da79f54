package engine

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/leapstack-labs/leapdq/pkg/core"
)

// Metrics tracks rule evaluation.
//
// Metrics:
//   - leapdq_engine_evaluations_total: evaluation calls by mode and rule source
//   - leapdq_engine_rules_planned_total: rules planned by criticality
//   - leapdq_engine_failures_total: failed calls by error kind
//   - leapdq_engine_plan_duration_seconds: time to resolve, bind and plan a rule set
//   - leapdq_engine_rows: row counts of the last written outputs, set by callers
type Metrics struct {
	evaluationsTotal *prometheus.CounterVec
	rulesPlanned     *prometheus.CounterVec
	failuresTotal    *prometheus.CounterVec
	planDuration     prometheus.Histogram
	rows             *prometheus.GaugeVec
}

// NewMetrics creates the engine metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		evaluationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "leapdq",
				Subsystem: "engine",
				Name:      "evaluations_total",
				Help:      "Total number of evaluation calls",
			},
			[]string{"mode", "source"},
		),
		rulesPlanned: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "leapdq",
				Subsystem: "engine",
				Name:      "rules_planned_total",
				Help:      "Total number of rules planned into an evaluation",
			},
			[]string{"criticality"},
		),
		failuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "leapdq",
				Subsystem: "engine",
				Name:      "failures_total",
				Help:      "Total number of evaluation calls that failed, by error kind",
			},
			[]string{"kind"},
		),
		planDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "leapdq",
				Subsystem: "engine",
				Name:      "plan_duration_seconds",
				Help:      "Duration of resolving and planning a rule set in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
			},
		),
		rows: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "leapdq",
				Subsystem: "engine",
				Name:      "rows",
				Help:      "Row count of the last materialized output",
			},
			[]string{"output"},
		),
	}

	reg.MustRegister(
		m.evaluationsTotal,
		m.rulesPlanned,
		m.failuresTotal,
		m.planDuration,
		m.rows,
	)
	return m
}

// RecordRows records the row count of a materialized output
// ("valid", "quarantined" or "annotated").
func (m *Metrics) RecordRows(output string, n int64) {
	if m == nil {
		return
	}
	m.rows.WithLabelValues(output).Set(float64(n))
}

func (m *Metrics) recordEvaluation(mode, source string) {
	if m == nil {
		return
	}
	m.evaluationsTotal.WithLabelValues(mode, source).Inc()
}

func (m *Metrics) recordPlan(p *plan, d time.Duration) {
	if m == nil {
		return
	}
	for _, c := range core.Criticalities() {
		m.rulesPlanned.WithLabelValues(c.String()).Add(float64(p.count(c)))
	}
	m.planDuration.Observe(d.Seconds())
}

func (m *Metrics) recordFailure(err error) {
	if m == nil || err == nil {
		return
	}
	m.failuresTotal.WithLabelValues(errorKind(err)).Inc()
}

func errorKind(err error) string {
	var (
		validation    core.ValidationErrors
		resolution    *core.ResolutionError
		configuration *core.ConfigurationError
		evaluation    *core.EvaluationError
	)
	switch {
	case errors.As(err, &validation):
		return "validation"
	case errors.As(err, &resolution):
		return "resolution"
	case errors.As(err, &configuration):
		return "configuration"
	case errors.As(err, &evaluation):
		return "evaluation"
	default:
		return "other"
	}
}
