package auditwalker

import (
	"github.com/foomo/auditwalker/vo"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	prometheusLabelViewport = "viewport"
	prometheusLabelOutcome  = "outcome"
	prometheusLabelCategory = "category"
	prometheusLabelSeverity = "severity"
)

type Metrics struct {
	summaryVec            *prometheus.SummaryVec
	counterVec            *prometheus.CounterVec
	totalCounter          prometheus.Counter
	progressGaugeOpen     prometheus.Gauge
	progressGaugeComplete prometheus.Gauge
	counterVecViolations  *prometheus.CounterVec
}

// NewMetrics registers with reg, a nil reg keeps them unregistered
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		summaryVec: prometheus.NewSummaryVec(
			prometheus.SummaryOpts{
				Name:       "auditwalker_visit_durations_seconds",
				Help:       "visit duration including stability waits, every tab and screenshots",
				Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
			},
			[]string{prometheusLabelViewport},
		),
		counterVec: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auditwalker_visits_total",
				Help: "visits by viewport and outcome",
			},
			[]string{prometheusLabelViewport, prometheusLabelOutcome},
		),
		totalCounter: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "auditwalker_visit_counter_total",
			Help: "number of visits since start",
		}),
		progressGaugeOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "auditwalker_progress_gauge_open",
			Help: "routes open or in progress",
		}),
		progressGaugeComplete: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "auditwalker_progress_gauge_complete",
			Help: "routes completed in the current walk",
		}),
		counterVecViolations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auditwalker_violations_total",
			Help: "invariant violations by category and severity",
		}, []string{prometheusLabelCategory, prometheusLabelSeverity}),
	}
	if reg != nil {
		reg.MustRegister(
			m.summaryVec,
			m.counterVec,
			m.totalCounter,
			m.progressGaugeOpen,
			m.progressGaugeComplete,
			m.counterVecViolations,
		)
	}
	return m
}

func (m *Metrics) observe(result vo.VisitResult) {
	if m == nil {
		return
	}
	m.totalCounter.Inc()
	m.counterVec.WithLabelValues(result.Viewport, result.Outcome()).Inc()
	if result.Skipped == "" {
		m.summaryVec.WithLabelValues(result.Viewport).Observe(result.Duration.Seconds())
	}
	for _, violations := range [][]vo.Violation{result.Violations, result.Advisories} {
		for _, v := range violations {
			m.counterVecViolations.WithLabelValues(v.Category, string(v.Severity)).Inc()
		}
	}
}

func (m *Metrics) progress(open, complete int) {
	if m == nil {
		return
	}
	m.progressGaugeOpen.Set(float64(open))
	m.progressGaugeComplete.Set(float64(complete))
}
