package importer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	jobsTotal   *prometheus.CounterVec
	rowsTotal   *prometheus.CounterVec
	jobDuration *prometheus.HistogramVec
}

// NewMetrics registers import metrics with reg. A nil reg yields metrics
// that are collected but never exposed.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)
	return &Metrics{
		jobsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "contacthub",
			Subsystem: "import",
			Name:      "jobs_total",
			Help:      "Total number of import jobs by outcome.",
		}, []string{"result"}),
		rowsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "contacthub",
			Subsystem: "import",
			Name:      "rows_total",
			Help:      "Total number of data rows processed by outcome.",
		}, []string{"result"}),
		jobDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "contacthub",
			Subsystem: "import",
			Name:      "job_duration_seconds",
			Help:      "Duration of import jobs.",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}, []string{"result"}),
	}
}

func (m *Metrics) observe(result string, seconds float64, imported, skipped int) {
	m.jobsTotal.WithLabelValues(result).Inc()
	m.jobDuration.WithLabelValues(result).Observe(seconds)
	m.rowsTotal.WithLabelValues("imported").Add(float64(imported))
	m.rowsTotal.WithLabelValues("skipped").Add(float64(skipped))
}
