package core

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetricsRecorder exposes validation run metrics to a Prometheus
// registry.
type PrometheusMetricsRecorder struct {
	runs       *prometheus.CounterVec
	violations prometheus.Counter
	duration   *prometheus.HistogramVec
}

var _ MetricsRecorder = (*PrometheusMetricsRecorder)(nil)

// NewPrometheusMetricsRecorder builds a recorder and registers its
// collectors with the given registerer. A nil registerer falls back to the
// default one.
func NewPrometheusMetricsRecorder(reg prometheus.Registerer) (*PrometheusMetricsRecorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	rec := &PrometheusMetricsRecorder{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lodgecore",
			Name:      "validation_runs_total",
			Help:      "Validation runs by terminal status.",
		}, []string{"status"}),
		violations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lodgecore",
			Name:      "validation_violations_total",
			Help:      "Invariant violations reported across all runs.",
		}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "lodgecore",
			Name:      "validation_run_duration_seconds",
			Help:      "Wall time of a validation run.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"status"}),
	}
	for _, c := range []prometheus.Collector{rec.runs, rec.violations, rec.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

// ObserveRun records one finished run.
func (r *PrometheusMetricsRecorder) ObserveRun(status string, violations int, duration time.Duration) {
	r.runs.WithLabelValues(status).Inc()
	r.violations.Add(float64(violations))
	r.duration.WithLabelValues(status).Observe(duration.Seconds())
}
