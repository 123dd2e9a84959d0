package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	fitDuration  *prometheus.HistogramVec
	samplerIters prometheus.Counter
	cacheTotal   *prometheus.CounterVec
	publishTotal *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		fitDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "brentcpa_fit_duration_seconds",
				Help:    "Duration of MCMC fits in seconds",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
			},
			[]string{"status"},
		),
		samplerIters: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "brentcpa_sampler_iterations_total",
				Help: "Total sampler iterations across all chains",
			},
		),
		cacheTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "brentcpa_result_cache_total",
				Help: "Result cache lookups",
			},
			[]string{"outcome"},
		),
		publishTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "brentcpa_result_publish_total",
				Help: "Result publish attempts",
			},
			[]string{"result"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "brentcpa_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
	}
}

// RecordFit records one fit attempt with its duration.
func (r *Recorder) RecordFit(status string, seconds float64) {
	r.fitDuration.WithLabelValues(status).Observe(seconds)
}

// RecordSamplerIterations adds completed sampler iterations.
func (r *Recorder) RecordSamplerIterations(n int) {
	r.samplerIters.Add(float64(n))
}

// RecordCache records a result cache lookup.
func (r *Recorder) RecordCache(hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	r.cacheTotal.WithLabelValues(outcome).Inc()
}

// RecordPublish records a result publish attempt.
func (r *Recorder) RecordPublish(status string) {
	r.publishTotal.WithLabelValues(status).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}
