package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	verifications  *prometheus.CounterVec
	messagesSent   *prometheus.CounterVec
	errorsTotal    *prometheus.CounterVec
	judgeFallbacks *prometheus.CounterVec
	latency        *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		verifications: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fraudshield_verifications_total",
				Help: "Total number of completed verifications",
			},
			[]string{"type", "level"},
		),
		messagesSent: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fraudshield_messages_sent_total",
				Help: "Total number of bars sent to backend",
			},
			[]string{"backend", "ticker"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fraudshield_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		judgeFallbacks: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fraudshield_judge_fallbacks_total",
				Help: "Credibility assessments that did not come fully from the judge",
			},
			[]string{"reason"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fraudshield_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordVerification records one completed verification by type and level.
func (r *Recorder) RecordVerification(vtype, level string) {
	r.verifications.WithLabelValues(vtype, level).Inc()
}

// RecordMessageSent records a bar sent to a backend.
func (r *Recorder) RecordMessageSent(backend, ticker string) {
	r.messagesSent.WithLabelValues(backend, ticker).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordJudgeFallback records a degraded or partially parsed credibility
// assessment.
func (r *Recorder) RecordJudgeFallback(reason string) {
	r.judgeFallbacks.WithLabelValues(reason).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
