package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	VerifyLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fraudshield",
			Subsystem: "verify",
			Name:      "latency_seconds",
			Help:      "Latency of verification endpoints",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	VerifyErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fraudshield",
			Subsystem: "verify",
			Name:      "errors_total",
			Help:      "Errors by verification endpoint",
		},
		[]string{"endpoint"},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(VerifyLatency, VerifyErrors)
	})
}
