package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	conversionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "calconv_conversions_total",
		Help: "Total number of component conversions, by component kind and outcome.",
	}, []string{"kind", "outcome"})

	conversionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "calconv_conversion_duration_seconds",
		Help:    "Histogram of component conversion latencies.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})
)

// ObserveConversion records one conversion call. Outcome is "ok",
// "not_found" (the override-behind-master sentinel) or the domain error
// code.
func ObserveConversion(kind, outcome string, start time.Time) {
	conversionsTotal.WithLabelValues(kind, outcome).Inc()
	conversionDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}
