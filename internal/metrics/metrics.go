package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	DeliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_deliveries_total",
			Help: "Total number of webhook deliveries by terminal status.",
		},
		[]string{"status"}, // delivered, failed
	)

	RetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_retries_total",
			Help: "Total number of delivery retries by reason.",
		},
		[]string{"reason"}, // e.g. http_5xx, http_429, timeout, network
	)

	MalformedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "webhook_malformed_messages_total",
			Help: "Total number of queue messages rejected as malformed.",
		},
	)

	LogFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "webhook_log_failures_total",
			Help: "Total number of failed outcome log inserts.",
		},
	)

	AttemptDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "webhook_attempt_duration_seconds",
			Help:    "Latency of individual delivery attempts.",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func MustRegister(reg *prometheus.Registry) {
	reg.MustRegister(DeliveriesTotal, RetriesTotal, MalformedTotal, LogFailuresTotal, AttemptDuration)
}
