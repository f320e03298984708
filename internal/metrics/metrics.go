package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "devpad_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "devpad_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	AssistantRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "devpad_assistant_requests_total",
			Help: "Total number of AI assistant calls by mode and outcome.",
		},
		[]string{"mode", "status"},
	)

	AssistantTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "devpad_assistant_tokens_total",
			Help: "Total billed AI tokens by direction.",
		},
		[]string{"direction"},
	)

	QuotaDenialsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "devpad_quota_denials_total",
			Help: "Total number of assistant calls denied by the daily quota.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		AssistantRequestsTotal,
		AssistantTokensTotal,
		QuotaDenialsTotal,
	)
}
