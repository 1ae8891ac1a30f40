package metrics

import "github.com/prometheus/client_golang/prometheus"

// Agent Prometheus metrics.
var (
	PlatformOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "koiyu",
			Name:      "platform_operations_total",
			Help:      "Total posting-platform API operations",
		},
		[]string{"operation", "status"},
	)

	QuotaDenialsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "koiyu",
			Name:      "quota_denials_total",
			Help:      "Operations denied by the monthly quota guard",
		},
		[]string{"kind"},
	)

	QuotaPostsRemaining = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "koiyu",
			Name:      "quota_posts_remaining",
			Help:      "Posts left under the monthly plan limit",
		},
	)

	GenerationRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "koiyu",
			Name:      "generation_requests_total",
			Help:      "Total content-generation requests",
		},
		[]string{"model", "status"},
	)

	GenerationRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "koiyu",
			Name:      "generation_request_duration_seconds",
			Help:      "Content-generation request duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"model"},
	)

	RateLimitRetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "koiyu",
			Name:      "rate_limit_retries_total",
			Help:      "Platform calls retried after a rate-limit pause",
		},
	)

	ScheduledJobRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "koiyu",
			Name:      "scheduled_job_runs_total",
			Help:      "Scheduled job executions",
		},
		[]string{"job", "status"},
	)
)

var agentMetricsRegistered bool

// RegisterAgentMetrics registers agent Prometheus metrics. Must be called once from main.
func RegisterAgentMetrics() {
	if agentMetricsRegistered {
		return
	}
	prometheus.MustRegister(PlatformOperationsTotal)
	prometheus.MustRegister(QuotaDenialsTotal)
	prometheus.MustRegister(QuotaPostsRemaining)
	prometheus.MustRegister(GenerationRequestsTotal)
	prometheus.MustRegister(GenerationRequestDuration)
	prometheus.MustRegister(RateLimitRetriesTotal)
	prometheus.MustRegister(ScheduledJobRunsTotal)
	agentMetricsRegistered = true
}
