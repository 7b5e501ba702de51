// Package observability provides Prometheus metrics and HTTP middleware
// for monitoring the askgate server.
package observability

import "github.com/prometheus/client_golang/prometheus"

// LLMBuckets defines histogram buckets suited for generation latencies,
// ranging from 100ms to 120s.
var LLMBuckets = []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120}

var (
	// RequestsTotal counts all HTTP requests by method, status class, and route.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askgate_requests_total",
			Help: "Total requests",
		},
		[]string{"method", "status", "route"},
	)

	// RequestDuration records HTTP request duration in seconds by method and route.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "askgate_request_duration_seconds",
			Help:    "Request duration",
			Buckets: LLMBuckets,
		},
		[]string{"method", "route"},
	)

	// ProviderRequestsTotal counts requests sent to generation providers.
	ProviderRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askgate_provider_requests_total",
			Help: "Provider requests",
		},
		[]string{"provider", "model", "status"},
	)

	// ProviderLatency records provider latency in seconds.
	ProviderLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "askgate_provider_latency_seconds",
			Help:    "Provider latency",
			Buckets: LLMBuckets,
		},
		[]string{"provider", "model"},
	)

	// ProviderTokensTotal counts tokens processed by direction (input/output).
	ProviderTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askgate_provider_tokens_total",
			Help: "Token count",
		},
		[]string{"provider", "model", "direction"},
	)

	// ProviderRetriesTotal counts repeated attempts after a retryable failure.
	ProviderRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askgate_provider_retries_total",
			Help: "Provider retries",
		},
		[]string{"provider"},
	)

	// ProviderFallbacksTotal counts hand-offs from one provider to the next.
	ProviderFallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askgate_provider_fallbacks_total",
			Help: "Provider fallbacks",
		},
		[]string{"from", "to"},
	)

	// KeyRotationsTotal counts API keys handed out per provider.
	KeyRotationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askgate_key_rotations_total",
			Help: "API key rotations",
		},
		[]string{"provider"},
	)

	// TelemetryWritesTotal counts telemetry appends by store and outcome.
	TelemetryWritesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askgate_telemetry_writes_total",
			Help: "Telemetry writes",
		},
		[]string{"store", "status"},
	)

	// LicenseVerificationsTotal counts license checks by backend and result.
	LicenseVerificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askgate_license_verifications_total",
			Help: "License verifications",
		},
		[]string{"backend", "result"},
	)

	// RateLimitRejectedTotal counts requests rejected by the rate limiter.
	RateLimitRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askgate_ratelimit_rejected_total",
			Help: "Rate limit rejections",
		},
		[]string{"tier"},
	)

	// Enabled is 1 while the /ask family accepts requests.
	Enabled = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "askgate_enabled",
			Help: "Whether answering is enabled",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		ProviderRequestsTotal,
		ProviderLatency,
		ProviderTokensTotal,
		ProviderRetriesTotal,
		ProviderFallbacksTotal,
		KeyRotationsTotal,
		TelemetryWritesTotal,
		LicenseVerificationsTotal,
		RateLimitRejectedTotal,
		Enabled,
	)
}

// StatusLabel maps an error to the status label used by outcome counters.
func StatusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
