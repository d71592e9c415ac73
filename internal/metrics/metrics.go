package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// dispatchTotal counts dispatch invocations.
	// Labels:
	// - outcome: "dispatched", "not_dispatchable" or "error"
	dispatchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mailing",
			Subsystem: "dispatch",
			Name:      "invocations_total",
			Help:      "Number of dispatch invocations by outcome",
		},
		[]string{"outcome"},
	)

	attemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mailing",
			Subsystem: "dispatch",
			Name:      "attempts_total",
			Help:      "Delivery attempts recorded by status",
		},
		[]string{"status"},
	)

	gatewayDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mailing",
			Subsystem: "gateway",
			Name:      "send_duration_seconds",
			Help:      "Duration of a single gateway send",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"provider", "status"},
	)

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mailing",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests processed",
		},
		[]string{"method", "route", "status"},
	)
)

func IncDispatch(outcome string) {
	dispatchTotal.WithLabelValues(outcome).Inc()
}

func IncAttempt(status string) {
	attemptsTotal.WithLabelValues(status).Inc()
}

func ObserveGatewaySend(provider, status string, seconds float64) {
	if provider == "" {
		provider = "unknown"
	}
	gatewayDuration.WithLabelValues(provider, status).Observe(seconds)
}

func IncHTTPRequest(method, route, status string) {
	if route == "" {
		route = "unknown"
	}
	httpRequestsTotal.WithLabelValues(method, route, status).Inc()
}
