package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PaymentsInitiated counts pay calls by gateway and outcome
	PaymentsInitiated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "billing_payments_initiated_total",
			Help: "Total number of payment initiations",
		},
		[]string{"gateway", "outcome"},
	)

	// WebhooksReceived counts provider callbacks by gateway and outcome
	WebhooksReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "billing_webhooks_received_total",
			Help: "Total number of provider webhooks",
		},
		[]string{"gateway", "outcome"},
	)

	// ProviderRequestDuration tracks outbound provider call latency
	ProviderRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "billing_provider_request_duration_seconds",
			Help:    "Outbound provider request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"host", "outcome"},
	)

	// CircuitBreakerState tracks circuit breaker state (0=closed, 1=open, 2=half-open)
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "billing_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
		},
		[]string{"circuit_name"},
	)
)

const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeRejected = "rejected"
)
