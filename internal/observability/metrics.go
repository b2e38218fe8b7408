package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "familytree",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	AuthzDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "familytree",
		Name:      "authz_decisions_total",
		Help:      "Person-modification permission decisions by role and outcome",
	}, []string{"role", "outcome"})

	GenerationEstimateDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "familytree",
		Name:      "generation_estimate_duration_seconds",
		Help:      "Duration of ancestor-chain generation estimates",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 10),
	})

	AuditWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "familytree",
		Name:      "audit_writes_total",
		Help:      "Audit log rows written, by action",
	}, []string{"action"})

	LoginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "familytree",
		Name:      "login_attempts_total",
		Help:      "Login attempts by result",
	}, []string{"result"})

	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "familytree",
		Name:      "ws_connections",
		Help:      "Number of active WebSocket connections",
	})
)
