package aptos

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	nodeRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arcadeindexor_node_requests_total",
			Help: "Total number of Aptos node requests by operation",
		},
		[]string{"operation"},
	)

	nodeErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arcadeindexor_node_errors_total",
			Help: "Total number of failed Aptos node requests by operation and error type",
		},
		[]string{"operation", "error_type"},
	)

	nodeRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arcadeindexor_node_retries_total",
			Help: "Total number of retried Aptos node requests by operation",
		},
		[]string{"operation"},
	)

	nodeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "arcadeindexor_node_request_duration_seconds",
			Help:    "Duration of Aptos node requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)

func requestInc(operation string) {
	nodeRequests.WithLabelValues(operation).Inc()
}

func requestDuration(operation string, d time.Duration) {
	nodeDuration.WithLabelValues(operation).Observe(d.Seconds())
}

func requestError(operation, errorType string) {
	nodeErrors.WithLabelValues(operation, errorType).Inc()
}

func retryInc(operation string) {
	nodeRetries.WithLabelValues(operation).Inc()
}
