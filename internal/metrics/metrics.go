package metrics

import (
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Read-model query metrics
	dbQueries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arcadeindexor_db_queries_total",
			Help: "Total number of read-model queries",
		},
		[]string{"operation"},
	)

	dbQueryTime = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "arcadeindexor_db_query_duration_seconds",
			Help:    "Duration of read-model queries",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	dbErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arcadeindexor_db_errors_total",
			Help: "Total number of read-model query errors",
		},
		[]string{"operation"},
	)

	// Indexing metrics
	LastProcessedVersion = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "arcadeindexor_last_processed_version",
			Help: "The watermark: highest fully processed transaction version",
		},
	)

	EventsIndexed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arcadeindexor_events_indexed_total",
			Help: "Total number of events written to the event log by type",
		},
		[]string{"event_type"},
	)

	EventsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arcadeindexor_events_rejected_total",
			Help: "Total number of logged events that were not applied, by type and reason",
		},
		[]string{"event_type", "reason"},
	)

	TransactionsIndexed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "arcadeindexor_transactions_indexed_total",
			Help: "Total number of committed chain transactions",
		},
	)

	Cycles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arcadeindexor_cycles_total",
			Help: "Total number of indexing cycles by outcome",
		},
		[]string{"outcome"},
	)

	CycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "arcadeindexor_cycle_duration_seconds",
			Help:    "Time taken by an indexing cycle",
			Buckets: prometheus.DefBuckets,
		},
	)

	// System metrics
	Uptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "arcadeindexor_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)

	ComponentHealth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "arcadeindexor_component_health",
			Help: "Component health status (1=healthy, 0=unhealthy)",
		},
		[]string{"component"},
	)

	Goroutines = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "arcadeindexor_goroutines",
			Help: "Number of active goroutines",
		},
	)

	MemoryUsage = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "arcadeindexor_memory_usage_bytes",
			Help: "Memory usage statistics",
		},
		[]string{"type"},
	)

	startTime = time.Now()
)

// Cycle outcomes.
const (
	CycleSuccess = "success"
	CycleError   = "error"
	CycleSkipped = "skipped"
)

func DBQueryInc(operation string) {
	dbQueries.WithLabelValues(operation).Inc()
}

func DBQueryDuration(operation string, duration time.Duration) {
	dbQueryTime.WithLabelValues(operation).Observe(duration.Seconds())
}

func DBErrorsInc(operation string) {
	dbErrors.WithLabelValues(operation).Inc()
}

func LastProcessedVersionSet(version uint64) {
	LastProcessedVersion.Set(float64(version))
}

func EventIndexedInc(eventType string) {
	EventsIndexed.WithLabelValues(eventType).Inc()
}

func EventRejectedInc(eventType, reason string) {
	EventsRejected.WithLabelValues(eventType, reason).Inc()
}

func TransactionIndexedInc() {
	TransactionsIndexed.Inc()
}

func CycleInc(outcome string) {
	Cycles.WithLabelValues(outcome).Inc()
}

func CycleDurationLog(duration time.Duration) {
	CycleDuration.Observe(duration.Seconds())
}

func ComponentHealthSet(component string, healthy bool) {
	boolAsFloat := float64(1)
	if !healthy {
		boolAsFloat = 0
	}

	ComponentHealth.WithLabelValues(component).Set(boolAsFloat)
}

// UpdateSystemMetrics updates runtime system metrics.
func UpdateSystemMetrics() {
	Uptime.Set(time.Since(startTime).Seconds())
	Goroutines.Set(float64(runtime.NumGoroutine()))

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	MemoryUsage.WithLabelValues("alloc").Set(float64(m.Alloc))
	MemoryUsage.WithLabelValues("sys").Set(float64(m.Sys))
	MemoryUsage.WithLabelValues("heap_inuse").Set(float64(m.HeapInuse))
}
