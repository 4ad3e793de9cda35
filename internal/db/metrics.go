package db

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	maintenanceRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arcadeindexor_maintenance_runs_total",
			Help: "Total number of database maintenance runs by outcome",
		},
		[]string{"outcome"},
	)

	maintenanceDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "arcadeindexor_maintenance_duration_seconds",
			Help:    "Duration of database maintenance runs",
			Buckets: prometheus.DefBuckets,
		},
	)

	maintenanceLastRun = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "arcadeindexor_maintenance_last_run_timestamp",
			Help: "Unix timestamp of the last maintenance run",
		},
	)

	walCheckpoints = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arcadeindexor_wal_checkpoint_total",
			Help: "Total number of WAL checkpoints by mode",
		},
		[]string{"mode"},
	)

	vacuumRuns = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "arcadeindexor_vacuum_total",
			Help: "Total number of VACUUM operations",
		},
	)

	dbSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "arcadeindexor_db_size_bytes",
			Help: "Read-model database size in bytes, WAL included",
		},
	)
)

func maintenanceFinished(start time.Time, err error) {
	maintenanceDuration.Observe(time.Since(start).Seconds())
	maintenanceLastRun.Set(float64(time.Now().Unix()))

	if err != nil {
		maintenanceRuns.WithLabelValues("error").Inc()
		return
	}
	maintenanceRuns.WithLabelValues("success").Inc()
}

func walCheckpointInc(mode string) {
	walCheckpoints.WithLabelValues(mode).Inc()
}

func vacuumInc() {
	vacuumRuns.Inc()
}

func dbSizeLog(sizeBytes int64) {
	dbSize.Set(float64(sizeBytes))
}
