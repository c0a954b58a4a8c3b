package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	StageRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meterflow_stage_runs_total",
			Help: "Total pipeline stage invocations by outcome",
		},
		[]string{"stage", "status"},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "meterflow_stage_duration_seconds",
			Help:    "Pipeline stage execution time in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	RowsLoaded = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "meterflow_rows_loaded",
			Help: "Rows parsed from the raw source in the last load",
		},
	)

	RowsExported = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "meterflow_rows_exported",
			Help: "Rows written to the output file in the last export",
		},
	)

	SchedulerStartsRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "meterflow_scheduler_starts_rejected_total",
			Help: "Start requests rejected because the scheduler was already running",
		},
	)
)
