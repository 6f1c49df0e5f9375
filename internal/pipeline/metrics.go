package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	jobRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_import_job_runs_total",
			Help: "Import job runs by job and status",
		},
		[]string{"job", "status"},
	)

	jobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_import_job_duration_seconds",
			Help:    "Duration of import job runs",
			Buckets: []float64{.1, .5, 1, 5, 15, 30, 60, 300, 900, 1800},
		},
		[]string{"job"},
	)

	extractedElements = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_import_extracted_total",
			Help: "Feed elements staged by kind",
		},
		[]string{"kind"},
	)

	invalidElements = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_import_invalid_elements_total",
			Help: "Feed elements rejected during extraction by kind",
		},
		[]string{"kind"},
	)

	notificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_import_notifications_total",
			Help: "Import notifications by kind and result",
		},
		[]string{"kind", "result"},
	)
)
