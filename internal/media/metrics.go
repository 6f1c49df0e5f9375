package media

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	mediaResolved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_media_resolved_total",
			Help: "Image resolutions by result (reused, downloaded, failed)",
		},
		[]string{"result"},
	)

	mediaDownloadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "catalog_media_download_duration_seconds",
			Help:    "Duration of image downloads",
			Buckets: prometheus.DefBuckets,
		},
	)
)
