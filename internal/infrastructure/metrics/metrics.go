package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PipelineRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "image_cache",
			Subsystem: "pipeline",
			Name:      "requests_total",
			Help:      "Transform requests by outcome (served, forbidden, fallthrough) and cache hit",
		},
		[]string{"status", "cache"},
	)

	PipelineFallthroughTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "image_cache",
			Subsystem: "pipeline",
			Name:      "fallthrough_total",
			Help:      "Requests handed to the next handler, by reason",
		},
		[]string{"reason"},
	)

	TransformDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "image_cache",
			Subsystem: "pipeline",
			Name:      "transform_duration_seconds",
			Help:      "Time spent decoding, transforming and encoding one image",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"content_type"},
	)

	CacheWriteErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "image_cache",
			Subsystem: "cache",
			Name:      "write_errors_total",
			Help:      "Transformed images that could not be persisted",
		},
	)

	CachePurgedFilesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "image_cache",
			Subsystem: "cache",
			Name:      "purged_files_total",
			Help:      "Cache files removed by invalidation, by trigger",
		},
		[]string{"trigger"},
	)
)
