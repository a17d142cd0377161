package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts API operations by method and outcome.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "match_requests_total",
			Help: "The total number of processed API operations",
		},
		[]string{"method", "status"},
	)

	// RequestDurationSeconds measures the latency of API operations.
	RequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "match_request_duration_seconds",
			Help:    "Duration of API operations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// IndexRecords tracks the number of records currently in the index.
	IndexRecords = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "match_index_records",
			Help: "Number of records currently held by the similarity index",
		},
	)

	// SearchHits observes the number of results returned per search.
	SearchHits = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "match_search_hits",
			Help:    "Number of hits returned per similarity search",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100},
		},
	)

	// SnapshotsTotal counts index snapshot operations by status.
	SnapshotsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "match_snapshots_total",
			Help: "Total number of index snapshot save operations",
		},
		[]string{"status"},
	)

	// SnapshotDurationSeconds measures time taken to write an index snapshot.
	SnapshotDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "match_snapshot_duration_seconds",
			Help:    "Time taken to write an index snapshot",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		},
	)

	// RateLimitRequestsTotal counts rate limiter decisions.
	RateLimitRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "match_rate_limit_requests_total",
			Help: "Total number of requests seen by the rate limiter",
		},
		[]string{"result"},
	)

	// ImageFetchesTotal counts remote image downloads by status.
	ImageFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "match_image_fetches_total",
			Help: "Total number of remote image downloads",
		},
		[]string{"status"},
	)
)
