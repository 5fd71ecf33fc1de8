package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics must be global for registration
var (
	// FetchesTotal tracks the total number of remote fetches
	FetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sheetpipe_fetches_total",
			Help: "Total number of remote fetches",
		},
		[]string{"source", "status"}, // status: success, timeout, error
	)

	// FetchDuration measures remote fetch duration in seconds
	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sheetpipe_fetch_duration_seconds",
			Help:    "Remote fetch duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 0.1s to ~100s
		},
		[]string{"source"},
	)

	// FetchesInFlight tracks fetches currently holding a concurrency slot
	FetchesInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sheetpipe_fetches_in_flight",
			Help: "Fetches currently holding a concurrency slot",
		},
	)

	// FetchQueueDepth tracks callers waiting for a concurrency slot
	FetchQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sheetpipe_fetch_queue_depth",
			Help: "Callers waiting for a fetch concurrency slot",
		},
	)

	// CacheRequestsTotal counts cache lookups by result
	CacheRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sheetpipe_cache_requests_total",
			Help: "Cache lookups by result",
		},
		[]string{"result"}, // result: hit, miss, error
	)

	// CacheEntriesSwept counts entries removed by expiry sweeps
	CacheEntriesSwept = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sheetpipe_cache_entries_swept_total",
			Help: "Cache entries removed by expiry sweeps",
		},
	)

	// RowsWrittenTotal counts rows written into workbook tables
	RowsWrittenTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sheetpipe_rows_written_total",
			Help: "Rows written into workbook tables",
		},
		[]string{"operation"},
	)

	// WriteChunksTotal counts chunk writes by status
	WriteChunksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sheetpipe_write_chunks_total",
			Help: "Chunk writes by status",
		},
		[]string{"operation", "status"}, // status: success, failed
	)

	// WriteDuration measures a full table write in seconds
	WriteDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sheetpipe_write_duration_seconds",
			Help:    "Full table write duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
		},
		[]string{"operation"},
	)

	// TableRecreations counts header-mismatch recoveries
	TableRecreations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sheetpipe_table_recreations_total",
			Help: "Managed tables deleted and recreated after a header mismatch",
		},
		[]string{"operation"},
	)
)
