package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Store and ops-server instrumentation, partitioned by record kind.

var (
	// Store writes
	StoreWritesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "distributor",
		Subsystem: "store",
		Name:      "writes_total",
		Help:      "Total insert-or-replace writes by outcome",
	}, []string{"record", "outcome"})

	StoreWriteErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "distributor",
		Subsystem: "store",
		Name:      "write_errors_total",
		Help:      "Total failed writes",
	}, []string{"record"})

	StoreBulkBatchSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "distributor",
		Subsystem: "store",
		Name:      "bulk_batch_size",
		Help:      "Records per bulk insert statement",
		Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
	}, []string{"record"})

	// Store reads
	StoreQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "distributor",
		Subsystem: "store",
		Name:      "query_duration_seconds",
		Help:      "Store query duration",
		Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"record", "query"})

	StoreQueryErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "distributor",
		Subsystem: "store",
		Name:      "query_errors_total",
		Help:      "Total failed store queries",
	}, []string{"record", "query"})

	// Receipt read cache
	CacheHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "distributor",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Read cache hits",
	}, []string{"cache"})

	CacheMissesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "distributor",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Read cache misses",
	}, []string{"cache"})

	// Ops server
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "distributor",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Ops server requests by path and status",
	}, []string{"path", "status"})

	HTTPRateLimitedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "distributor",
		Subsystem: "http",
		Name:      "rate_limited_total",
		Help:      "Requests rejected by the rate limiter",
	}, []string{"path"})
)
