// Package metrics exposes the engine's Prometheus instrumentation:
// buffer pool hit/miss counters, WAL append/flush counters, lock
// denials, and per-plan-node statement counts.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	BufferPoolHits = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "arcdb",
		Subsystem: "buffer_pool",
		Name:      "hits_total",
		Help:      "Number of buffer pool fetches served from a resident frame.",
	})

	BufferPoolMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "arcdb",
		Subsystem: "buffer_pool",
		Name:      "misses_total",
		Help:      "Number of buffer pool fetches that required a disk read.",
	})

	BufferPoolPinned = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "arcdb",
		Subsystem: "buffer_pool",
		Name:      "pinned_frames",
		Help:      "Current number of pinned buffer pool frames.",
	})

	WALAppends = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "arcdb",
		Subsystem: "wal",
		Name:      "appends_total",
		Help:      "Number of log records appended to the in-memory WAL buffer.",
	})

	WALFlushes = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "arcdb",
		Subsystem: "wal",
		Name:      "flushes_total",
		Help:      "Number of times the WAL buffer was flushed to the log file.",
	})

	WALFlushDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "arcdb",
		Subsystem: "wal",
		Name:      "flush_duration_seconds",
		Help:      "Latency of flushing the buffered WAL records to disk.",
		Buckets:   prometheus.DefBuckets,
	})

	LockDenials = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "arcdb",
		Subsystem: "txn",
		Name:      "lock_denials_total",
		Help:      "Number of lock acquisitions denied, by table.",
	}, []string{"table"})

	ExecutorStatements = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "arcdb",
		Subsystem: "executor",
		Name:      "statements_total",
		Help:      "Number of plan nodes executed, by node kind.",
	}, []string{"plan_node"})
)

func init() {
	prometheus.MustRegister(
		BufferPoolHits,
		BufferPoolMisses,
		BufferPoolPinned,
		WALAppends,
		WALFlushes,
		WALFlushDuration,
		LockDenials,
		ExecutorStatements,
	)
}
