package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	RemapCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "refract_remap_cache_hits_total",
		Help: "Total number of reference remaps answered from the memoization cache.",
	})

	RemapCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "refract_remap_cache_misses_total",
		Help: "Total number of reference remaps that required a chain derivation.",
	})

	ChainInvocations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "refract_chain_invocations_total",
		Help: "Total number of remapper chain operations, by reference shape.",
	}, []string{"shape"})

	TableLoadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "refract_table_load_seconds",
		Help:    "Time spent loading a mapping table.",
		Buckets: prometheus.DefBuckets,
	})

	BatchRunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "refract_batch_run_seconds",
		Help:    "Time spent on one full batch remap run.",
		Buckets: prometheus.DefBuckets,
	})

	ReferencesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "refract_references_processed_total",
		Help: "Total number of references processed in batch runs, by refmap.",
	}, []string{"refmap"})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "refract_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	RebuildsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "refract_rebuilds_total",
		Help: "Total number of engine rebuilds triggered by mapping or refmap changes.",
	})

	RebuildsThrottledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "refract_rebuilds_throttled_total",
		Help: "Total number of rebuild requests dropped by the rate limiter.",
	})
)

// StartTableLoadTimer times one mapping table load.
func StartTableLoadTimer() *prometheus.Timer {
	return prometheus.NewTimer(TableLoadDuration)
}
