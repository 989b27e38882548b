package collector

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once
	mc   *MetricsCollector
)

// MetricsCollector holds the engine's Prometheus metrics.
type MetricsCollector struct {
	fetchCount          *prometheus.CounterVec   // Fetches per sort mode and outcome
	fetchDuration       *prometheus.HistogramVec // Fetch latency per sort mode
	prefetchCount       *prometheus.CounterVec   // Prefetch candidates per outcome
	cacheLookups        *prometheus.CounterVec   // Cache lookups on show, fresh/stale/miss
	transitions         *prometheus.CounterVec   // Emitted transitions per kind
	persistenceFailures *prometheus.CounterVec   // Failed durable writes per record
	timerState          *prometheus.GaugeVec     // 1 for the current refresh timer state
}

// GetMetricsCollector returns the process-wide collector, registering it on first use.
func GetMetricsCollector() *MetricsCollector {
	once.Do(func() {
		mc = &MetricsCollector{
			fetchCount: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "feedsync_fetch_total",
				Help: "Total number of upstream fetches by sort mode and outcome.",
			}, []string{"sort", "outcome"}),

			fetchDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "feedsync_fetch_duration_seconds",
				Help:    "Duration of upstream fetches in seconds.",
				Buckets: prometheus.DefBuckets,
			}, []string{"sort"}),

			prefetchCount: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "feedsync_prefetch_total",
				Help: "Total number of prefetch candidates by outcome.",
			}, []string{"outcome"}),

			cacheLookups: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "feedsync_cache_lookups_total",
				Help: "Total number of item cache lookups by result.",
			}, []string{"result"}),

			transitions: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "feedsync_transitions_total",
				Help: "Total number of list transitions emitted by kind.",
			}, []string{"kind"}),

			persistenceFailures: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "feedsync_persistence_failures_total",
				Help: "Total number of failed durable record reads or writes.",
			}, []string{"record"}),

			timerState: promauto.NewGaugeVec(prometheus.GaugeOpts{
				Name: "feedsync_refresh_timer_state",
				Help: "Current refresh timer state (1 for the active state).",
			}, []string{"state"}),
		}
	})

	return mc
}

func (mc *MetricsCollector) ObserveFetch(sort, outcome string, duration time.Duration) {
	mc.fetchCount.With(prometheus.Labels{"sort": sort, "outcome": outcome}).Inc()
	mc.fetchDuration.With(prometheus.Labels{"sort": sort}).Observe(duration.Seconds())
}

func (mc *MetricsCollector) IncrementPrefetch(outcome string) {
	mc.prefetchCount.With(prometheus.Labels{"outcome": outcome}).Inc()
}

func (mc *MetricsCollector) IncrementCacheLookup(result string) {
	mc.cacheLookups.With(prometheus.Labels{"result": result}).Inc()
}

func (mc *MetricsCollector) AddTransitions(kind string, count int) {
	if count == 0 {
		return
	}
	mc.transitions.With(prometheus.Labels{"kind": kind}).Add(float64(count))
}

func (mc *MetricsCollector) IncrementPersistenceFailure(record string) {
	mc.persistenceFailures.With(prometheus.Labels{"record": record}).Inc()
}

// SetTimerState marks state as the only active refresh timer state.
func (mc *MetricsCollector) SetTimerState(state string, all []string) {
	for _, s := range all {
		v := 0.0
		if s == state {
			v = 1
		}
		mc.timerState.With(prometheus.Labels{"state": s}).Set(v)
	}
}
