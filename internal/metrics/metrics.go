// Package metrics exposes Prometheus collectors for feed syncs and the asset cache.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "offlinedict"

// Recorder groups the collectors. A nil *Recorder records nothing.
type Recorder struct {
	syncTotal    *prometheus.CounterVec
	syncDuration prometheus.Histogram
	entries      prometheus.Gauge
	cacheLookups *prometheus.CounterVec
	cacheEvicted prometheus.Counter
	workerState  *prometheus.GaugeVec
}

// NewRecorder creates the collectors and registers them to registerer.
func NewRecorder(registerer prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		syncTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_total",
			Help:      "Number of feed syncs by result.",
		}, []string{"result"}),
		syncDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sync_duration_seconds",
			Help:      "Duration of feed syncs.",
			Buckets:   prometheus.DefBuckets,
		}),
		entries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "entries",
			Help:      "Number of entries in the last good snapshot.",
		}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Intercepted requests by strategy and outcome.",
		}, []string{"strategy", "outcome"}),
		cacheEvicted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_generations_evicted_total",
			Help:      "Number of cache generations deleted on activation.",
		}),
		workerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cache_worker_state",
			Help:      "1 for the current state of the cache worker.",
		}, []string{"state"}),
	}

	for _, collector := range []prometheus.Collector{
		r.syncTotal,
		r.syncDuration,
		r.entries,
		r.cacheLookups,
		r.cacheEvicted,
		r.workerState,
	} {
		if err := registerer.Register(collector); err != nil {
			return nil, fmt.Errorf("registerer.Register() > %w", err)
		}
	}
	return r, nil
}

// ObserveSync records one finished sync.
func (r *Recorder) ObserveSync(result string, seconds float64, entries int) {
	if r == nil {
		return
	}
	r.syncTotal.WithLabelValues(result).Inc()
	r.syncDuration.Observe(seconds)
	if result == "success" {
		r.entries.Set(float64(entries))
	}
}

// ObserveCacheLookup records how an intercepted request was served.
func (r *Recorder) ObserveCacheLookup(strategy, outcome string) {
	if r == nil {
		return
	}
	r.cacheLookups.WithLabelValues(strategy, outcome).Inc()
}

// ObserveEviction records deleted cache generations.
func (r *Recorder) ObserveEviction(count int) {
	if r == nil {
		return
	}
	r.cacheEvicted.Add(float64(count))
}

// SetWorkerState marks state as the only current state among states.
func (r *Recorder) SetWorkerState(state string, states []string) {
	if r == nil {
		return
	}
	for _, s := range states {
		value := 0.0
		if s == state {
			value = 1
		}
		r.workerState.WithLabelValues(s).Set(value)
	}
}
