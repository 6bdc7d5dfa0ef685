package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Get outcomes recorded by the cache manager.
const (
	OutcomeHit      = "hit"      // stored data was sufficient
	OutcomeMiss     = "miss"     // empty store, full-range fetch
	OutcomeGapFill  = "gap_fill" // partial data, gaps fetched and merged
	OutcomeDegraded = "degraded" // gap fetch came back empty, stale data served
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	getsTotal          *prometheus.CounterVec
	remoteFetchesTotal *prometheus.CounterVec
	remoteFetchErrors  *prometheus.CounterVec
	remoteFetchSeconds *prometheus.HistogramVec
	candlesReturned    prometheus.Histogram
	cacheClearsTotal   prometheus.Counter
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		getsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "candlecache_gets_total",
				Help: "Total candle lookups by timeframe and outcome",
			},
			[]string{"timeframe", "outcome"},
		),

		remoteFetchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "candlecache_remote_fetches_total",
				Help: "Total remote fetch calls by source",
			},
			[]string{"source"},
		),

		remoteFetchErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "candlecache_remote_fetch_errors_total",
				Help: "Total failed remote fetch calls by source",
			},
			[]string{"source"},
		),

		remoteFetchSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "candlecache_remote_fetch_duration_seconds",
				Help:    "Remote fetch call duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"source"},
		),

		candlesReturned: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "candlecache_candles_returned",
				Help:    "Number of candles returned per lookup",
				Buckets: prometheus.ExponentialBuckets(1, 4, 8),
			},
		),

		cacheClearsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "candlecache_cache_clears_total",
				Help: "Total cache clear operations",
			},
		),
	}

	reg.MustRegister(r.getsTotal)
	reg.MustRegister(r.remoteFetchesTotal)
	reg.MustRegister(r.remoteFetchErrors)
	reg.MustRegister(r.remoteFetchSeconds)
	reg.MustRegister(r.candlesReturned)
	reg.MustRegister(r.cacheClearsTotal)

	return r
}

// RecordGet records one lookup with its outcome and result size.
func (r *Registry) RecordGet(timeframe, outcome string, candles int) {
	r.getsTotal.WithLabelValues(timeframe, outcome).Inc()
	r.candlesReturned.Observe(float64(candles))
}

// RecordRemoteFetch records one remote fetch call.
func (r *Registry) RecordRemoteFetch(source string, duration time.Duration, err error) {
	r.remoteFetchesTotal.WithLabelValues(source).Inc()
	r.remoteFetchSeconds.WithLabelValues(source).Observe(duration.Seconds())
	if err != nil {
		r.remoteFetchErrors.WithLabelValues(source).Inc()
	}
}

// RecordClear records one cache clear.
func (r *Registry) RecordClear() {
	r.cacheClearsTotal.Inc()
}
