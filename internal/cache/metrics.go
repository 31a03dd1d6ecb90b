package cache

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ResolverMetrics holds Prometheus metrics for identity resolutions.
type ResolverMetrics struct {
	hitsTotal       *prometheus.CounterVec
	missesTotal     *prometheus.CounterVec
	evictionsTotal  *prometheus.CounterVec
	sizeGauge       *prometheus.GaugeVec
	resolveDuration *prometheus.HistogramVec
}

var (
	resolverMetricsInstance *ResolverMetrics
	resolverMetricsOnce     sync.Once
)

// GetResolverMetrics returns the singleton resolver metrics instance.
func GetResolverMetrics() *ResolverMetrics {
	resolverMetricsOnce.Do(func() {
		resolverMetricsInstance = newResolverMetrics()
	})
	return resolverMetricsInstance
}

// MustRegister registers the resolver metric collectors with the given
// registry. promauto registers against the default global registry; the
// gateway serves /metrics from its own, so this bridges the two.
func (m *ResolverMetrics) MustRegister(registry *prometheus.Registry) {
	registry.MustRegister(
		m.hitsTotal,
		m.missesTotal,
		m.evictionsTotal,
		m.sizeGauge,
		m.resolveDuration,
	)
}

// newResolverMetrics creates the metric collectors.
func newResolverMetrics() *ResolverMetrics {
	return &ResolverMetrics{
		hitsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "subauthgw_identitycache_hits_total",
				Help: "Total number of identity cache hits.",
			},
			[]string{"tier"},
		),
		missesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "subauthgw_identitycache_misses_total",
				Help: "Total number of identity cache misses.",
			},
			[]string{"tier"},
		),
		evictionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "subauthgw_identitycache_evictions_total",
				Help: "Total number of identity cache evictions.",
			},
			[]string{"tier"},
		),
		sizeGauge: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "subauthgw_identitycache_entries",
				Help: "Current number of identity cache entries.",
			},
			[]string{"tier"},
		),
		resolveDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "subauthgw_identitycache_resolve_duration_seconds",
				Help:    "Duration of identity resolutions, store fetches included.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op"},
		),
	}
}
