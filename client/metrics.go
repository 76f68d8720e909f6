package client

import (
	"github.com/prometheus/client_golang/prometheus"
)

// clientMetrics counts what the data-access layer did, not how the backend
// behaved: one transport request counter plus the cache, dedup, and fallback
// outcomes that decide whether a request happens at all.
type clientMetrics struct {
	requests     *prometheus.CounterVec
	cacheHits    prometheus.Counter
	cacheMisses  prometheus.Counter
	dedupShared  prometheus.Counter
	fallbacks    prometheus.Counter
	unauthorized prometheus.Counter
}

func newClientMetrics(reg prometheus.Registerer) *clientMetrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &clientMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "client",
			Name:      "requests_total",
			Help:      "Transport requests issued, by HTTP method.",
		}, []string{"method"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "client",
			Name:      "cache_hits_total",
			Help:      "Read operations served from the TTL cache.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "client",
			Name:      "cache_misses_total",
			Help:      "Read operations that required a fetch.",
		}),
		dedupShared: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "client",
			Name:      "dedup_shared_total",
			Help:      "Calls that joined an identical in-flight request.",
		}),
		fallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "client",
			Name:      "fallback_total",
			Help:      "Operations served by the fallback endpoint.",
		}),
		unauthorized: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "client",
			Name:      "unauthorized_total",
			Help:      "Responses with status 401; each clears the session.",
		}),
	}
	reg.MustRegister(m.requests, m.cacheHits, m.cacheMisses, m.dedupShared, m.fallbacks, m.unauthorized)
	return m
}
