package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MetricCacheHitTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "metaresolve",
		Name:      "cache_hit_total",
		Help:      "Total number of resolutions served from the cache.",
	})

	MetricCacheMissTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "metaresolve",
		Name:      "cache_miss_total",
		Help:      "Total number of resolutions that required network access.",
	})

	MetricCoalescedWaiterTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "metaresolve",
		Name:      "coalesced_waiter_total",
		Help:      "Total number of callers that piggybacked on an in-flight resolution.",
	})

	MetricGatewayRequestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "metaresolve",
		Name:      "gateway_request_total",
		Help:      "Total number of fetch attempts per gateway host.",
	}, []string{"host", "stage"})

	MetricGatewayErrorTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "metaresolve",
		Name:      "gateway_request_errors_total",
		Help:      "Total number of failed fetch attempts per gateway host.",
	}, []string{"host", "stage"})

	MetricResolutionExhaustedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "metaresolve",
		Name:      "resolution_exhausted_total",
		Help:      "Total number of resolutions where every candidate failed.",
	})

	MetricResolutionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "metaresolve",
		Name:      "resolution_duration_seconds",
		Help:      "Duration of full network resolutions (cache misses only).",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	})
)
