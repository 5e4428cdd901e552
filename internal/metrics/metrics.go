// Package metrics holds Prometheus instruments that are used across the
// service.  All collectors are registered with the global registry, so
// importing this package in main.go is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	SiteResolveTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "site_resolve_total",
			Help: "Site lookups by outcome (id, code, or miss).",
		}, []string{"kind"})

	BoardPostTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "board_post_total",
			Help: "Cumulative number of bulletin-board messages posted.",
		})

	BoardDeleteTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "board_delete_total",
			Help: "Cumulative number of bulletin-board messages deleted.",
		})

	BoardRetryTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "board_cas_retry_total",
			Help: "Board writes that lost a version race and were retried.",
		})

	BoardThrottledTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "board_throttled_total",
			Help: "Board posts rejected by the per-client rate limit.",
		})

	PosterTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poster_generated_total",
			Help: "QR posters served, by cache outcome (hit or miss).",
		}, []string{"cache"})

	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern and status class.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "code"})
)

func init() {
	prometheus.MustRegister(
		SiteResolveTotal,
		BoardPostTotal,
		BoardDeleteTotal,
		BoardRetryTotal,
		BoardThrottledTotal,
		PosterTotal,
		HTTPDuration,
	)
}
