// AIOPicks - AI-Curated Media Catalog Engine
// Copyright 2026 qooode
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/qooode/aiopicks

// Package metrics provides Prometheus instrumentation for the catalog
// engine: refresh outcomes, generation shortfalls, upstream request counts,
// and API latency. Metrics are registered on the default registry and
// exposed via promhttp on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Refresh Metrics
	RefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aiopicks_refresh_total",
			Help: "Total number of catalog refresh runs by outcome",
		},
		[]string{"outcome"}, // "generated", "fallback", "stub", "error"
	)

	RefreshDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "aiopicks_refresh_duration_seconds",
			Help:    "Duration of full catalog refresh runs in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	// Generation Metrics
	GenerationRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aiopicks_generation_requests_total",
			Help: "Total number of generation backend requests",
		},
		[]string{"kind"}, // "lane", "topup"
	)

	GenerationShortfall = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "aiopicks_generation_shortfall_total",
			Help: "Total number of lane items short of target after top-up budget exhaustion",
		},
	)

	// Trakt Client Metrics
	TraktRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aiopicks_trakt_requests_total",
			Help: "Total number of Trakt API requests",
		},
		[]string{"endpoint", "status"},
	)

	TraktRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "aiopicks_trakt_retries_total",
			Help: "Total number of Trakt page fetches retried after transient failure",
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "aiopicks_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"breaker"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aiopicks_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"endpoint", "method", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "aiopicks_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method"},
	)

	// Lane Cache Metrics
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "aiopicks_cache_hits_total",
			Help: "Total number of rendered payload cache hits",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "aiopicks_cache_misses_total",
			Help: "Total number of rendered payload cache misses",
		},
	)
)

// RecordAPIRequest records a completed API request with latency.
func RecordAPIRequest(endpoint, method string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(endpoint, method, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(endpoint, method).Observe(duration.Seconds())
}
