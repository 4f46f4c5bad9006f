// Cinemind - Personalized Media Recommendation Catalogs
// Copyright 2026 Cinemind Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinemind/cinemind

// Package metrics exposes Prometheus instrumentation for catalog generation,
// upstream provider calls, cache efficiency, and the HTTP surface. Collectors
// are registered once at package load via promauto; recording helpers keep
// call sites to one line.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Provider metrics

	ProviderRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provider_requests_total",
			Help: "Total upstream provider requests",
		},
		[]string{"provider", "operation", "status"}, // status: ok, error, rate_limited
	)

	ProviderRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "provider_request_duration_seconds",
			Help:    "Upstream provider request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider", "operation"},
	)

	// Circuit breaker metrics

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state per provider (0=closed, 1=half-open, 2=open)",
		},
		[]string{"provider"},
	)

	CircuitBreakerRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_rejections_total",
			Help: "Requests rejected while a provider breaker was open",
		},
		[]string{"provider"},
	)

	// Cache metrics

	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total cache hits",
		},
		[]string{"cache_type"}, // "catalog", "id_map", "details", "external_ids", "discovery", "library"
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total cache misses",
		},
		[]string{"cache_type"},
	)

	// Catalog pipeline metrics

	CatalogGenerations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_generations_total",
			Help: "Total catalog generation runs",
		},
		[]string{"catalog", "trigger", "status"}, // trigger: sync, refresh; status: ok, error
	)

	CatalogGenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_generation_duration_seconds",
			Help:    "Catalog generation duration in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
		},
		[]string{"catalog"},
	)

	CatalogServed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_served_total",
			Help: "Catalog responses served, by cache freshness",
		},
		[]string{"catalog", "freshness"}, // freshness: fresh, stale, generated, empty
	)

	CatalogItems = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_items",
			Help:    "Number of items in generated catalogs",
			Buckets: []float64{0, 5, 10, 20, 40, 60, 80, 100, 150},
		},
		[]string{"catalog"},
	)

	GapFillItems = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gap_fill_items_total",
			Help: "Items appended to catalogs by gap-fill",
		},
		[]string{"catalog", "source"}, // source: discovery, trending
	)

	PendingRefreshes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_pending_refreshes",
			Help: "Background catalog refreshes currently in flight",
		},
	)

	// HTTP metrics

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)
)

// RecordProviderRequest records one upstream call.
func RecordProviderRequest(provider, operation, status string, duration time.Duration) {
	ProviderRequests.WithLabelValues(provider, operation, status).Inc()
	ProviderRequestDuration.WithLabelValues(provider, operation).Observe(duration.Seconds())
}

// RecordCacheHit records a hit for one cache type.
func RecordCacheHit(cacheType string) {
	CacheHits.WithLabelValues(cacheType).Inc()
}

// RecordCacheMiss records a miss for one cache type.
func RecordCacheMiss(cacheType string) {
	CacheMisses.WithLabelValues(cacheType).Inc()
}

// RecordCatalogGeneration records one full pipeline run.
func RecordCatalogGeneration(catalog, trigger string, duration time.Duration, itemCount int, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	CatalogGenerations.WithLabelValues(catalog, trigger, status).Inc()
	CatalogGenerationDuration.WithLabelValues(catalog).Observe(duration.Seconds())
	if err == nil {
		CatalogItems.WithLabelValues(catalog).Observe(float64(itemCount))
	}
}

// RecordCatalogServed records one catalog response by freshness class.
func RecordCatalogServed(catalog, freshness string) {
	CatalogServed.WithLabelValues(catalog, freshness).Inc()
}

// RecordGapFill records items appended by the gap-fill stage.
func RecordGapFill(catalog, source string, count int) {
	GapFillItems.WithLabelValues(catalog, source).Add(float64(count))
}

// RecordHTTPRequest records one served HTTP request.
func RecordHTTPRequest(method, endpoint, statusCode string, duration time.Duration) {
	HTTPRequests.WithLabelValues(method, endpoint, statusCode).Inc()
	HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// SetBreakerState mirrors a circuit breaker state change into the gauge.
func SetBreakerState(provider string, state float64) {
	CircuitBreakerState.WithLabelValues(provider).Set(state)
}
