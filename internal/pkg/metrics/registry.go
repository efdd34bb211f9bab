package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Store/Repository Metrics
var (
	// StoreOperations tracks key/value and database operations
	StoreOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "multioauth_store_operations_total",
			Help: "Total store operations by repository, operation, and status",
		},
		[]string{"repo", "operation", "status"},
	)

	// StoreDuration tracks store operation latency
	StoreDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:                            "multioauth_store_operation_duration_ms",
			Help:                            "Store operation duration in milliseconds",
			NativeHistogramBucketFactor:     1.1,
			NativeHistogramMaxBucketNumber:  100,
			NativeHistogramMinResetDuration: 1 * time.Hour,
		},
		[]string{"repo", "operation"},
	)

	// StoreErrors tracks store errors by type
	StoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "multioauth_store_errors_total",
			Help: "Total store errors by repository, operation, and error type",
		},
		[]string{"repo", "operation", "error_type"},
	)
)

// Login and Registry Metrics
var (
	// LoginAttempts tracks completed login attempts
	LoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "multioauth_login_attempts_total",
			Help: "Total login attempts by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)

	// LoginDuration tracks the time from callback to resolved user
	LoginDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:                            "multioauth_login_duration_ms",
			Help:                            "Login pipeline duration in milliseconds",
			NativeHistogramBucketFactor:     1.1,
			NativeHistogramMaxBucketNumber:  100,
			NativeHistogramMinResetDuration: 1 * time.Hour,
		},
		[]string{"provider"},
	)

	// RegistryReloads tracks strategy registry rebuilds
	RegistryReloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "multioauth_registry_reloads_total",
			Help: "Total strategy registry reloads by outcome",
		},
		[]string{"outcome"},
	)

	// RegistrySize tracks the number of live handlers
	RegistrySize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "multioauth_registry_handlers",
			Help: "Number of live authentication handlers in the current registry snapshot",
		},
	)

	// DiscoveryCache tracks discovery cache lookups
	DiscoveryCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "multioauth_discovery_cache_total",
			Help: "OpenID discovery cache lookups by result",
		},
		[]string{"result"},
	)

	// EventsPublished tracks plugin events handed to subscribers
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "multioauth_events_published_total",
			Help: "Total plugin events delivered by event name and status",
		},
		[]string{"event", "status"},
	)
)

// HTTP Handler Metrics
var (
	// HTTPRequests tracks HTTP requests
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "multioauth_http_requests_total",
			Help: "Total HTTP requests by method, route, and status",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPDuration tracks HTTP request duration
	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:                            "multioauth_http_request_duration_ms",
			Help:                            "HTTP request duration in milliseconds",
			NativeHistogramBucketFactor:     1.1,
			NativeHistogramMaxBucketNumber:  100,
			NativeHistogramMinResetDuration: 1 * time.Hour,
		},
		[]string{"method", "path"},
	)

	// HTTPActiveRequests tracks active HTTP requests
	HTTPActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "multioauth_http_active_requests",
			Help: "Number of active HTTP requests",
		},
	)
)
