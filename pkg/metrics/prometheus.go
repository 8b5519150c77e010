// Package metrics provides Prometheus metrics for the pitwall service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every collector the service exports.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorsByEndpoint    *prometheus.CounterVec
	errorsByType        *prometheus.CounterVec

	// Artifacts
	artifactLoads        *prometheus.CounterVec
	artifactLoadDuration *prometheus.HistogramVec
	recordsDropped       *prometheus.CounterVec
	snapshotRaces        prometheus.Gauge
	snapshotAgeUnix      prometheus.Gauge

	// Upstream results API
	upstreamRequests *prometheus.CounterVec
	upstreamLatency  *prometheus.HistogramVec
	standingsCache   *prometheus.CounterVec

	// Domain
	projections      *prometheus.CounterVec
	unmatchedDrivers prometheus.Counter
	aggregations     prometheus.Counter

	// Refresh queue
	refreshQueueSize prometheus.Gauge
	refreshRequests  *prometheus.CounterVec
	refreshDuration  prometheus.Histogram

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // registry without default Go collectors

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "pitwall",
		subsystem:        "",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		constLabels:      prometheus.Labels{},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	counterVec := func(name, help string, labels ...string) *prometheus.CounterVec {
		return auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		}, labels)
	}
	histVec := func(name, help string, labels ...string) *prometheus.HistogramVec {
		return auto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
			Buckets: m.histogramBuckets,
		}, labels)
	}
	gauge := func(name, help string) prometheus.Gauge {
		return auto.NewGauge(prometheus.GaugeOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		})
	}

	m.httpRequests = counterVec("http_requests_total", "HTTP requests by endpoint, method and status", "endpoint", "method", "status_code")
	m.httpRequestDuration = histVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds", "endpoint", "method", "status_code")
	m.errorsByEndpoint = counterVec("errors_by_endpoint_total", "HTTP errors by endpoint", "endpoint", "method", "error_type")
	m.errorsByType = counterVec("errors_by_type_total", "Errors by type and severity", "error_type", "severity")

	m.artifactLoads = counterVec("artifact_loads_total", "Prediction artifact loads by artifact and outcome", "artifact", "outcome")
	m.artifactLoadDuration = histVec("artifact_load_duration_milliseconds", "Artifact load duration in milliseconds", "artifact")
	m.recordsDropped = counterVec("records_dropped_total", "Malformed artifact records dropped at the parsing boundary", "artifact", "reason")
	m.snapshotRaces = gauge("snapshot_races", "Number of races in the current snapshot")
	m.snapshotAgeUnix = gauge("snapshot_loaded_unixtime", "Unix time the current snapshot was published")

	m.upstreamRequests = counterVec("upstream_requests_total", "Requests to the live results API", "endpoint", "outcome")
	m.upstreamLatency = histVec("upstream_latency_milliseconds", "Live results API latency in milliseconds", "endpoint")
	m.standingsCache = counterVec("upstream_cache_total", "Live results cache lookups", "endpoint", "result")

	m.projections = counterVec("projections_total", "Championship projections computed by model", "model")
	m.unmatchedDrivers = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: "unmatched_drivers_total",
		Help: "Predicted drivers that could not be resolved against the standings", ConstLabels: m.constLabels,
	})
	m.aggregations = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: "aggregations_total",
		Help: "Cross-model metric aggregations computed", ConstLabels: m.constLabels,
	})

	m.refreshQueueSize = gauge("refresh_queue_size", "Pending refresh requests")
	m.refreshRequests = counterVec("refresh_requests_total", "Refresh requests by outcome", "outcome")
	m.refreshDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: "refresh_duration_milliseconds",
		Help: "Snapshot refresh duration in milliseconds", Buckets: m.histogramBuckets, ConstLabels: m.constLabels,
	})

	m.systemMemoryUsage = gauge("system_memory_usage_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: "system_gc_pause_milliseconds",
		Help: "Average GC pause in milliseconds", Buckets: m.histogramBuckets, ConstLabels: m.constLabels,
	})
}

// HTTP metrics.

// RecordHTTPRequest counts one HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration observes an HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByEndpoint counts an HTTP error for an endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorByType counts an error by type and severity.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorsByType.WithLabelValues(errorType, severity).Inc()
}

// Artifact metrics.

// RecordArtifactLoad counts an artifact load attempt and observes its duration.
func RecordArtifactLoad(artifact, outcome string, durationMs float64) {
	globalManager.artifactLoads.WithLabelValues(artifact, outcome).Inc()
	globalManager.artifactLoadDuration.WithLabelValues(artifact).Observe(durationMs)
}

// RecordRecordsDropped adds n dropped records for a reason.
func RecordRecordsDropped(artifact, reason string, n int) {
	if n <= 0 {
		return
	}
	globalManager.recordsDropped.WithLabelValues(artifact, reason).Add(float64(n))
}

// UpdateSnapshot records the size and publish time of the current snapshot.
func UpdateSnapshot(races int, loadedUnix int64) {
	globalManager.snapshotRaces.Set(float64(races))
	globalManager.snapshotAgeUnix.Set(float64(loadedUnix))
}

// Upstream metrics.

// RecordUpstreamRequest counts a live results request and observes its latency.
func RecordUpstreamRequest(endpoint, outcome string, latencyMs float64) {
	globalManager.upstreamRequests.WithLabelValues(endpoint, outcome).Inc()
	globalManager.upstreamLatency.WithLabelValues(endpoint).Observe(latencyMs)
}

// RecordCacheLookup counts a cache hit or miss.
func RecordCacheLookup(endpoint string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	globalManager.standingsCache.WithLabelValues(endpoint, result).Inc()
}

// Domain metrics.

// RecordProjection counts a projection for a model kind.
func RecordProjection(model string) {
	globalManager.projections.WithLabelValues(model).Inc()
}

// RecordUnmatchedDrivers adds n unresolved predicted drivers.
func RecordUnmatchedDrivers(n int) {
	if n > 0 {
		globalManager.unmatchedDrivers.Add(float64(n))
	}
}

// RecordAggregation counts one metric aggregation.
func RecordAggregation() {
	globalManager.aggregations.Inc()
}

// Refresh metrics.

// UpdateRefreshQueueSize sets the number of pending refresh requests.
func UpdateRefreshQueueSize(size int) {
	globalManager.refreshQueueSize.Set(float64(size))
}

// RecordRefreshRequest counts a refresh request by outcome
// (accepted, rejected, succeeded, failed).
func RecordRefreshRequest(outcome string) {
	globalManager.refreshRequests.WithLabelValues(outcome).Inc()
}

// RecordRefreshDuration observes a refresh duration.
func RecordRefreshDuration(durationMs float64) {
	globalManager.refreshDuration.Observe(durationMs)
}

// System metrics.

// UpdateSystemMemoryUsage sets heap bytes allocated.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime observes an average GC pause in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the registry the global metrics are registered on.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
