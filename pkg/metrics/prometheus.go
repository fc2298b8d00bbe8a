// Package metrics provides Prometheus metrics for the surf rating service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the rating service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Ranking data
	rankingsLoaded     prometheus.Counter
	rankingLoadErrors  prometheus.Counter
	rankingLoadLatency prometheus.Histogram
	rankingsTotal      prometheus.Gauge
	athletesTotal      prometheus.Gauge
	bestResultNoData   prometheus.Counter

	// Generator ingest
	rowsIngested  prometheus.Counter
	rowsDuplicate prometheus.Counter
	rowsSkipped   *prometheus.CounterVec

	// Reload queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueue       prometheus.Counter
	queueDequeue       prometheus.Counter
	queueEnqueueErrors *prometheus.CounterVec

	// Workers
	workerCount             prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByEndpoint *prometheus.CounterVec
	errorRateByType     *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "surfrating",
		subsystem:        "",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: m.histogramBuckets,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	}, labels)
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	m.rankingsLoaded = m.counter("rankings_loaded_total", "Ranking documents loaded into the store")
	m.rankingLoadErrors = m.counter("ranking_load_errors_total", "Ranking documents that failed to load")
	m.rankingLoadLatency = m.histogram("ranking_load_latency_milliseconds", "Time to fetch, decode and store one ranking")
	m.rankingsTotal = m.gauge("rankings", "Rankings currently served")
	m.athletesTotal = m.gauge("athletes", "Athletes across all served rankings")
	m.bestResultNoData = m.counter("best_result_no_data_total", "Athletes for which no best result could be selected")

	m.rowsIngested = m.counter("rows_ingested_total", "Result rows read from source files")
	m.rowsDuplicate = m.counter("rows_duplicate_total", "Result rows repeating an athlete/year/event already seen")
	m.rowsSkipped = m.counterVec("rows_skipped_total", "Result rows dropped by filters", "reason")

	m.queueSize = m.gauge("queue_size", "Current number of pending reload jobs")
	m.queueCapacity = m.gauge("queue_capacity", "Reload queue capacity")
	m.queueEnqueue = m.counter("queue_enqueue_total", "Reload jobs enqueued")
	m.queueDequeue = m.counter("queue_dequeue_total", "Reload jobs dequeued")
	m.queueEnqueueErrors = m.counterVec("queue_enqueue_errors_total", "Reload jobs rejected by the queue", "reason")

	m.workerCount = m.gauge("worker_count", "Reload workers running")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "Reload job processing time")
	m.workerErrors = m.counter("worker_errors_total", "Reload jobs that ended with an error")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total", "HTTP errors by endpoint", "endpoint", "method", "error_type")
	m.errorRateByType = m.counterVec("errors_by_type_total", "Errors by type and severity", "error_type", "severity")

	m.systemMemoryUsage = m.gauge("system_memory_bytes", "Allocated heap bytes")
	m.systemGoroutineCount = m.gauge("system_goroutines", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_milliseconds", "Average GC pause")
}

// Ranking data.

func RecordRankingLoaded()                 { globalManager.rankingsLoaded.Inc() }
func RecordRankingLoadError()              { globalManager.rankingLoadErrors.Inc() }
func RecordRankingLoadLatency(ms float64)  { globalManager.rankingLoadLatency.Observe(ms) }
func UpdateRankingsTotal(count int)        { globalManager.rankingsTotal.Set(float64(count)) }
func UpdateAthletesTotal(count int)        { globalManager.athletesTotal.Set(float64(count)) }
func RecordBestResultNoData(count int)     { globalManager.bestResultNoData.Add(float64(count)) }
func RecordRowsIngested(count int)         { globalManager.rowsIngested.Add(float64(count)) }
func RecordRowDuplicate()                  { globalManager.rowsDuplicate.Inc() }
func RecordRowSkipped(reason string)       { globalManager.rowsSkipped.WithLabelValues(reason).Inc() }

// Reload queue.

func UpdateQueueSize(size int)             { globalManager.queueSize.Set(float64(size)) }
func UpdateQueueCapacity(capacity int)     { globalManager.queueCapacity.Set(float64(capacity)) }
func RecordQueueEnqueue()                  { globalManager.queueEnqueue.Inc() }
func RecordQueueDequeue()                  { globalManager.queueDequeue.Inc() }
func RecordQueueEnqueueError(reason string) {
	globalManager.queueEnqueueErrors.WithLabelValues(reason).Inc()
}

// Workers.

func UpdateWorkerCount(count int)                { globalManager.workerCount.Set(float64(count)) }
func RecordWorkerProcessingLatency(ms float64)   { globalManager.workerProcessingLatency.Observe(ms) }
func RecordWorkerError()                         { globalManager.workerErrors.Inc() }

// HTTP.

func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// System.

func UpdateSystemMemoryUsage(bytes uint64)   { globalManager.systemMemoryUsage.Set(float64(bytes)) }
func UpdateSystemGoroutineCount(count int)   { globalManager.systemGoroutineCount.Set(float64(count)) }
func RecordSystemGCPauseTime(pauseMs float64) { globalManager.systemGCPauseTime.Observe(pauseMs) }

// GetRegistry returns the custom registry used by the package-level helpers.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
