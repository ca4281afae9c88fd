// Package metrics provides Prometheus metrics for the gradebook service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Computation outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
)

// Manager owns every gradebook metric.
type Manager struct {
	namespace    string
	subsystem    string
	httpBuckets  []float64
	storeBuckets []float64
	registry     prometheus.Registerer

	// Grading
	computations *prometheus.CounterVec
	errorsByKind *prometheus.CounterVec

	// Store
	recordsSaved  prometheus.Counter
	recordsTotal  prometheus.Gauge
	storeLatency  *prometheus.HistogramVec
	storeErrors   *prometheus.CounterVec
	chartRenders  *prometheus.CounterVec
	exportsServed prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorsByEndpoint    *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to keep the exposition limited to our metrics plus runtime.
var customRegistry *prometheus.Registry //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	Configure()
}

// Configure rebuilds the global metrics on a fresh registry with opts applied.
// It is meant for process start, before handlers capture GetRegistry.
func Configure(opts ...Option) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	customRegistry = registry
	globalManager = NewManager(append(opts, WithPrometheusRegistry(registry))...)
}

// DefaultStoreBuckets cover millisecond latencies of a local SQLite file.
var DefaultStoreBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250} //nolint:gochecknoglobals // default buckets

// NewManager creates a new metrics manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:    "gradebook",
		httpBuckets:  prometheus.DefBuckets,
		storeBuckets: DefaultStoreBuckets,
		registry:     prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.computations = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "computations_total",
		Help:      "Grade computations by outcome",
	}, []string{"outcome"})

	m.errorsByKind = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_total",
		Help:      "User-facing errors by kind (parse, validation, storage)",
	}, []string{"kind"})

	m.recordsSaved = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "records_saved_total",
		Help:      "Grade records persisted since start",
	})

	m.recordsTotal = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "records",
		Help:      "Grade records currently in the store",
	})

	m.storeLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_latency_milliseconds",
		Help:      "Store operation latency in milliseconds",
		Buckets:   m.storeBuckets,
	}, []string{"operation"})

	m.storeErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_errors_total",
		Help:      "Failed store operations",
	}, []string{"operation"})

	m.chartRenders = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "chart_renders_total",
		Help:      "Rendered averages charts by format",
	}, []string{"format"})

	m.exportsServed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "exports_total",
		Help:      "Workbook exports served",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "HTTP requests by endpoint, method and status",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.httpBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_errors_total",
		Help:      "HTTP error responses by endpoint and error type",
	}, []string{"endpoint", "method", "error_type"})
}

// RecordComputation counts a compute action by outcome.
func RecordComputation(outcome string) {
	globalManager.computations.WithLabelValues(outcome).Inc()
}

// RecordError counts a user-facing error of the given kind.
func RecordError(kind string) {
	globalManager.errorsByKind.WithLabelValues(kind).Inc()
}

// RecordRecordSaved counts a persisted record.
func RecordRecordSaved() {
	globalManager.recordsSaved.Inc()
}

// UpdateRecordsTotal sets the number of stored records.
func UpdateRecordsTotal(count int) {
	globalManager.recordsTotal.Set(float64(count))
}

// RecordStoreLatency observes a store operation latency in milliseconds.
func RecordStoreLatency(operation string, latencyMs float64) {
	globalManager.storeLatency.WithLabelValues(operation).Observe(latencyMs)
}

// RecordStoreError counts a failed store operation.
func RecordStoreError(operation string) {
	globalManager.storeErrors.WithLabelValues(operation).Inc()
}

// RecordChartRender counts a rendered chart.
func RecordChartRender(format string) {
	globalManager.chartRenders.WithLabelValues(format).Inc()
}

// RecordExport counts a served workbook export.
func RecordExport() {
	globalManager.exportsServed.Inc()
}

// RecordHTTPRequest counts an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration observes an HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByEndpoint counts an HTTP error response.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// GetRegistry returns the registry holding the global metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
