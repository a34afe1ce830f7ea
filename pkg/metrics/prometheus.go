// Package metrics provides Prometheus metrics for the brevet grade analyzer.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
	defaultNamespace       = "brevet"
	defaultSubsystem       = "analyzer"
)

// Analysis outcomes used as label values.
const (
	OutcomeSuccess          = "success"
	OutcomeInsufficientData = "insufficient_data"
	OutcomeRejected         = "rejected"
)

// Manager manages all Prometheus metrics for the analyzer.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Analysis metrics
	analyses              *prometheus.CounterVec
	evaluationsNormalized prometheus.Counter
	evaluationsSkipped    *prometheus.CounterVec
	analysisLatency       prometheus.Histogram
	lastSocle             prometheus.Gauge
	lastSubjectCount      prometheus.Gauge

	// Batch queue metrics
	queueSize       prometheus.Gauge
	queueCapacity   prometheus.Gauge
	queueEnqueued   prometheus.Counter
	queueDequeued   prometheus.Counter
	queueRejections *prometheus.CounterVec

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error Metrics
	errorRateByType     *prometheus.CounterVec
	errorRateByEndpoint *prometheus.CounterVec
	errorLatency        *prometheus.HistogramVec

	// System Performance Metrics
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
		namespace:        defaultNamespace,
		subsystem:        defaultSubsystem,
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// RefreshInterval reports how often periodic gauges should be refreshed.
func (m *Manager) RefreshInterval() time.Duration { return m.refreshInterval }

// Enabled reports whether recording is active.
func (m *Manager) Enabled() bool { return m.enabled }

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.customLabels,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.analyses = auto.NewCounterVec(
		m.counterOpts("analyses_total", "Total number of analyses by outcome"),
		[]string{"outcome"},
	)

	m.evaluationsNormalized = auto.NewCounter(
		m.counterOpts("evaluations_normalized_total", "Total number of evaluations converted to points"),
	)

	m.evaluationsSkipped = auto.NewCounterVec(
		m.counterOpts("evaluations_skipped_total", "Total number of evaluations skipped by reason"),
		[]string{"reason"},
	)

	m.analysisLatency = auto.NewHistogram(
		m.histogramOpts("analysis_latency_milliseconds", "Histogram of analysis latency in milliseconds", m.histogramBuckets),
	)

	m.lastSocle = auto.NewGauge(
		m.gaugeOpts("last_socle_points", "Socle score out of 400 of the most recent successful analysis"),
	)

	m.lastSubjectCount = auto.NewGauge(
		m.gaugeOpts("last_subject_count", "Number of subjects in the most recent successful analysis"),
	)

	m.queueSize = auto.NewGauge(
		m.gaugeOpts("queue_size", "Current number of batch jobs waiting in the queue"),
	)

	m.queueCapacity = auto.NewGauge(
		m.gaugeOpts("queue_capacity", "Capacity of the batch job queue"),
	)

	m.queueEnqueued = auto.NewCounter(
		m.counterOpts("queue_enqueued_total", "Total number of batch jobs enqueued"),
	)

	m.queueDequeued = auto.NewCounter(
		m.counterOpts("queue_dequeued_total", "Total number of batch jobs handed to workers"),
	)

	m.queueRejections = auto.NewCounterVec(
		m.counterOpts("queue_rejections_total", "Total number of batch jobs refused by the queue"),
		[]string{"reason"},
	)

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorRateByType = auto.NewCounterVec(
		m.counterOpts("errors_by_type_total", "Total number of errors by type and severity"),
		[]string{"error_type", "severity"},
	)

	m.errorRateByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "Total number of errors by HTTP endpoint"),
		[]string{"endpoint", "method", "error_type"},
	)

	m.errorLatency = auto.NewHistogramVec(
		m.histogramOpts("error_latency_milliseconds", "Latency of requests that ended in an error", m.histogramBuckets),
		[]string{"component", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(
		m.gaugeOpts("system_memory_usage_bytes", "Current heap allocation in bytes"),
	)

	m.systemGoroutineCount = auto.NewGauge(
		m.gaugeOpts("system_goroutine_count", "Current number of goroutines"),
	)

	m.systemGCPauseTime = auto.NewHistogram(
		m.histogramOpts("system_gc_pause_milliseconds", "Average GC pause time in milliseconds",
			[]float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 50}),
	)
}

// Analysis metrics

// RecordAnalysis counts one analysis with the given outcome.
func RecordAnalysis(outcome string) {
	if globalManager.enabled {
		globalManager.analyses.WithLabelValues(outcome).Inc()
	}
}

// RecordEvaluationsNormalized adds n normalized evaluations.
func RecordEvaluationsNormalized(n int) {
	if globalManager.enabled && n > 0 {
		globalManager.evaluationsNormalized.Add(float64(n))
	}
}

// RecordEvaluationSkipped counts one skipped evaluation.
func RecordEvaluationSkipped(reason string) {
	if globalManager.enabled {
		globalManager.evaluationsSkipped.WithLabelValues(reason).Inc()
	}
}

// RecordAnalysisLatency records the analysis latency.
func RecordAnalysisLatency(latencyMs float64) {
	if globalManager.enabled {
		globalManager.analysisLatency.Observe(latencyMs)
	}
}

// UpdateLastSocle records the socle of the latest successful analysis.
func UpdateLastSocle(socle float64) {
	if globalManager.enabled {
		globalManager.lastSocle.Set(socle)
	}
}

// UpdateLastSubjectCount records the subject count of the latest successful analysis.
func UpdateLastSubjectCount(count int) {
	if globalManager.enabled {
		globalManager.lastSubjectCount.Set(float64(count))
	}
}

// HTTP metrics

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if globalManager.enabled {
		globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if globalManager.enabled {
		globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
	}
}

// Error metrics

// RecordErrorByType records an error by type and severity.
func RecordErrorByType(errorType, severity string) {
	if globalManager.enabled {
		globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
	}
}

// RecordErrorByEndpoint records an error by HTTP endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if globalManager.enabled {
		globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
	}
}

// RecordErrorLatency records latency for operations that resulted in errors.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	if globalManager.enabled {
		globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
	}
}

// Batch queue metrics

// UpdateQueueSize sets the number of queued batch jobs.
func UpdateQueueSize(size int) {
	if globalManager.enabled {
		globalManager.queueSize.Set(float64(size))
	}
}

// UpdateQueueCapacity sets the batch queue capacity.
func UpdateQueueCapacity(capacity int) {
	if globalManager.enabled {
		globalManager.queueCapacity.Set(float64(capacity))
	}
}

// RecordQueueEnqueue counts one enqueued job.
func RecordQueueEnqueue() {
	if globalManager.enabled {
		globalManager.queueEnqueued.Inc()
	}
}

// RecordQueueDequeue counts one dequeued job.
func RecordQueueDequeue() {
	if globalManager.enabled {
		globalManager.queueDequeued.Inc()
	}
}

// RecordQueueRejection counts one refused job (closed, full, cancelled).
func RecordQueueRejection(reason string) {
	if globalManager.enabled {
		globalManager.queueRejections.WithLabelValues(reason).Inc()
	}
}

// System metrics

// UpdateSystemMemoryUsage updates the system memory usage.
func UpdateSystemMemoryUsage(bytes uint64) {
	if globalManager.enabled {
		globalManager.systemMemoryUsage.Set(float64(bytes))
	}
}

// UpdateSystemGoroutineCount updates the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	if globalManager.enabled {
		globalManager.systemGoroutineCount.Set(float64(count))
	}
}

// RecordSystemGCPauseTime records GC pause time.
func RecordSystemGCPauseTime(pauseMs float64) {
	if globalManager.enabled {
		globalManager.systemGCPauseTime.Observe(pauseMs)
	}
}

// Configure replaces the global manager with one built from opts on a fresh
// registry, so names may change without duplicate registration. Call it before
// recording starts: recorders read the global without locking.
func Configure(opts ...Option) *Manager {
	registry := prometheus.NewRegistry()
	all := make([]Option, 0, len(opts)+1)
	all = append(all, opts...)
	globalManager = NewManager(append(all, WithPrometheusRegistry(registry))...)
	customRegistry = registry
	return globalManager
}

// GetRegistry returns the registry the global manager publishes to.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Global returns the process-wide manager.
func Global() *Manager {
	return globalManager
}
