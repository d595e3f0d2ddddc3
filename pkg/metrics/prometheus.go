// Package metrics provides Prometheus metrics for the chatgraph pipeline.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every metric of the pipeline.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Ingestion
	conversations *prometheus.CounterVec
	events        *prometheus.CounterVec
	duplicates    *prometheus.CounterVec

	// Aggregation
	persons    prometheus.Gauge
	activeDays prometheus.Gauge

	// Timing
	stageDuration    *prometheus.HistogramVec
	smoothingLatency prometheus.Histogram

	// Errors
	errors *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // registry without default Go collectors

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "chatgraph",
		subsystem:        "pipeline",
		histogramBuckets: []float64{0.1, 0.5, 1, 5, 10, 50, 100, 500, 1000, 5000},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.conversations = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "conversations_total",
		Help:      "Conversations read by source and outcome (credited or skip reason)",
	}, []string{"source", "outcome"})

	m.events = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_total",
		Help:      "Canonical events produced by source",
	}, []string{"source"})

	m.duplicates = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "duplicate_messages_total",
		Help:      "Messages suppressed as duplicates by source",
	}, []string{"source"})

	m.persons = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "persons",
		Help:      "People with at least one credited message",
	})

	m.activeDays = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "active_person_days",
		Help:      "Number of (person, day) pairs with activity",
	})

	m.stageDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "stage_duration_milliseconds",
		Help:      "Wall time of each pipeline stage in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"stage"})

	m.smoothingLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "smoothing_latency_milliseconds",
		Help:      "Time to smooth one person's series in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.errors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_total",
		Help:      "Errors by component and type",
	}, []string{"component", "error_type"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "HTTP requests by endpoint, method and status code",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})
}

// RecordConversations adds n conversations read from source with outcome.
func RecordConversations(source, outcome string, n int) {
	if n <= 0 {
		return
	}
	globalManager.conversations.WithLabelValues(source, outcome).Add(float64(n))
}

// RecordEvents adds n produced events for source.
func RecordEvents(source string, n int) {
	globalManager.events.WithLabelValues(source).Add(float64(n))
}

// RecordDuplicates adds n suppressed duplicate messages for source.
func RecordDuplicates(source string, n int) {
	globalManager.duplicates.WithLabelValues(source).Add(float64(n))
}

// UpdatePersons sets the number of aggregated people.
func UpdatePersons(n int) {
	globalManager.persons.Set(float64(n))
}

// UpdateActiveDays sets the number of active person-days.
func UpdateActiveDays(n int) {
	globalManager.activeDays.Set(float64(n))
}

// ObserveStage records how long a pipeline stage took.
func ObserveStage(stage string, d time.Duration) {
	globalManager.stageDuration.WithLabelValues(stage).Observe(float64(d) / float64(time.Millisecond))
}

// RecordSmoothingLatency records the time spent smoothing one series.
func RecordSmoothingLatency(latencyMs float64) {
	globalManager.smoothingLatency.Observe(latencyMs)
}

// RecordError counts an error by component and type.
func RecordError(component, errorType string) {
	globalManager.errors.WithLabelValues(component, errorType).Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// WriteTextfile writes the registry to path in the Prometheus text format,
// for collection by a node exporter textfile collector after a batch run.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, customRegistry); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	return nil
}
