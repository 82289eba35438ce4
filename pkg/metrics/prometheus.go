// Package metrics provides Prometheus metrics for the resume analysis service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Analysis outcomes.
const (
	OutcomeAnalyzed  = "analyzed"
	OutcomeFailed    = "failed"
	OutcomeRetried   = "retried"
	OutcomeDropped   = "dropped"
	OutcomeDuplicate = "duplicate"
)

// Suggestion paths.
const (
	PathLLM      = "llm"
	PathFallback = "fallback"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Pipeline
	submissions        prometheus.Counter
	analyses           *prometheus.CounterVec
	analysisLatency    prometheus.Histogram
	stageLatency       *prometheus.HistogramVec
	duplicates         prometheus.Counter
	rolesCreated       prometheus.Counter
	candidatesByStatus *prometheus.GaugeVec

	// Suggestions
	suggestions       *prometheus.CounterVec
	suggestionLatency prometheus.Histogram

	// Queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueue       prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Workers
	workerCount  prometheus.Gauge
	workerErrors *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "resumatch",
		subsystem:        "analysis",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
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
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels, Name: name, Help: help,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels, Name: name, Help: help,
	})
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels, Name: name, Help: help, Buckets: m.histogramBuckets,
	})
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.submissions = m.counter("submissions_total", "Total number of resumes accepted for analysis")
	m.analyses = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name: "tasks_total",
		Help: "Analysis task executions by outcome",
	}, []string{"outcome"})
	m.analysisLatency = m.histogram("task_latency_milliseconds", "End-to-end analysis task latency in milliseconds")
	m.stageLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name:    "stage_latency_milliseconds",
		Help:    "Latency of individual pipeline stages in milliseconds",
		Buckets: m.histogramBuckets,
	}, []string{"stage"})
	m.duplicates = m.counter("duplicate_deliveries_total", "Deliveries skipped because the candidate was already handled")
	m.rolesCreated = m.counter("roles_created_total", "Total number of role profiles created")
	m.candidatesByStatus = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name: "candidates",
		Help: "Number of candidate records by status",
	}, []string{"status"})

	m.suggestions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name: "suggestions_total",
		Help: "Suggestion requests by generation path",
	}, []string{"path"})
	m.suggestionLatency = m.histogram("suggestion_latency_milliseconds", "Suggestion generation latency in milliseconds")

	m.queueSize = m.gauge("queue_size", "Current number of tasks waiting in the queue")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum queue capacity")
	m.queueEnqueue = m.counter("queue_enqueue_total", "Total number of tasks enqueued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Total number of enqueue errors")

	m.workerCount = m.gauge("worker_count", "Current number of running workers")
	m.workerErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name: "worker_errors_total",
		Help: "Worker errors by kind",
	}, []string{"kind"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name: "http_requests_total",
		Help: "Total number of HTTP requests by endpoint and method",
	}, []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name:    "http_request_duration_milliseconds",
		Help:    "HTTP request duration in milliseconds",
		Buckets: m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})
}

// RecordSubmission increments the accepted submission counter.
func RecordSubmission() { globalManager.submissions.Inc() }

// RecordAnalysis counts one task execution with the given outcome.
func RecordAnalysis(outcome string) { globalManager.analyses.WithLabelValues(outcome).Inc() }

// RecordAnalysisLatency records end-to-end task latency.
func RecordAnalysisLatency(latencyMs float64) { globalManager.analysisLatency.Observe(latencyMs) }

// RecordStageLatency records latency for one pipeline stage (decode, extract, embed, score, persist).
func RecordStageLatency(stage string, latencyMs float64) {
	globalManager.stageLatency.WithLabelValues(stage).Observe(latencyMs)
}

// RecordDuplicate increments the duplicate delivery counter.
func RecordDuplicate() { globalManager.duplicates.Inc() }

// RecordRoleCreated increments the role counter.
func RecordRoleCreated() { globalManager.rolesCreated.Inc() }

// UpdateCandidates sets the number of candidates for a status.
func UpdateCandidates(status string, count int) {
	globalManager.candidatesByStatus.WithLabelValues(status).Set(float64(count))
}

// RecordSuggestion counts one suggestion request served by path.
func RecordSuggestion(path string) { globalManager.suggestions.WithLabelValues(path).Inc() }

// RecordSuggestionLatency records suggestion latency.
func RecordSuggestionLatency(latencyMs float64) { globalManager.suggestionLatency.Observe(latencyMs) }

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) { globalManager.queueSize.Set(float64(size)) }

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() { globalManager.queueEnqueue.Inc() }

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() { globalManager.queueEnqueueErrors.Inc() }

// UpdateWorkerCount sets the current worker count.
func UpdateWorkerCount(count int) { globalManager.workerCount.Set(float64(count)) }

// RecordWorkerError counts a worker error of the given kind.
func RecordWorkerError(kind string) { globalManager.workerErrors.WithLabelValues(kind).Inc() }

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
