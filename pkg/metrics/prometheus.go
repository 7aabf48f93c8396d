// Package metrics provides Prometheus metrics for the wastewise service.
package metrics

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager owns every Prometheus collector exported by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          atomic.Bool
	refreshInterval  time.Duration
	registry         prometheus.Registerer

	// Aggregate store
	wasteLogsAppended  prometheus.Counter
	wasteWeightKg      prometheus.Counter
	validationErrors   prometheus.Counter
	storageErrors      *prometheus.CounterVec
	bucketMisses       *prometheus.CounterVec
	unknownBusinesses  prometheus.Counter
	leaderboardReranks prometheus.Counter
	storeResets        prometheus.Counter
	duplicateSubmits   prometheus.Counter
	appendLatency      prometheus.Histogram
	storageLatency     *prometheus.HistogramVec

	// View sizes
	leaderboardSize prometheus.Gauge
	wasteLogCount   prometheus.Gauge
	totalWasteKg    prometheus.Gauge
	co2EmissionsKg  prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpRateLimited     *prometheus.CounterVec

	// Mirror queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueueRate   prometheus.Counter
	queueDequeueRate   prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Mirror workers
	workerCount             prometheus.Gauge
	mirrorForwarded         prometheus.Counter
	mirrorFailures          prometheus.Counter
	workerProcessingLatency prometheus.Histogram

	// Remote backend client
	remoteRequests *prometheus.CounterVec
	remoteLatency  *prometheus.HistogramVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "wastewise",
		subsystem:        "aggregate",
		histogramBuckets: prometheus.DefBuckets,
		refreshInterval:  defaultRefreshInterval,
		registry:         prometheus.DefaultRegisterer,
	}
	m.enabled.Store(true)

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counterOpts(n, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      n,
		Help:      help,
	}
}

func (m *Manager) gaugeOpts(n, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      n,
		Help:      help,
	}
}

func (m *Manager) histogramOpts(n, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      n,
		Help:      help,
		Buckets:   m.histogramBuckets,
	}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.wasteLogsAppended = auto.NewCounter(m.counterOpts("waste_logs_appended_total", "Total number of waste log entries appended"))
	m.wasteWeightKg = auto.NewCounter(m.counterOpts("waste_weight_kg_total", "Total waste weight appended in kilograms"))
	m.validationErrors = auto.NewCounter(m.counterOpts("validation_errors_total", "Total number of rejected submissions"))
	m.storageErrors = auto.NewCounterVec(m.counterOpts("storage_errors_total", "Total number of persistence failures by operation"), []string{"op"})
	m.bucketMisses = auto.NewCounterVec(m.counterOpts("bucket_misses_total", "Appends whose time bucket had no matching label"), []string{"series"})
	m.unknownBusinesses = auto.NewCounter(m.counterOpts("unknown_business_total", "Appends for businesses absent from the leaderboard"))
	m.leaderboardReranks = auto.NewCounter(m.counterOpts("leaderboard_reranks_total", "Total number of full leaderboard re-ranks"))
	m.storeResets = auto.NewCounter(m.counterOpts("store_resets_total", "Total number of store resets"))
	m.duplicateSubmits = auto.NewCounter(m.counterOpts("duplicate_submissions_total", "Submissions rejected by idempotency key"))
	m.appendLatency = auto.NewHistogram(m.histogramOpts("append_latency_milliseconds", "Append latency in milliseconds"))
	m.storageLatency = auto.NewHistogramVec(m.histogramOpts("storage_latency_milliseconds", "Key-value storage latency in milliseconds"), []string{"op"})

	m.leaderboardSize = auto.NewGauge(m.gaugeOpts("leaderboard_size", "Number of leaderboard rows"))
	m.wasteLogCount = auto.NewGauge(m.gaugeOpts("waste_log_count", "Number of stored waste log entries"))
	m.totalWasteKg = auto.NewGauge(m.gaugeOpts("total_waste_kg", "Current total waste in the metrics snapshot"))
	m.co2EmissionsKg = auto.NewGauge(m.gaugeOpts("co2_emissions_kg", "Current CO2 emissions in the metrics snapshot"))

	m.httpRequests = auto.NewCounterVec(m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"), []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds"), []string{"endpoint", "method", "status_code"})
	m.httpRateLimited = auto.NewCounterVec(m.counterOpts("http_rate_limited_total", "Requests rejected by the rate limiter"), []string{"endpoint"})

	m.queueSize = auto.NewGauge(m.gaugeOpts("mirror_queue_size", "Current size of the mirror queue"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("mirror_queue_capacity", "Maximum mirror queue capacity"))
	m.queueUtilization = auto.NewGauge(m.gaugeOpts("mirror_queue_utilization_ratio", "Mirror queue utilization ratio"))
	m.queueEnqueueRate = auto.NewCounter(m.counterOpts("mirror_queue_enqueue_total", "Total number of mirror jobs enqueued"))
	m.queueDequeueRate = auto.NewCounter(m.counterOpts("mirror_queue_dequeue_total", "Total number of mirror jobs dequeued"))
	m.queueEnqueueErrors = auto.NewCounter(m.counterOpts("mirror_queue_enqueue_errors_total", "Mirror jobs dropped at enqueue"))

	m.workerCount = auto.NewGauge(m.gaugeOpts("mirror_worker_count", "Number of mirror workers"))
	m.mirrorForwarded = auto.NewCounter(m.counterOpts("mirror_forwarded_total", "Submissions forwarded to the hosted backend"))
	m.mirrorFailures = auto.NewCounter(m.counterOpts("mirror_failures_total", "Submissions the hosted backend rejected or never received"))
	m.workerProcessingLatency = auto.NewHistogram(m.histogramOpts("mirror_worker_latency_milliseconds", "Mirror worker processing latency in milliseconds"))

	m.remoteRequests = auto.NewCounterVec(m.counterOpts("remote_requests_total", "Requests sent to the hosted backend"), []string{"endpoint", "outcome"})
	m.remoteLatency = auto.NewHistogramVec(m.histogramOpts("remote_latency_milliseconds", "Hosted backend request latency in milliseconds"), []string{"endpoint"})

	m.errorRateByComponent = auto.NewCounterVec(m.counterOpts("errors_by_component_total", "Total number of errors by component"), []string{"component", "error_type"})
	m.errorRateByEndpoint = auto.NewCounterVec(m.counterOpts("errors_by_endpoint_total", "Total number of errors by endpoint"), []string{"endpoint", "method", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "System memory usage in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_gc_pause_time_milliseconds",
		Help:      "GC pause time in milliseconds",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	})
}

// Aggregate store.

// RecordWasteLogAppended counts one appended entry and its weight.
func RecordWasteLogAppended(weightKg float64) {
	if !active() {
		return
	}
	globalManager.wasteLogsAppended.Inc()
	if weightKg > 0 {
		globalManager.wasteWeightKg.Add(weightKg)
	}
}

// RecordValidationError increments the rejected submission counter.
func RecordValidationError() {
	if !active() {
		return
	}
	globalManager.validationErrors.Inc()
}

// RecordStorageError increments the storage error counter for op.
func RecordStorageError(op string) {
	if !active() {
		return
	}
	globalManager.storageErrors.WithLabelValues(op).Inc()
}

// RecordBucketMiss counts an append whose label was absent from series.
func RecordBucketMiss(series string) {
	if !active() {
		return
	}
	globalManager.bucketMisses.WithLabelValues(series).Inc()
}

// RecordUnknownBusiness counts an append for a business without a leaderboard row.
func RecordUnknownBusiness() {
	if !active() {
		return
	}
	globalManager.unknownBusinesses.Inc()
}

// RecordLeaderboardRerank increments the re-rank counter.
func RecordLeaderboardRerank() {
	if !active() {
		return
	}
	globalManager.leaderboardReranks.Inc()
}

// RecordStoreReset increments the reset counter.
func RecordStoreReset() {
	if !active() {
		return
	}
	globalManager.storeResets.Inc()
}

// RecordDuplicateSubmission increments the duplicate submission counter.
func RecordDuplicateSubmission() {
	if !active() {
		return
	}
	globalManager.duplicateSubmits.Inc()
}

// RecordAppendLatency records append latency in milliseconds.
func RecordAppendLatency(latencyMs float64) {
	if !active() {
		return
	}
	globalManager.appendLatency.Observe(latencyMs)
}

// RecordStorageLatency records key-value storage latency in milliseconds.
func RecordStorageLatency(op string, latencyMs float64) {
	if !active() {
		return
	}
	globalManager.storageLatency.WithLabelValues(op).Observe(latencyMs)
}

// View sizes.

// UpdateLeaderboardSize sets the number of leaderboard rows.
func UpdateLeaderboardSize(n int) {
	if !active() {
		return
	}
	globalManager.leaderboardSize.Set(float64(n))
}

// UpdateWasteLogCount sets the number of stored log entries.
func UpdateWasteLogCount(n int) {
	if !active() {
		return
	}
	globalManager.wasteLogCount.Set(float64(n))
}

// UpdateTotals sets the total waste and CO2 gauges.
func UpdateTotals(totalWasteKg, co2Kg float64) {
	if !active() {
		return
	}
	globalManager.totalWasteKg.Set(totalWasteKg)
	globalManager.co2EmissionsKg.Set(co2Kg)
}

// HTTP.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if !active() {
		return
	}
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if !active() {
		return
	}
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordHTTPRateLimited counts a request rejected by the limiter.
func RecordHTTPRateLimited(endpoint string) {
	if !active() {
		return
	}
	globalManager.httpRateLimited.WithLabelValues(endpoint).Inc()
}

// Mirror queue.

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	if !active() {
		return
	}
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	if !active() {
		return
	}
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	if !active() {
		return
	}
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	if !active() {
		return
	}
	globalManager.queueEnqueueRate.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	if !active() {
		return
	}
	globalManager.queueDequeueRate.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	if !active() {
		return
	}
	globalManager.queueEnqueueErrors.Inc()
}

// Mirror workers.

// UpdateWorkerCount sets the current worker count.
func UpdateWorkerCount(count int) {
	if !active() {
		return
	}
	globalManager.workerCount.Set(float64(count))
}

// RecordMirrorForwarded counts a submission accepted by the hosted backend.
func RecordMirrorForwarded() {
	if !active() {
		return
	}
	globalManager.mirrorForwarded.Inc()
}

// RecordMirrorFailure counts a submission the hosted backend did not accept.
func RecordMirrorFailure() {
	if !active() {
		return
	}
	globalManager.mirrorFailures.Inc()
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	if !active() {
		return
	}
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// Remote backend.

// RecordRemoteRequest records one hosted backend call and its latency.
func RecordRemoteRequest(endpoint, outcome string, latencyMs float64) {
	if !active() {
		return
	}
	globalManager.remoteRequests.WithLabelValues(endpoint, outcome).Inc()
	globalManager.remoteLatency.WithLabelValues(endpoint).Observe(latencyMs)
}

// Errors.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	if !active() {
		return
	}
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if !active() {
		return
	}
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// System.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	if !active() {
		return
	}
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	if !active() {
		return
	}
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	if !active() {
		return
	}
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// SetEnabled turns every Record and Update helper on or off. Collectors
// stay registered and keep their last values.
func SetEnabled(on bool) {
	globalManager.enabled.Store(on)
}

// Enabled reports whether the helpers record anything.
func Enabled() bool { return active() }

func active() bool { return globalManager.enabled.Load() }

// SetRefreshInterval changes how often background gauges are refreshed.
// Non-positive values are ignored. Call it before starting the updater.
func SetRefreshInterval(d time.Duration) {
	if d > 0 {
		globalManager.refreshInterval = d
	}
}

// RefreshInterval reports how often background gauges should be refreshed.
func RefreshInterval() time.Duration {
	return globalManager.refreshInterval
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
