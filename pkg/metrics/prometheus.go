// Package metrics provides Prometheus metrics for the jasstafel service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace   string
	subsystem   string
	syncBuckets []float64
	httpBuckets []float64
	constLabels prometheus.Labels
	registry    prometheus.Registerer

	// Game metrics
	gamesStarted        prometheus.Counter
	gamesClosed         *prometheus.CounterVec
	activeSessions      prometheus.Gauge
	roundsFinalized     prometheus.Counter
	roundsDiscarded     prometheus.Counter
	edits               *prometheus.CounterVec
	strokesAwarded      *prometheus.CounterVec
	strokeConflicts     prometheus.Counter
	invalidDeclarations prometheus.Counter
	duplicateRequests   prometheus.Counter

	// Sync queue metrics
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueDequeued      prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Sync worker and store metrics
	workerActiveCount  prometheus.Gauge
	syncLatency        prometheus.Histogram
	snapshotsPersisted prometheus.Counter
	syncErrors         prometheus.Counter
	storedGames        prometheus.Gauge

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	errorsByComponent *prometheus.CounterVec
}

// Default latency buckets in milliseconds.
var (
	defaultSyncBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100} //nolint:gochecknoglobals // bucket layout
	defaultHTTPBuckets = []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000}  //nolint:gochecknoglobals // bucket layout
)

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid the default registerer.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	customRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:   "jasstafel",
		subsystem:   "core",
		syncBuckets: defaultSyncBuckets,
		httpBuckets: defaultHTTPBuckets,
		registry:    prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) initializeMetrics() {
	m.gamesStarted = m.counter("games_started_total", "Games started")
	m.gamesClosed = m.counterVec("games_closed_total", "Games closed by outcome (ended, aborted)", "outcome")
	m.activeSessions = m.gauge("active_sessions", "Sessions currently holding a game")
	m.roundsFinalized = m.counter("rounds_finalized_total", "Rounds appended to a ledger, edits included")
	m.roundsDiscarded = m.counter("rounds_discarded_total", "Rounds removed by confirmed edits")
	m.edits = m.counterVec("edits_total", "Edit-from-the-past workflow transitions", "outcome")
	m.strokesAwarded = m.counterVec("strokes_awarded_total", "Stroke marks written on finalized rounds", "kind")
	m.strokeConflicts = m.counter("stroke_conflicts_total", "Rejected stroke declarations")
	m.invalidDeclarations = m.counter("invalid_declarations_total", "Rejected round declarations")
	m.duplicateRequests = m.counter("duplicate_requests_total", "Round submissions acknowledged as duplicates")

	m.queueSize = m.gauge("sync_queue_size", "Snapshots waiting for the sync workers")
	m.queueCapacity = m.gauge("sync_queue_capacity", "Maximum number of queued snapshots")
	m.queueUtilization = m.gauge("sync_queue_utilization_ratio", "Queue size divided by capacity")
	m.queueEnqueued = m.counter("sync_queue_enqueued_total", "Snapshots enqueued")
	m.queueDequeued = m.counter("sync_queue_dequeued_total", "Snapshots dequeued")
	m.queueEnqueueErrors = m.counter("sync_queue_enqueue_errors_total", "Snapshots dropped at enqueue")

	m.workerActiveCount = m.gauge("sync_workers", "Running sync workers")
	m.syncLatency = promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "sync_latency_milliseconds",
		Help:        "Time to persist one snapshot",
		Buckets:     m.syncBuckets,
		ConstLabels: m.constLabels,
	})
	m.snapshotsPersisted = m.counter("snapshots_persisted_total", "Snapshots written to the store")
	m.syncErrors = m.counter("sync_errors_total", "Snapshots the store rejected")
	m.storedGames = m.gauge("stored_games", "Games held by the snapshot store")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint and method",
		"endpoint", "method", "status_code")
	m.httpRequestDuration = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		Buckets:     m.httpBuckets,
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = m.counterVec("errors_total", "Errors by component and type", "component", "error_type")
}

// Game metrics.

// RecordGameStarted counts a started game and bumps the active sessions.
func RecordGameStarted() {
	globalManager.gamesStarted.Inc()
	globalManager.activeSessions.Inc()
}

// RecordGameClosed counts a closed game.
func RecordGameClosed(outcome string) {
	globalManager.gamesClosed.WithLabelValues(outcome).Inc()
	globalManager.activeSessions.Dec()
}

// RecordRoundFinalized counts an appended round and its stroke marks.
func RecordRoundFinalized(marksByKind map[string]int) {
	globalManager.roundsFinalized.Inc()
	for kind, marks := range marksByKind {
		globalManager.strokesAwarded.WithLabelValues(kind).Add(float64(marks))
	}
}

// RecordRoundsDiscarded adds rounds dropped by a confirmed edit.
func RecordRoundsDiscarded(n int) {
	if n > 0 {
		globalManager.roundsDiscarded.Add(float64(n))
	}
}

// RecordEdit counts an edit workflow transition: requested, confirmed or cancelled.
func RecordEdit(outcome string) {
	globalManager.edits.WithLabelValues(outcome).Inc()
}

// RecordStrokeConflict counts a rejected stroke declaration.
func RecordStrokeConflict() {
	globalManager.strokeConflicts.Inc()
}

// RecordInvalidDeclaration counts a rejected round declaration.
func RecordInvalidDeclaration() {
	globalManager.invalidDeclarations.Inc()
}

// RecordDuplicateRequest counts an idempotent replay.
func RecordDuplicateRequest() {
	globalManager.duplicateRequests.Inc()
}

// Sync queue metrics.

// UpdateQueueSize sets the current queue size and utilization.
func UpdateQueueSize(size, capacity int) {
	globalManager.queueSize.Set(float64(size))
	if capacity > 0 {
		globalManager.queueUtilization.Set(float64(size) / float64(capacity))
	}
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeued.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// Sync worker and store metrics.

// UpdateWorkerActiveCount sets the number of running sync workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// RecordSyncLatency records how long a snapshot took to persist.
func RecordSyncLatency(latencyMs float64) {
	globalManager.syncLatency.Observe(latencyMs)
}

// RecordSnapshotPersisted counts a stored snapshot.
func RecordSnapshotPersisted() {
	globalManager.snapshotsPersisted.Inc()
}

// RecordSyncError counts a snapshot the store rejected.
func RecordSyncError() {
	globalManager.syncErrors.Inc()
}

// UpdateStoredGames sets the number of games held by the store.
func UpdateStoredGames(count int) {
	globalManager.storedGames.Set(float64(count))
}

// HTTP metrics.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
