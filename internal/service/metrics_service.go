package service

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the HTTP layer
// and the scheduling engine.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	sessionsScheduled    prometheus.Counter
	schedulingFailures   prometheus.Counter
	conflictsFlagged     prometheus.Counter
	snapshotSaveTotal    prometheus.Counter
	snapshotRestoreTotal prometheus.Counter
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	sessionsScheduled := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scheduler_sessions_scheduled_total",
		Help: "Sessions placed by batch and manual scheduling",
	})

	schedulingFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scheduler_student_failures_total",
		Help: "Students whose weekly quota could not be fully scheduled",
	})

	conflictsFlagged := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scheduler_conflicts_flagged_total",
		Help: "Sessions flagged by conflict reconciliation scans",
	})

	snapshotSaves := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scheduler_snapshot_saves_total",
		Help: "Provider snapshots captured",
	})

	snapshotRestores := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scheduler_snapshot_restores_total",
		Help: "Provider snapshots restored",
	})

	registry.MustRegister(requestDuration, requestTotal, sessionsScheduled, schedulingFailures, conflictsFlagged, snapshotSaves, snapshotRestores)

	return &MetricsService{
		registry:             registry,
		handler:              promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:      requestDuration,
		requestTotal:         requestTotal,
		sessionsScheduled:    sessionsScheduled,
		schedulingFailures:   schedulingFailures,
		conflictsFlagged:     conflictsFlagged,
		snapshotSaveTotal:    snapshotSaves,
		snapshotRestoreTotal: snapshotRestores,
	}
}

// Handler exposes the Prometheus scrape endpoint.
func (m *MetricsService) Handler() http.Handler {
	return m.handler
}

// ObserveHTTPRequest records one request's latency and outcome.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	labels := []string{method, path, strconv.Itoa(status)}
	m.requestDuration.WithLabelValues(labels...).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(labels...).Inc()
}

// AddSessionsScheduled counts sessions placed by a scheduling run.
func (m *MetricsService) AddSessionsScheduled(n int) {
	if n > 0 {
		m.sessionsScheduled.Add(float64(n))
	}
}

// AddSchedulingFailures counts students that could not be fully scheduled.
func (m *MetricsService) AddSchedulingFailures(n int) {
	if n > 0 {
		m.schedulingFailures.Add(float64(n))
	}
}

// AddConflictsFlagged counts sessions marked by a reconciliation scan.
func (m *MetricsService) AddConflictsFlagged(n int) {
	if n > 0 {
		m.conflictsFlagged.Add(float64(n))
	}
}

// IncSnapshotSaves counts snapshot captures.
func (m *MetricsService) IncSnapshotSaves() {
	m.snapshotSaveTotal.Inc()
}

// IncSnapshotRestores counts snapshot restores.
func (m *MetricsService) IncSnapshotRestores() {
	m.snapshotRestoreTotal.Inc()
}
