package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the HTTP surface
// and the scheduling pipeline.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	remixPasses       *prometheus.CounterVec
	leftoversMoved    prometheus.Counter
	fallbackReads     *prometheus.CounterVec
	replicationErrors prometheus.Counter
	snapshotsTaken    prometheus.Counter
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

	remixPasses := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "remix_passes_total",
		Help: "Re-optimization passes, labelled by outcome",
	}, []string{"outcome"})

	leftoversMoved := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "leftover_tasks_redistributed_total",
		Help: "Leftover tasks handed to the optimizer across all passes",
	})

	fallbackReads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "document_fallback_reads_total",
		Help: "Document reads served by the remote backend after a local miss",
	}, []string{"kind"})

	replicationErrors := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "replication_failures_total",
		Help: "Remote document replication attempts that failed",
	})

	snapshotsTaken := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "timeline_snapshots_total",
		Help: "History revisions created",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, remixPasses, leftoversMoved, fallbackReads, replicationErrors, snapshotsTaken, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:          registry,
		handler:           handler,
		requestDuration:   requestDuration,
		requestTotal:      requestTotal,
		remixPasses:       remixPasses,
		leftoversMoved:    leftoversMoved,
		fallbackReads:     fallbackReads,
		replicationErrors: replicationErrors,
		snapshotsTaken:    snapshotsTaken,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RemixPass implements RemixObserver.
func (m *MetricsService) RemixPass(remixed bool) {
	if m == nil {
		return
	}
	outcome := "skipped"
	if remixed {
		outcome = "remixed"
	}
	m.remixPasses.WithLabelValues(outcome).Inc()
}

// LeftoversRedistributed implements RemixObserver.
func (m *MetricsService) LeftoversRedistributed(count int) {
	if m == nil {
		return
	}
	m.leftoversMoved.Add(float64(count))
}

// FallbackRead counts a document read served from the remote backend.
func (m *MetricsService) FallbackRead(kind string) {
	if m == nil {
		return
	}
	m.fallbackReads.WithLabelValues(kind).Inc()
}

// ReplicationFailure counts a failed remote replication attempt.
func (m *MetricsService) ReplicationFailure() {
	if m == nil {
		return
	}
	m.replicationErrors.Inc()
}

// SnapshotTaken counts a created history revision.
func (m *MetricsService) SnapshotTaken() {
	if m == nil {
		return
	}
	m.snapshotsTaken.Inc()
}
