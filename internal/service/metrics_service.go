package service

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fieldtime/scheduler-api/pkg/tablestore"
)

// MetricsService encapsulates Prometheus instrumentation. All methods are
// nil-safe so wiring can omit metrics entirely.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	storeOpDuration *prometheus.HistogramVec
	storeConflicts  *prometheus.CounterVec
	generatorRuns   *prometheus.HistogramVec
	exportJobs      *prometheus.CounterVec
}

// NewMetricsService registers the service's collectors on a private registry.
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

	storeOpDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tablestore_op_duration_seconds",
		Help:    "Duration of table store operations",
		Buckets: prometheus.DefBuckets,
	}, []string{"op", "table"})

	storeConflicts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tablestore_precondition_failures_total",
		Help: "Optimistic concurrency conflicts per table",
	}, []string{"table"})

	generatorRuns := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "schedule_generator_duration_seconds",
		Help:    "Duration of schedule generation runs",
		Buckets: prometheus.DefBuckets,
	}, []string{"mode"})

	exportJobs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "export_jobs_total",
		Help: "Export jobs by terminal status",
	}, []string{"status"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, storeOpDuration, storeConflicts, generatorRuns, exportJobs, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		storeOpDuration: storeOpDuration,
		storeConflicts:  storeConflicts,
		generatorRuns:   generatorRuns,
		exportJobs:      exportJobs,
	}
}

// Handler exposes the Prometheus scrape endpoint.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records one handled request.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveStoreOp satisfies tablestore.Observer; the instrumented store calls
// it once per operation. Precondition failures feed the conflict counter that
// alerting watches for CAS hot spots.
func (m *MetricsService) ObserveStoreOp(op, table string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.storeOpDuration.WithLabelValues(op, table).Observe(duration.Seconds())
	if errors.Is(err, tablestore.ErrPreconditionFailed) {
		m.storeConflicts.WithLabelValues(table).Inc()
	}
}

// ObserveGeneratorRun records one schedule generation; mode is "preview" or
// "apply".
func (m *MetricsService) ObserveGeneratorRun(mode string, duration time.Duration) {
	if m == nil {
		return
	}
	m.generatorRuns.WithLabelValues(mode).Observe(duration.Seconds())
}

// CountExportJob records a terminal export job status.
func (m *MetricsService) CountExportJob(status string) {
	if m == nil {
		return
	}
	m.exportJobs.WithLabelValues(status).Inc()
}

var _ tablestore.Observer = (*MetricsService)(nil)
