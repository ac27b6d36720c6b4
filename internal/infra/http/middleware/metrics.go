package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	filesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadsync_files_processed_total",
			Help: "Total number of source files fully processed",
		},
		[]string{"file_type"},
	)

	leadsDispatched = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "leadsync_leads_dispatched_total",
			Help: "Total number of new leads published to the output sheet",
		},
	)

	leadsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadsync_leads_skipped_total",
			Help: "Total number of leads excluded from dispatch",
		},
		[]string{"reason"},
	)

	integrationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadsync_integration_errors_total",
			Help: "Total number of external integration errors",
		},
		[]string{"service"},
	)
)

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(rw.statusCode)

		httpRequestsTotal.WithLabelValues(r.Method, r.URL.Path, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(duration)
	})
}

func RecordFileProcessed(fileType string) {
	filesProcessed.WithLabelValues(fileType).Inc()
}

func RecordLeadsDispatched(count int) {
	leadsDispatched.Add(float64(count))
}

func RecordLeadsSkipped(reason string, count int) {
	if count > 0 {
		leadsSkipped.WithLabelValues(reason).Add(float64(count))
	}
}

func RecordIntegrationError(service string) {
	integrationErrors.WithLabelValues(service).Inc()
}
