// Package metrics provides Prometheus metrics for the uploader.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uploader_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "uploader_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	uploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uploader_uploads_total",
			Help: "Total number of upload calls by backend and outcome",
		},
		[]string{"backend", "status"},
	)

	uploadBytes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uploader_upload_bytes_total",
			Help: "Total bytes of successfully uploaded files",
		},
		[]string{"backend"},
	)

	uploadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "uploader_upload_duration_seconds",
			Help:    "Time spent transferring a file to the object store",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"backend"},
	)

	cleanupFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "uploader_cleanup_failures_total",
			Help: "Staged files that could not be removed after upload",
		},
	)
)

// Upload outcomes.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// RecordUpload records the outcome of one upload call.
func RecordUpload(backend, status string, size int64, duration time.Duration) {
	uploadsTotal.WithLabelValues(backend, status).Inc()
	if status != StatusSuccess {
		return
	}
	uploadBytes.WithLabelValues(backend).Add(float64(size))
	uploadDuration.WithLabelValues(backend).Observe(duration.Seconds())
}

// RecordCleanupFailure counts a staged file that survived its upload.
func RecordCleanupFailure() {
	cleanupFailures.Inc()
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request counts and durations keyed by chi route pattern.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}
