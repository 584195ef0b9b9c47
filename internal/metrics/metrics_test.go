package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordUpload(t *testing.T) {
	before := testutil.ToFloat64(uploadsTotal.WithLabelValues("test_backend", StatusSuccess))
	bytesBefore := testutil.ToFloat64(uploadBytes.WithLabelValues("test_backend"))

	RecordUpload("test_backend", StatusSuccess, 10, time.Second)
	RecordUpload("test_backend", StatusError, 99, time.Second)

	assert.Equal(t, before+1, testutil.ToFloat64(uploadsTotal.WithLabelValues("test_backend", StatusSuccess)))
	assert.Equal(t, bytesBefore+10, testutil.ToFloat64(uploadBytes.WithLabelValues("test_backend")))
	assert.Equal(t, float64(1), testutil.ToFloat64(uploadsTotal.WithLabelValues("test_backend", StatusError)))
}

func TestRecordCleanupFailure(t *testing.T) {
	before := testutil.ToFloat64(cleanupFailures)
	RecordCleanupFailure()
	assert.Equal(t, before+1, testutil.ToFloat64(cleanupFailures))
}

func TestMiddleware_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/uploads/*", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/uploads/a/b/c.mp3", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)

	assert.Equal(t, float64(1), testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "/uploads/*", "418")))
}

func TestHandler(t *testing.T) {
	RecordUpload("scrape_backend", StatusSuccess, 1, time.Millisecond)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "uploader_uploads_total")
}
