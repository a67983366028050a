package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tribalscale/moneytransfer/internal/infrastructure/observability"
)

func TestMetrics_RecordsRequestsByRoutePattern(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics("test", reg)

	r := chi.NewRouter()
	r.Use(Metrics(m))
	r.Get("/account/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for _, id := range []string{"1", "2"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/account/"+id, nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	// Both requests collapse onto the route pattern, not the raw path.
	got := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/account/{id}", "200"))
	assert.Equal(t, 2.0, got)
}

func TestMetrics_RecordsErrorStatus(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics("test", reg)

	r := chi.NewRouter()
	r.Use(Metrics(m))
	r.Post("/account/transfer", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/account/transfer", nil))

	got := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("POST", "/account/transfer", "400"))
	assert.Equal(t, 1.0, got)
}

func TestMetrics_NilMetricsPassesThrough(t *testing.T) {
	handler := Metrics(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
