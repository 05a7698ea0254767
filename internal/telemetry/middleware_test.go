package telemetry

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddleware_LabelsByRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/api/products/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/api/products/{id}", "418"))
	for _, id := range []string{"a", "b"} {
		req := httptest.NewRequest(http.MethodGet, "/api/products/"+id, nil)
		r.ServeHTTP(httptest.NewRecorder(), req)
	}
	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/api/products/{id}", "418"))

	if after-before != 2 {
		t.Errorf("counter delta = %v, want 2", after-before)
	}
}

func TestObserveUpstreamAndSession(t *testing.T) {
	before := testutil.ToFloat64(upstreamRequestsTotal.WithLabelValues("products", "200"))
	ObserveUpstream("products", "200", 10*time.Millisecond)
	if got := testutil.ToFloat64(upstreamRequestsTotal.WithLabelValues("products", "200")); got-before != 1 {
		t.Errorf("upstream delta = %v, want 1", got-before)
	}

	before = testutil.ToFloat64(sessionChecksTotal.WithLabelValues("expired"))
	ObserveSession("expired")
	if got := testutil.ToFloat64(sessionChecksTotal.WithLabelValues("expired")); got-before != 1 {
		t.Errorf("session delta = %v, want 1", got-before)
	}
}

func TestResponseWriter_Status(t *testing.T) {
	rw := NewResponseWriter(httptest.NewRecorder())
	if rw.Status() != http.StatusOK {
		t.Errorf("default status = %d", rw.Status())
	}
	rw.WriteHeader(http.StatusNotFound)
	if rw.Status() != http.StatusNotFound {
		t.Errorf("status = %d", rw.Status())
	}
}
