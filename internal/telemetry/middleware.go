package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
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
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	upstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_requests_total",
			Help: "Calls made to the Scrappify API, by service and status",
		},
		[]string{"service", "status"},
	)

	upstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstream_request_duration_seconds",
			Help:    "Scrappify API call duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service"},
	)

	sessionChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_checks_total",
			Help: "Session token checks by outcome",
		},
		[]string{"outcome"},
	)
)

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func NewResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{w, http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Status is the code written so far; 200 when the handler never set one.
func (rw *responseWriter) Status() int {
	return rw.statusCode
}

// Middleware records request count and latency labelled by the matched
// chi route pattern, so path parameters don't explode label cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := NewResponseWriter(w)

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()

		path := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}

		httpRequestsTotal.WithLabelValues(
			r.Method,
			path,
			strconv.Itoa(rw.statusCode),
		).Inc()

		httpRequestDuration.WithLabelValues(
			r.Method,
			path,
		).Observe(duration)
	})
}

func ObserveUpstream(service, status string, d time.Duration) {
	upstreamRequestsTotal.WithLabelValues(service, status).Inc()
	upstreamRequestDuration.WithLabelValues(service).Observe(d.Seconds())
}

// ObserveSession counts guard outcomes; "valid" or a failure reason.
func ObserveSession(outcome string) {
	sessionChecksTotal.WithLabelValues(outcome).Inc()
}
