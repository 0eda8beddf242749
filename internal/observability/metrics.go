package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"service", "method", "path", "code"},
	)
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)

	paymentsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_payments_created_total",
			Help: "Payments accepted for processing, by method.",
		},
		[]string{"method"},
	)
	settlementsScheduledTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_settlements_scheduled_total",
			Help: "Settlement jobs enqueued, by method.",
		},
		[]string{"method"},
	)
	settlementsCompletedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_settlements_completed_total",
			Help: "Payments moved to a terminal status, by method and status.",
		},
		[]string{"method", "status"},
	)
	settlementErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_settlement_errors_total",
			Help: "Settlement steps that failed, by stage.",
		},
		[]string{"stage"},
	)
	settlementLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_settlement_latency_seconds",
			Help:    "Time from payment creation to terminal status.",
			Buckets: []float64{1, 2.5, 5, 7.5, 10, 15, 30, 60},
		},
		[]string{"method"},
	)
)

// NewMetricsMiddleware Creates HTTP middleware for collecting Prometheus metrics.
// Requests are labelled by chi route pattern so ids do not explode cardinality.
func NewMetricsMiddleware(serviceName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				duration := time.Since(start)
				path := routePattern(r)

				httpRequestDuration.WithLabelValues(serviceName, r.Method, path).Observe(duration.Seconds())
				httpRequestsTotal.WithLabelValues(serviceName, r.Method, path, strconv.Itoa(ww.Status())).Inc()
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}

func RecordPaymentCreated(method string) {
	paymentsCreatedTotal.WithLabelValues(method).Inc()
}

func RecordSettlementScheduled(method string) {
	settlementsScheduledTotal.WithLabelValues(method).Inc()
}

// RecordSettlementCompleted counts a terminal transition and observes the
// time the payment spent in processing.
func RecordSettlementCompleted(method, status string, latency time.Duration) {
	settlementsCompletedTotal.WithLabelValues(method, status).Inc()
	settlementLatency.WithLabelValues(method).Observe(latency.Seconds())
}

func RecordSettlementError(stage string) {
	settlementErrorsTotal.WithLabelValues(stage).Inc()
}
