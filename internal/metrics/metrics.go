package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	OrdersCreated     prometheus.Counter
	StatusTransitions *prometheus.CounterVec
	EmailsTotal       *prometheus.CounterVec
	LoyaltyCredited   prometheus.Counter
	HTTPRequests      *prometheus.CounterVec
	HTTPLatencyMS     *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		OrdersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "kirana",
			Name:      "orders_created_total",
			Help:      "Total number of orders placed.",
		}),
		StatusTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kirana",
			Name:      "order_status_transitions_total",
			Help:      "Order status transitions by target status.",
		}, []string{"status"}),
		EmailsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kirana",
			Name:      "emails_total",
			Help:      "Transactional emails by outcome.",
		}, []string{"outcome"}),
		LoyaltyCredited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "kirana",
			Name:      "loyalty_credits_total",
			Help:      "Total number of loyalty credits applied.",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kirana",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"path", "status"}),
		HTTPLatencyMS: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "kirana",
			Name:      "http_request_duration_ms",
			Help:      "HTTP request latency in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"path"}),
	}

	prometheus.MustRegister(
		m.OrdersCreated,
		m.StatusTransitions,
		m.EmailsTotal,
		m.LoyaltyCredited,
		m.HTTPRequests,
		m.HTTPLatencyMS,
	)

	return m
}

func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request counts and latency per route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rec := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		path := r.Pattern
		if path == "" {
			path = r.URL.Path
		}
		m.HTTPRequests.WithLabelValues(path, strconv.Itoa(rec.status)).Inc()
		m.HTTPLatencyMS.WithLabelValues(path).
			Observe(float64(time.Since(start).Milliseconds()))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
