package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PipelineMetrics holds the HTTP server metrics plus pipeline-level counters
// on a private registry.
type PipelineMetrics struct {
	registry *prometheus.Registry
	service  string

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	invoiceTotal           *prometheus.CounterVec
	invoiceLineItems       *prometheus.HistogramVec
	invoiceDuration        *prometheus.HistogramVec
	classifyFallbackTotal  *prometheus.CounterVec
	ledgerRequestsTotal    *prometheus.CounterVec
}

func NewPipelineMetrics(service string) *PipelineMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fb",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fb",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "fb",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	invoiceTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fb",
			Subsystem: "pipeline",
			Name:      "invoices_total",
			Help:      "Total processed invoices by source and outcome.",
		},
		[]string{"service", "source", "outcome"},
	)
	invoiceLineItems := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fb",
			Subsystem: "pipeline",
			Name:      "invoice_line_items",
			Help:      "Distribution of line items per processed invoice.",
			Buckets:   []float64{1, 2, 3, 5, 8, 13, 21, 34},
		},
		[]string{"service", "source"},
	)
	invoiceDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fb",
			Subsystem: "pipeline",
			Name:      "invoice_duration_seconds",
			Help:      "Invoice processing duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "source"},
	)
	classifyFallbackTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fb",
			Subsystem: "pipeline",
			Name:      "classification_fallback_total",
			Help:      "Total invoices that fell back to a synthetic line.",
		},
		[]string{"service", "reason"},
	)
	ledgerRequestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fb",
			Subsystem: "ledger",
			Name:      "requests_total",
			Help:      "Total accounting-ledger API requests by status.",
		},
		[]string{"service", "operation", "status"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		invoiceTotal,
		invoiceLineItems,
		invoiceDuration,
		classifyFallbackTotal,
		ledgerRequestsTotal,
	)

	return &PipelineMetrics{
		registry:              registry,
		service:               service,
		requestTotal:          requestTotal,
		requestDuration:       requestDuration,
		requestInFlight:       requestInFlight,
		invoiceTotal:          invoiceTotal,
		invoiceLineItems:      invoiceLineItems,
		invoiceDuration:       invoiceDuration,
		classifyFallbackTotal: classifyFallbackTotal,
		ledgerRequestsTotal:   ledgerRequestsTotal,
	}
}

func (m *PipelineMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *PipelineMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			r.URL.Path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
	})
}

func (m *PipelineMetrics) RecordInvoice(source, outcome string, lineCount int, duration time.Duration) {
	if source == "" {
		source = "unknown"
	}
	if outcome == "" {
		outcome = "unknown"
	}
	m.invoiceTotal.WithLabelValues(m.service, source, outcome).Inc()
	m.invoiceLineItems.WithLabelValues(m.service, source).Observe(float64(lineCount))
	m.invoiceDuration.WithLabelValues(m.service, source).Observe(duration.Seconds())
}

func (m *PipelineMetrics) RecordClassificationFallback(reason string) {
	if reason == "" {
		reason = "unknown"
	}
	m.classifyFallbackTotal.WithLabelValues(m.service, reason).Inc()
}

func (m *PipelineMetrics) RecordLedgerRequest(operation, status string) {
	if operation == "" {
		operation = "unknown"
	}
	if status == "" {
		status = "unknown"
	}
	m.ledgerRequestsTotal.WithLabelValues(m.service, operation, status).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
