package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cristobalnm/permit-intake/internal/core/domain"
)

// HTTPServerMetrics carries the API-side registry: request-level series plus
// the intake pipeline observations fed by the orchestrator.
type HTTPServerMetrics struct {
	registry *prometheus.Registry
	service  string

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	itemsTotal          *prometheus.CounterVec
	detectionConfidence *prometheus.HistogramVec
	recognitionDuration *prometheus.HistogramVec
	permitExportsTotal  *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "permit_intake",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "permit_intake",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "permit_intake",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	itemsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "permit_intake",
			Subsystem: "pipeline",
			Name:      "items_total",
			Help:      "Total intake items reaching a pipeline outcome, by status.",
		},
		[]string{"service", "status"},
	)
	detectionConfidence := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "permit_intake",
			Subsystem: "pipeline",
			Name:      "detection_confidence",
			Help:      "Distribution of permit-type detection confidence.",
			Buckets:   []float64{0.5, 0.6, 0.7, 0.8, 0.9, 0.95, 1},
		},
		[]string{"service"},
	)
	recognitionDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "permit_intake",
			Subsystem: "pipeline",
			Name:      "recognition_duration_seconds",
			Help:      "Recognition round-trip duration in seconds, by status.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"service", "status"},
	)
	permitExportsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "permit_intake",
			Subsystem: "exports",
			Name:      "workbooks_total",
			Help:      "Total generated XLSX permit reports, by status.",
		},
		[]string{"service", "status"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		itemsTotal,
		detectionConfidence,
		recognitionDuration,
		permitExportsTotal,
	)

	return &HTTPServerMetrics{
		registry:            registry,
		service:             service,
		requestTotal:        requestTotal,
		requestDuration:     requestDuration,
		requestInFlight:     requestInFlight,
		itemsTotal:          itemsTotal,
		detectionConfidence: detectionConfidence,
		recognitionDuration: recognitionDuration,
		permitExportsTotal:  permitExportsTotal,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			m.service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(m.service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// ObserveItemOutcome, ObserveDetectionConfidence and ObserveRecognitionDuration
// make HTTPServerMetrics the orchestrator's metrics sink.

func (m *HTTPServerMetrics) ObserveItemOutcome(status domain.ItemStatus) {
	m.itemsTotal.WithLabelValues(m.service, string(status)).Inc()
}

func (m *HTTPServerMetrics) ObserveDetectionConfidence(confidence float64) {
	m.detectionConfidence.WithLabelValues(m.service).Observe(confidence)
}

func (m *HTTPServerMetrics) ObserveRecognitionDuration(d time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.recognitionDuration.WithLabelValues(m.service, status).Observe(d.Seconds())
}

func (m *HTTPServerMetrics) RecordPermitExport(err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.permitExportsTotal.WithLabelValues(m.service, status).Inc()
}

// Path templates keep label cardinality bounded. Only exact route shapes are
// templated; anything else collapses into a single bucket so scanners cannot
// grow the series.
func normalizePath(path string) string {
	segments := strings.Split(strings.TrimPrefix(path, "/"), "/")
	switch {
	case path == "/healthz":
		return path
	case len(segments) == 4 && segments[0] == "v1" && segments[1] == "businesses" && isBusinessResource(segments[3]):
		segments[2] = "{business_id}"
	case len(segments) == 5 && segments[0] == "v1" && segments[1] == "businesses" && segments[3] == "intake" && segments[4] == "items":
		segments[2] = "{business_id}"
	case len(segments) == 5 && segments[0] == "v1" && segments[1] == "businesses" && segments[3] == "permits" && segments[4] == "export":
		segments[2] = "{business_id}"
	case len(segments) == 4 && segments[0] == "v1" && segments[1] == "intake" && segments[2] == "items":
		segments[3] = "{item_id}"
	case len(segments) == 5 && segments[0] == "v1" && segments[1] == "intake" && segments[2] == "items" && segments[4] == "confirm":
		segments[3] = "{item_id}"
	default:
		return "/other"
	}
	return "/" + strings.Join(segments, "/")
}

func isBusinessResource(segment string) bool {
	switch segment {
	case "permits", "required-permits", "documents":
		return true
	}
	return false
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
