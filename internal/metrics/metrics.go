// Package metrics provides Prometheus metrics for the page pipeline and the
// HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/dgallion1/docnav/internal/document"
	"github.com/dgallion1/docnav/internal/narration"
)

// Metrics holds all collectors. It satisfies pipeline.Observer.
type Metrics struct {
	DocumentsInFlight prometheus.Gauge
	DocumentsTotal    *prometheus.CounterVec
	DocumentDuration  prometheus.Histogram
	PagesTotal        *prometheus.CounterVec

	StageDuration *prometheus.HistogramVec
	StageErrors   *prometheus.CounterVec

	NarrationDuration prometheus.Histogram
	VerdictsTotal     *prometheus.CounterVec
	InferenceFailures *prometheus.CounterVec

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New registers every collector on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		DocumentsInFlight: f.NewGauge(prometheus.GaugeOpts{
			Name: "docnav_documents_in_flight",
			Help: "Documents currently in the pipeline",
		}),
		DocumentsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "docnav_documents_total",
			Help: "Documents that left the pipeline, by final status",
		}, []string{"status"}),
		DocumentDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "docnav_document_duration_seconds",
			Help:    "Wall time to process one document",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
		}),
		PagesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "docnav_pages_total",
			Help: "Pages processed, by outcome",
		}, []string{"outcome"}),
		StageDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "docnav_stage_duration_seconds",
			Help:    "Duration of pipeline stages",
			Buckets: []float64{.005, .025, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"stage"}),
		StageErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "docnav_stage_errors_total",
			Help: "Failed pipeline stages",
		}, []string{"stage"}),
		NarrationDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "docnav_narration_duration_seconds",
			Help:    "Time to narrate and review one page",
			Buckets: []float64{.5, 1, 2.5, 5, 10, 20, 40, 80},
		}),
		VerdictsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "docnav_review_verdicts_total",
			Help: "Review verdicts by value",
		}, []string{"verdict"}),
		InferenceFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "docnav_inference_failures_total",
			Help: "Absorbed inference call failures by role",
		}, []string{"role"}),
		HTTPRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "docnav_http_requests_total",
			Help: "HTTP requests by route, method and status",
		}, []string{"route", "method", "status"}),
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "docnav_http_request_duration_seconds",
			Help:    "HTTP request duration by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

func (m *Metrics) DocumentStarted(*document.Document) {
	m.DocumentsInFlight.Inc()
}

func (m *Metrics) StageFinished(_ *document.Document, _ int, stage document.Stage, took time.Duration, err error) {
	m.StageDuration.WithLabelValues(string(stage)).Observe(took.Seconds())
	if err != nil {
		m.StageErrors.WithLabelValues(string(stage)).Inc()
	}
}

func (m *Metrics) NarrationFinished(_ *document.Document, _ int, rec *narration.Record, took time.Duration) {
	m.NarrationDuration.Observe(took.Seconds())
	if rec == nil {
		return
	}
	m.VerdictsTotal.WithLabelValues(string(rec.Review.Verdict)).Inc()
	for _, f := range rec.Failures {
		m.InferenceFailures.WithLabelValues(string(f.Role)).Inc()
	}
}

func (m *Metrics) DocumentFinished(doc *document.Document, took time.Duration) {
	m.DocumentsInFlight.Dec()
	m.DocumentsTotal.WithLabelValues(string(doc.Status)).Inc()
	m.DocumentDuration.Observe(took.Seconds())
	m.PagesTotal.WithLabelValues("succeeded").Add(float64(doc.Stats.SuccessfulPages))
	m.PagesTotal.WithLabelValues("failed").Add(float64(doc.Stats.FailedPages))
}

// Middleware records request counts and latency keyed by chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		m.HTTPRequestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(sw.status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
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
