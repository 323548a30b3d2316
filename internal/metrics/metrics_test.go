package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/dgallion1/docnav/internal/document"
	"github.com/dgallion1/docnav/internal/narration"
)

func TestMetrics_PipelineEvents(t *testing.T) {
	m := New(prometheus.NewRegistry())
	doc := &document.Document{Status: document.StatusCompleted, Stats: document.Stats{SuccessfulPages: 2, FailedPages: 1}}

	m.DocumentStarted(doc)
	if got := testutil.ToFloat64(m.DocumentsInFlight); got != 1 {
		t.Errorf("in flight = %v", got)
	}
	m.StageFinished(doc, 1, document.StageOCR, time.Second, nil)
	m.StageFinished(doc, 2, document.StageOCR, time.Second, errors.New("boom"))
	m.NarrationFinished(doc, 1, &narration.Record{
		Review:   narration.Review{Verdict: narration.VerdictApproved},
		Failures: []narration.Failure{{Role: narration.RoleVision}},
	}, time.Second)
	m.NarrationFinished(doc, 2, nil, time.Second)
	m.DocumentFinished(doc, time.Minute)

	checks := []struct {
		name string
		c    prometheus.Collector
		want float64
	}{
		{"in flight", m.DocumentsInFlight, 0},
		{"completed docs", m.DocumentsTotal.WithLabelValues("completed"), 1},
		{"ocr errors", m.StageErrors.WithLabelValues("ocr"), 1},
		{"approved", m.VerdictsTotal.WithLabelValues("approved"), 1},
		{"vision failures", m.InferenceFailures.WithLabelValues("vision"), 1},
		{"pages ok", m.PagesTotal.WithLabelValues("succeeded"), 2},
		{"pages failed", m.PagesTotal.WithLabelValues("failed"), 1},
	}
	for _, c := range checks {
		if got := testutil.ToFloat64(c.c); got != c.want {
			t.Errorf("%s = %v, want %v", c.name, got, c.want)
		}
	}
	if n := testutil.CollectAndCount(m.StageDuration); n != 1 {
		t.Errorf("stage duration series = %d", n)
	}
}

func TestMetrics_Middleware(t *testing.T) {
	m := New(prometheus.NewRegistry())
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/api/documents/{docID}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for range 2 {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/documents/abc", nil))
	}
	got := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("/api/documents/{docID}", "GET", "404"))
	if got != 2 {
		t.Errorf("requests = %v", got)
	}
}

func TestNew_RegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	defer func() {
		if recover() == nil {
			t.Error("registering twice on one registry should panic")
		}
	}()
	New(reg)
}
