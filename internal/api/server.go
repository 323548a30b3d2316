package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dgallion1/docnav/internal/config"
	"github.com/dgallion1/docnav/internal/document"
	"github.com/dgallion1/docnav/internal/llm"
	"github.com/dgallion1/docnav/internal/metrics"
	"github.com/dgallion1/docnav/internal/pipeline"
	"github.com/dgallion1/docnav/internal/qa"
	"github.com/dgallion1/docnav/internal/store"
)

// Jobs queues uploads and reports their progress.
type Jobs interface {
	Submit(job *pipeline.Job) error
	GetJob(id string) *pipeline.Job
	QueueDepth() int
}

// Documents is the read/delete side of the document store.
type Documents interface {
	Get(ctx context.Context, id string) (*document.Document, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, limit, offset int) ([]store.Summary, int, error)
	Search(ctx context.Context, query string, limit int) ([]store.Hit, error)
}

// Asker answers questions about stored documents or free text.
type Asker interface {
	Answer(ctx context.Context, docIDOrText, question string) (qa.Answer, error)
	AnswerText(ctx context.Context, text, question string) (qa.Answer, error)
}

// LatencySource exposes inference client latency.
type LatencySource interface {
	Model() string
	LatencyStats() *llm.LLMStats
}

// Deps wires a Server. Metrics, Gatherer and LLM may be nil.
type Deps struct {
	Jobs      Jobs
	Documents Documents
	Asker     Asker
	LLM       LatencySource
	Metrics   *metrics.Metrics
	Gatherer  prometheus.Gatherer
	Log       *slog.Logger
	Config    config.Config
}

// Server is the HTTP API server for docnav.
type Server struct {
	router chi.Router
	jobs   Jobs
	docs   Documents
	asker  Asker
	llm    LatencySource
	m      *metrics.Metrics
	gather prometheus.Gatherer
	log    *slog.Logger
	cfg    config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(d Deps) *Server {
	s := &Server{
		jobs:   d.Jobs,
		docs:   d.Documents,
		asker:  d.Asker,
		llm:    d.LLM,
		m:      d.Metrics,
		gather: d.Gatherer,
		log:    d.Log,
		cfg:    d.Config,
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))
	if s.m != nil {
		r.Use(s.m.Middleware)
	}

	// Public endpoints.
	r.Get("/health", s.handleHealth)
	if s.gather != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gather, promhttp.HandlerOpts{}))
	}

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/documents", s.handleUpload)
		r.Get("/api/jobs/{jobID}", s.handleJobStatus)

		r.Get("/api/documents", s.handleListDocuments)
		r.Get("/api/documents/{docID}", s.handleGetDocument)
		r.Delete("/api/documents/{docID}", s.handleDeleteDocument)
		r.Get("/api/documents/{docID}/export/{format}", s.handleExport)
		r.Post("/api/documents/{docID}/ask", s.handleAskDocument)
		r.Post("/api/ask", s.handleAsk)
		r.Get("/api/search", s.handleSearch)

		r.Get("/api/stats/llm", s.handleLLMStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"queue_depth": s.jobs.QueueDepth(),
	})
}
