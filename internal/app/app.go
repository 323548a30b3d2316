// Package app wires configuration into the running services shared by the
// server and the CLI.
package app

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/dgallion1/docnav/internal/chunker"
	"github.com/dgallion1/docnav/internal/config"
	"github.com/dgallion1/docnav/internal/llm"
	"github.com/dgallion1/docnav/internal/metrics"
	"github.com/dgallion1/docnav/internal/narration"
	"github.com/dgallion1/docnav/internal/ocr"
	"github.com/dgallion1/docnav/internal/ocr/tesseract"
	"github.com/dgallion1/docnav/internal/pacer"
	"github.com/dgallion1/docnav/internal/pipeline"
	"github.com/dgallion1/docnav/internal/qa"
	"github.com/dgallion1/docnav/internal/splitter"
	"github.com/dgallion1/docnav/internal/store"
)

// InferenceClient is an llm.Service that also reports latency.
type InferenceClient interface {
	llm.Service
	Model() string
	LatencyStats() *llm.LLMStats
	Close()
}

// App holds the long-lived services.
type App struct {
	Config   config.Config
	Log      *slog.Logger
	Store    *store.Store
	LLM      InferenceClient
	Executor *pipeline.Executor
	Answerer *qa.Answerer
	Metrics  *metrics.Metrics
	Registry *prometheus.Registry
}

// NewLogger builds the JSON logger at the configured level.
func NewLogger(level string) *slog.Logger {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		l = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}

// NewInferenceClient picks the configured provider.
func NewInferenceClient(cfg config.Config) (InferenceClient, error) {
	switch strings.ToLower(cfg.LLMProvider) {
	case "anthropic":
		return llm.NewClaudeClient(cfg.AnthropicAPIKey, cfg.AnthropicModel, cfg.AnthropicVisionModel), nil
	case "openai":
		return llm.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, cfg.OpenAIVisionModel), nil
	}
	return nil, fmt.Errorf("unknown LLM_PROVIDER %q", cfg.LLMProvider)
}

// New opens the store and builds the pipeline. Call Close when done.
func New(cfg config.Config, log *slog.Logger) (*App, error) {
	if err := cfg.ValidateLLM(); err != nil {
		return nil, err
	}
	mode, err := ocr.ParseMode(cfg.PreprocessMode)
	if err != nil {
		return nil, err
	}
	if cfg.WorkDir != "" {
		if err := os.MkdirAll(cfg.WorkDir, 0o750); err != nil {
			return nil, fmt.Errorf("create work dir: %w", err)
		}
	}

	st, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}
	client, err := NewInferenceClient(cfg)
	if err != nil {
		st.Close()
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	var detector ocr.LanguageDetector
	if cfg.DetectLanguage {
		detector = ocr.NewLinguaDetector()
	}
	ocrSvc := ocr.NewService(tesseract.New(), detector, ocr.Options{Mode: mode, Language: cfg.OCRLanguage}, log)

	exec := pipeline.NewExecutor(pipeline.ExecutorConfig{
		Splitter: splitter.New(cfg.PDFDPI, log),
		OCR:      ocrSvc,
		Narrator: narration.NewEngine(client, log, narration.DefaultOptions()),
		Pacer:    pacer.New(cfg.NarrationDelay),
		Store:    st,
		Observer: pipeline.Observers(pipeline.NewLogObserver(log), m),
		Log:      log,
		WorkRoot: cfg.WorkDir,
	})

	answerer := qa.NewAnswerer(client, st, qa.Config{
		Chunking: chunker.Config{
			ChunkSize:    cfg.DefaultChunkSize,
			ChunkOverlap: cfg.DefaultChunkOverlap,
		},
		MaxContextChunks: cfg.MaxContextChunks,
	}, log, store.ErrNotFound)

	return &App{
		Config:   cfg,
		Log:      log,
		Store:    st,
		LLM:      client,
		Executor: exec,
		Answerer: answerer,
		Metrics:  m,
		Registry: reg,
	}, nil
}

func (a *App) Close() {
	a.LLM.Close()
	if err := a.Store.Close(); err != nil {
		a.Log.Warn("close store", "error", err)
	}
}
