package app

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/dgallion1/docnav/internal/config"
	"github.com/dgallion1/docnav/internal/llm"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()
	return config.Config{
		LLMProvider:    "openai",
		OpenAIAPIKey:   "sk-test",
		OpenAIBaseURL:  "http://127.0.0.1:1",
		OpenAIModel:    "m",
		PreprocessMode: "auto",
		OCRLanguage:    "eng",
		PDFDPI:         150,
		DatabasePath:   filepath.Join(dir, "docnav.db"),
		WorkDir:        filepath.Join(dir, "work"),
	}
}

func TestNew_WiresServices(t *testing.T) {
	a, err := New(testConfig(t), slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	if _, ok := a.LLM.(*llm.OpenAIClient); !ok {
		t.Errorf("LLM = %T", a.LLM)
	}
	docs, total, err := a.Store.List(context.Background(), 10, 0)
	if err != nil || total != 0 || len(docs) != 0 {
		t.Errorf("fresh store: %v %d %v", docs, total, err)
	}
	if mfs, err := a.Registry.Gather(); err != nil || len(mfs) == 0 {
		t.Errorf("registry gather: %d families, %v", len(mfs), err)
	}
}

func TestNew_RejectsBadConfig(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := testConfig(t)
	cfg.LLMProvider = "bard"
	if _, err := New(cfg, log); err == nil {
		t.Error("expected provider error")
	}

	cfg = testConfig(t)
	cfg.PreprocessMode = "sepia"
	if _, err := New(cfg, log); err == nil {
		t.Error("expected mode error")
	}
}

func TestNewLogger_Level(t *testing.T) {
	if !NewLogger("debug").Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug level not applied")
	}
	if NewLogger("nonsense").Enabled(context.Background(), slog.LevelDebug) {
		t.Error("unknown level should fall back to info")
	}
}

func TestServe_StopsOnCancel(t *testing.T) {
	cfg := testConfig(t)
	cfg.Port = "0"
	cfg.WorkerCount = 1
	cfg.MaxQueueSize = 1
	a, err := New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Serve(ctx) }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
