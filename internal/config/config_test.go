package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.NarrationDelay != 4*time.Second {
		t.Errorf("narration delay = %v, want 4s", cfg.NarrationDelay)
	}
	if cfg.OCRLanguage != "eng" || cfg.PreprocessMode != "auto" {
		t.Errorf("ocr defaults = %q/%q", cfg.OCRLanguage, cfg.PreprocessMode)
	}
	if cfg.LLMProvider != "anthropic" {
		t.Errorf("provider = %q", cfg.LLMProvider)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docnav.yaml")
	yml := "port: \"9000\"\nnarration_delay: 250ms\nworker_count: 3\nllm_provider: openai\n"
	if err := os.WriteFile(path, []byte(yml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("WORKER_COUNT", "7")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "9000" {
		t.Errorf("port = %q, want file value 9000", cfg.Port)
	}
	if cfg.NarrationDelay != 250*time.Millisecond {
		t.Errorf("narration delay = %v", cfg.NarrationDelay)
	}
	if cfg.WorkerCount != 7 {
		t.Errorf("worker count = %d, env should win", cfg.WorkerCount)
	}
	if cfg.LLMProvider != "openai" {
		t.Errorf("provider = %q", cfg.LLMProvider)
	}
}

func TestLoad_BadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(path, []byte("port: [unclosed"), 0o600)
	t.Setenv("CONFIG_FILE", path)
	if _, err := Load(); err == nil {
		t.Error("expected parse error")
	}
}

func TestLoad_ClampsInvalidValues(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("WORKER_COUNT", "-1")
	t.Setenv("NARRATION_DELAY", "-5s")
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.WorkerCount != 2 {
		t.Errorf("worker count = %d, want default 2", cfg.WorkerCount)
	}
	if cfg.NarrationDelay != 0 {
		t.Errorf("negative delay not clamped: %v", cfg.NarrationDelay)
	}
}

func TestValidate(t *testing.T) {
	cfg := defaults()
	if err := cfg.Validate(); err == nil {
		t.Error("expected error without api key")
	}
	cfg.APIKey = "secret"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error without anthropic key")
	}
	cfg.AnthropicAPIKey = "sk"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	cfg.LLMProvider = "bard"
	if err := cfg.ValidateLLM(); err == nil {
		t.Error("expected error for unknown provider")
	}
}
