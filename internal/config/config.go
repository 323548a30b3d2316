package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port     string `yaml:"port"`
	LogLevel string `yaml:"log_level"`

	// Auth
	APIKey string `yaml:"api_key"`

	// Inference
	LLMProvider          string `yaml:"llm_provider"` // anthropic or openai
	AnthropicAPIKey      string `yaml:"anthropic_api_key"`
	AnthropicModel       string `yaml:"anthropic_model"`
	AnthropicVisionModel string `yaml:"anthropic_vision_model"`
	OpenAIAPIKey         string `yaml:"openai_api_key"`
	OpenAIBaseURL        string `yaml:"openai_base_url"`
	OpenAIModel          string `yaml:"openai_model"`
	OpenAIVisionModel    string `yaml:"openai_vision_model"`

	// Narration pacing
	NarrationDelay time.Duration `yaml:"narration_delay"`

	// OCR
	PreprocessMode string `yaml:"preprocess_mode"`
	OCRLanguage    string `yaml:"ocr_language"`
	DetectLanguage bool   `yaml:"detect_language"`
	PDFDPI         int    `yaml:"pdf_dpi"`

	// Storage
	DatabasePath string `yaml:"database_path"`
	WorkDir      string `yaml:"work_dir"`

	// Worker pool
	WorkerCount  int `yaml:"worker_count"`
	MaxQueueSize int `yaml:"max_queue_size"`

	// Upload limits
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`

	// Question answering context
	DefaultChunkSize    int `yaml:"default_chunk_size"`
	DefaultChunkOverlap int `yaml:"default_chunk_overlap"`
	MaxContextChunks    int `yaml:"max_context_chunks"`

	// Job state
	JobTTL time.Duration `yaml:"job_ttl"`
}

func defaults() Config {
	return Config{
		Port:                 "8090",
		LogLevel:             "info",
		LLMProvider:          "anthropic",
		AnthropicModel:       "claude-sonnet-4-5-20250929",
		AnthropicVisionModel: "claude-sonnet-4-5-20250929",
		OpenAIBaseURL:        "https://api.openai.com/v1",
		OpenAIModel:          "gpt-4o-mini",
		OpenAIVisionModel:    "gpt-4o",
		NarrationDelay:       4 * time.Second,
		PreprocessMode:       "auto",
		OCRLanguage:          "eng",
		DetectLanguage:       true,
		PDFDPI:               200,
		DatabasePath:         "docnav.db",
		WorkerCount:          2,
		MaxQueueSize:         100,
		MaxUploadBytes:       52428800, // 50MB
		DefaultChunkSize:     1500,
		DefaultChunkOverlap:  200,
		MaxContextChunks:     6,
		JobTTL:               1 * time.Hour,
	}
}

// Load builds the configuration from defaults, then the YAML file named by
// CONFIG_FILE (if any), then environment variables.
func Load() (Config, error) {
	cfg := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return cfg, err
		}
	}

	cfg.Port = envOr("PORT", cfg.Port)
	cfg.LogLevel = envOr("LOG_LEVEL", cfg.LogLevel)
	cfg.APIKey = envOr("DOCNAV_API_KEY", cfg.APIKey)

	cfg.LLMProvider = envOr("LLM_PROVIDER", cfg.LLMProvider)
	cfg.AnthropicAPIKey = envOr("ANTHROPIC_API_KEY", cfg.AnthropicAPIKey)
	cfg.AnthropicModel = envOr("ANTHROPIC_MODEL", cfg.AnthropicModel)
	cfg.AnthropicVisionModel = envOr("ANTHROPIC_VISION_MODEL", cfg.AnthropicVisionModel)
	cfg.OpenAIAPIKey = envOr("OPENAI_API_KEY", cfg.OpenAIAPIKey)
	cfg.OpenAIBaseURL = envOr("OPENAI_BASE_URL", cfg.OpenAIBaseURL)
	cfg.OpenAIModel = envOr("OPENAI_MODEL", cfg.OpenAIModel)
	cfg.OpenAIVisionModel = envOr("OPENAI_VISION_MODEL", cfg.OpenAIVisionModel)

	cfg.NarrationDelay = envDuration("NARRATION_DELAY", cfg.NarrationDelay)

	cfg.PreprocessMode = envOr("PREPROCESS_MODE", cfg.PreprocessMode)
	cfg.OCRLanguage = envOr("OCR_LANGUAGE", cfg.OCRLanguage)
	cfg.DetectLanguage = envBool("DETECT_LANGUAGE", cfg.DetectLanguage)
	cfg.PDFDPI = envInt("PDF_DPI", cfg.PDFDPI)

	cfg.DatabasePath = envOr("DATABASE_PATH", cfg.DatabasePath)
	cfg.WorkDir = envOr("WORK_DIR", cfg.WorkDir)

	cfg.WorkerCount = envInt("WORKER_COUNT", cfg.WorkerCount)
	cfg.MaxQueueSize = envInt("MAX_QUEUE_SIZE", cfg.MaxQueueSize)
	cfg.MaxUploadBytes = envInt64("MAX_UPLOAD_BYTES", cfg.MaxUploadBytes)

	cfg.DefaultChunkSize = envInt("DEFAULT_CHUNK_SIZE", cfg.DefaultChunkSize)
	cfg.DefaultChunkOverlap = envInt("DEFAULT_CHUNK_OVERLAP", cfg.DefaultChunkOverlap)
	cfg.MaxContextChunks = envInt("MAX_CONTEXT_CHUNKS", cfg.MaxContextChunks)

	cfg.JobTTL = envDuration("JOB_TTL", cfg.JobTTL)

	cfg.clamp()
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) clamp() {
	d := defaults()
	if c.WorkerCount <= 0 {
		c.WorkerCount = d.WorkerCount
	}
	if c.MaxQueueSize <= 0 {
		c.MaxQueueSize = d.MaxQueueSize
	}
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = d.MaxUploadBytes
	}
	if c.DefaultChunkSize <= 0 {
		c.DefaultChunkSize = d.DefaultChunkSize
	}
	if c.DefaultChunkOverlap < 0 {
		c.DefaultChunkOverlap = d.DefaultChunkOverlap
	}
	if c.MaxContextChunks <= 0 {
		c.MaxContextChunks = d.MaxContextChunks
	}
	if c.JobTTL <= 0 {
		c.JobTTL = d.JobTTL
	}
	if c.NarrationDelay < 0 {
		c.NarrationDelay = 0
	}
	if c.PDFDPI <= 0 {
		c.PDFDPI = d.PDFDPI
	}
}

// Validate checks what the HTTP server needs.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("DOCNAV_API_KEY is required")
	}
	return c.ValidateLLM()
}

// ValidateLLM checks the inference provider settings.
func (c Config) ValidateLLM() error {
	switch c.LLMProvider {
	case "anthropic":
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required")
		}
	case "openai":
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required")
		}
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
