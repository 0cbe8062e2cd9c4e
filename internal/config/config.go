// Package config loads service settings from .env, an optional YAML file
// named by TRACE_CONFIG, and the process environment, in that order of
// increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"
	ProviderMock   = "mock"
)

type Config struct {
	Port    string `yaml:"port"`
	LogMode string `yaml:"log_mode"`

	Provider     string        `yaml:"infer_provider"`
	GeminiAPIKey string        `yaml:"gemini_api_key"`
	GeminiModel  string        `yaml:"gemini_model"`
	OllamaURL    string        `yaml:"ollama_url"`
	OllamaModel  string        `yaml:"ollama_model"`
	InferTimeout time.Duration `yaml:"infer_timeout"`
	InferRetries int           `yaml:"infer_retries"`

	MaxEntities       int  `yaml:"max_entities"`
	HeuristicFallback bool `yaml:"heuristic_fallback"`
	RepairAttempts    int  `yaml:"repair_attempts"`
	CacheSize         int  `yaml:"cache_size"`
	OCRHints          bool `yaml:"ocr_hints"`
	MaxUploadMB       int  `yaml:"max_upload_mb"`
}

func Defaults() Config {
	return Config{
		Port:              "8081",
		LogMode:           "dev",
		Provider:          ProviderOllama,
		GeminiModel:       "gemini-2.5-flash",
		OllamaURL:         "http://localhost:11434",
		OllamaModel:       "llava:latest",
		InferTimeout:      90 * time.Second,
		InferRetries:      2,
		MaxEntities:       10,
		HeuristicFallback: true,
		CacheSize:         128,
		MaxUploadMB:       16,
	}
}

// Load returns the merged configuration. A missing .env is fine; a missing
// or broken TRACE_CONFIG file is not.
func Load() (Config, error) {
	_ = godotenv.Load()
	cfg := Defaults()
	if path := getenv("TRACE_CONFIG", ""); path != "" {
		if err := cfg.overlay(path); err != nil {
			return cfg, err
		}
	}
	cfg.fromEnv()
	return cfg, cfg.Validate()
}

func (c *Config) overlay(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("config: %s: %w", path, err)
	}
	return nil
}

func (c *Config) fromEnv() {
	c.Port = getenv("PORT", c.Port)
	c.LogMode = getenv("LOG_MODE", c.LogMode)
	c.Provider = strings.ToLower(getenv("INFER_PROVIDER", c.Provider))
	c.GeminiAPIKey = getenv("GEMINI_API_KEY", c.GeminiAPIKey)
	c.GeminiModel = getenv("GEMINI_MODEL", c.GeminiModel)
	c.OllamaURL = getenv("OLLAMA_URL", c.OllamaURL)
	c.OllamaModel = getenv("OLLAMA_MODEL", c.OllamaModel)
	c.InferTimeout = getDuration("INFER_TIMEOUT", c.InferTimeout)
	c.InferRetries = getInt("INFER_RETRIES", c.InferRetries)
	c.MaxEntities = getInt("MAX_ENTITIES", c.MaxEntities)
	c.HeuristicFallback = getBool("HEURISTIC_FALLBACK", c.HeuristicFallback)
	c.RepairAttempts = getInt("REPAIR_ATTEMPTS", c.RepairAttempts)
	c.CacheSize = getInt("CACHE_SIZE", c.CacheSize)
	c.OCRHints = getBool("OCR_HINTS", c.OCRHints)
	c.MaxUploadMB = getInt("MAX_UPLOAD_MB", c.MaxUploadMB)
}

func (c Config) Validate() error {
	var errs []error
	switch c.Provider {
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			errs = append(errs, errors.New("config: GEMINI_API_KEY is required for the gemini provider"))
		}
	case ProviderOllama, ProviderMock:
	default:
		errs = append(errs, fmt.Errorf("config: unknown INFER_PROVIDER %q", c.Provider))
	}
	if c.MaxEntities <= 0 {
		errs = append(errs, errors.New("config: MAX_ENTITIES must be positive"))
	}
	if c.InferTimeout <= 0 {
		errs = append(errs, errors.New("config: INFER_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}

func getenv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getInt(k string, def int) int {
	i, err := strconv.Atoi(getenv(k, ""))
	if err != nil {
		return def
	}
	return i
}

func getBool(k string, def bool) bool {
	b, err := strconv.ParseBool(getenv(k, ""))
	if err != nil {
		return def
	}
	return b
}

func getDuration(k string, def time.Duration) time.Duration {
	v := getenv(k, "")
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	// bare numbers are seconds
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return def
}
