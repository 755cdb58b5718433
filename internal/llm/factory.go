package llm

import (
	"fmt"
	"time"
)

// FactoryConfig holds the parameters needed to create a KeywordExtractor.
// Defined here rather than in the config package so llm stays free of
// infrastructure dependencies.
type FactoryConfig struct {
	// Provider is the LLM provider name ("ollama" or "gemini").
	Provider string
	// Temperature is the sampling temperature; 0 for deterministic runs.
	Temperature float64
	// Timeout is the per-call timeout.
	Timeout time.Duration
	// MaxRetries bounds retries of transient failures.
	MaxRetries int
	// Ollama contains Ollama-specific settings.
	Ollama OllamaConfig
	// Gemini contains Gemini-specific settings.
	Gemini GeminiConfig
}

// NewKeywordExtractor creates a KeywordExtractor for the configured
// provider.
func NewKeywordExtractor(cfg FactoryConfig) (KeywordExtractor, error) {
	switch cfg.Provider {
	case "ollama":
		return NewOllamaProvider(cfg.Ollama, cfg.Temperature, cfg.Timeout, cfg.MaxRetries), nil
	case "gemini":
		return NewGeminiProvider(cfg.Gemini, cfg.Temperature, cfg.Timeout, cfg.MaxRetries), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %q", cfg.Provider)
	}
}
