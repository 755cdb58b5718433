// Package config provides configuration management for the conference
// word-cloud pipeline.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/confcloud/confcloud/internal/domain"
)

// Config holds all configuration for the pipeline.
type Config struct {
	// Conference is the key of the active conference in Conferences.
	Conference string `mapstructure:"conference"`
	// Conferences maps conference keys to their harvesting settings.
	Conferences map[string]ConferenceConfig `mapstructure:"conferences"`
	// Data contains output directory settings.
	Data DataConfig `mapstructure:"data"`
	// Logging contains structured logging settings.
	Logging LoggingConfig `mapstructure:"logging"`
	// Sources contains per-source API configurations.
	Sources SourcesConfig `mapstructure:"sources"`
	// Enrich contains enrichment orchestration settings.
	Enrich EnrichConfig `mapstructure:"enrich"`
	// Keywords contains rule-based keyword extraction settings.
	Keywords KeywordsConfig `mapstructure:"keywords"`
	// LLM contains LLM keyword extraction settings.
	LLM LLMConfig `mapstructure:"llm"`
}

// ConferenceConfig holds one conference's harvesting settings.
type ConferenceConfig struct {
	// Name is the short conference name (e.g. "KDD").
	Name string `mapstructure:"name"`
	// FullName is the full conference name.
	FullName string `mapstructure:"full_name"`
	// Categories are the topical categories shown in the frontend.
	Categories []string `mapstructure:"categories"`
	// DBLPVenue is the DBLP venue identifier (e.g. "kdd").
	DBLPVenue string `mapstructure:"dblp_venue"`
	// Years are the years to harvest.
	Years []int `mapstructure:"years"`
	// PageSuffixes maps a year (as string) to its listing page suffixes
	// for conferences split into multiple parts (e.g. "2025": ["-1", "-2"]).
	PageSuffixes map[string][]string `mapstructure:"page_suffixes"`
	// UseOpenReview enables the review-platform tiers for this
	// conference even when harvesting captured no forum links.
	UseOpenReview bool `mapstructure:"use_openreview"`
	// ProceedingsFamily names the proceedings site family serving this
	// conference ("neurips"), or empty when none applies.
	ProceedingsFamily string `mapstructure:"proceedings_family"`
	// ExtraTitlePatterns extends the non-paper title filter.
	ExtraTitlePatterns []string `mapstructure:"extra_title_patterns"`
}

// DataConfig holds output locations.
type DataConfig struct {
	// Dir is the directory holding checkpoints, progress logs, and the
	// generated word-cloud artifact.
	Dir string `mapstructure:"dir"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level (trace, debug, info, warn, error, fatal, panic).
	Level string `mapstructure:"level"`
	// Format is the log format (json, console).
	Format string `mapstructure:"format"`
	// Output is the log output destination (stdout, stderr, file path).
	Output string `mapstructure:"output"`
	// TimeFormat is the timestamp format.
	TimeFormat string `mapstructure:"time_format"`
}

// SourcesConfig holds per-source API configurations.
type SourcesConfig struct {
	// DBLP contains bibliographic-index scraper settings.
	DBLP DBLPSourceConfig `mapstructure:"dblp"`
	// OpenAlex contains OpenAlex API settings.
	OpenAlex OpenAlexSourceConfig `mapstructure:"openalex"`
	// SemanticScholar contains Semantic Scholar API settings.
	SemanticScholar SemanticScholarSourceConfig `mapstructure:"semantic_scholar"`
	// OpenReview contains OpenReview API settings.
	OpenReview OpenReviewSourceConfig `mapstructure:"openreview"`
	// NeurIPS contains proceedings-site scraper settings.
	NeurIPS NeurIPSSourceConfig `mapstructure:"neurips"`
}

// DBLPSourceConfig holds DBLP scraper settings.
type DBLPSourceConfig struct {
	// BaseURL is the DBLP site root.
	BaseURL string `mapstructure:"base_url"`
	// Timeout is the per-request timeout.
	Timeout time.Duration `mapstructure:"timeout"`
	// RateLimit is the maximum requests per second.
	RateLimit float64 `mapstructure:"rate_limit"`
}

// OpenAlexSourceConfig holds OpenAlex API settings.
type OpenAlexSourceConfig struct {
	// BaseURL is the API base URL.
	BaseURL string `mapstructure:"base_url"`
	// Email joins the polite pool for faster responses.
	Email string `mapstructure:"email"`
	// Timeout is the per-request timeout.
	Timeout time.Duration `mapstructure:"timeout"`
	// RateLimit is the maximum requests per second.
	RateLimit float64 `mapstructure:"rate_limit"`
	// BatchSize is the number of DOIs per batch request (max 50).
	BatchSize int `mapstructure:"batch_size"`
}

// SemanticScholarSourceConfig holds Semantic Scholar API settings.
type SemanticScholarSourceConfig struct {
	// BaseURL is the Graph API base URL.
	BaseURL string `mapstructure:"base_url"`
	// APIKey raises the rate limit. Loaded only from the environment.
	APIKey string `mapstructure:"-"`
	// Timeout is the per-request timeout.
	Timeout time.Duration `mapstructure:"timeout"`
	// RateLimit is the maximum requests per second.
	RateLimit float64 `mapstructure:"rate_limit"`
}

// OpenReviewSourceConfig holds OpenReview API settings.
type OpenReviewSourceConfig struct {
	// BaseURLV1 is the legacy API base URL.
	BaseURLV1 string `mapstructure:"base_url_v1"`
	// BaseURLV2 is the current API base URL.
	BaseURLV2 string `mapstructure:"base_url_v2"`
	// V2Threshold is the first publication year served by API v2.
	V2Threshold int `mapstructure:"v2_threshold"`
	// Timeout is the per-request timeout.
	Timeout time.Duration `mapstructure:"timeout"`
	// RateLimit is the maximum requests per second.
	RateLimit float64 `mapstructure:"rate_limit"`
}

// NeurIPSSourceConfig holds proceedings-site scraper settings.
type NeurIPSSourceConfig struct {
	// BaseURL is the proceedings site root.
	BaseURL string `mapstructure:"base_url"`
	// Timeout is the per-request timeout.
	Timeout time.Duration `mapstructure:"timeout"`
	// RateLimit is the maximum requests per second.
	RateLimit float64 `mapstructure:"rate_limit"`
}

// EnrichConfig holds enrichment orchestration settings.
type EnrichConfig struct {
	// Resume reloads a prior checkpoint so already-enriched papers are
	// skipped.
	Resume bool `mapstructure:"resume"`
	// ProgressEverySuccesses is the progress-line cadence in successes.
	ProgressEverySuccesses int `mapstructure:"progress_every_successes"`
	// ProgressEveryScanned is the progress-line cadence in papers scanned.
	ProgressEveryScanned int `mapstructure:"progress_every_scanned"`
	// CheckpointEverySuccesses is the checkpoint cadence within a tier.
	CheckpointEverySuccesses int `mapstructure:"checkpoint_every_successes"`
	// MaxBatchRetries bounds request-level retries of a failed batch.
	MaxBatchRetries int `mapstructure:"max_batch_retries"`
	// RetryBaseDelay is the first backoff delay; it doubles per attempt.
	RetryBaseDelay time.Duration `mapstructure:"retry_base_delay"`
}

// KeywordsConfig holds rule-based keyword extraction settings.
type KeywordsConfig struct {
	// Mode selects the extraction backend ("rules" or "llm").
	Mode string `mapstructure:"mode"`
	// NGramSizes are the n-gram lengths to extract (default 1 and 2).
	NGramSizes []int `mapstructure:"ngram_sizes"`
	// MinWordLength filters out short fragments.
	MinWordLength int `mapstructure:"min_word_length"`
	// MaxWordLength filters out degenerate long strings.
	MaxWordLength int `mapstructure:"max_word_length"`
	// MinFrequency is the minimum count for a keyword to be kept.
	MinFrequency int `mapstructure:"min_frequency"`
	// MaxKeywords caps the final keyword list.
	MaxKeywords int `mapstructure:"max_keywords"`
	// ExtraStopwords extends the stopword list.
	ExtraStopwords []string `mapstructure:"extra_stopwords"`
}

// LLMConfig holds LLM keyword extraction settings.
type LLMConfig struct {
	// Provider is the LLM provider ("ollama" or "gemini").
	Provider string `mapstructure:"provider"`
	// KeywordsPerTitle is the keyword count requested per title.
	KeywordsPerTitle int `mapstructure:"keywords_per_title"`
	// BatchSize is the number of titles per API call.
	BatchSize int `mapstructure:"batch_size"`
	// Temperature is the sampling temperature; 0 for deterministic runs.
	Temperature float64 `mapstructure:"temperature"`
	// Timeout is the per-call timeout.
	Timeout time.Duration `mapstructure:"timeout"`
	// MaxRetries bounds retries of transient failures.
	MaxRetries int `mapstructure:"max_retries"`
	// Ollama contains Ollama-specific settings.
	Ollama OllamaConfig `mapstructure:"ollama"`
	// Gemini contains Gemini-specific settings.
	Gemini GeminiConfig `mapstructure:"gemini"`
}

// OllamaConfig holds local Ollama settings.
type OllamaConfig struct {
	// BaseURL is the Ollama server URL.
	BaseURL string `mapstructure:"base_url"`
	// Model is the model identifier.
	Model string `mapstructure:"model"`
}

// GeminiConfig holds Gemini API settings.
type GeminiConfig struct {
	// APIKey authenticates requests. Loaded only from the environment.
	APIKey string `mapstructure:"-"`
	// Model is the model identifier.
	Model string `mapstructure:"model"`
	// BaseURL is the API base URL.
	BaseURL string `mapstructure:"base_url"`
}

// ActiveConference returns the configuration of the selected conference.
func (c *Config) ActiveConference() (ConferenceConfig, error) {
	conf, ok := c.Conferences[c.Conference]
	if !ok {
		return ConferenceConfig{}, fmt.Errorf("%w: unknown conference %q",
			domain.ErrConfiguration, c.Conference)
	}
	return conf, nil
}

// SuffixesForYear returns the listing page suffixes of one year, or a
// single empty suffix for single-part years.
func (c *ConferenceConfig) SuffixesForYear(year int) []string {
	if suffixes, ok := c.PageSuffixes[fmt.Sprintf("%d", year)]; ok {
		return suffixes
	}
	return []string{""}
}

// Load reads configuration from defaults, an optional config file, and
// CONFCLOUD_* environment variables, in increasing precedence.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("CONFCLOUD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/confcloud")

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No config file is fine; env vars and defaults cover everything.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	loadSecrets(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadSecrets populates secret fields exclusively from environment
// variables. These fields are tagged mapstructure:"-" so they can never
// come from a config file.
func loadSecrets(cfg *Config) {
	cfg.LLM.Gemini.APIKey = os.Getenv("CONFCLOUD_LLM_GEMINI_API_KEY")
	cfg.Sources.SemanticScholar.APIKey = os.Getenv("CONFCLOUD_SOURCES_SEMANTIC_SCHOLAR_API_KEY")
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Active conference
	v.SetDefault("conference", "kdd")
	v.SetDefault("conferences.kdd.name", "KDD")
	v.SetDefault("conferences.kdd.full_name", "ACM SIGKDD Conference on Knowledge Discovery and Data Mining")
	v.SetDefault("conferences.kdd.categories", []string{"Data Mining"})
	v.SetDefault("conferences.kdd.dblp_venue", "kdd")
	v.SetDefault("conferences.kdd.years", []int{2020, 2021, 2022, 2023, 2024})
	v.SetDefault("conferences.kdd.page_suffixes.2025", []string{"", "-1", "-2"})

	// Data
	v.SetDefault("data.dir", "data")

	// Logging
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.time_format", time.RFC3339)

	// Sources
	v.SetDefault("sources.dblp.base_url", "https://dblp.org")
	v.SetDefault("sources.dblp.timeout", "30s")
	v.SetDefault("sources.dblp.rate_limit", 1.0)

	v.SetDefault("sources.openalex.base_url", "https://api.openalex.org")
	v.SetDefault("sources.openalex.email", "")
	v.SetDefault("sources.openalex.timeout", "30s")
	v.SetDefault("sources.openalex.rate_limit", 5.0)
	v.SetDefault("sources.openalex.batch_size", 50)

	v.SetDefault("sources.semantic_scholar.base_url", "https://api.semanticscholar.org/graph/v1")
	v.SetDefault("sources.semantic_scholar.timeout", "30s")
	v.SetDefault("sources.semantic_scholar.rate_limit", 1.0)

	v.SetDefault("sources.openreview.base_url_v1", "https://api.openreview.net")
	v.SetDefault("sources.openreview.base_url_v2", "https://api2.openreview.net")
	v.SetDefault("sources.openreview.v2_threshold", 2023)
	v.SetDefault("sources.openreview.timeout", "30s")
	v.SetDefault("sources.openreview.rate_limit", 2.0)

	v.SetDefault("sources.neurips.base_url", "https://papers.nips.cc")
	v.SetDefault("sources.neurips.timeout", "30s")
	v.SetDefault("sources.neurips.rate_limit", 1.0)

	// Enrichment
	v.SetDefault("enrich.resume", true)
	v.SetDefault("enrich.progress_every_successes", 10)
	v.SetDefault("enrich.progress_every_scanned", 50)
	v.SetDefault("enrich.checkpoint_every_successes", 25)
	v.SetDefault("enrich.max_batch_retries", 3)
	v.SetDefault("enrich.retry_base_delay", "2s")

	// Keywords
	v.SetDefault("keywords.mode", "rules")
	v.SetDefault("keywords.ngram_sizes", []int{1, 2})
	v.SetDefault("keywords.min_word_length", 3)
	v.SetDefault("keywords.max_word_length", 30)
	v.SetDefault("keywords.min_frequency", 1)
	v.SetDefault("keywords.max_keywords", 200)

	// LLM
	v.SetDefault("llm.provider", "gemini")
	v.SetDefault("llm.keywords_per_title", 3)
	v.SetDefault("llm.batch_size", 50)
	v.SetDefault("llm.temperature", 0.0)
	v.SetDefault("llm.timeout", "60s")
	v.SetDefault("llm.max_retries", 3)
	// API keys are loaded exclusively from environment variables (see loadSecrets).
	v.SetDefault("llm.ollama.base_url", "http://localhost:11434")
	v.SetDefault("llm.ollama.model", "mixtral:8x7b-instruct-v0.1-q4_K_M")
	v.SetDefault("llm.gemini.model", "gemini-2.5-flash-lite")
	v.SetDefault("llm.gemini.base_url", "https://generativelanguage.googleapis.com/v1beta")
}

// Validate validates the configuration. Errors here are fatal: nothing
// runs on a broken config.
func (c *Config) Validate() error {
	conf, err := c.ActiveConference()
	if err != nil {
		return err
	}
	if conf.Name == "" {
		return fmt.Errorf("%w: conference %q has no name", domain.ErrConfiguration, c.Conference)
	}
	if conf.DBLPVenue == "" {
		return fmt.Errorf("%w: conference %q has no dblp_venue", domain.ErrConfiguration, c.Conference)
	}
	if len(conf.Years) == 0 {
		return fmt.Errorf("%w: conference %q has no years", domain.ErrConfiguration, c.Conference)
	}

	if c.Data.Dir == "" {
		return fmt.Errorf("%w: data.dir is required", domain.ErrConfiguration)
	}

	validLogLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("%w: invalid log level: %s", domain.ErrConfiguration, c.Logging.Level)
	}

	if c.Sources.OpenAlex.BatchSize <= 0 || c.Sources.OpenAlex.BatchSize > 50 {
		return fmt.Errorf("%w: openalex batch_size must be between 1 and 50, got %d",
			domain.ErrConfiguration, c.Sources.OpenAlex.BatchSize)
	}
	for name, rate := range map[string]float64{
		"dblp":             c.Sources.DBLP.RateLimit,
		"openalex":         c.Sources.OpenAlex.RateLimit,
		"semantic_scholar": c.Sources.SemanticScholar.RateLimit,
		"openreview":       c.Sources.OpenReview.RateLimit,
		"neurips":          c.Sources.NeurIPS.RateLimit,
	} {
		if rate <= 0 {
			return fmt.Errorf("%w: sources.%s.rate_limit must be positive", domain.ErrConfiguration, name)
		}
	}

	switch strings.ToLower(c.Keywords.Mode) {
	case "rules", "llm":
	default:
		return fmt.Errorf("%w: unsupported keywords mode: %q", domain.ErrConfiguration, c.Keywords.Mode)
	}

	switch strings.ToLower(c.LLM.Provider) {
	case "ollama":
		// Local server, no credentials required.
	case "gemini":
		// The key is only needed when the LLM backend is actually selected.
		if strings.ToLower(c.Keywords.Mode) == "llm" && c.LLM.Gemini.APIKey == "" {
			return fmt.Errorf("%w: LLM provider %q requires CONFCLOUD_LLM_GEMINI_API_KEY to be set",
				domain.ErrConfiguration, c.LLM.Provider)
		}
	default:
		return fmt.Errorf("%w: unsupported LLM provider: %q", domain.ErrConfiguration, c.LLM.Provider)
	}
	if c.LLM.BatchSize <= 0 {
		return fmt.Errorf("%w: llm.batch_size must be positive", domain.ErrConfiguration)
	}

	return nil
}
