package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Default values for the Ollama provider.
const (
	defaultOllamaBaseURL    = "http://localhost:11434"
	defaultOllamaModel      = "mixtral:8x7b-instruct-v0.1-q4_K_M"
	defaultOllamaRetryDelay = 2 * time.Second
)

// ollamaRequest is the /api/generate request body.
type ollamaRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Format  string        `json:"format"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
}

// ollamaResponse is the non-streaming /api/generate response body.
type ollamaResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// OllamaConfig holds the parameters for a local Ollama provider.
type OllamaConfig struct {
	// BaseURL is the Ollama server URL (empty means default).
	BaseURL string
	// Model is the model identifier (empty means default).
	Model string
}

// OllamaProvider implements KeywordExtractor against a local Ollama
// server.
type OllamaProvider struct {
	httpClient  *http.Client
	baseURL     string
	model       string
	temperature float64
	maxRetries  int
	retryDelay  time.Duration
}

// NewOllamaProvider creates an Ollama keyword extraction provider.
func NewOllamaProvider(cfg OllamaConfig, temperature float64, timeout time.Duration, maxRetries int) *OllamaProvider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultOllamaBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultOllamaModel
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &OllamaProvider{
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     baseURL,
		model:       model,
		temperature: temperature,
		maxRetries:  maxRetries,
		retryDelay:  defaultOllamaRetryDelay,
	}
}

// ExtractKeywords sends one batch of titles through /api/generate with
// JSON output forced. Transient failures are retried with increasing
// delay.
func (p *OllamaProvider) ExtractKeywords(ctx context.Context, req ExtractionRequest) (*ExtractionResult, error) {
	genReq := ollamaRequest{
		Model:   p.model,
		Prompt:  BuildExtractionPrompt(req),
		Format:  "json",
		Stream:  false,
		Options: ollamaOptions{Temperature: p.temperature},
	}

	var lastErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if attempt > 0 {
			delay := p.retryDelay * time.Duration(attempt)
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("ollama: context cancelled during retry wait: %w", ctx.Err())
			case <-time.After(delay):
			}
		}

		result, err := p.doRequest(ctx, genReq, req)
		if err == nil {
			return result, nil
		}
		if !isTransientError(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("ollama: exhausted %d retries: %w", p.maxRetries, lastErr)
}

// Provider returns the provider name.
func (p *OllamaProvider) Provider() string { return "ollama" }

// Model returns the model identifier being used.
func (p *OllamaProvider) Model() string { return p.model }

func (p *OllamaProvider) doRequest(ctx context.Context, genReq ollamaRequest, req ExtractionRequest) (*ExtractionResult, error) {
	body, err := json.Marshal(genReq)
	if err != nil {
		return nil, fmt.Errorf("ollama: failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ollama: failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, &APIError{Provider: "ollama", StatusCode: 0, Message: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("ollama: failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Provider: "ollama", StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	var genResp ollamaResponse
	if err := json.Unmarshal(respBody, &genResp); err != nil {
		return nil, fmt.Errorf("ollama: failed to unmarshal response: %w", err)
	}

	var parsed llmResponse
	if err := json.Unmarshal([]byte(genResp.Response), &parsed); err != nil {
		return nil, fmt.Errorf("ollama: failed to parse model JSON response: %w", err)
	}
	return parseExtraction(parsed, req, p.model)
}
