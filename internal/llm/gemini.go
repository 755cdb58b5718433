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

// Default values for the Gemini provider.
const (
	defaultGeminiBaseURL    = "https://generativelanguage.googleapis.com/v1beta"
	defaultGeminiModel      = "gemini-2.5-flash-lite"
	defaultGeminiRetryDelay = 2 * time.Second
)

// geminiRequest is the generateContent request body.
type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	Temperature      float64 `json:"temperature"`
	ResponseMimeType string  `json:"responseMimeType"`
}

// geminiResponse is the generateContent response body.
type geminiResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason"`
}

// geminiErrorResponse is the error body shape of the Gemini API.
type geminiErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// GeminiConfig holds the parameters for the Gemini provider.
type GeminiConfig struct {
	// APIKey is the Gemini API key.
	APIKey string
	// Model is the model identifier (empty means default).
	Model string
	// BaseURL is the API base URL (empty means default).
	BaseURL string
}

// GeminiProvider implements KeywordExtractor using the Gemini API.
type GeminiProvider struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	model       string
	temperature float64
	maxRetries  int
	retryDelay  time.Duration
}

// NewGeminiProvider creates a Gemini keyword extraction provider.
func NewGeminiProvider(cfg GeminiConfig, temperature float64, timeout time.Duration, maxRetries int) *GeminiProvider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultGeminiBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultGeminiModel
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &GeminiProvider{
		httpClient:  &http.Client{Timeout: timeout},
		apiKey:      cfg.APIKey,
		baseURL:     baseURL,
		model:       model,
		temperature: temperature,
		maxRetries:  maxRetries,
		retryDelay:  defaultGeminiRetryDelay,
	}
}

// ExtractKeywords sends one batch of titles through generateContent
// with a JSON response mime type. Transient failures (429, 5xx) are
// retried with increasing delay; the free tier rate-limits aggressively.
func (p *GeminiProvider) ExtractKeywords(ctx context.Context, req ExtractionRequest) (*ExtractionResult, error) {
	genReq := geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: BuildExtractionPrompt(req)}}},
		},
		GenerationConfig: geminiGenerationConfig{
			Temperature:      p.temperature,
			ResponseMimeType: "application/json",
		},
	}

	var lastErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if attempt > 0 {
			delay := p.retryDelay * time.Duration(attempt)
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("gemini: context cancelled during retry wait: %w", ctx.Err())
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
	return nil, fmt.Errorf("gemini: exhausted %d retries: %w", p.maxRetries, lastErr)
}

// Provider returns the provider name.
func (p *GeminiProvider) Provider() string { return "gemini" }

// Model returns the model identifier being used.
func (p *GeminiProvider) Model() string { return p.model }

func (p *GeminiProvider) doRequest(ctx context.Context, genReq geminiRequest, req ExtractionRequest) (*ExtractionResult, error) {
	body, err := json.Marshal(genReq)
	if err != nil {
		return nil, fmt.Errorf("gemini: failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", p.baseURL, p.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("gemini: failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", p.apiKey)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, &APIError{Provider: "gemini", StatusCode: 0, Message: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("gemini: failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, parseGeminiAPIError(resp.StatusCode, respBody)
	}

	var genResp geminiResponse
	if err := json.Unmarshal(respBody, &genResp); err != nil {
		return nil, fmt.Errorf("gemini: failed to unmarshal response: %w", err)
	}
	if len(genResp.Candidates) == 0 || len(genResp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("gemini: empty candidates in response")
	}

	var parsed llmResponse
	text := genResp.Candidates[0].Content.Parts[0].Text
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return nil, fmt.Errorf("gemini: failed to parse model JSON response: %w", err)
	}
	return parseExtraction(parsed, req, p.model)
}

// parseGeminiAPIError parses a Gemini API error response.
func parseGeminiAPIError(statusCode int, body []byte) *APIError {
	apiErr := &APIError{Provider: "gemini", StatusCode: statusCode, Message: string(body)}
	var errResp geminiErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		apiErr.Message = errResp.Error.Message
	}
	return apiErr
}
