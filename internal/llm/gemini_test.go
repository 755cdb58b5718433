package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func geminiOK(t *testing.T, w http.ResponseWriter, text string) {
	t.Helper()
	resp := geminiResponse{
		Candidates: []geminiCandidate{
			{Content: geminiContent{Parts: []geminiPart{{Text: text}}}, FinishReason: "STOP"},
		},
	}
	require.NoError(t, json.NewEncoder(w).Encode(resp))
}

func newGeminiTestProvider(serverURL string, maxRetries int) *GeminiProvider {
	p := NewGeminiProvider(GeminiConfig{APIKey: "test-key", Model: "test-model", BaseURL: serverURL},
		0, 5*time.Second, maxRetries)
	p.retryDelay = time.Millisecond
	return p
}

func TestGeminiExtractKeywords(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/test-model:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))

		var genReq geminiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&genReq))
		assert.Equal(t, "application/json", genReq.GenerationConfig.ResponseMimeType)
		assert.Zero(t, genReq.GenerationConfig.Temperature)

		geminiOK(t, w, `{"keywords": [["federated learning", "privacy"], ["diffusion models"]]}`)
	}))
	defer server.Close()

	provider := newGeminiTestProvider(server.URL, 0)
	result, err := provider.ExtractKeywords(context.Background(), ExtractionRequest{
		Titles: []string{"Federated Learning with DP", "Diffusion at Scale"},
	})
	require.NoError(t, err)

	require.Len(t, result.Keywords, 2)
	assert.Equal(t, []string{"federated learning", "privacy"}, result.Keywords[0])
}

func TestGeminiRateLimitRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error": {"code": 429, "message": "quota exceeded", "status": "RESOURCE_EXHAUSTED"}}`))
			return
		}
		geminiOK(t, w, `{"keywords": [["topic"]]}`)
	}))
	defer server.Close()

	provider := newGeminiTestProvider(server.URL, 2)
	result, err := provider.ExtractKeywords(context.Background(), ExtractionRequest{Titles: []string{"T"}})
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, [][]string{{"topic"}}, result.Keywords)
}

func TestGeminiBadRequestNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": {"code": 400, "message": "invalid argument", "status": "INVALID_ARGUMENT"}}`))
	}))
	defer server.Close()

	provider := newGeminiTestProvider(server.URL, 3)
	_, err := provider.ExtractKeywords(context.Background(), ExtractionRequest{Titles: []string{"T"}})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
	assert.Contains(t, err.Error(), "invalid argument")
}

func TestGeminiEmptyCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewEncoder(w).Encode(geminiResponse{}))
	}))
	defer server.Close()

	provider := newGeminiTestProvider(server.URL, 0)
	_, err := provider.ExtractKeywords(context.Background(), ExtractionRequest{Titles: []string{"T"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty candidates")
}
