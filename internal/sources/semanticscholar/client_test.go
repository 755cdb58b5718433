package semanticscholar

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

	"github.com/confcloud/confcloud/internal/domain"
	"github.com/confcloud/confcloud/internal/sources"
)

func newTestClient(serverURL string) *Client {
	httpClient := sources.NewHTTPClient(sources.HTTPClientConfig{
		Timeout:    5 * time.Second,
		RateLimit:  1000,
		Burst:      100,
		MaxRetries: 2,
		RetryDelay: time.Millisecond,
	})
	return NewWithHTTPClient(Config{BaseURL: serverURL}, httpClient)
}

func TestFetchByDOI(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/paper/DOI:10.1145/3394486.3403043", r.URL.Path)
		assert.Equal(t, "paperId,title,abstract,citationCount", r.URL.Query().Get("fields"))
		require.NoError(t, json.NewEncoder(w).Encode(PaperResult{
			PaperID:       "649def34f8be52c8b66281af98ae884c09aef38b",
			Title:         "Sample",
			Abstract:      "An abstract.",
			CitationCount: 9,
		}))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	res, err := client.FetchByDOI(context.Background(), "https://doi.org/10.1145/3394486.3403043")
	require.NoError(t, err)

	assert.Equal(t, "An abstract.", res.Abstract)
	require.NotNil(t, res.CitationCount)
	assert.Equal(t, 9, *res.CitationCount)
	assert.Equal(t, "649def34f8be52c8b66281af98ae884c09aef38b", res.SourceID)
}

func TestFetchByDOINotFound(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error": "Paper not found"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	res, err := client.FetchByDOI(context.Background(), "10.1/missing")

	// Not found is an expected outcome: zero result, no error, no retry.
	require.NoError(t, err)
	assert.False(t, res.Found())
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetchByDOIUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.FetchByDOI(context.Background(), "10.1/a")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
}

func TestFetchByDOIEmptyAbstract(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewEncoder(w).Encode(PaperResult{PaperID: "x", CitationCount: 3}))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	res, err := client.FetchByDOI(context.Background(), "10.1/a")
	require.NoError(t, err)

	// A record without an abstract does not count as found.
	assert.False(t, res.Found())
}

func TestFetchByDOIEmptyInput(t *testing.T) {
	client := newTestClient("http://unused.invalid")
	res, err := client.FetchByDOI(context.Background(), "")
	require.NoError(t, err)
	assert.False(t, res.Found())
}
