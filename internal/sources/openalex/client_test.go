package openalex

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/confcloud/confcloud/internal/domain"
	"github.com/confcloud/confcloud/internal/sources"
)

func newTestClient(serverURL string) *Client {
	cfg := Config{
		BaseURL:   serverURL,
		Email:     "test@example.com",
		Timeout:   5 * time.Second,
		RateLimit: 1000,
		BatchSize: 50,
	}
	httpClient := sources.NewHTTPClient(sources.HTTPClientConfig{
		Timeout:    cfg.Timeout,
		RateLimit:  cfg.RateLimit,
		Burst:      100,
		RetryDelay: time.Millisecond,
	})
	return NewWithHTTPClient(cfg, httpClient)
}

func TestReconstructAbstract(t *testing.T) {
	t.Run("orders words by position", func(t *testing.T) {
		index := map[string][]int{
			"deep":     {0},
			"learning": {1},
			"models":   {2},
		}
		assert.Equal(t, "deep learning models", ReconstructAbstract(index))
	})

	t.Run("independent of key order", func(t *testing.T) {
		index := map[string][]int{
			"learning": {1},
			"deep":     {0},
		}
		assert.Equal(t, "deep learning", ReconstructAbstract(index))
	})

	t.Run("repeated words", func(t *testing.T) {
		index := map[string][]int{
			"the":   {0, 2},
			"graph": {1, 3},
		}
		assert.Equal(t, "the graph the graph", ReconstructAbstract(index))
	})

	t.Run("empty index", func(t *testing.T) {
		assert.Equal(t, "", ReconstructAbstract(nil))
		assert.Equal(t, "", ReconstructAbstract(map[string][]int{}))
	})
}

func TestBatchFilter(t *testing.T) {
	filter := BatchFilter([]string{"10.1/a", "10.1/B", "https://doi.org/10.1/a", ""})
	assert.Equal(t, []string{"10.1/a", "10.1/b"}, filter)
}

func TestFetchByDOIBatch(t *testing.T) {
	var gotFilter string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotFilter = r.URL.Query().Get("filter")
		resp := ListResponse{
			Meta: Meta{Count: 1},
			Results: []Work{
				{
					ID:           "https://openalex.org/W100",
					DOI:          "https://doi.org/10.1145/3394486.3403043",
					CitedByCount: 42,
					AbstractInvertedIndex: map[string][]int{
						"graph":  {0},
						"mining": {1},
					},
				},
				{
					// No abstract: must not appear in the result map.
					ID:  "https://openalex.org/W200",
					DOI: "https://doi.org/10.1/empty",
				},
			},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	results, err := client.FetchByDOIBatch(context.Background(),
		[]string{"10.1145/3394486.3403043", "10.1/empty", "10.1/missing"})
	require.NoError(t, err)

	assert.Equal(t, "doi:10.1145/3394486.3403043|10.1/empty|10.1/missing", gotFilter)
	require.Len(t, results, 1)

	res := results["10.1145/3394486.3403043"]
	assert.Equal(t, "graph mining", res.Abstract)
	require.NotNil(t, res.CitationCount)
	assert.Equal(t, 42, *res.CitationCount)
	assert.Equal(t, "W100", res.SourceID)
}

func TestFetchByDOIBatchEmptyInput(t *testing.T) {
	client := newTestClient("http://unused.invalid")
	results, err := client.FetchByDOIBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestFetchByDOIBatchServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.FetchByDOIBatch(context.Background(), []string{"10.1/a"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
}

func TestFetchByTitle(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "title.search:scaling laws for neural models", r.URL.Query().Get("filter"))
		resp := ListResponse{
			Meta: Meta{Count: 1},
			Results: []Work{{
				ID:                    "https://openalex.org/W300",
				DOI:                   "https://doi.org/10.1/x",
				CitedByCount:          7,
				AbstractInvertedIndex: map[string][]int{"scaling": {0}, "laws": {1}},
			}},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	res, err := client.FetchByTitle(context.Background(), "Scaling Laws for Neural Models.")
	require.NoError(t, err)

	assert.Equal(t, "scaling laws", res.Abstract)
	assert.Equal(t, "W300", res.SourceID)
}

func TestFetchByTitleNoMatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewEncoder(w).Encode(ListResponse{}))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	res, err := client.FetchByTitle(context.Background(), "Unknown Paper")
	require.NoError(t, err)
	assert.False(t, res.Found())
}
