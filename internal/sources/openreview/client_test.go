package openreview

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

func rawContent(t *testing.T, body string) map[string]json.RawMessage {
	t.Helper()
	var content map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(body), &content))
	return content
}

func newTestClient(v1URL, v2URL string) *Client {
	httpClient := sources.NewHTTPClient(sources.HTTPClientConfig{
		Timeout:    5 * time.Second,
		RateLimit:  1000,
		Burst:      100,
		MaxRetries: 1,
		RetryDelay: time.Millisecond,
	})
	return NewWithHTTPClient(Config{
		BaseURLV1:   v1URL,
		BaseURLV2:   v2URL,
		V2Threshold: 2023,
	}, httpClient)
}

func TestNoteContentString(t *testing.T) {
	t.Run("bare value", func(t *testing.T) {
		note := Note{Content: rawContent(t, `{"abstract": "plain text"}`)}
		assert.Equal(t, "plain text", note.Abstract())
	})

	t.Run("wrapped value", func(t *testing.T) {
		note := Note{Content: rawContent(t, `{"abstract": {"value": "wrapped text"}}`)}
		assert.Equal(t, "wrapped text", note.Abstract())
	})

	t.Run("tldr fallback", func(t *testing.T) {
		note := Note{Content: rawContent(t, `{"TL;DR": {"value": "short summary"}}`)}
		assert.Equal(t, "short summary", note.Abstract())
	})

	t.Run("missing field", func(t *testing.T) {
		note := Note{Content: rawContent(t, `{}`)}
		assert.Equal(t, "", note.Abstract())
	})
}

func TestFetchByForumV2(t *testing.T) {
	v2 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/notes", r.URL.Path)
		assert.Equal(t, "abc123", r.URL.Query().Get("forum"))
		_, _ = w.Write([]byte(`{"notes": [
			{"id": "review1", "forum": "abc123", "content": {"review": {"value": "good paper"}}},
			{"id": "abc123", "forum": "abc123", "content": {
				"title": {"value": "A Paper"},
				"abstract": {"value": "The abstract text."}
			}}
		], "count": 2}`))
	}))
	defer v2.Close()

	client := newTestClient("http://v1.invalid", v2.URL)
	res, err := client.FetchByForum(context.Background(), "abc123", 2024)
	require.NoError(t, err)

	assert.Equal(t, "The abstract text.", res.Abstract)
	assert.Equal(t, "abc123", res.SourceID)
	assert.Nil(t, res.CitationCount)
}

func TestFetchByForumV1(t *testing.T) {
	v1 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"notes": [
			{"id": "xyz", "forum": "xyz", "content": {
				"title": "Old Paper",
				"abstract": "Legacy abstract."
			}}
		], "count": 1}`))
	}))
	defer v1.Close()

	client := newTestClient(v1.URL, "http://v2.invalid")
	res, err := client.FetchByForum(context.Background(), "xyz", 2021)
	require.NoError(t, err)
	assert.Equal(t, "Legacy abstract.", res.Abstract)
}

func TestFetchByForumNotFound(t *testing.T) {
	v2 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer v2.Close()

	client := newTestClient("http://v1.invalid", v2.URL)
	res, err := client.FetchByForum(context.Background(), "missing", 2024)
	require.NoError(t, err)
	assert.False(t, res.Found())
}

func TestFetchByForumUnavailable(t *testing.T) {
	v2 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer v2.Close()

	client := newTestClient("http://v1.invalid", v2.URL)
	_, err := client.FetchByForum(context.Background(), "abc", 2024)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
}

func TestFetchByForumEmptyID(t *testing.T) {
	client := newTestClient("http://v1.invalid", "http://v2.invalid")
	res, err := client.FetchByForum(context.Background(), "", 2024)
	require.NoError(t, err)
	assert.False(t, res.Found())
}

func TestFindForumID(t *testing.T) {
	v2 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/notes/search", r.URL.Path)
		assert.Equal(t, "Graph Attention Networks", r.URL.Query().Get("term"))
		_, _ = w.Write([]byte(`{"notes": [
			{"id": "n1", "forum": "f1", "content": {"title": {"value": "Graph Attention Surveys"}}},
			{"id": "n2", "forum": "f2", "content": {"title": {"value": "Graph Attention Networks."}}}
		], "count": 2}`))
	}))
	defer v2.Close()

	client := newTestClient("http://v1.invalid", v2.URL)
	forumID, err := client.FindForumID(context.Background(), "Graph Attention Networks", 2024)
	require.NoError(t, err)

	// Titles match after normalization despite the trailing period.
	assert.Equal(t, "f2", forumID)
}

func TestFindForumIDLegacyParams(t *testing.T) {
	v1 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "all", r.URL.Query().Get("content"))
		assert.Equal(t, "all", r.URL.Query().Get("group"))
		assert.Equal(t, "forum", r.URL.Query().Get("source"))
		_, _ = w.Write([]byte(`{"notes": [], "count": 0}`))
	}))
	defer v1.Close()

	client := newTestClient(v1.URL, "http://v2.invalid")
	forumID, err := client.FindForumID(context.Background(), "Some Title", 2020)
	require.NoError(t, err)
	assert.Equal(t, "", forumID)
}

func TestFindForumIDNoMatch(t *testing.T) {
	v2 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"notes": [
			{"id": "n1", "forum": "f1", "content": {"title": {"value": "Unrelated Work"}}}
		], "count": 1}`))
	}))
	defer v2.Close()

	client := newTestClient("http://v1.invalid", v2.URL)
	forumID, err := client.FindForumID(context.Background(), "A Different Paper", 2024)
	require.NoError(t, err)
	assert.Equal(t, "", forumID)
}
