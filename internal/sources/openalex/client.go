// Package openalex fetches abstracts and citation counts from the OpenAlex
// works API, batched by DOI with a title-search fallback.
package openalex

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/confcloud/confcloud/internal/domain"
	"github.com/confcloud/confcloud/internal/sources"
)

const (
	// DefaultBaseURL is the default OpenAlex API base URL.
	DefaultBaseURL = "https://api.openalex.org"

	// DefaultRateLimit keeps the client inside the polite pool allowance.
	DefaultRateLimit = 5.0

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultBatchSize is the default number of DOIs per batch request.
	// OpenAlex accepts up to 50 values in one filter clause.
	DefaultBatchSize = 50

	// MaxBatchSize is the hard API limit on filter values per request.
	MaxBatchSize = 50

	// openAlexIDPrefix is the URL prefix on OpenAlex work ids.
	openAlexIDPrefix = "https://openalex.org/"

	sourceName = "OpenAlex"
)

// Config holds configuration for the OpenAlex client.
type Config struct {
	// BaseURL is the API base URL. Defaults to DefaultBaseURL.
	BaseURL string

	// Email is the contact address for the polite pool; sent as mailto.
	Email string

	// Timeout is the per-request timeout.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	RateLimit float64

	// BatchSize is the number of DOIs per batch request, capped at
	// MaxBatchSize.
	BatchSize int
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.RateLimit == 0 {
		c.RateLimit = DefaultRateLimit
	}
	if c.BatchSize <= 0 || c.BatchSize > MaxBatchSize {
		c.BatchSize = DefaultBatchSize
	}
}

// Client queries the OpenAlex works API.
type Client struct {
	config     Config
	httpClient *sources.HTTPClient
}

// New creates a new OpenAlex client.
func New(cfg Config) *Client {
	cfg.applyDefaults()
	httpClient := sources.NewHTTPClient(sources.HTTPClientConfig{
		Timeout:   cfg.Timeout,
		RateLimit: cfg.RateLimit,
		UserAgent: "confcloud/1.0 (mailto:" + cfg.Email + ")",
	})
	return &Client{config: cfg, httpClient: httpClient}
}

// NewWithHTTPClient creates a client with a caller-supplied HTTP client,
// for tests against a fake server.
func NewWithHTTPClient(cfg Config, httpClient *sources.HTTPClient) *Client {
	cfg.applyDefaults()
	return &Client{config: cfg, httpClient: httpClient}
}

// BatchSize returns the effective batch size after defaulting and capping.
func (c *Client) BatchSize() int {
	return c.config.BatchSize
}

// FetchByDOIBatch looks up a batch of works by DOI in a single request.
// The result map is keyed by normalized DOI; DOIs the API did not match are
// simply absent. The input may exceed nothing: callers are expected to chunk
// to BatchSize.
func (c *Client) FetchByDOIBatch(ctx context.Context, dois []string) (map[string]domain.EnrichmentResult, error) {
	filter := BatchFilter(dois)
	if len(filter) == 0 {
		return map[string]domain.EnrichmentResult{}, nil
	}

	reqURL, err := c.listURL(url.Values{
		"filter":   {"doi:" + strings.Join(filter, "|")},
		"per-page": {strconv.Itoa(len(filter))},
	})
	if err != nil {
		return nil, err
	}

	var listResp ListResponse
	if err := c.get(ctx, reqURL, &listResp); err != nil {
		return nil, err
	}

	results := make(map[string]domain.EnrichmentResult, len(listResp.Results))
	for i := range listResp.Results {
		work := &listResp.Results[i]
		doi := domain.NormalizeDOI(work.DOI)
		if doi == "" {
			continue
		}
		if res := workToResult(work); res.Found() {
			results[doi] = res
		}
	}
	return results, nil
}

// FetchByTitle looks up a single work by title search, for records whose
// DOI lookup failed. Returns a zero result when nothing matches.
func (c *Client) FetchByTitle(ctx context.Context, title string) (domain.EnrichmentResult, error) {
	normalized := domain.NormalizeTitle(title)
	if normalized == "" {
		return domain.EnrichmentResult{}, nil
	}

	reqURL, err := c.listURL(url.Values{
		"filter":   {"title.search:" + normalized},
		"per-page": {"1"},
	})
	if err != nil {
		return domain.EnrichmentResult{}, err
	}

	var listResp ListResponse
	if err := c.get(ctx, reqURL, &listResp); err != nil {
		return domain.EnrichmentResult{}, err
	}
	if len(listResp.Results) == 0 {
		return domain.EnrichmentResult{}, nil
	}
	return workToResult(&listResp.Results[0]), nil
}

// BatchFilter normalizes and de-duplicates a DOI batch into the value set
// used in the filter clause. Order follows first occurrence.
func BatchFilter(dois []string) []string {
	seen := make(map[string]struct{}, len(dois))
	filter := make([]string, 0, len(dois))
	for _, doi := range dois {
		normalized := domain.NormalizeDOI(doi)
		if normalized == "" {
			continue
		}
		if _, dup := seen[normalized]; dup {
			continue
		}
		seen[normalized] = struct{}{}
		filter = append(filter, normalized)
	}
	return filter
}

func (c *Client) listURL(query url.Values) (string, error) {
	baseURL, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parsing base URL: %w", err)
	}
	baseURL.Path = "/works"
	if c.config.Email != "" {
		query.Set("mailto", c.config.Email)
	}
	baseURL.RawQuery = query.Encode()
	return baseURL.String(), nil
}

func (c *Client) get(ctx context.Context, reqURL string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.NewExternalAPIError(sourceName, 0, "executing request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		// Listing endpoints return empty result sets rather than 404,
		// but treat it as "no records" if it ever appears.
		return nil
	}
	if resp.StatusCode != http.StatusOK {
		return sources.APIError(sourceName, resp)
	}
	return sources.DecodeJSON(sourceName, resp.Body, v)
}

func workToResult(work *Work) domain.EnrichmentResult {
	abstract := ReconstructAbstract(work.AbstractInvertedIndex)
	if abstract == "" {
		return domain.EnrichmentResult{}
	}
	count := work.CitedByCount
	return domain.EnrichmentResult{
		Abstract:      abstract,
		CitationCount: &count,
		SourceID:      strings.TrimPrefix(work.ID, openAlexIDPrefix),
	}
}

// maxAbstractWords bounds inverted indexes accepted from the API.
const maxAbstractWords = 100_000

// ReconstructAbstract rebuilds linear text from OpenAlex's inverted
// word-position index: every (position, word) pair is sorted by position
// and the words joined with single spaces, so the output is independent of
// map iteration order.
func ReconstructAbstract(invertedIndex map[string][]int) string {
	if len(invertedIndex) == 0 {
		return ""
	}

	type posWord struct {
		pos  int
		word string
	}
	total := 0
	for _, positions := range invertedIndex {
		total += len(positions)
	}
	if total > maxAbstractWords {
		return ""
	}

	pairs := make([]posWord, 0, total)
	for word, positions := range invertedIndex {
		for _, pos := range positions {
			pairs = append(pairs, posWord{pos: pos, word: word})
		}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].pos < pairs[j].pos })

	var builder strings.Builder
	builder.Grow(total * 7)
	for i, pair := range pairs {
		if i > 0 {
			builder.WriteByte(' ')
		}
		builder.WriteString(pair.word)
	}
	return builder.String()
}
