// Package semanticscholar fetches abstracts from the Semantic Scholar
// Graph API by DOI. It is the last metadata-API fallback tier: single
// lookups only, 404 means "no record".
package semanticscholar

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/confcloud/confcloud/internal/domain"
	"github.com/confcloud/confcloud/internal/sources"
)

const (
	// DefaultBaseURL is the default base URL for the Graph API.
	DefaultBaseURL = "https://api.semanticscholar.org/graph/v1"

	// DefaultRateLimit is the unauthenticated allowance; an API key
	// raises it.
	DefaultRateLimit = 1.0

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// apiKeyHeader is the header carrying the Semantic Scholar API key.
	apiKeyHeader = "x-api-key"

	// paperFields limits the response to the fields the pipeline uses.
	paperFields = "paperId,title,abstract,citationCount"

	sourceName = "Semantic Scholar"
)

// Config contains configuration options for the client.
type Config struct {
	// BaseURL is the API base URL. Defaults to DefaultBaseURL.
	BaseURL string

	// APIKey optionally authenticates requests for higher rate limits.
	APIKey string

	// Timeout is the per-request timeout.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	RateLimit float64
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
}

// Client queries the Semantic Scholar Graph API.
type Client struct {
	config     Config
	httpClient *sources.HTTPClient
}

// New creates a new Semantic Scholar client.
func New(cfg Config) *Client {
	cfg.applyDefaults()
	httpClient := sources.NewHTTPClient(sources.HTTPClientConfig{
		Timeout:      cfg.Timeout,
		RateLimit:    cfg.RateLimit,
		APIKey:       cfg.APIKey,
		APIKeyHeader: apiKeyHeader,
	})
	return &Client{config: cfg, httpClient: httpClient}
}

// NewWithHTTPClient creates a client with a caller-supplied HTTP client,
// for tests against a fake server.
func NewWithHTTPClient(cfg Config, httpClient *sources.HTTPClient) *Client {
	cfg.applyDefaults()
	return &Client{config: cfg, httpClient: httpClient}
}

// FetchByDOI looks up one paper by DOI. A 404 maps to the zero result.
func (c *Client) FetchByDOI(ctx context.Context, doi string) (domain.EnrichmentResult, error) {
	normalized := domain.NormalizeDOI(doi)
	if normalized == "" {
		return domain.EnrichmentResult{}, nil
	}

	reqURL := fmt.Sprintf("%s/paper/DOI:%s?fields=%s",
		c.config.BaseURL, url.PathEscape(normalized), paperFields)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return domain.EnrichmentResult{}, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.EnrichmentResult{}, domain.NewExternalAPIError(sourceName, 0, "executing request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return domain.EnrichmentResult{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return domain.EnrichmentResult{}, sources.APIError(sourceName, resp)
	}

	var result PaperResult
	if err := sources.DecodeJSON(sourceName, resp.Body, &result); err != nil {
		return domain.EnrichmentResult{}, err
	}
	if result.Abstract == "" {
		return domain.EnrichmentResult{}, nil
	}

	count := result.CitationCount
	return domain.EnrichmentResult{
		Abstract:      result.Abstract,
		CitationCount: &count,
		SourceID:      result.PaperID,
	}, nil
}
