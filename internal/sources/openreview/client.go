// Package openreview fetches paper abstracts from the OpenReview API.
// Venues migrated to API v2 over time, so the client picks the endpoint
// per paper year: v2 for years at or past the cutover, v1 before it.
package openreview

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
	// DefaultBaseURLV1 is the base URL of the legacy API.
	DefaultBaseURLV1 = "https://api.openreview.net"

	// DefaultBaseURLV2 is the base URL of the current API.
	DefaultBaseURLV2 = "https://api2.openreview.net"

	// DefaultV2Threshold is the first publication year served by API v2.
	DefaultV2Threshold = 2023

	// DefaultRateLimit is the maximum requests per second.
	DefaultRateLimit = 2.0

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// searchLimit caps how many notes a title search returns.
	searchLimit = 10

	sourceName = "OpenReview"
)

// Config contains configuration options for the client.
type Config struct {
	// BaseURLV1 is the legacy API base URL. Defaults to DefaultBaseURLV1.
	BaseURLV1 string

	// BaseURLV2 is the current API base URL. Defaults to DefaultBaseURLV2.
	BaseURLV2 string

	// V2Threshold is the first publication year served by API v2.
	V2Threshold int

	// Timeout is the per-request timeout.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	RateLimit float64
}

func (c *Config) applyDefaults() {
	if c.BaseURLV1 == "" {
		c.BaseURLV1 = DefaultBaseURLV1
	}
	if c.BaseURLV2 == "" {
		c.BaseURLV2 = DefaultBaseURLV2
	}
	if c.V2Threshold == 0 {
		c.V2Threshold = DefaultV2Threshold
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.RateLimit == 0 {
		c.RateLimit = DefaultRateLimit
	}
}

// Client queries the OpenReview API.
type Client struct {
	config     Config
	httpClient *sources.HTTPClient
}

// New creates a new OpenReview client.
func New(cfg Config) *Client {
	cfg.applyDefaults()
	httpClient := sources.NewHTTPClient(sources.HTTPClientConfig{
		Timeout:   cfg.Timeout,
		RateLimit: cfg.RateLimit,
	})
	return &Client{config: cfg, httpClient: httpClient}
}

// NewWithHTTPClient creates a client with a caller-supplied HTTP client,
// for tests against a fake server.
func NewWithHTTPClient(cfg Config, httpClient *sources.HTTPClient) *Client {
	cfg.applyDefaults()
	return &Client{config: cfg, httpClient: httpClient}
}

// baseURL selects the API version for a publication year.
func (c *Client) baseURL(year int) string {
	if year >= c.config.V2Threshold {
		return c.config.BaseURLV2
	}
	return c.config.BaseURLV1
}

// FetchByForum retrieves the abstract of the submission note of a forum.
// An unknown forum maps to the zero result. OpenReview does not expose
// citation counts, so the result never carries one.
func (c *Client) FetchByForum(ctx context.Context, forumID string, year int) (domain.EnrichmentResult, error) {
	if forumID == "" {
		return domain.EnrichmentResult{}, nil
	}

	reqURL := fmt.Sprintf("%s/notes?forum=%s", c.baseURL(year), url.QueryEscape(forumID))
	notes, err := c.getNotes(ctx, reqURL)
	if err != nil {
		return domain.EnrichmentResult{}, err
	}

	note := submissionNote(notes, forumID)
	if note == nil {
		return domain.EnrichmentResult{}, nil
	}
	abstract := note.Abstract()
	if abstract == "" {
		return domain.EnrichmentResult{}, nil
	}
	return domain.EnrichmentResult{
		Abstract: abstract,
		SourceID: note.ID,
	}, nil
}

// FindForumID recovers a forum id by exact-title search. Returns the
// empty string when no note's title matches.
func (c *Client) FindForumID(ctx context.Context, title string, year int) (string, error) {
	normalized := domain.NormalizeTitle(title)
	if normalized == "" {
		return "", nil
	}

	query := url.Values{}
	query.Set("term", title)
	query.Set("limit", fmt.Sprintf("%d", searchLimit))
	if year < c.config.V2Threshold {
		query.Set("content", "all")
		query.Set("group", "all")
		query.Set("source", "forum")
	}

	reqURL := fmt.Sprintf("%s/notes/search?%s", c.baseURL(year), query.Encode())
	notes, err := c.getNotes(ctx, reqURL)
	if err != nil {
		return "", err
	}

	for i := range notes {
		if domain.NormalizeTitle(notes[i].Title()) == normalized {
			if notes[i].Forum != "" {
				return notes[i].Forum, nil
			}
			return notes[i].ID, nil
		}
	}
	return "", nil
}

func (c *Client) getNotes(ctx context.Context, reqURL string) ([]Note, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewExternalAPIError(sourceName, 0, "executing request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, sources.APIError(sourceName, resp)
	}

	var result NotesResponse
	if err := sources.DecodeJSON(sourceName, resp.Body, &result); err != nil {
		return nil, err
	}
	return result.Notes, nil
}

// submissionNote picks the note carrying the paper itself: the one whose
// id equals the forum id, or failing that the first note with an
// abstract. Forums also hold reviews and comments as sibling notes.
func submissionNote(notes []Note, forumID string) *Note {
	for i := range notes {
		if notes[i].ID == forumID {
			return &notes[i]
		}
	}
	for i := range notes {
		if notes[i].Abstract() != "" {
			return &notes[i]
		}
	}
	return nil
}
