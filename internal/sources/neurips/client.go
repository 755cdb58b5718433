// Package neurips scrapes abstracts from the NeurIPS proceedings site.
// Paper pages live at stable hash URLs of the form
// /paper_files/paper/<year>/hash/<md5>-Abstract-<track>.html; the
// abstract is the paragraph following the "Abstract" heading.
package neurips

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/confcloud/confcloud/internal/domain"
	"github.com/confcloud/confcloud/internal/sources"
)

const (
	// DefaultBaseURL is the proceedings site root.
	DefaultBaseURL = "https://papers.nips.cc"

	// DefaultTrack is the track assumed when a stored URL carries none.
	DefaultTrack = "Conference"

	// DefaultRateLimit keeps the scraper polite.
	DefaultRateLimit = 1.0

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	sourceName = "NeurIPS proceedings"
)

// hashURLPattern matches the hash and optional track segment of a
// proceedings paper URL.
var hashURLPattern = regexp.MustCompile(`/hash/([a-f0-9]{32})-Abstract(?:-([A-Za-z_]+))?\.html`)

// PaperRef identifies one paper page on the proceedings site.
type PaperRef struct {
	Year  int
	Hash  string
	Track string
}

// ExtractRef parses a proceedings URL into its hash and track. The
// second return is false when the URL is not a paper hash URL.
func ExtractRef(pageURL string, year int) (PaperRef, bool) {
	m := hashURLPattern.FindStringSubmatch(pageURL)
	if m == nil {
		return PaperRef{}, false
	}
	ref := PaperRef{Year: year, Hash: m[1], Track: m[2]}
	if ref.Track == "" {
		ref.Track = DefaultTrack
	}
	return ref, true
}

// Config contains configuration options for the client.
type Config struct {
	// BaseURL is the proceedings site root. Defaults to DefaultBaseURL.
	BaseURL string

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

// Client scrapes the NeurIPS proceedings site.
type Client struct {
	config     Config
	httpClient *sources.HTTPClient
}

// New creates a new proceedings client.
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

// PageURL builds the paper page URL for a reference.
func (c *Client) PageURL(ref PaperRef) string {
	track := ref.Track
	if track == "" {
		track = DefaultTrack
	}
	return fmt.Sprintf("%s/paper_files/paper/%d/hash/%s-Abstract-%s.html",
		c.config.BaseURL, ref.Year, ref.Hash, track)
}

// FetchByURL retrieves the abstract behind a harvested proceedings URL.
// URLs that are not paper hash URLs map to the zero result.
func (c *Client) FetchByURL(ctx context.Context, pageURL string, year int) (domain.EnrichmentResult, error) {
	ref, ok := ExtractRef(pageURL, year)
	if !ok {
		return domain.EnrichmentResult{}, nil
	}
	return c.FetchAbstract(ctx, ref)
}

// FetchAbstract retrieves the abstract of one paper page. A missing
// page maps to the zero result. The proceedings site has no citation
// data, so the result never carries a count.
func (c *Client) FetchAbstract(ctx context.Context, ref PaperRef) (domain.EnrichmentResult, error) {
	if ref.Hash == "" {
		return domain.EnrichmentResult{}, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.PageURL(ref), nil)
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

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return domain.EnrichmentResult{}, domain.NewMalformedResponseError(sourceName, "parsing HTML", err)
	}

	abstract := extractAbstract(doc)
	if abstract == "" {
		return domain.EnrichmentResult{}, nil
	}
	return domain.EnrichmentResult{
		Abstract: abstract,
		SourceID: ref.Hash,
	}, nil
}

// extractAbstract finds the paragraph after the "Abstract" heading.
// Some pages nest the text in an inner paragraph.
func extractAbstract(doc *goquery.Document) string {
	var abstract string
	doc.Find("h4").EachWithBreak(func(_ int, h *goquery.Selection) bool {
		if strings.TrimSpace(h.Text()) != "Abstract" {
			return true
		}
		p := h.NextFiltered("p")
		if p.Length() == 0 {
			return false
		}
		if inner := p.Find("p"); inner.Length() > 0 {
			p = inner.First()
		}
		abstract = strings.TrimSpace(p.Text())
		return false
	})
	return abstract
}
