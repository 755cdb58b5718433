// Package dblp harvests paper listings from DBLP conference pages. One
// page per (venue, year) holds every accepted paper as a list entry;
// large years split into suffixed parts (kdd2025-1.html, kdd2025-2.html).
// The harvested records carry the lookup keys the enrichment tiers use:
// DOI, OpenReview forum, proceedings page URL.
package dblp

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/confcloud/confcloud/internal/domain"
	"github.com/confcloud/confcloud/internal/sources"
)

const (
	// DefaultBaseURL is the DBLP site root.
	DefaultBaseURL = "https://dblp.org"

	// DefaultRateLimit keeps the scraper inside DBLP's crawl policy.
	DefaultRateLimit = 1.0

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	sourceName = "DBLP"
)

// authorSuffixPattern matches DBLP homonym disambiguation ids
// ("Jane Doe 0001").
var authorSuffixPattern = regexp.MustCompile(`\s+\d{4}$`)

// Config contains configuration options for the client.
type Config struct {
	// BaseURL is the DBLP site root. Defaults to DefaultBaseURL.
	BaseURL string

	// Timeout is the per-request timeout.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	RateLimit float64

	// ExtraTitlePatterns extends the non-paper title filter. Patterns
	// run after the defaults, in order, case-insensitively.
	ExtraTitlePatterns []string
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

// Client scrapes DBLP conference listing pages.
type Client struct {
	config     Config
	httpClient *sources.HTTPClient
	filter     *TitleFilter
}

// New creates a new DBLP client.
func New(cfg Config) (*Client, error) {
	cfg.applyDefaults()
	httpClient := sources.NewHTTPClient(sources.HTTPClientConfig{
		Timeout:   cfg.Timeout,
		RateLimit: cfg.RateLimit,
	})
	return newClient(cfg, httpClient)
}

// NewWithHTTPClient creates a client with a caller-supplied HTTP client,
// for tests against a fake server.
func NewWithHTTPClient(cfg Config, httpClient *sources.HTTPClient) (*Client, error) {
	cfg.applyDefaults()
	return newClient(cfg, httpClient)
}

func newClient(cfg Config, httpClient *sources.HTTPClient) (*Client, error) {
	filter, err := NewTitleFilter(cfg.ExtraTitlePatterns...)
	if err != nil {
		return nil, err
	}
	return &Client{config: cfg, httpClient: httpClient, filter: filter}, nil
}

// PageURL builds a conference listing page URL. The suffix is empty for
// single-part years.
func (c *Client) PageURL(venue string, year int, suffix string) string {
	return fmt.Sprintf("%s/db/conf/%s/%s%d%s.html", c.config.BaseURL, venue, venue, year, suffix)
}

// FetchYear harvests all paper records for one conference year,
// following every configured page suffix. A missing suffixed page is
// skipped; a missing first page means the year is not indexed yet and
// yields an empty slice.
func (c *Client) FetchYear(ctx context.Context, venue string, year int, suffixes []string) ([]*domain.PaperRecord, error) {
	if len(suffixes) == 0 {
		suffixes = []string{""}
	}

	var papers []*domain.PaperRecord
	for _, suffix := range suffixes {
		pagePapers, err := c.fetchPage(ctx, c.PageURL(venue, year, suffix), year)
		if err != nil {
			return papers, err
		}
		papers = append(papers, pagePapers...)
	}
	return papers, nil
}

func (c *Client) fetchPage(ctx context.Context, pageURL string, year int) ([]*domain.PaperRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
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

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, domain.NewMalformedResponseError(sourceName, "parsing HTML", err)
	}

	var papers []*domain.PaperRecord
	doc.Find("li.entry.inproceedings").Each(func(_ int, entry *goquery.Selection) {
		paper := c.parseEntry(entry, year)
		if paper != nil {
			papers = append(papers, paper)
		}
	})
	return papers, nil
}

// parseEntry turns one listing entry into a paper record, or nil when
// the entry fails the research-paper filter.
func (c *Client) parseEntry(entry *goquery.Selection, year int) *domain.PaperRecord {
	title := strings.TrimSpace(entry.Find("cite span.title").First().Text())
	title = strings.TrimSuffix(title, ".")
	if title == "" || !c.filter.IsResearchPaper(title) {
		return nil
	}

	paper := &domain.PaperRecord{
		Title: title,
		Year:  year,
	}

	entry.Find(`cite span[itemprop="author"] span[itemprop="name"]`).Each(func(_ int, author *goquery.Selection) {
		name := authorSuffixPattern.ReplaceAllString(strings.TrimSpace(author.Text()), "")
		if name != "" {
			paper.Authors = append(paper.Authors, name)
		}
	})

	entry.Find("nav.publ div.head a").Each(func(_ int, link *goquery.Selection) {
		href, ok := link.Attr("href")
		if !ok {
			return
		}
		c.classifyLink(paper, href)
	})
	return paper
}

// classifyLink routes one electronic-edition link into the record field
// the matching enrichment tier keys on. The first link of each kind
// wins.
func (c *Client) classifyLink(paper *domain.PaperRecord, href string) {
	parsed, err := url.Parse(href)
	if err != nil {
		return
	}
	host := strings.TrimPrefix(parsed.Hostname(), "www.")

	switch {
	case host == "doi.org" || host == "dx.doi.org":
		if paper.DOI == "" {
			paper.DOI = domain.NormalizeDOI(href)
		}
	case host == "openreview.net":
		if paper.OpenReviewURL == "" {
			paper.OpenReviewURL = href
			paper.OpenReviewID = parsed.Query().Get("id")
		}
	case host == "papers.nips.cc" || host == "proceedings.neurips.cc":
		if paper.ProceedingsURL == "" {
			paper.ProceedingsURL = href
		}
	}

	if paper.URL == "" {
		paper.URL = href
	}
}
