// Package domain provides the domain model for the conference word-cloud pipeline.
package domain

import (
	"regexp"
	"strings"
)

// AbstractSource identifies the enrichment tier that supplied a paper's abstract.
// These values are persisted in checkpoints and must stay stable.
type AbstractSource string

const (
	SourceOpenReview         AbstractSource = "openreview"
	SourceOpenAlex           AbstractSource = "openalex"
	SourceOpenAlexTitle      AbstractSource = "openalex_title"
	SourceSemanticScholar    AbstractSource = "semantic_scholar"
	SourceNeurIPSProceedings AbstractSource = "neurips_proceedings"
)

// PaperRecord is one scholarly work as it flows through the pipeline.
//
// Identity fields are populated by the harvesting stage. The enrichment
// fields are always present and nullable: they start as nil and are set
// exactly once, by the first tier that succeeds for this paper.
type PaperRecord struct {
	Title   string   `json:"title"`
	Year    int      `json:"year"`
	Authors []string `json:"authors,omitempty"`
	Venue   string   `json:"venue,omitempty"`
	URL     string   `json:"url,omitempty"`

	// Lookup keys used by the enrichment tiers. Any of them may be absent.
	DOI            string `json:"doi,omitempty"`
	OpenReviewID   string `json:"openreview_id,omitempty"`
	OpenReviewURL  string `json:"openreview_url,omitempty"`
	ProceedingsURL string `json:"proceedings_url,omitempty"`

	Abstract       *string         `json:"abstract"`
	CitationCount  *int            `json:"citation_count"`
	AbstractSource *AbstractSource `json:"abstract_source"`
	SourceID       *string         `json:"source_id"`
}

// HasAbstract reports whether any tier has already enriched this paper.
func (p *PaperRecord) HasAbstract() bool {
	return p.Abstract != nil && *p.Abstract != ""
}

// ApplyEnrichment merges a successful fetch result into the record and tags
// the supplying tier. It upholds the invariant that AbstractSource is set
// iff Abstract is set: a not-found result is a no-op. Already-enriched
// records are never overwritten.
func (p *PaperRecord) ApplyEnrichment(res EnrichmentResult, source AbstractSource) bool {
	if p.HasAbstract() || !res.Found() {
		return false
	}
	abstract := res.Abstract
	p.Abstract = &abstract
	p.AbstractSource = &source
	if res.CitationCount != nil {
		count := *res.CitationCount
		p.CitationCount = &count
	}
	if res.SourceID != "" {
		id := res.SourceID
		p.SourceID = &id
	}
	return true
}

// EnrichmentResult is the normalized outcome of querying one source for one
// paper. The zero value means "the source has no record"; errors are
// reserved for genuine failures (source unreachable, malformed payload).
type EnrichmentResult struct {
	// Abstract is the abstract text, or empty when not found.
	Abstract string

	// CitationCount is the citation count if the source reports one.
	// Some sources (the proceedings site) never do.
	CitationCount *int

	// SourceID is the source-specific record identifier, for traceability.
	SourceID string
}

// Found reports whether the source had a usable record.
func (r EnrichmentResult) Found() bool {
	return r.Abstract != ""
}

// doiResolverPrefixes are the resolver prefixes stripped during normalization.
var doiResolverPrefixes = []string{
	"https://doi.org/",
	"http://doi.org/",
	"https://dx.doi.org/",
	"http://dx.doi.org/",
	"doi:",
}

// NormalizeDOI lowercases a DOI and strips any resolver prefix, so the same
// work keys identically across sources.
func NormalizeDOI(doi string) string {
	doi = strings.TrimSpace(doi)
	for _, prefix := range doiResolverPrefixes {
		if len(doi) >= len(prefix) && strings.EqualFold(doi[:len(prefix)], prefix) {
			doi = doi[len(prefix):]
			break
		}
	}
	return strings.ToLower(strings.TrimSpace(doi))
}

var whitespaceRegex = regexp.MustCompile(`\s+`)

// NormalizeTitle lowercases a title, trims punctuation that indexes disagree
// on, and collapses runs of whitespace. Used for title-keyed lookups and
// title-match comparisons.
func NormalizeTitle(title string) string {
	title = strings.ToLower(strings.TrimSpace(title))
	title = strings.TrimSuffix(title, ".")
	title = whitespaceRegex.ReplaceAllString(title, " ")
	return title
}
