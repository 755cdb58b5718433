// Package keywords turns paper titles into keyword frequency statistics
// and reshapes them into the word-cloud JSON the frontend renders. The
// extractor is pure rule-based n-gram counting; the LLM-backed variant
// lives in the llm package and feeds the same statistics shape.
package keywords

import (
	"regexp"
	"sort"
	"strings"

	"github.com/confcloud/confcloud/internal/domain"
)

const (
	// DefaultMinWordLength filters out short fragments.
	DefaultMinWordLength = 3

	// DefaultMaxWordLength filters out degenerate long strings.
	DefaultMaxWordLength = 30

	// DefaultMinFrequency is the minimum count for a keyword to survive
	// filtering.
	DefaultMinFrequency = 1

	// DefaultMaxKeywords caps the final keyword list.
	DefaultMaxKeywords = 200
)

// nonWordPattern strips punctuation but keeps spaces and hyphens.
var nonWordPattern = regexp.MustCompile(`[^a-z0-9_\s-]`)

var letterPattern = regexp.MustCompile(`[a-z]`)

var digitsOnlyPattern = regexp.MustCompile(`^[0-9]+$`)

// Options configures an Extractor. Zero values take the defaults above;
// NGramSizes defaults to unigrams and bigrams.
type Options struct {
	NGramSizes     []int
	MinWordLength  int
	MaxWordLength  int
	MinFrequency   int
	MaxKeywords    int
	ExtraStopwords []string
}

func (o *Options) applyDefaults() {
	if len(o.NGramSizes) == 0 {
		o.NGramSizes = []int{1, 2}
	}
	if o.MinWordLength == 0 {
		o.MinWordLength = DefaultMinWordLength
	}
	if o.MaxWordLength == 0 {
		o.MaxWordLength = DefaultMaxWordLength
	}
	if o.MinFrequency == 0 {
		o.MinFrequency = DefaultMinFrequency
	}
	if o.MaxKeywords == 0 {
		o.MaxKeywords = DefaultMaxKeywords
	}
}

// Stats holds keyword frequencies overall and per year.
type Stats struct {
	Overall     map[string]int         `json:"overall"`
	ByYear      map[int]map[string]int `json:"by_year"`
	TotalPapers int                    `json:"total_papers"`
}

// Extractor counts keyword n-grams across paper titles.
type Extractor struct {
	opts      Options
	stopwords map[string]struct{}
}

// NewExtractor creates an extractor.
func NewExtractor(opts Options) *Extractor {
	opts.applyDefaults()
	return &Extractor{opts: opts, stopwords: buildStopwords(opts.ExtraStopwords)}
}

// Extract counts keywords over the whole collection. Papers without a
// title or year are skipped.
func (e *Extractor) Extract(papers []*domain.PaperRecord) Stats {
	stats := Stats{
		Overall:     make(map[string]int),
		ByYear:      make(map[int]map[string]int),
		TotalPapers: len(papers),
	}
	for _, paper := range papers {
		if paper.Title == "" || paper.Year == 0 {
			continue
		}
		for _, kw := range e.FromTitle(paper.Title) {
			stats.Overall[kw]++
			if stats.ByYear[paper.Year] == nil {
				stats.ByYear[paper.Year] = make(map[string]int)
			}
			stats.ByYear[paper.Year][kw]++
		}
	}
	return stats
}

// FromTitle extracts the keyword n-grams of a single title, in order of
// appearance. Repeats are kept; the caller counts.
func (e *Extractor) FromTitle(title string) []string {
	title = strings.ToLower(title)
	title = nonWordPattern.ReplaceAllString(title, " ")
	words := strings.Fields(title)
	for i, w := range words {
		words[i] = strings.Trim(w, "-")
	}

	var keywords []string
	for _, n := range e.opts.NGramSizes {
		for i := 0; i+n <= len(words); i++ {
			gram := words[i : i+n]
			if e.allValid(gram) {
				keywords = append(keywords, strings.Join(gram, " "))
			}
		}
	}
	return keywords
}

func (e *Extractor) allValid(words []string) bool {
	for _, w := range words {
		if !e.isValidKeyword(w) {
			return false
		}
	}
	return true
}

func (e *Extractor) isValidKeyword(word string) bool {
	if len(word) < e.opts.MinWordLength || len(word) > e.opts.MaxWordLength {
		return false
	}
	if _, ok := e.stopwords[word]; ok {
		return false
	}
	if !letterPattern.MatchString(word) {
		return false
	}
	if digitsOnlyPattern.MatchString(word) {
		return false
	}
	return true
}

// FilterByFrequency drops keywords below the threshold. Per-year counts
// survive only for keywords that survive overall.
func (e *Extractor) FilterByFrequency(stats Stats) Stats {
	filtered := Stats{
		Overall:     make(map[string]int),
		ByYear:      make(map[int]map[string]int),
		TotalPapers: stats.TotalPapers,
	}
	for kw, count := range stats.Overall {
		if count >= e.opts.MinFrequency {
			filtered.Overall[kw] = count
		}
	}
	for year, counts := range stats.ByYear {
		for kw, count := range counts {
			if _, ok := filtered.Overall[kw]; !ok {
				continue
			}
			if filtered.ByYear[year] == nil {
				filtered.ByYear[year] = make(map[string]int)
			}
			filtered.ByYear[year][kw] = count
		}
	}
	return filtered
}

// Top keeps the N most frequent keywords. Ties break alphabetically so
// output is deterministic.
func (e *Extractor) Top(stats Stats) Stats {
	type entry struct {
		keyword string
		count   int
	}
	entries := make([]entry, 0, len(stats.Overall))
	for kw, count := range stats.Overall {
		entries = append(entries, entry{kw, count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].keyword < entries[j].keyword
	})
	if len(entries) > e.opts.MaxKeywords {
		entries = entries[:e.opts.MaxKeywords]
	}

	top := Stats{
		Overall:     make(map[string]int, len(entries)),
		ByYear:      make(map[int]map[string]int),
		TotalPapers: stats.TotalPapers,
	}
	for _, en := range entries {
		top.Overall[en.keyword] = en.count
	}
	for year, counts := range stats.ByYear {
		for kw, count := range counts {
			if _, ok := top.Overall[kw]; !ok {
				continue
			}
			if top.ByYear[year] == nil {
				top.ByYear[year] = make(map[string]int)
			}
			top.ByYear[year][kw] = count
		}
	}
	return top
}
