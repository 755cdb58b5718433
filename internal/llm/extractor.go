// Package llm provides LLM-based keyword extraction from paper titles.
//
// It is the higher-quality alternative to the rule-based n-gram
// extractor in the keywords package: titles go to the model in batches,
// and the model returns a small set of topical keywords per title as
// structured JSON. Two providers are supported: a local Ollama server
// and the Gemini API.
//
// Example usage:
//
//	extractor, _ := llm.NewKeywordExtractor(cfg)
//	result, err := extractor.ExtractKeywords(ctx, llm.ExtractionRequest{
//		Titles:           batch,
//		KeywordsPerTitle: 3,
//	})
package llm

import (
	"context"
	"fmt"
	"strings"
)

// DefaultKeywordsPerTitle is the keyword count requested per title.
const DefaultKeywordsPerTitle = 3

// ExtractionRequest contains one batch of titles to process.
type ExtractionRequest struct {
	// Titles is the batch of paper titles, in order.
	Titles []string

	// KeywordsPerTitle is how many keywords to request per title.
	// Defaults to DefaultKeywordsPerTitle.
	KeywordsPerTitle int
}

// ExtractionResult contains per-title keywords, parallel to the input
// batch.
type ExtractionResult struct {
	// Keywords holds one keyword list per input title.
	Keywords [][]string

	// Model is the model that produced the result.
	Model string
}

// KeywordExtractor is the interface both providers implement.
//
// Implementations must respect context cancellation, parse the model
// response as JSON, and retry transient API failures a bounded number
// of times.
type KeywordExtractor interface {
	ExtractKeywords(ctx context.Context, req ExtractionRequest) (*ExtractionResult, error)

	// Provider returns the provider name ("ollama", "gemini").
	Provider() string

	// Model returns the model identifier in use.
	Model() string
}

// llmResponse is the JSON shape the prompt asks the model to return.
type llmResponse struct {
	Keywords [][]string `json:"keywords"`
}

// BuildExtractionPrompt renders the instruction block and the numbered
// title list for one batch.
func BuildExtractionPrompt(req ExtractionRequest) string {
	perTitle := req.KeywordsPerTitle
	if perTitle <= 0 {
		perTitle = DefaultKeywordsPerTitle
	}

	var sb strings.Builder
	sb.WriteString("You extract topical keywords from computer-science paper titles ")
	sb.WriteString("for a conference word cloud.\n\n")
	sb.WriteString("You MUST respond with valid JSON in exactly this format:\n")
	sb.WriteString(`{"keywords": [["keyword1", "keyword2"], ["keyword1", "keyword2"]]}`)
	sb.WriteString("\n\n")
	sb.WriteString("Rules:\n")
	sb.WriteString(fmt.Sprintf("1. Return exactly one keyword list per title, %d keywords each, in the same order as the titles.\n", perTitle))
	sb.WriteString("2. Keywords are lowercase noun phrases of one to three words.\n")
	sb.WriteString("3. Prefer specific technical topics over generic academic terms ")
	sb.WriteString("(never \"novel\", \"framework\", \"efficient\", \"approach\").\n")
	sb.WriteString("4. Keep established abbreviations as-is (e.g. \"gnn\", \"rlhf\").\n\n")
	sb.WriteString("Titles:\n")
	for i, title := range req.Titles {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, title))
	}
	return sb.String()
}

// parseExtraction validates a decoded model response against the batch.
func parseExtraction(parsed llmResponse, req ExtractionRequest, model string) (*ExtractionResult, error) {
	if len(parsed.Keywords) != len(req.Titles) {
		return nil, fmt.Errorf("model returned %d keyword lists for %d titles",
			len(parsed.Keywords), len(req.Titles))
	}
	for i, list := range parsed.Keywords {
		for j, kw := range list {
			parsed.Keywords[i][j] = strings.ToLower(strings.TrimSpace(kw))
		}
	}
	return &ExtractionResult{Keywords: parsed.Keywords, Model: model}, nil
}
