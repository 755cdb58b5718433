package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/confcloud/confcloud/internal/checkpoint"
	"github.com/confcloud/confcloud/internal/domain"
	"github.com/confcloud/confcloud/internal/keywords"
	"github.com/confcloud/confcloud/internal/llm"
)

var keywordsCmd = &cobra.Command{
	Use:   "keywords",
	Short: "Extract keyword statistics from paper titles",
	Long: `Keywords counts keyword frequencies over the harvested collection,
overall and per year, and writes the statistics document the generate
stage reads. The rules backend extracts stopword-filtered n-grams; the
llm backend asks a language model for keywords per title.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, _ := cmd.Flags().GetString("mode")
		return keywordsStage(cmd.Context(), mode)
	},
}

func init() {
	keywordsCmd.Flags().String("mode", "", "extraction backend overriding keywords.mode (rules or llm)")
	rootCmd.AddCommand(keywordsCmd)
}

func keywordsStage(ctx context.Context, mode string) error {
	conf, err := cfg.ActiveConference()
	if err != nil {
		return err
	}
	store, err := checkpoint.NewStore(cfg.Data.Dir)
	if err != nil {
		return err
	}

	doc, err := store.Load(conf.Name)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("no checkpoint for %s; run fetch first", conf.Name)
		}
		return err
	}

	extractor := keywords.NewExtractor(keywords.Options{
		NGramSizes:     cfg.Keywords.NGramSizes,
		MinWordLength:  cfg.Keywords.MinWordLength,
		MaxWordLength:  cfg.Keywords.MaxWordLength,
		MinFrequency:   cfg.Keywords.MinFrequency,
		MaxKeywords:    cfg.Keywords.MaxKeywords,
		ExtraStopwords: cfg.Keywords.ExtraStopwords,
	})

	if mode == "" {
		mode = cfg.Keywords.Mode
	}
	var stats keywords.Stats
	switch strings.ToLower(mode) {
	case "llm":
		stats, err = llmStats(ctx, doc.Papers)
		if err != nil {
			return err
		}
	case "", "rules":
		stats = extractor.Extract(doc.Papers)
	default:
		return fmt.Errorf("%w: unsupported keywords mode: %q", domain.ErrConfiguration, mode)
	}

	stats = extractor.FilterByFrequency(stats)
	stats = extractor.Top(stats)

	if err := store.WriteJSON(store.KeywordsPath(conf.Name), stats); err != nil {
		return err
	}
	logger.Info().
		Str("mode", mode).
		Int("keywords", len(stats.Overall)).
		Str("path", store.KeywordsPath(conf.Name)).
		Msg("keyword statistics written")
	return nil
}

// llmStats extracts keywords in title batches through the configured
// LLM provider and counts them the same way the rules backend does.
func llmStats(ctx context.Context, papers []*domain.PaperRecord) (keywords.Stats, error) {
	extractor, err := llm.NewKeywordExtractor(llm.FactoryConfig{
		Provider:    cfg.LLM.Provider,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
		MaxRetries:  cfg.LLM.MaxRetries,
		Ollama: llm.OllamaConfig{
			BaseURL: cfg.LLM.Ollama.BaseURL,
			Model:   cfg.LLM.Ollama.Model,
		},
		Gemini: llm.GeminiConfig{
			APIKey:  cfg.LLM.Gemini.APIKey,
			Model:   cfg.LLM.Gemini.Model,
			BaseURL: cfg.LLM.Gemini.BaseURL,
		},
	})
	if err != nil {
		return keywords.Stats{}, err
	}

	var eligible []*domain.PaperRecord
	for _, p := range papers {
		if p.Title != "" && p.Year != 0 {
			eligible = append(eligible, p)
		}
	}

	stats := keywords.Stats{
		Overall:     make(map[string]int),
		ByYear:      make(map[int]map[string]int),
		TotalPapers: len(eligible),
	}

	batchSize := cfg.LLM.BatchSize
	if batchSize <= 0 {
		batchSize = 50
	}
	for start := 0; start < len(eligible); start += batchSize {
		batch := eligible[start:min(start+batchSize, len(eligible))]
		titles := make([]string, len(batch))
		for i, p := range batch {
			titles[i] = p.Title
		}

		result, err := extractor.ExtractKeywords(ctx, llm.ExtractionRequest{
			Titles:           titles,
			KeywordsPerTitle: cfg.LLM.KeywordsPerTitle,
		})
		if err != nil {
			return keywords.Stats{}, fmt.Errorf("extracting keywords for batch at %d: %w", start, err)
		}

		for i, titleKeywords := range result.Keywords {
			year := batch[i].Year
			for _, kw := range titleKeywords {
				stats.Overall[kw]++
				if stats.ByYear[year] == nil {
					stats.ByYear[year] = make(map[string]int)
				}
				stats.ByYear[year][kw]++
			}
		}
		logger.Info().
			Int("processed", start+len(batch)).
			Int("total", len(eligible)).
			Str("model", result.Model).
			Msg("llm batch done")
	}
	return stats, nil
}
