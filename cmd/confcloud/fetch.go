package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/confcloud/confcloud/internal/checkpoint"
	"github.com/confcloud/confcloud/internal/domain"
	"github.com/confcloud/confcloud/internal/sources/dblp"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Harvest paper metadata from DBLP listing pages",
	Long: `Fetch scrapes the active conference's DBLP listing pages for every
configured year, filters out non-research entries, and writes the
collection checkpoint. Enrichment fields found in a prior checkpoint
are carried over, so re-fetching never discards abstracts.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return fetchStage(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}

func fetchStage(ctx context.Context) error {
	conf, err := cfg.ActiveConference()
	if err != nil {
		return err
	}
	store, err := checkpoint.NewStore(cfg.Data.Dir)
	if err != nil {
		return err
	}

	client, err := dblp.New(dblp.Config{
		BaseURL:            cfg.Sources.DBLP.BaseURL,
		Timeout:            cfg.Sources.DBLP.Timeout,
		RateLimit:          cfg.Sources.DBLP.RateLimit,
		ExtraTitlePatterns: conf.ExtraTitlePatterns,
	})
	if err != nil {
		return err
	}

	var papers []*domain.PaperRecord
	for _, year := range conf.Years {
		yearPapers, err := client.FetchYear(ctx, conf.DBLPVenue, year, conf.SuffixesForYear(year))
		if err != nil {
			return fmt.Errorf("harvesting %s %d: %w", conf.Name, year, err)
		}
		logger.Info().Int("year", year).Int("papers", len(yearPapers)).Msg("year harvested")
		papers = append(papers, yearPapers...)
	}

	if prior, err := store.Load(conf.Name); err == nil {
		carried := carryEnrichment(papers, prior.Papers)
		logger.Info().Int("carried", carried).Msg("enrichment carried over from prior checkpoint")
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	meta := checkpoint.Metadata{Conference: conf.Name, FullName: conf.FullName, Years: conf.Years}
	if err := store.Checkpoint(meta, papers); err != nil {
		return err
	}

	stats := domain.ComputeCoverage(papers)
	logger.Info().
		Int("papers", stats.Total).
		Int("with_abstract", stats.WithAbstract).
		Str("path", store.Path(conf.Name)).
		Msg("collection checkpointed")
	return nil
}

// carryEnrichment copies enrichment fields and recovered lookup keys
// from a prior collection onto freshly harvested records, keyed by
// normalized title and year.
func carryEnrichment(fresh, prior []*domain.PaperRecord) int {
	index := make(map[string]*domain.PaperRecord, len(prior))
	for _, p := range prior {
		index[paperKey(p)] = p
	}

	carried := 0
	for _, p := range fresh {
		old, ok := index[paperKey(p)]
		if !ok {
			continue
		}
		if p.OpenReviewID == "" {
			p.OpenReviewID = old.OpenReviewID
		}
		if p.HasAbstract() || !old.HasAbstract() {
			continue
		}
		p.Abstract = old.Abstract
		p.CitationCount = old.CitationCount
		p.AbstractSource = old.AbstractSource
		p.SourceID = old.SourceID
		carried++
	}
	return carried
}

func paperKey(p *domain.PaperRecord) string {
	return fmt.Sprintf("%s|%d", domain.NormalizeTitle(p.Title), p.Year)
}
