package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/confcloud/confcloud/internal/checkpoint"
	"github.com/confcloud/confcloud/internal/domain"
	"github.com/confcloud/confcloud/internal/enrich"
	"github.com/confcloud/confcloud/internal/observability"
	"github.com/confcloud/confcloud/internal/sources/neurips"
	"github.com/confcloud/confcloud/internal/sources/openalex"
	"github.com/confcloud/confcloud/internal/sources/openreview"
	"github.com/confcloud/confcloud/internal/sources/semanticscholar"
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Fill in abstracts from scholarly APIs",
	Long: `Enrich runs the tiered abstract pipeline over the harvested collection:
OpenReview forum lookups, OpenAlex DOI batches, OpenAlex title search,
Semantic Scholar, and the proceedings site when the conference uses one.
The collection is checkpointed as tiers progress, so an interrupted run
can be resumed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return enrichStage(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(enrichCmd)
}

func enrichStage(ctx context.Context) error {
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

	if !cfg.Enrich.Resume {
		for _, p := range doc.Papers {
			p.Abstract = nil
			p.CitationCount = nil
			p.AbstractSource = nil
			p.SourceID = nil
		}
	}

	progress, err := checkpoint.OpenProgressLog(store.ProgressLogPath(conf.Name))
	if err != nil {
		return err
	}
	defer progress.Close()

	deps := enrich.Dependencies{
		Review: openreview.New(openreview.Config{
			BaseURLV1:   cfg.Sources.OpenReview.BaseURLV1,
			BaseURLV2:   cfg.Sources.OpenReview.BaseURLV2,
			V2Threshold: cfg.Sources.OpenReview.V2Threshold,
			Timeout:     cfg.Sources.OpenReview.Timeout,
			RateLimit:   cfg.Sources.OpenReview.RateLimit,
		}),
		Batch: openalex.New(openalex.Config{
			BaseURL:   cfg.Sources.OpenAlex.BaseURL,
			Email:     cfg.Sources.OpenAlex.Email,
			Timeout:   cfg.Sources.OpenAlex.Timeout,
			RateLimit: cfg.Sources.OpenAlex.RateLimit,
			BatchSize: cfg.Sources.OpenAlex.BatchSize,
		}),
		Fallback: semanticscholar.New(semanticscholar.Config{
			BaseURL:   cfg.Sources.SemanticScholar.BaseURL,
			APIKey:    cfg.Sources.SemanticScholar.APIKey,
			Timeout:   cfg.Sources.SemanticScholar.Timeout,
			RateLimit: cfg.Sources.SemanticScholar.RateLimit,
		}),
		Store:    store,
		Progress: progress,
		Logger:   logger,
	}
	if conf.ProceedingsFamily == "neurips" {
		deps.Proceedings = neurips.New(neurips.Config{
			BaseURL:   cfg.Sources.NeurIPS.BaseURL,
			Timeout:   cfg.Sources.NeurIPS.Timeout,
			RateLimit: cfg.Sources.NeurIPS.RateLimit,
		})
	}

	orch := enrich.New(enrich.Config{
		Conference:               conf.Name,
		FullName:                 conf.FullName,
		Years:                    conf.Years,
		UseOpenReview:            conf.UseOpenReview,
		ProceedingsFamily:        conf.ProceedingsFamily,
		ProgressEverySuccesses:   cfg.Enrich.ProgressEverySuccesses,
		ProgressEveryScanned:     cfg.Enrich.ProgressEveryScanned,
		CheckpointEverySuccesses: cfg.Enrich.CheckpointEverySuccesses,
		MaxBatchRetries:          cfg.Enrich.MaxBatchRetries,
		RetryBaseDelay:           cfg.Enrich.RetryBaseDelay,
	}, deps)

	report, err := orch.Run(ctx, doc.Papers)
	if err != nil {
		return err
	}

	runLogger := observability.WithRunContext(logger, report.RunID, conf.Name)
	for _, tier := range report.Tiers {
		runLogger.Info().
			Str("tier", string(tier.Tier)).
			Int("eligible", tier.Eligible).
			Int("succeeded", tier.Succeeded).
			Int("failed", tier.Failed).
			Msg("tier summary")
	}
	runLogger.Info().
		Int("papers", report.Stats.Total).
		Int("with_abstract", report.Stats.WithAbstract).
		Float64("coverage", report.Stats.Coverage()).
		Msg("enrichment finished")
	return nil
}
