// Package enrich drives the tiered abstract-enrichment pipeline. Tiers
// run in a fixed priority order, each over the residual set of papers
// still missing an abstract that carry the tier's lookup key. A paper
// is enriched by the first tier that succeeds for it and never touched
// again. The collection is checkpointed as tiers progress, so an
// interrupted run resumes into the same end state.
package enrich

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/confcloud/confcloud/internal/checkpoint"
	"github.com/confcloud/confcloud/internal/domain"
)

// Tier identifies one enrichment pass. Values appear in reports and
// progress logs.
type Tier string

const (
	TierForumRecovery   Tier = "forum_id_recovery"
	TierOpenReview      Tier = "openreview"
	TierOpenAlexBatch   Tier = "openalex_batch"
	TierOpenAlexTitle   Tier = "openalex_title"
	TierSemanticScholar Tier = "semantic_scholar"
	TierProceedings     Tier = "neurips_proceedings"
)

// ReviewPlatform is the review-platform tier's view of its source.
type ReviewPlatform interface {
	FetchByForum(ctx context.Context, forumID string, year int) (domain.EnrichmentResult, error)
	FindForumID(ctx context.Context, title string, year int) (string, error)
}

// BatchMetadataAPI is the batch tier's view of its source, plus the
// title-search fallback the same source offers.
type BatchMetadataAPI interface {
	BatchSize() int
	FetchByDOIBatch(ctx context.Context, dois []string) (map[string]domain.EnrichmentResult, error)
	FetchByTitle(ctx context.Context, title string) (domain.EnrichmentResult, error)
}

// FallbackMetadataAPI is the single-lookup fallback tier's view of its
// source.
type FallbackMetadataAPI interface {
	FetchByDOI(ctx context.Context, doi string) (domain.EnrichmentResult, error)
}

// ProceedingsSite is the proceedings tier's view of its source.
type ProceedingsSite interface {
	FetchByURL(ctx context.Context, pageURL string, year int) (domain.EnrichmentResult, error)
}

// Checkpointer persists the full collection mid-run.
type Checkpointer interface {
	Checkpoint(meta checkpoint.Metadata, papers []*domain.PaperRecord) error
}

// ProgressReporter receives the durable progress trail.
type ProgressReporter interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// Config contains configuration options for the orchestrator.
type Config struct {
	// Conference names the collection being enriched.
	Conference string

	// FullName is the full conference name, recorded in checkpoint metadata.
	FullName string

	// Years are the harvested years, recorded in checkpoint metadata.
	Years []int

	// UseOpenReview enables the review-platform tiers even for papers
	// harvested without a platform URL.
	UseOpenReview bool

	// ProceedingsFamily enables the proceedings tier when it matches
	// the family the proceedings client scrapes.
	ProceedingsFamily string

	// ProgressEverySuccesses is the progress-line cadence in successes.
	ProgressEverySuccesses int

	// ProgressEveryScanned is the progress-line cadence in papers scanned.
	ProgressEveryScanned int

	// CheckpointEverySuccesses is the checkpoint cadence within a tier.
	CheckpointEverySuccesses int

	// MaxBatchRetries bounds request-level retries of a failed batch.
	MaxBatchRetries int

	// RetryBaseDelay is the first backoff delay; it doubles per attempt.
	RetryBaseDelay time.Duration
}

func (c *Config) applyDefaults() {
	if c.ProgressEverySuccesses == 0 {
		c.ProgressEverySuccesses = 10
	}
	if c.ProgressEveryScanned == 0 {
		c.ProgressEveryScanned = 50
	}
	if c.CheckpointEverySuccesses == 0 {
		c.CheckpointEverySuccesses = 25
	}
	if c.MaxBatchRetries == 0 {
		c.MaxBatchRetries = 3
	}
	if c.RetryBaseDelay == 0 {
		c.RetryBaseDelay = 2 * time.Second
	}
}

// Dependencies are the collaborators an orchestrator drives. Review and
// Proceedings may be nil; their tiers are then skipped.
type Dependencies struct {
	Review      ReviewPlatform
	Batch       BatchMetadataAPI
	Fallback    FallbackMetadataAPI
	Proceedings ProceedingsSite
	Store       Checkpointer
	Progress    ProgressReporter
	Logger      zerolog.Logger
}

// TierResult is one tier's contribution to a run.
type TierResult struct {
	Tier      Tier `json:"tier"`
	Eligible  int  `json:"eligible"`
	Succeeded int  `json:"succeeded"`
	Failed    int  `json:"failed"`
}

// Report summarizes one completed run.
type Report struct {
	RunID      string               `json:"run_id"`
	StartedAt  time.Time            `json:"started_at"`
	FinishedAt time.Time            `json:"finished_at"`
	Tiers      []TierResult         `json:"tiers"`
	Stats      domain.CoverageStats `json:"stats"`
}

// Orchestrator runs the tier sequence over a paper collection.
type Orchestrator struct {
	config Config
	deps   Dependencies
}

// New creates an orchestrator.
func New(cfg Config, deps Dependencies) *Orchestrator {
	cfg.applyDefaults()
	return &Orchestrator{config: cfg, deps: deps}
}

// Run executes every tier in priority order over the collection,
// mutating records in place. Individual fetch failures never abort the
// run; only context cancellation does. The returned report carries
// per-tier counters and final coverage.
func (o *Orchestrator) Run(ctx context.Context, papers []*domain.PaperRecord) (Report, error) {
	report := Report{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}
	meta := checkpoint.Metadata{
		Conference: o.config.Conference,
		FullName:   o.config.FullName,
		Years:      o.config.Years,
		RunID:      report.RunID,
	}

	initial := domain.ComputeCoverage(papers)
	o.deps.Progress.Infof("run %s started: %d papers, %d already enriched",
		report.RunID, initial.Total, initial.WithAbstract)

	tiers := []struct {
		tier Tier
		run  func(ctx context.Context, t *tierTracker) error
	}{
		{TierForumRecovery, o.runForumRecovery},
		{TierOpenReview, o.runOpenReview},
		{TierOpenAlexBatch, o.runOpenAlexBatch},
		{TierOpenAlexTitle, o.runOpenAlexTitle},
		{TierSemanticScholar, o.runSemanticScholar},
		{TierProceedings, o.runProceedings},
	}

	for _, entry := range tiers {
		tracker := &tierTracker{o: o, tier: entry.tier, meta: meta, papers: papers}
		err := entry.run(ctx, tracker)
		report.Tiers = append(report.Tiers, tracker.result())
		if err != nil {
			report.FinishedAt = time.Now().UTC()
			return report, err
		}
		if tracker.succeeded > 0 {
			o.checkpointNow(meta, papers)
		}
		o.deps.Progress.Infof("tier %s done: %d eligible, %d succeeded, %d failed",
			entry.tier, tracker.eligible, tracker.succeeded, tracker.failed)
	}

	report.Stats = domain.ComputeCoverage(papers)
	report.FinishedAt = time.Now().UTC()
	o.checkpointNow(meta, papers)
	o.deps.Progress.Infof("run %s finished: %d/%d papers with abstract (%.1f%%)",
		report.RunID, report.Stats.WithAbstract, report.Stats.Total, report.Stats.Coverage()*100)
	return report, nil
}

// runForumRecovery populates missing review-platform ids by title
// search, so the direct-fetch tier has keys to work with.
func (o *Orchestrator) runForumRecovery(ctx context.Context, t *tierTracker) error {
	if o.deps.Review == nil {
		t.skip("no review platform configured")
		return nil
	}
	eligible := residual(t.papers, func(p *domain.PaperRecord) bool {
		return p.OpenReviewID == "" && (p.OpenReviewURL != "" || o.config.UseOpenReview)
	})
	if t.begin(eligible) {
		return nil
	}
	for _, paper := range eligible {
		if err := ctx.Err(); err != nil {
			return err
		}
		t.scan()
		forumID, err := o.deps.Review.FindForumID(ctx, paper.Title, paper.Year)
		if err != nil {
			t.failure(paper, err)
			continue
		}
		if forumID != "" {
			paper.OpenReviewID = forumID
			t.success()
		}
	}
	return nil
}

func (o *Orchestrator) runOpenReview(ctx context.Context, t *tierTracker) error {
	if o.deps.Review == nil {
		t.skip("no review platform configured")
		return nil
	}
	eligible := residual(t.papers, func(p *domain.PaperRecord) bool {
		return p.OpenReviewID != ""
	})
	if t.begin(eligible) {
		return nil
	}
	for _, paper := range eligible {
		if err := ctx.Err(); err != nil {
			return err
		}
		t.scan()
		res, err := o.deps.Review.FetchByForum(ctx, paper.OpenReviewID, paper.Year)
		if err != nil {
			t.failure(paper, err)
			continue
		}
		if paper.ApplyEnrichment(res, domain.SourceOpenReview) {
			t.success()
		}
	}
	return nil
}

func (o *Orchestrator) runOpenAlexBatch(ctx context.Context, t *tierTracker) error {
	eligible := residual(t.papers, func(p *domain.PaperRecord) bool {
		return p.DOI != ""
	})
	if t.begin(eligible) {
		return nil
	}

	batchSize := o.deps.Batch.BatchSize()
	for start := 0; start < len(eligible); start += batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(start+batchSize, len(eligible))
		batch := eligible[start:end]

		dois := make([]string, 0, len(batch))
		for _, paper := range batch {
			dois = append(dois, paper.DOI)
		}

		results, err := o.fetchBatchWithRetry(ctx, dois)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			for _, paper := range batch {
				t.scan()
				t.failure(paper, err)
			}
			continue
		}

		for _, paper := range batch {
			t.scan()
			res, ok := results[domain.NormalizeDOI(paper.DOI)]
			if ok && paper.ApplyEnrichment(res, domain.SourceOpenAlex) {
				t.success()
			}
		}
	}
	return nil
}

func (o *Orchestrator) runOpenAlexTitle(ctx context.Context, t *tierTracker) error {
	eligible := residual(t.papers, func(p *domain.PaperRecord) bool {
		return p.Title != ""
	})
	if t.begin(eligible) {
		return nil
	}
	for _, paper := range eligible {
		if err := ctx.Err(); err != nil {
			return err
		}
		t.scan()
		res, err := o.deps.Batch.FetchByTitle(ctx, paper.Title)
		if err != nil {
			t.failure(paper, err)
			continue
		}
		if paper.ApplyEnrichment(res, domain.SourceOpenAlexTitle) {
			t.success()
		}
	}
	return nil
}

func (o *Orchestrator) runSemanticScholar(ctx context.Context, t *tierTracker) error {
	eligible := residual(t.papers, func(p *domain.PaperRecord) bool {
		return p.DOI != ""
	})
	if t.begin(eligible) {
		return nil
	}
	for _, paper := range eligible {
		if err := ctx.Err(); err != nil {
			return err
		}
		t.scan()
		res, err := o.deps.Fallback.FetchByDOI(ctx, paper.DOI)
		if err != nil {
			t.failure(paper, err)
			continue
		}
		if paper.ApplyEnrichment(res, domain.SourceSemanticScholar) {
			t.success()
		}
	}
	return nil
}

func (o *Orchestrator) runProceedings(ctx context.Context, t *tierTracker) error {
	if o.deps.Proceedings == nil || o.config.ProceedingsFamily != "neurips" {
		t.skip("proceedings tier not configured for this conference")
		return nil
	}
	eligible := residual(t.papers, func(p *domain.PaperRecord) bool {
		return p.ProceedingsURL != ""
	})
	if t.begin(eligible) {
		return nil
	}
	for _, paper := range eligible {
		if err := ctx.Err(); err != nil {
			return err
		}
		t.scan()
		res, err := o.deps.Proceedings.FetchByURL(ctx, paper.ProceedingsURL, paper.Year)
		if err != nil {
			t.failure(paper, err)
			continue
		}
		if paper.ApplyEnrichment(res, domain.SourceNeurIPSProceedings) {
			t.success()
		}
	}
	return nil
}

// fetchBatchWithRetry retries a failed batch request a bounded number
// of times with doubling delay. Only transient failures are retried.
func (o *Orchestrator) fetchBatchWithRetry(ctx context.Context, dois []string) (map[string]domain.EnrichmentResult, error) {
	delay := o.config.RetryBaseDelay
	for attempt := 0; ; attempt++ {
		results, err := o.deps.Batch.FetchByDOIBatch(ctx, dois)
		if err == nil {
			return results, nil
		}
		if !domain.IsRetryable(err) || attempt >= o.config.MaxBatchRetries {
			return nil, err
		}

		o.deps.Logger.Warn().Err(err).
			Int("attempt", attempt+1).
			Dur("delay", delay).
			Msg("batch fetch failed, backing off")

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}
}

func (o *Orchestrator) checkpointNow(meta checkpoint.Metadata, papers []*domain.PaperRecord) {
	if o.deps.Store == nil {
		return
	}
	if err := o.deps.Store.Checkpoint(meta, papers); err != nil {
		o.deps.Logger.Error().Err(err).Msg("checkpoint failed")
		o.deps.Progress.Errorf("checkpoint failed: %v", err)
	}
}

// residual returns the papers still missing an abstract that satisfy
// the tier's key predicate. Recomputed per tier from current state, so
// earlier tiers' successes shrink later tiers' work.
func residual(papers []*domain.PaperRecord, hasKey func(*domain.PaperRecord) bool) []*domain.PaperRecord {
	var out []*domain.PaperRecord
	for _, paper := range papers {
		if !paper.HasAbstract() && hasKey(paper) {
			out = append(out, paper)
		}
	}
	return out
}

// tierTracker accumulates one tier's counters and fires the progress
// and checkpoint cadences.
type tierTracker struct {
	o      *Orchestrator
	tier   Tier
	meta   checkpoint.Metadata
	papers []*domain.PaperRecord

	eligible  int
	scanned   int
	succeeded int
	failed    int
}

// begin records the eligible set and reports whether the tier should be
// skipped as a no-op.
func (t *tierTracker) begin(eligible []*domain.PaperRecord) bool {
	t.eligible = len(eligible)
	if t.eligible == 0 {
		t.skip("no eligible papers")
		return true
	}
	t.o.deps.Logger.Info().
		Str("tier", string(t.tier)).
		Int("eligible", t.eligible).
		Msg("tier started")
	return false
}

func (t *tierTracker) skip(reason string) {
	t.o.deps.Logger.Info().Str("tier", string(t.tier)).Msg("tier skipped: " + reason)
	t.o.deps.Progress.Infof("tier %s skipped: %s", t.tier, reason)
}

func (t *tierTracker) scan() {
	t.scanned++
	if t.o.config.ProgressEveryScanned > 0 && t.scanned%t.o.config.ProgressEveryScanned == 0 {
		t.o.deps.Progress.Infof("tier %s: scanned %d/%d, %d enriched",
			t.tier, t.scanned, t.eligible, t.succeeded)
	}
}

func (t *tierTracker) success() {
	t.succeeded++
	if t.o.config.ProgressEverySuccesses > 0 && t.succeeded%t.o.config.ProgressEverySuccesses == 0 {
		t.o.deps.Progress.Infof("tier %s: %d papers enriched", t.tier, t.succeeded)
	}
	if t.o.config.CheckpointEverySuccesses > 0 && t.succeeded%t.o.config.CheckpointEverySuccesses == 0 {
		t.o.checkpointNow(t.meta, t.papers)
	}
}

func (t *tierTracker) failure(paper *domain.PaperRecord, err error) {
	t.failed++
	t.o.deps.Logger.Warn().Err(err).
		Str("tier", string(t.tier)).
		Str("title", paper.Title).
		Msg("paper fetch failed")
}

func (t *tierTracker) result() TierResult {
	return TierResult{
		Tier:      t.tier,
		Eligible:  t.eligible,
		Succeeded: t.succeeded,
		Failed:    t.failed,
	}
}
