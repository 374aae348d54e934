// Package scheduler is the Scheduler: a coarse wall-clock cron that
// triggers the enrichment worker, embedding back-fill, stale-embedding
// refresh, duplicate purge, and old-record purge, each at its own period.
package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/jobmate/alertpipeline/internal/clock"
	"github.com/jobmate/alertpipeline/internal/embeddings"
	"github.com/jobmate/alertpipeline/internal/model"
	"github.com/jobmate/alertpipeline/internal/projector"
	"github.com/jobmate/alertpipeline/internal/store"
)

// Cadences carries the period for every coarse job (spec §4.9 defaults).
type Cadences struct {
	Enrichment            time.Duration
	EmbeddingBackfill     time.Duration
	StaleEmbeddingRefresh time.Duration
	DuplicatePurge        time.Duration
	OldRecordPurge        time.Duration
}

// EnrichmentRunner runs one enrichment batch; satisfied by enrichment.Worker.
type EnrichmentRunner interface {
	RunBatch(ctx context.Context) (processed, failed int, err error)
}

// Scheduler wraps robfig/cron and owns every periodic maintenance job.
type Scheduler struct {
	cron      *cron.Cron
	store     *store.Store
	enrichers EnrichmentRunner
	clock     clock.Clock
	logger    *zap.Logger
	cadences  Cadences

	projector   *projector.Projector
	jobEmbedder embedderFunc
}

type embedderFunc func(ctx context.Context, text string) ([]float32, error)

func New(s *store.Store, enrichers EnrichmentRunner, embed embedderFunc, c clock.Clock, logger *zap.Logger, cadences Cadences) *Scheduler {
	return &Scheduler{
		cron:        cron.New(cron.WithLogger(cron.DefaultLogger)),
		store:       s,
		enrichers:   enrichers,
		clock:       c,
		logger:      logger,
		cadences:    cadences,
		projector:   projector.New(s, embedderAdapter(embed), c, logger),
		jobEmbedder: embed,
	}
}

// embedderAdapter lets a bare embed function satisfy projector.Embedder.
type embedderAdapter func(ctx context.Context, text string) ([]float32, error)

func (f embedderAdapter) Embed(ctx context.Context, text string) ([]float32, error) { return f(ctx, text) }

func every(d time.Duration) string {
	if d <= 0 {
		d = time.Hour
	}
	return "@every " + d.String()
}

// Start registers every maintenance job and starts the cron loop.
func (s *Scheduler) Start(ctx context.Context) error {
	jobs := []struct {
		name string
		spec string
		fn   func(context.Context)
	}{
		{"enrichment", every(s.cadences.Enrichment), s.runEnrichment},
		{"embedding-backfill", every(s.cadences.EmbeddingBackfill), s.runEmbeddingBackfill},
		{"stale-embedding-refresh", every(s.cadences.StaleEmbeddingRefresh), s.runStaleEmbeddingRefresh},
		{"duplicate-purge", every(s.cadences.DuplicatePurge), s.runDuplicatePurge},
		{"old-record-purge", every(s.cadences.OldRecordPurge), s.runOldRecordPurge},
	}

	for _, j := range jobs {
		fn := j.fn
		if _, err := s.cron.AddFunc(j.spec, func() { fn(ctx) }); err != nil {
			return err
		}
		s.logger.Info("scheduled job registered", zap.String("job", j.name), zap.String("spec", j.spec))
	}

	s.cron.Start()
	return nil
}

// Stop gracefully shuts down the cron loop.
func (s *Scheduler) Stop() {
	s.cron.Stop()
}

func (s *Scheduler) runEnrichment(ctx context.Context) {
	processed, failed, err := s.enrichers.RunBatch(ctx)
	if err != nil {
		s.logger.Error("scheduled enrichment batch failed", zap.Error(err))
		return
	}
	s.logger.Info("scheduled enrichment batch complete", zap.Int("processed", processed), zap.Int("failed", failed))
}

func (s *Scheduler) runEmbeddingBackfill(ctx context.Context) {
	now := s.clock.Now()

	userIDs, err := s.store.UsersMissingEmbedding(ctx, time.Time{}, 200)
	if err != nil {
		s.logger.Error("embedding backfill: load users failed", zap.Error(err))
	}
	for _, id := range userIDs {
		if err := s.projector.Project(ctx, id); err != nil {
			s.logger.Warn("embedding backfill: user failed", zap.String("user_id", id.String()), zap.Error(err))
		}
	}

	jobIDs, err := s.store.PostingsMissingEmbedding(ctx, 200)
	if err != nil {
		s.logger.Error("embedding backfill: load postings failed", zap.Error(err))
		return
	}
	for _, id := range jobIDs {
		if err := s.backfillJobEmbedding(ctx, id, now); err != nil {
			s.logger.Warn("embedding backfill: posting failed", zap.String("posting_id", id.String()), zap.Error(err))
		}
	}
}

func (s *Scheduler) runStaleEmbeddingRefresh(ctx context.Context) {
	staleBefore := s.clock.Now().Add(-30 * 24 * time.Hour)
	ids, err := s.store.UsersMissingEmbedding(ctx, staleBefore, 200)
	if err != nil {
		s.logger.Error("stale embedding refresh: load users failed", zap.Error(err))
		return
	}
	for _, id := range ids {
		if err := s.projector.Project(ctx, id); err != nil {
			s.logger.Warn("stale embedding refresh: user failed", zap.String("user_id", id.String()), zap.Error(err))
		}
	}
}

func (s *Scheduler) backfillJobEmbedding(ctx context.Context, postingID uuid.UUID, now time.Time) error {
	posting, err := s.store.GetCanonicalPosting(ctx, postingID)
	if err != nil {
		return err
	}
	text := embeddings.JobProfileText(*posting)
	vec, err := s.jobEmbedder(ctx, text)
	if err != nil {
		return err
	}
	return s.store.SetCanonicalEmbedding(ctx, postingID, model.Embedding{
		Vector: vec, SourceText: text, Version: model.EmbeddingVersion, UpdatedAt: now,
	})
}

// runDuplicatePurge re-points delivery history onto the survivor (most
// recent scraped_at) before deleting every other duplicate, preserving
// invariant 1 across the purge (spec §4.9, supplemented by
// reorganize_canonical_jobs.py's two-phase approach).
func (s *Scheduler) runDuplicatePurge(ctx context.Context) {
	groups, err := s.store.DuplicateGroups(ctx)
	if err != nil {
		s.logger.Error("duplicate purge: load groups failed", zap.Error(err))
		return
	}

	purged := 0
	for _, ids := range groups {
		if len(ids) < 2 {
			continue
		}
		survivor := ids[0]
		for _, loser := range ids[1:] {
			if err := s.store.RepointAndDeleteDuplicate(ctx, survivor, loser); err != nil {
				s.logger.Warn("duplicate purge: repoint failed", zap.Error(err))
				continue
			}
			purged++
		}
	}
	if purged > 0 {
		s.logger.Info("duplicate purge complete", zap.Int("purged", purged))
	}
}

func (s *Scheduler) runOldRecordPurge(ctx context.Context) {
	now := s.clock.Now()
	n, err := s.store.PurgeOldUndelivered(ctx, now, 5*24*time.Hour)
	if err != nil {
		s.logger.Error("old record purge failed", zap.Error(err))
		return
	}
	if n > 0 {
		s.logger.Info("old record purge complete", zap.Int64("purged", n))
	}
}
