package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jobmate/alertpipeline/internal/model"
)

// EligibilityTrace is a point-in-time snapshot of why (or why not) a
// candidate posting would reach a user, assembled for `alertd diagnose`.
type EligibilityTrace struct {
	User             model.User
	Preferences      *model.Preferences
	Posting          model.CanonicalPosting
	AlreadyDelivered bool
	DeliveriesToday  int
	DailyCap         int
	WindowOpen       bool
	CosineScore      float64
}

// Trace assembles the raw facts an operator needs to answer "why didn't
// user X get job Y" without re-deriving matcher logic — the store only
// reports state, scoring stays in the Match Engine.
func (s *Store) Trace(ctx context.Context, userID, postingID uuid.UUID, now time.Time, dailyCap int) (*EligibilityTrace, error) {
	u, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user for trace: %w", err)
	}

	prefs, err := s.GetPreferences(ctx, userID)
	if err != nil && err != ErrNotFound {
		return nil, fmt.Errorf("load preferences for trace: %w", err)
	}
	if err == ErrNotFound {
		prefs = nil
	}

	posting, err := s.GetCanonicalPosting(ctx, postingID)
	if err != nil {
		return nil, fmt.Errorf("load posting for trace: %w", err)
	}

	delivered, err := s.HasDeliveryRecord(ctx, userID, postingID)
	if err != nil {
		return nil, fmt.Errorf("check delivery record for trace: %w", err)
	}

	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	deliveredToday, err := s.CountDeliveriesSince(ctx, userID, midnight)
	if err != nil {
		return nil, fmt.Errorf("count deliveries today for trace: %w", err)
	}

	window, err := s.GetActiveWindow(ctx, userID)
	windowOpen := err == nil && window.Status == model.WindowActive

	return &EligibilityTrace{
		User:             *u,
		Preferences:      prefs,
		Posting:          *posting,
		AlreadyDelivered: delivered,
		DeliveriesToday:  deliveredToday,
		DailyCap:         dailyCap,
		WindowOpen:       windowOpen,
	}, nil
}

// PipelineSnapshot reports coarse health numbers that metrics.Refresher
// publishes as the Operational Surface's gauges.
type PipelineSnapshot struct {
	UsersTotal             int
	UsersActive24h         int
	UnprocessedRawPostings int
	PostingsMissingEmbed   int
	RawPostingsTotal       int
	CanonicalPostingsTotal int
	UserEmbeddingCoverage  float64
	JobEmbeddingCoverage   float64
}

// Snapshot gathers a cheap point-in-time view of backlog and coverage. now
// is the caller's already-injected clock reading, not read here, so the
// Operational Surface's gauges stay reproducible under a fake clock in
// tests.
func (s *Store) Snapshot(ctx context.Context, now time.Time) (*PipelineSnapshot, error) {
	var usersTotal, usersActive, unprocessed, missingEmbed, rawTotal, canonicalTotal int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&usersTotal); err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE last_active_at >= $1`, now.Add(-24*time.Hour)).Scan(&usersActive); err != nil {
		return nil, fmt.Errorf("count active users: %w", err)
	}
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM raw_postings WHERE processed = false`).Scan(&unprocessed); err != nil {
		return nil, fmt.Errorf("count unprocessed raw postings: %w", err)
	}
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM canonical_postings WHERE embedding IS NULL`).Scan(&missingEmbed); err != nil {
		return nil, fmt.Errorf("count postings missing embedding: %w", err)
	}
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM raw_postings`).Scan(&rawTotal); err != nil {
		return nil, fmt.Errorf("count raw postings: %w", err)
	}
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM canonical_postings`).Scan(&canonicalTotal); err != nil {
		return nil, fmt.Errorf("count canonical postings: %w", err)
	}

	userCov, err := s.UserEmbeddingCoverage(ctx)
	if err != nil {
		return nil, fmt.Errorf("user embedding coverage: %w", err)
	}

	jobCov, err := s.JobEmbeddingCoverage(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("job embedding coverage: %w", err)
	}

	return &PipelineSnapshot{
		UsersTotal:             usersTotal,
		UsersActive24h:         usersActive,
		UnprocessedRawPostings: unprocessed,
		PostingsMissingEmbed:   missingEmbed,
		RawPostingsTotal:       rawTotal,
		CanonicalPostingsTotal: canonicalTotal,
		UserEmbeddingCoverage:  userCov,
		JobEmbeddingCoverage:   jobCov,
	}, nil
}
