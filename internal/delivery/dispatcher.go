// Package delivery is the Delivery Dispatcher: triggered after a canonical
// posting is persisted (real-time), it matches every eligible user and sends
// at most one alert per (user, job) pair. The Reminder Daemon does not call
// it; there is no back-fill scan that dispatches postings.
package delivery

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jobmate/alertpipeline/internal/clock"
	"github.com/jobmate/alertpipeline/internal/matching"
	"github.com/jobmate/alertpipeline/internal/model"
	"github.com/jobmate/alertpipeline/internal/store"
)

// Sender delivers outbound text to a user's chat handle.
type Sender interface {
	Send(ctx context.Context, handle, text string) error
}

// EventPublisher announces a successful delivery to any connected
// real-time forwarder. Optional — a nil publisher is a no-op.
type EventPublisher interface {
	PublishJobDelivered(ctx context.Context, userID, postingID uuid.UUID, score int)
}

// Dispatcher coordinates the Match Engine, the store's idempotency
// guarantees, and the chat provider send path.
type Dispatcher struct {
	store         *store.Store
	sender        Sender
	publisher     EventPublisher
	clock         clock.Clock
	logger        *zap.Logger
	dailyCap      int
	ruleThreshold int
}

func New(s *store.Store, sender Sender, c clock.Clock, logger *zap.Logger, dailyCap, ruleThreshold int) *Dispatcher {
	return &Dispatcher{store: s, sender: sender, clock: c, logger: logger, dailyCap: dailyCap, ruleThreshold: ruleThreshold}
}

// SetPublisher wires an EventPublisher after construction, so cmd/alertd
// can build the Dispatcher and the publisher independently before linking
// them.
func (d *Dispatcher) SetPublisher(p EventPublisher) {
	d.publisher = p
}

// Outcome summarizes one dispatch pass over a posting, for callers that
// want to log or test aggregate counts.
type Outcome struct {
	EligibleUsers int
	Matched       int
	Sent          int
	Failed        int
}

// DispatchPosting evaluates posting against every eligible user and sends
// to everyone who matches and passes the per-candidate checks. Per-user
// dispatches run concurrently; a single user's two dispatches for the same
// job never race because the unique-constraint insert in the store
// serializes them (spec §4.6 concurrency note).
func (d *Dispatcher) DispatchPosting(ctx context.Context, posting model.CanonicalPosting, stage model.DeliveryStage) (Outcome, error) {
	now := d.clock.Now()

	cohort, err := d.store.ActiveUsersWithOpenWindow(ctx, now)
	if err != nil {
		return Outcome{}, fmt.Errorf("load eligible cohort: %w", err)
	}

	var out Outcome
	out.EligibleUsers = len(cohort)

	type result struct {
		matched bool
		sent    bool
	}
	results := make(chan result, len(cohort))

	for _, u := range cohort {
		u := u
		go func() {
			matched, sent := d.dispatchToUser(ctx, u, posting, stage, now)
			results <- result{matched: matched, sent: sent}
		}()
	}

	for i := 0; i < len(cohort); i++ {
		r := <-results
		if r.matched {
			out.Matched++
		}
		if r.sent {
			out.Sent++
		} else if r.matched {
			out.Failed++
		}
	}

	return out, nil
}

func (d *Dispatcher) dispatchToUser(ctx context.Context, u model.User, posting model.CanonicalPosting, stage model.DeliveryStage, now time.Time) (matched, sent bool) {
	prefs, err := d.store.GetPreferences(ctx, u.ID)
	if err != nil || !prefs.Confirmed {
		return false, false
	}

	count, err := d.store.CountDeliveriesSince(ctx, u.ID, startOfDay(now))
	if err != nil {
		d.logger.Warn("count deliveries failed", zap.Error(err))
		return false, false
	}
	if count >= d.dailyCap {
		return false, false // resource exhaustion: quietly skip, not an error (spec §7e)
	}

	already, err := d.store.HasDeliveryRecord(ctx, u.ID, posting.ID)
	if err != nil {
		d.logger.Warn("delivery record check failed", zap.Error(err))
		return false, false
	}
	if already {
		return false, false
	}

	result, ok := d.matchUser(*prefs, posting)
	if !ok {
		return false, false
	}
	matched = true

	pending := &model.DeliveryHistory{
		ID:        uuid.New(),
		UserID:    u.ID,
		PostingID: posting.ID,
		Score:     result.Score,
		Reasons:   result.Reasons,
		Stage:     stage,
		ShownAt:   now,
	}

	inserted, err := d.store.InsertPendingDelivery(ctx, pending)
	if err != nil {
		d.logger.Warn("insert pending delivery failed", zap.Error(err))
		return matched, false
	}
	if !inserted {
		return matched, false // lost the race — another dispatch already owns this pair
	}

	body := RenderJobAlert(result.Score, posting)
	if err := d.sender.Send(ctx, u.Handle, body); err != nil {
		if markErr := d.store.MarkDeliveryFailed(ctx, pending.ID, err.Error()); markErr != nil {
			d.logger.Error("mark delivery failed errored", zap.Error(markErr))
		}
		return matched, false
	}

	if err := d.store.MarkDeliverySent(ctx, pending.ID, now); err != nil {
		d.logger.Error("mark delivery sent errored", zap.Error(err))
		return matched, false
	}
	if err := d.store.TouchWindow(ctx, u.ID, now); err != nil && err != store.ErrNotFound {
		d.logger.Warn("touch window after send failed", zap.Error(err))
	}
	if d.publisher != nil {
		d.publisher.PublishJobDelivered(ctx, u.ID, posting.ID, result.Score)
	}

	return matched, true
}

// matchUser runs the Embedding Matcher when both sides have usable
// embeddings, falling back to the Rule Matcher otherwise (spec §4.5).
func (d *Dispatcher) matchUser(prefs model.Preferences, posting model.CanonicalPosting) (matching.Result, bool) {
	if prefs.Embedding.HasVector() && posting.Embedding.HasVector() && prefs.Embedding.Version == posting.Embedding.Version {
		if result, ok := matching.MatchEmbedding(prefs.Embedding.Vector, posting.Embedding.Vector); ok {
			return result, true
		}
		return matching.Result{}, false
	}
	return matching.MatchRule(prefs, posting, d.ruleThreshold)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
