package window

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jobmate/alertpipeline/internal/clock"
	"github.com/jobmate/alertpipeline/internal/model"
	"github.com/jobmate/alertpipeline/internal/store"
)

// Sender delivers outbound text to a user's chat handle. Satisfied by
// internal/chatprovider.Sender; declared here to avoid an import cycle.
type Sender interface {
	Send(ctx context.Context, handle, text string) error
}

// Manager owns every Conversation Window mutation (spec §3.3 ownership
// rule) and the reminder-stage selection that follows from it.
type Manager struct {
	store  *store.Store
	sender Sender
	clock  clock.Clock
	logger *zap.Logger
	expiry time.Duration
}

// New builds a Manager. expiry is the configured outbound messaging window
// duration (spec §4.7); pass DefaultWindowExpiry when no override applies.
func New(s *store.Store, sender Sender, c clock.Clock, logger *zap.Logger, expiry time.Duration) *Manager {
	return &Manager{store: s, sender: sender, clock: c, logger: logger, expiry: expiry}
}

// HandleInbound opens a window for a brand-new conversation or refreshes an
// active one; any inbound message resets the reminder clock (spec §4.7).
func (m *Manager) HandleInbound(ctx context.Context, userID uuid.UUID) error {
	now := m.clock.Now()

	if err := m.store.TouchLastActive(ctx, userID, now); err != nil {
		m.logger.Warn("touch last active failed", zap.String("user_id", userID.String()), zap.Error(err))
	}

	existing, err := m.store.GetActiveWindow(ctx, userID)
	if err == nil && !IsExpired(now.Sub(existing.LastActivityAt), m.expiry) {
		if err := m.store.TouchWindow(ctx, userID, now); err != nil {
			return fmt.Errorf("touch window: %w", err)
		}
		return nil
	}

	if _, err := m.store.OpenWindow(ctx, userID, now); err != nil {
		return fmt.Errorf("open window: %w", err)
	}

	m.sendWelcomeIfNoPreferences(ctx, userID)
	return nil
}

// sendWelcomeIfNoPreferences offers the welcome template the first time a
// user opens a conversation without having set any preferences yet (spec
// §6.2). Failures here are logged, not propagated — a missed welcome
// message must never block the window open it rides along with.
func (m *Manager) sendWelcomeIfNoPreferences(ctx context.Context, userID uuid.UUID) {
	_, err := m.store.GetPreferences(ctx, userID)
	if err == nil {
		return
	}
	if !errors.Is(err, store.ErrNotFound) {
		m.logger.Warn("welcome: load preferences failed", zap.String("user_id", userID.String()), zap.Error(err))
		return
	}

	u, err := m.store.GetUser(ctx, userID)
	if err != nil {
		m.logger.Warn("welcome: load user failed", zap.String("user_id", userID.String()), zap.Error(err))
		return
	}
	if err := m.sender.Send(ctx, u.Handle, RenderWelcome()); err != nil {
		m.logger.Warn("welcome send failed", zap.String("user_id", userID.String()), zap.Error(err))
	}
}

// ScanAndSendReminders locks every window idle for at least minIdle,
// determines the highest due-but-unsent stage for each, sends it, and
// records the ledger entry before the window row is released — the
// row-level-lock equivalent of the original advisory-lock-per-user
// serialization (spec §5).
func (m *Manager) ScanAndSendReminders(ctx context.Context, minIdle time.Duration, limit int) (int, error) {
	now := m.clock.Now()

	tx, err := m.store.BeginTx(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin reminder scan tx: %w", err)
	}
	defer tx.Rollback(ctx)

	windows, err := m.store.LockExpiringWindows(ctx, tx, now, minIdle, limit)
	if err != nil {
		return 0, fmt.Errorf("lock expiring windows: %w", err)
	}

	sent := 0
	for _, w := range windows {
		elapsed := now.Sub(w.LastActivityAt)

		if IsExpired(elapsed, m.expiry) {
			if err := m.store.ExpireWindow(ctx, tx, w.ID); err != nil {
				return sent, fmt.Errorf("expire window %s: %w", w.ID, err)
			}
			continue
		}

		stage, due := DueStage(elapsed, w.SentStages)
		if !due {
			continue
		}

		u, err := m.store.GetUser(ctx, w.UserID)
		if err != nil {
			m.logger.Warn("reminder scan: load user failed", zap.String("user_id", w.UserID.String()), zap.Error(err))
			continue
		}

		jobsSent, err := m.jobsSentInWindow(ctx, w)
		if err != nil {
			m.logger.Warn("reminder scan: count jobs sent failed", zap.Error(err))
		}

		// Ledger write precedes transmission (spec §4.8): a crash between
		// the two leaves the stage already recorded, so the next scan
		// never double-sends it. A send failure after this point is lost,
		// not retried — the alternative is a duplicate reminder, which is
		// the worse outcome.
		if err := m.store.MarkStageSent(ctx, tx, w.ID, w.UserID, stage, now); err != nil {
			return sent, fmt.Errorf("mark stage sent: %w", err)
		}

		body := RenderReminder(stage, jobsSent)
		if err := m.sender.Send(ctx, u.Handle, body); err != nil {
			m.logger.Warn("reminder send failed after ledger write",
				zap.String("user_id", u.ID.String()), zap.String("stage", string(stage)), zap.Error(err))
			continue
		}
		sent++
	}

	if err := tx.Commit(ctx); err != nil {
		return sent, fmt.Errorf("commit reminder scan tx: %w", err)
	}
	return sent, nil
}

func (m *Manager) jobsSentInWindow(ctx context.Context, w model.ConversationWindow) (int, error) {
	deliveries, err := m.store.RecentDeliveriesForUser(ctx, w.UserID, 50)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, d := range deliveries {
		if !d.ShownAt.Before(w.StartedAt) {
			count++
		}
	}
	return count, nil
}
