package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jobmate/alertpipeline/internal/model"
)

// OpenWindow starts (or restarts) a user's conversation window. Any prior
// window for the user is closed first inside the same transaction, keeping
// the 0..1-active-window-per-user invariant (spec §4.7 invariant).
func (s *Store) OpenWindow(ctx context.Context, userID uuid.UUID, now time.Time) (*model.ConversationWindow, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin open-window tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`UPDATE conversation_windows SET status = 'expired' WHERE user_id = $1 AND status = 'active'`,
		userID,
	); err != nil {
		return nil, fmt.Errorf("close prior window: %w", err)
	}

	w := &model.ConversationWindow{
		ID:               uuid.New(),
		UserID:           userID,
		Status:           model.WindowActive,
		StartedAt:        now,
		LastActivityAt:   now,
		MessagesInWindow: 1,
		SentStages:       map[model.ReminderStage]bool{},
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO conversation_windows (id, user_id, status, started_at, last_activity_at, messages_in_window)
		 VALUES ($1,$2,'active',$3,$3,1)`,
		w.ID, w.UserID, w.StartedAt,
	); err != nil {
		return nil, fmt.Errorf("insert window: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit open-window tx: %w", err)
	}
	return w, nil
}

// TouchWindow records fresh inbound activity on a user's active window,
// resetting the reminder clock per spec §4.7 (any inbound message resets
// last_activity_at; S1..S5 are measured from there).
func (s *Store) TouchWindow(ctx context.Context, userID uuid.UUID, now time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE conversation_windows
		 SET last_activity_at = $2, messages_in_window = messages_in_window + 1
		 WHERE user_id = $1 AND status = 'active'`,
		userID, now,
	)
	if err != nil {
		return fmt.Errorf("touch window: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetActiveWindow fetches a user's open window, if any.
func (s *Store) GetActiveWindow(ctx context.Context, userID uuid.UUID) (*model.ConversationWindow, error) {
	w, err := s.scanWindow(ctx,
		`SELECT id, user_id, status, started_at, last_activity_at, messages_in_window
		 FROM conversation_windows WHERE user_id = $1 AND status = 'active'`, userID)
	if err != nil {
		return nil, err
	}
	if err := s.loadSentStages(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

// LockExpiringWindows selects active windows whose last activity is at
// least minIdle old, row-locking each with FOR UPDATE SKIP LOCKED so
// concurrent reminder-daemon instances never race on the same window (spec
// §5 concurrency note, translating the advisory-lock pattern of the
// original reminder scan into row-level locks inside tx).
//
// Callers must run the returned rows' work inside tx and commit/rollback
// themselves; rows skipped by another worker are simply absent.
func (s *Store) LockExpiringWindows(ctx context.Context, tx pgx.Tx, now time.Time, minIdle time.Duration, limit int) ([]model.ConversationWindow, error) {
	rows, err := tx.Query(ctx,
		`SELECT id, user_id, status, started_at, last_activity_at, messages_in_window
		 FROM conversation_windows
		 WHERE status = 'active' AND last_activity_at <= $1
		 ORDER BY last_activity_at ASC
		 LIMIT $2
		 FOR UPDATE SKIP LOCKED`,
		now.Add(-minIdle), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("lock expiring windows: %w", err)
	}
	defer rows.Close()

	var out []model.ConversationWindow
	for rows.Next() {
		w, err := scanWindowRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		if err := s.loadSentStagesTx(ctx, tx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// BeginTx exposes a raw transaction for callers coordinating locked reads
// with the stage-sent writes (the Window Manager's reminder scan).
func (s *Store) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return s.pool.Begin(ctx)
}

// MarkStageSent records, inside tx, that stage has been sent for window and
// appends the matching reminder ledger row — the two writes that must be
// atomic with the locking read per spec invariant 3 (a stage is logged
// before it is considered sent).
func (s *Store) MarkStageSent(ctx context.Context, tx pgx.Tx, windowID, userID uuid.UUID, stage model.ReminderStage, now time.Time) error {
	if _, err := tx.Exec(ctx,
		`INSERT INTO window_reminder_stages (window_id, stage, sent_at) VALUES ($1,$2,$3)
		 ON CONFLICT (window_id, stage) DO NOTHING`,
		windowID, stage, now,
	); err != nil {
		return fmt.Errorf("mark stage sent: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO reminder_log (id, user_id, window_id, stage, sent_at) VALUES ($1,$2,$3,$4,$5)`,
		uuid.New(), userID, windowID, stage, now,
	); err != nil {
		return fmt.Errorf("append reminder ledger: %w", err)
	}
	return nil
}

// ExpireWindow closes window inside tx once its elapsed time has reached
// the window expiry (spec §4.7 terminal transition).
func (s *Store) ExpireWindow(ctx context.Context, tx pgx.Tx, windowID uuid.UUID) error {
	if _, err := tx.Exec(ctx, `UPDATE conversation_windows SET status = 'expired' WHERE id = $1`, windowID); err != nil {
		return fmt.Errorf("expire window: %w", err)
	}
	return nil
}

// HasReminderLogEntry reports whether the append-only ledger already holds
// an entry for (window, stage). The reminder scan does not call it; it reads
// sent stages from window_reminder_stages instead.
func (s *Store) HasReminderLogEntry(ctx context.Context, windowID uuid.UUID, stage model.ReminderStage) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM reminder_log WHERE window_id = $1 AND stage = $2)`,
		windowID, stage,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check reminder ledger: %w", err)
	}
	return exists, nil
}

func (s *Store) scanWindow(ctx context.Context, query string, args ...any) (*model.ConversationWindow, error) {
	row := s.pool.QueryRow(ctx, query, args...)
	w, err := scanWindowRow(singleRowScanner{row})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return w, err
}

func scanWindowRow(r rowsLike) (*model.ConversationWindow, error) {
	var w model.ConversationWindow
	if err := r.Scan(&w.ID, &w.UserID, &w.Status, &w.StartedAt, &w.LastActivityAt, &w.MessagesInWindow); err != nil {
		return nil, fmt.Errorf("scan conversation window: %w", err)
	}
	w.SentStages = map[model.ReminderStage]bool{}
	return &w, nil
}

func (s *Store) loadSentStages(ctx context.Context, w *model.ConversationWindow) error {
	rows, err := s.pool.Query(ctx, `SELECT stage FROM window_reminder_stages WHERE window_id = $1`, w.ID)
	if err != nil {
		return fmt.Errorf("query sent stages: %w", err)
	}
	defer rows.Close()
	return scanSentStagesInto(rows, w)
}

func (s *Store) loadSentStagesTx(ctx context.Context, tx pgx.Tx, w *model.ConversationWindow) error {
	rows, err := tx.Query(ctx, `SELECT stage FROM window_reminder_stages WHERE window_id = $1`, w.ID)
	if err != nil {
		return fmt.Errorf("query sent stages: %w", err)
	}
	defer rows.Close()
	return scanSentStagesInto(rows, w)
}

func scanSentStagesInto(rows pgx.Rows, w *model.ConversationWindow) error {
	for rows.Next() {
		var stage model.ReminderStage
		if err := rows.Scan(&stage); err != nil {
			return fmt.Errorf("scan sent stage: %w", err)
		}
		w.SentStages[stage] = true
	}
	return rows.Err()
}
