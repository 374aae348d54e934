package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jobmate/alertpipeline/internal/model"
)

// ReminderLogForWindow returns every ledger entry recorded for a window,
// oldest first, for the admin diagnostics surface.
func (s *Store) ReminderLogForWindow(ctx context.Context, windowID uuid.UUID) ([]model.ReminderLogEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, window_id, stage, sent_at FROM reminder_log WHERE window_id = $1 ORDER BY sent_at ASC`,
		windowID,
	)
	if err != nil {
		return nil, fmt.Errorf("query reminder log: %w", err)
	}
	defer rows.Close()

	var out []model.ReminderLogEntry
	for rows.Next() {
		var e model.ReminderLogEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.WindowID, &e.Stage, &e.SentAt); err != nil {
			return nil, fmt.Errorf("scan reminder log entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ReminderLogForUser returns a user's full reminder ledger across all
// windows, most recent first.
func (s *Store) ReminderLogForUser(ctx context.Context, userID uuid.UUID, limit int) ([]model.ReminderLogEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, window_id, stage, sent_at FROM reminder_log
		 WHERE user_id = $1 ORDER BY sent_at DESC LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query user reminder log: %w", err)
	}
	defer rows.Close()

	var out []model.ReminderLogEntry
	for rows.Next() {
		var e model.ReminderLogEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.WindowID, &e.Stage, &e.SentAt); err != nil {
			return nil, fmt.Errorf("scan reminder log entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// WindowIdleFor reports how long a window has been idle as of now.
func WindowIdleFor(w model.ConversationWindow, now time.Time) time.Duration {
	return now.Sub(w.LastActivityAt)
}
