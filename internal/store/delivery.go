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

// HasDeliveryRecord reports whether a (user, posting) pair already has a
// delivery_history row, the existence check that must precede any send
// per spec invariant 2 (no duplicate delivery for the same pair).
func (s *Store) HasDeliveryRecord(ctx context.Context, userID, postingID uuid.UUID) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM delivery_history WHERE user_id = $1 AND posting_id = $2)`,
		userID, postingID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check delivery record: %w", err)
	}
	return exists, nil
}

// CountDeliveriesSince counts sent deliveries to userID at or after since,
// for daily-cap enforcement (spec §4.6).
func (s *Store) CountDeliveriesSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM delivery_history WHERE user_id = $1 AND sent = true AND shown_at >= $2`,
		userID, since,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count deliveries since: %w", err)
	}
	return n, nil
}

// InsertPendingDelivery reserves the (user, posting) pair before the actual
// send attempt, giving the dispatcher a row to update regardless of whether
// the send succeeds (check-then-insert-then-send, spec §5). The unique
// constraint on (user_id, posting_id) is the sole deduplication mechanism:
// inserted=false means another dispatch already reserved or completed this
// pair and the caller must abort without sending (spec invariant 1,
// idempotency rule in §4.6).
func (s *Store) InsertPendingDelivery(ctx context.Context, d *model.DeliveryHistory) (inserted bool, err error) {
	var id uuid.UUID
	err = s.pool.QueryRow(ctx,
		`INSERT INTO delivery_history (id, user_id, posting_id, score, reasons, stage, sent, error, shown_at)
		 VALUES ($1,$2,$3,$4,$5,$6,false,NULL,$7)
		 ON CONFLICT (user_id, posting_id) DO NOTHING
		 RETURNING id`,
		d.ID, d.UserID, d.PostingID, d.Score, d.Reasons, d.Stage, d.ShownAt,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("insert pending delivery: %w", err)
	}
	return true, nil
}

// MarkDeliverySent flips a pending delivery to sent once the chat provider
// confirms transmission.
func (s *Store) MarkDeliverySent(ctx context.Context, id uuid.UUID, sentAt time.Time) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE delivery_history SET sent = true, shown_at = $2 WHERE id = $1`, id, sentAt,
	)
	if err != nil {
		return fmt.Errorf("mark delivery sent: %w", err)
	}
	return nil
}

// MarkDeliveryFailed records why a reserved delivery never went out. The
// row stays (spec invariant 1: delivery_history rows are append-only and
// never deleted outside the dedup repoint path), so the pair will not be
// retried — failures are terminal per candidate per spec §7 error kind (d).
func (s *Store) MarkDeliveryFailed(ctx context.Context, id uuid.UUID, errText string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE delivery_history SET sent = false, error = $2 WHERE id = $1`, id, errText,
	)
	if err != nil {
		return fmt.Errorf("mark delivery failed: %w", err)
	}
	return nil
}

// RecentDeliveriesForUser returns a user's most recent sent deliveries,
// newest first, for the admin diagnostics surface and market-update framing.
func (s *Store) RecentDeliveriesForUser(ctx context.Context, userID uuid.UUID, limit int) ([]model.DeliveryHistory, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, posting_id, score, reasons, stage, sent, error, shown_at
		 FROM delivery_history
		 WHERE user_id = $1 AND sent = true
		 ORDER BY shown_at DESC
		 LIMIT $2`, userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query recent deliveries: %w", err)
	}
	defer rows.Close()

	var out []model.DeliveryHistory
	for rows.Next() {
		d, err := scanDeliveryRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

// GetDelivery fetches a single delivery_history row by id.
func (s *Store) GetDelivery(ctx context.Context, id uuid.UUID) (*model.DeliveryHistory, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, user_id, posting_id, score, reasons, stage, sent, error, shown_at
		 FROM delivery_history WHERE id = $1`, id,
	)
	d, err := scanDeliveryRow(singleRowScanner{row})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return d, err
}

func scanDeliveryRow(r rowsLike) (*model.DeliveryHistory, error) {
	var d model.DeliveryHistory
	var errText *string
	if err := r.Scan(&d.ID, &d.UserID, &d.PostingID, &d.Score, &d.Reasons, &d.Stage, &d.Sent, &errText, &d.ShownAt); err != nil {
		return nil, fmt.Errorf("scan delivery history: %w", err)
	}
	if errText != nil {
		d.Error = *errText
	}
	return &d, nil
}
