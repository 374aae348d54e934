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

// GetOrCreateUser returns the user for handle, creating one on first
// contact. Lifecycle per spec §3.1: users are created on first inbound
// message and never deleted.
func (s *Store) GetOrCreateUser(ctx context.Context, handle string, now time.Time) (*model.User, error) {
	u, err := s.GetUserByHandle(ctx, handle)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	id := uuid.New()
	_, err = s.pool.Exec(ctx,
		`INSERT INTO users (id, handle, is_active, created_at, last_active_at)
		 VALUES ($1, $2, true, $3, $3)
		 ON CONFLICT (handle) DO NOTHING`,
		id, handle, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	return s.GetUserByHandle(ctx, handle)
}

// GetUserByHandle fetches a user by their contact handle.
func (s *Store) GetUserByHandle(ctx context.Context, handle string) (*model.User, error) {
	var u model.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, handle, display_name, is_active, created_at, last_active_at
		 FROM users WHERE handle = $1`, handle,
	).Scan(&u.ID, &u.Handle, &u.DisplayName, &u.IsActive, &u.CreatedAt, &u.LastActiveAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &u, nil
}

// GetUser fetches a user by id.
func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var u model.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, handle, display_name, is_active, created_at, last_active_at
		 FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Handle, &u.DisplayName, &u.IsActive, &u.CreatedAt, &u.LastActiveAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &u, nil
}

// TouchLastActive bumps a user's last_active_at to now. Called on every
// inbound message.
func (s *Store) TouchLastActive(ctx context.Context, userID uuid.UUID, now time.Time) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE users SET last_active_at = $2 WHERE id = $1`, userID, now,
	)
	if err != nil {
		return fmt.Errorf("touch last_active: %w", err)
	}
	return nil
}

// Deactivate marks a user inactive. Users are never deleted (spec §3.1).
func (s *Store) Deactivate(ctx context.Context, userID uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `UPDATE users SET is_active = false WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("deactivate user: %w", err)
	}
	return nil
}

// ActiveUsersWithOpenWindow returns every user eligible for dispatch
// consideration: active, confirmed preferences, open window. This is the
// "eligible cohort" of spec §4.6 minus the per-job history/cap checks, which
// are applied per-candidate to keep this query cheap. Its only caller is the
// real-time dispatcher.
func (s *Store) ActiveUsersWithOpenWindow(ctx context.Context, now time.Time) ([]model.User, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT u.id, u.handle, u.display_name, u.is_active, u.created_at, u.last_active_at
		 FROM users u
		 JOIN user_preferences p ON p.user_id = u.id AND p.confirmed = true
		 JOIN conversation_windows w ON w.user_id = u.id AND w.status = 'active'
		 WHERE u.is_active = true`,
	)
	if err != nil {
		return nil, fmt.Errorf("query eligible cohort: %w", err)
	}
	defer rows.Close()

	var out []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Handle, &u.DisplayName, &u.IsActive, &u.CreatedAt, &u.LastActiveAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
