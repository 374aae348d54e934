// Package store is the Store Gateway: the sole logical persistence API over
// the relational store. Every other package reaches the database only
// through a *Store — no component issues SQL of its own.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// ErrNotFound is returned when a lookup by id/handle finds nothing.
var ErrNotFound = errors.New("store: not found")

// ValidationError reports a caller-supplied value the store refused to
// persist, as opposed to an infrastructure failure.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Store wraps a pgxpool.Pool and exposes typed operations for every entity
// in the data model. It owns no business logic beyond constraint
// enforcement that the schema itself expresses (uniqueness, FKs).
type Store struct {
	pool *pgxpool.Pool
}

// New opens and verifies a pgxpool connection pool against databaseURL.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Close releases the underlying pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Pool exposes the underlying pgxpool; cmd/alertd uses it for the store
// health check's Ping.
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

// toVector adapts a []float32 for a pgvector column parameter.
func toVector(v []float32) pgvector.Vector {
	return pgvector.NewVector(v)
}
