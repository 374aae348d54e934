// Package ingestion is the Ingestion Queue: the thin, store-backed contract
// scraper adapters call to submit raw postings. There is no in-memory
// queue — processed=false on the raw_postings row IS the queue (spec §4.1).
package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jobmate/alertpipeline/internal/metrics"
	"github.com/jobmate/alertpipeline/internal/model"
	"github.com/jobmate/alertpipeline/internal/store"
)

// Queue accepts scraped records and deduplicates them on (source, source_id).
type Queue struct {
	store  *store.Store
	logger *zap.Logger
}

func New(s *store.Store, logger *zap.Logger) *Queue {
	return &Queue{store: s, logger: logger}
}

// Enqueue submits one scraped record. Idempotent: re-submitting the same
// (source, source_id) pair is a no-op.
func (q *Queue) Enqueue(ctx context.Context, source, sourceID string, payload json.RawMessage, url string, scrapedAt time.Time) (store.EnqueueResult, error) {
	if source == "" || sourceID == "" {
		return "", &store.ValidationError{Msg: "source and source_id are required"}
	}

	p := &model.RawPosting{
		ID:        uuid.New(),
		Source:    source,
		SourceID:  sourceID,
		Payload:   payload,
		URL:       url,
		ScrapedAt: scrapedAt,
	}

	result, err := q.store.EnqueueRawPosting(ctx, p)
	if err != nil {
		return "", fmt.Errorf("enqueue: %w", err)
	}
	if result == store.EnqueueInserted {
		metrics.RawPostingsReceived.Inc()
	}

	q.logger.Debug("raw posting enqueued",
		zap.String("source", source),
		zap.String("source_id", sourceID),
		zap.String("result", string(result)),
	)
	return result, nil
}
