package chatprovider

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// EventPublisher publishes pipeline events to Redis pub/sub for any
// downstream SSE/Gateway forwarder, mirroring the tracker service's
// EVENT_CARD_MOVED pattern.
type EventPublisher struct {
	rdb    *redis.Client
	logger *zap.Logger
}

func NewEventPublisher(rdb *redis.Client, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{rdb: rdb, logger: logger}
}

// PublishJobDelivered announces that a job alert was sent to a user.
// Publish failures are logged and swallowed — delivery already happened
// and is recorded in delivery_history; the event is a best-effort signal
// for any connected Gateway, not the system of record.
func (p *EventPublisher) PublishJobDelivered(ctx context.Context, userID, postingID uuid.UUID, score int) {
	event, _ := json.Marshal(map[string]any{
		"type":      "EVENT_JOB_DELIVERED",
		"userId":    userID.String(),
		"postingId": postingID.String(),
		"score":     score,
	})
	if err := p.rdb.Publish(ctx, "EVENT_JOB_DELIVERED", event).Err(); err != nil {
		p.logger.Warn("publish EVENT_JOB_DELIVERED failed", zap.Error(err))
	}
}
