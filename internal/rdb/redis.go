// Package rdb builds the process-wide Redis client used for pub/sub event
// forwarding.
package rdb

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// New creates and verifies a Redis client connection.
func New(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return client, nil
}
