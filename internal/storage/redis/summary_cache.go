package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const summaryKey = "dashboard:summary"

var ErrCacheMiss = errors.New("summary not cached")

// SummaryCache holds the serialized dashboard summary between recomputations.
// The periodic worker refreshes it; request handlers fall back to computing
// on a miss.
type SummaryCache struct {
	client *redis.Client
	logger *zap.Logger
}

func NewSummaryCache(client *redis.Client, logger *zap.Logger) *SummaryCache {
	return &SummaryCache{
		client: client,
		logger: logger.Named("SummaryCache"),
	}
}

func (c *SummaryCache) Set(ctx context.Context, payload []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, summaryKey, payload, ttl).Err(); err != nil {
		c.logger.Error("Failed to cache dashboard summary", zap.Error(err))
		return fmt.Errorf("redis error caching summary: %w", err)
	}
	return nil
}

func (c *SummaryCache) Get(ctx context.Context) ([]byte, error) {
	data, err := c.client.Get(ctx, summaryKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		c.logger.Error("Failed to read cached dashboard summary", zap.Error(err))
		return nil, fmt.Errorf("redis error reading summary: %w", err)
	}
	return data, nil
}
