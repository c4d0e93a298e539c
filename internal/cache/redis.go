package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nusantara-energy/portfolio-engine/internal/aggregate"
)

const keyPrefix = "portfolio:summary:"

// SummaryCache keeps computed dashboard summaries in Redis, keyed by the
// canonical filter key. A nil *SummaryCache is valid and behaves as a
// cache that never hits, so callers don't branch on whether Redis is
// configured.
type SummaryCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSummaryCache connects to Redis and verifies the connection
func NewSummaryCache(ctx context.Context, address, password string, ttl time.Duration) (*SummaryCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     address,
		Password: password,
		DB:       0,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &SummaryCache{client: client, ttl: ttl}, nil
}

// Get returns the cached summary for the filter key, or (nil, nil) on miss
func (c *SummaryCache) Get(ctx context.Context, filterKey string) (*aggregate.Summary, error) {
	if c == nil {
		return nil, nil
	}

	data, err := c.client.Get(ctx, keyPrefix+filterKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read cached summary: %w", err)
	}

	var s aggregate.Summary
	if err := json.Unmarshal(data, &s); err != nil {
		// A stale or truncated entry is treated as a miss
		slog.Warn("dropping undecodable cached summary", "key", filterKey, "error", err)
		return nil, nil
	}

	return &s, nil
}

// Set stores a summary under the filter key with the configured TTL
func (c *SummaryCache) Set(ctx context.Context, filterKey string, s *aggregate.Summary) error {
	if c == nil {
		return nil
	}

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}

	if err := c.client.Set(ctx, keyPrefix+filterKey, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache summary: %w", err)
	}

	return nil
}

// Invalidate removes every cached summary. Called after any project
// mutation; summaries for all filter combinations are stale at once.
func (c *SummaryCache) Invalidate(ctx context.Context) error {
	if c == nil {
		return nil
	}

	var cursor uint64
	var deleted int

	for {
		keys, next, err := c.client.Scan(ctx, cursor, keyPrefix+"*", 100).Result()
		if err != nil {
			return fmt.Errorf("failed to scan cached summaries: %w", err)
		}

		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("failed to delete some cached summaries", "error", err)
			}
			deleted += len(keys)
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	if deleted > 0 {
		slog.Debug("summary cache invalidated", "entries", deleted)
	}

	return nil
}

// Ping verifies Redis connectivity
func (c *SummaryCache) Ping(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *SummaryCache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
