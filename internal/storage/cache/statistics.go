package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tuanvumaihuynh/product-catalog/internal/model"
)

const statisticsKey = "catalog:product-statistics"

// StatisticsCache stores the last computed product statistics.
type StatisticsCache interface {
	// Get returns false when nothing is cached.
	Get(ctx context.Context) (model.ProductStatistics, bool, error)
	Set(ctx context.Context, stats model.ProductStatistics) error
	Invalidate(ctx context.Context) error
}

var (
	_ StatisticsCache = (*RedisStatisticsCache)(nil)
	_ StatisticsCache = NoopStatisticsCache{}
)

type RedisStatisticsCache struct {
	cl  redis.UniversalClient
	ttl time.Duration
}

func NewRedisStatisticsCache(cl redis.UniversalClient, ttl time.Duration) *RedisStatisticsCache {
	return &RedisStatisticsCache{cl: cl, ttl: ttl}
}

func (c *RedisStatisticsCache) Get(ctx context.Context) (model.ProductStatistics, bool, error) {
	b, err := c.cl.Get(ctx, statisticsKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.ProductStatistics{}, false, nil
		}
		return model.ProductStatistics{}, false, fmt.Errorf("get statistics: %w", err)
	}

	var stats model.ProductStatistics
	if err := json.Unmarshal(b, &stats); err != nil {
		return model.ProductStatistics{}, false, fmt.Errorf("unmarshal statistics: %w", err)
	}

	return stats, true, nil
}

func (c *RedisStatisticsCache) Set(ctx context.Context, stats model.ProductStatistics) error {
	b, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshal statistics: %w", err)
	}

	if err := c.cl.Set(ctx, statisticsKey, b, c.ttl).Err(); err != nil {
		return fmt.Errorf("set statistics: %w", err)
	}

	return nil
}

func (c *RedisStatisticsCache) Invalidate(ctx context.Context) error {
	if err := c.cl.Del(ctx, statisticsKey).Err(); err != nil {
		return fmt.Errorf("delete statistics: %w", err)
	}
	return nil
}

// NoopStatisticsCache never holds anything. It is used when Redis is not
// configured.
type NoopStatisticsCache struct{}

func (NoopStatisticsCache) Get(context.Context) (model.ProductStatistics, bool, error) {
	return model.ProductStatistics{}, false, nil
}

func (NoopStatisticsCache) Set(context.Context, model.ProductStatistics) error { return nil }

func (NoopStatisticsCache) Invalidate(context.Context) error { return nil }
