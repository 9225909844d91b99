package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/product-catalog/internal/config"
	"github.com/tuanvumaihuynh/product-catalog/internal/model"
	"github.com/tuanvumaihuynh/product-catalog/internal/storage/cache"
)

func newTestCache(t *testing.T, ttl time.Duration) (*cache.RedisStatisticsCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	cl := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = cl.Close() })

	return cache.NewRedisStatisticsCache(cl, ttl), mr
}

func TestRedisStatisticsCache(t *testing.T) {
	ctx := context.Background()
	stats := model.ProductStatistics{
		TotalProducts:      3,
		ProductsByCategory: map[string]int64{"audio": 2, "uncategorized": 1},
		LowStockProducts:   1,
	}

	t.Run("Should miss on empty cache", func(t *testing.T) {
		c, _ := newTestCache(t, time.Minute)

		_, ok, err := c.Get(ctx)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Should return what was stored", func(t *testing.T) {
		c, _ := newTestCache(t, time.Minute)
		require.NoError(t, c.Set(ctx, stats))

		got, ok, err := c.Get(ctx)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, stats, got)
	})

	t.Run("Should expire after ttl", func(t *testing.T) {
		c, mr := newTestCache(t, 30*time.Second)
		require.NoError(t, c.Set(ctx, stats))

		mr.FastForward(31 * time.Second)

		_, ok, err := c.Get(ctx)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Should drop entry on invalidate", func(t *testing.T) {
		c, _ := newTestCache(t, time.Minute)
		require.NoError(t, c.Set(ctx, stats))
		require.NoError(t, c.Invalidate(ctx))

		_, ok, err := c.Get(ctx)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Should surface connection errors", func(t *testing.T) {
		c, mr := newTestCache(t, time.Minute)
		mr.Close()

		_, _, err := c.Get(ctx)
		assert.Error(t, err)
	})
}

func TestNewRedisClient(t *testing.T) {
	t.Run("Should connect to a reachable server", func(t *testing.T) {
		mr := miniredis.RunT(t)

		cl, err := cache.NewRedisClient(context.Background(), config.Redis{URL: "redis://" + mr.Addr()})
		require.NoError(t, err)
		assert.NoError(t, cl.Close())
	})

	t.Run("Should reject an invalid url", func(t *testing.T) {
		_, err := cache.NewRedisClient(context.Background(), config.Redis{URL: "://bad"})
		assert.Error(t, err)
	})
}
