package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tuanvumaihuynh/product-catalog/internal/config"
)

// NewRedisClient connects to cfg.URL and pings it.
func NewRedisClient(ctx context.Context, cfg config.Redis) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	cl := redis.NewClient(opts)

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()

	if err := cl.Ping(pingCtx).Err(); err != nil {
		//nolint:errcheck
		cl.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return cl, nil
}
