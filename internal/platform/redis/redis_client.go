// Package redis connects to the optional Redis instance used for caching and rate limiting.
package redis

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"mindflow_backend/internal/platform/config"
)

// NewRedisClient connects to Redis and verifies the connection with a ping.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	addr := cfg.Addr()

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       0,
	})

	// verify the connection before handing the client out
	if err := rdb.Ping(ctx).Err(); err != nil {
		slog.Error("Redis connection failed", "address", addr, "error", err)
		_ = rdb.Close()
		return nil, err
	}

	slog.Info("Redis connection successful", "address", addr)
	return rdb, nil
}
