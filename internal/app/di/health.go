package di

import (
	"context"

	"github.com/redis/go-redis/v9"

	"mindflow_backend/internal/platform/http/handler"
)

// NewHealthChecks lists the dependencies reported by /healthz.
// Redis is only checked when it is in use.
func NewHealthChecks(storePing handler.Checker, rdb *redis.Client) map[string]handler.Checker {
	checks := map[string]handler.Checker{"database": storePing}
	if rdb != nil {
		checks["redis"] = func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}
	}
	return checks
}
