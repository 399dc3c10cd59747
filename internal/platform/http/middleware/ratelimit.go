package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	limitergin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"mindflow_backend/internal/api"
)

// rateLimitPrefix namespaces limiter keys in Redis.
const rateLimitPrefix = "ratelimit:auth"

// NewLimiter builds a limiter for a formatted rate such as "10-M".
// Counters live in Redis when rdb is set so that every instance shares them,
// and in process memory otherwise.
func NewLimiter(formatted string, rdb *redis.Client) (*limiter.Limiter, error) {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, fmt.Errorf("invalid rate %q: %w", formatted, err)
	}

	var store limiter.Store
	if rdb != nil {
		store, err = sredis.NewStoreWithOptions(rdb, limiter.StoreOptions{Prefix: rateLimitPrefix})
		if err != nil {
			return nil, fmt.Errorf("failed to create redis limiter store: %w", err)
		}
	} else {
		store = memory.NewStoreWithOptions(limiter.StoreOptions{Prefix: rateLimitPrefix})
	}

	return limiter.New(store, rate), nil
}

// RateLimit limits requests per client IP and answers 429 with the standard envelope.
func RateLimit(l *limiter.Limiter) gin.HandlerFunc {
	return limitergin.NewMiddleware(l,
		limitergin.WithLimitReachedHandler(func(c *gin.Context) {
			Logger(c).Warn("rate limit exceeded", "client_ip", c.ClientIP())
			api.AbortFail(c, http.StatusTooManyRequests, "Too many requests")
		}),
		limitergin.WithErrorHandler(func(c *gin.Context, err error) {
			Logger(c).Error("rate limit check failed", "error", err)
			api.AbortFail(c, http.StatusInternalServerError, "Internal server error")
		}),
	)
}
