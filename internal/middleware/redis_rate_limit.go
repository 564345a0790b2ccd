package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zaplinker/backend/internal/cache"
	"github.com/zaplinker/backend/internal/logger"
	"go.uber.org/zap"
)

// RedisRateLimiter is a fixed-window limiter shared by every instance through Redis.
// Without Redis, or when a Redis call fails, requests are charged to an in-process limiter instead.
type RedisRateLimiter struct {
	redis    *cache.RedisClient
	config   RateLimitConfig
	fallback *RateLimiter
}

// NewRedisRateLimiter creates a limiter. rc may be nil.
func NewRedisRateLimiter(rc *cache.RedisClient, config RateLimitConfig) (*RedisRateLimiter, error) {
	config = config.withDefaults()
	fallback, err := NewRateLimiter(config)
	if err != nil {
		return nil, err
	}
	return &RedisRateLimiter{redis: rc, config: config, fallback: fallback}, nil
}

// Stop ends the fallback limiter's sweeper
func (l *RedisRateLimiter) Stop() {
	l.fallback.Stop()
}

// Middleware returns the gin handler
func (l *RedisRateLimiter) Middleware() gin.HandlerFunc {
	fallback := l.fallback.Middleware()
	if l.redis == nil {
		return fallback
	}
	config := l.config

	return func(c *gin.Context) {
		key := fmt.Sprintf("zl:rl:%s:%s", config.Scope, config.KeyFunc(c))
		ctx, cancel := context.WithTimeout(c.Request.Context(), 500*time.Millisecond)
		defer cancel()

		count, err := l.redis.IncrWithExpiry(ctx, key, config.Window)
		if err != nil {
			logger.Log.Warn("Redis rate limit check failed, using in-memory limiter",
				zap.String("scope", config.Scope),
				zap.Error(err),
			)
			fallback(c)
			return
		}

		if count > int64(config.Limit) {
			retryAfter := int(config.Window.Seconds())
			if ttl, err := l.redis.TTL(ctx, key); err == nil && ttl > 0 {
				retryAfter = int(ttl.Seconds()) + 1
			}
			logger.Log.Debug("Rate limit exceeded",
				logger.WithIP(c.ClientIP()),
				zap.String("scope", config.Scope),
				zap.Int64("current_requests", count),
			)
			rejectRateLimited(c, config, retryAfter)
			return
		}

		c.Next()
	}
}
