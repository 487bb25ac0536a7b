package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-authgate/tokenstore/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	limiterRedis "github.com/ulule/limiter/v3/drivers/store/redis"
)

// RateLimitStoreType defines the type of rate limit store
type RateLimitStoreType string

const (
	// RateLimitStoreMemory uses in-memory storage (single instance only)
	RateLimitStoreMemory RateLimitStoreType = "memory"
	// RateLimitStoreRedis uses Redis storage (shared across instances)
	RateLimitStoreRedis RateLimitStoreType = "redis"
)

var errRedisClientRequired = errors.New("redis rate limit store requires a redis client")

// RateLimitConfig holds the configuration for rate limiting with store support
type RateLimitConfig struct {
	RequestsPerMinute int
	CleanupInterval   time.Duration // memory store only
	Prefix            string        // key prefix, redis store only

	StoreType   RateLimitStoreType
	RedisClient *redis.Client // required when StoreType = "redis"
}

// NewRateLimiter creates a per client IP rate limiter backed by the configured store
func NewRateLimiter(config RateLimitConfig) (gin.HandlerFunc, error) {
	rate := limiter.Rate{
		Period: 1 * time.Minute,
		Limit:  int64(config.RequestsPerMinute),
	}

	var store limiter.Store
	switch config.StoreType {
	case RateLimitStoreRedis:
		if config.RedisClient == nil {
			return nil, errRedisClientRequired
		}
		prefix := config.Prefix
		if prefix == "" {
			prefix = "tokenstore:ratelimit"
		}
		var err error
		store, err = limiterRedis.NewStoreWithOptions(config.RedisClient, limiter.StoreOptions{
			Prefix: prefix,
		})
		if err != nil {
			return nil, err
		}

	case RateLimitStoreMemory:
		fallthrough
	default:
		interval := config.CleanupInterval
		if interval <= 0 {
			interval = limiter.DefaultCleanUpInterval
		}
		store = memory.NewStoreWithOptions(limiter.StoreOptions{
			Prefix:          limiter.DefaultPrefix,
			CleanUpInterval: interval,
		})
	}

	instance := limiter.New(store, rate)

	return mgin.NewMiddleware(instance, mgin.WithLimitReachedHandler(func(c *gin.Context) {
		logger.Warn().
			Str("ip", c.ClientIP()).
			Str("path", c.Request.URL.Path).
			Msg("rate limit exceeded")
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error":             "rate_limit_exceeded",
			"error_description": "Too many requests. Please try again later.",
		})
	})), nil
}

// NewMemoryRateLimiter creates an in-memory rate limiter (single instance)
func NewMemoryRateLimiter(requestsPerMinute int) (gin.HandlerFunc, error) {
	return NewRateLimiter(RateLimitConfig{
		RequestsPerMinute: requestsPerMinute,
		StoreType:         RateLimitStoreMemory,
		CleanupInterval:   5 * time.Minute,
	})
}
