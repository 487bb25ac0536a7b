package bootstrap

import (
	"fmt"

	"github.com/go-authgate/tokenstore/internal/config"
	"github.com/go-authgate/tokenstore/internal/logger"
	"github.com/go-authgate/tokenstore/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// rateLimitMiddlewares holds rate limiting middlewares for different endpoints
type rateLimitMiddlewares struct {
	tokenInfo gin.HandlerFunc
	admin     gin.HandlerFunc
}

// setupRateLimiting configures rate limiting middlewares based on configuration.
// redisClient may be nil when the memory store is used.
func setupRateLimiting(
	cfg *config.Config,
	redisClient *redis.Client,
) (rateLimitMiddlewares, error) {
	if !cfg.EnableRateLimit {
		noOpMiddleware := func(c *gin.Context) { c.Next() }
		return rateLimitMiddlewares{
			tokenInfo: noOpMiddleware,
			admin:     noOpMiddleware,
		}, nil
	}

	logger.Info().Str("store", cfg.RateLimitStore).Msg("rate limiting enabled")

	createLimiter := func(requestsPerMinute int, endpoint string) (gin.HandlerFunc, error) {
		limiter, err := middleware.NewRateLimiter(middleware.RateLimitConfig{
			RequestsPerMinute: requestsPerMinute,
			StoreType:         middleware.RateLimitStoreType(cfg.RateLimitStore),
			RedisClient:       redisClient,
			CleanupInterval:   cfg.RateLimitCleanupInterval,
			Prefix:            "tokenstore:ratelimit:" + endpoint,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create rate limiter for %s: %w", endpoint, err)
		}
		return limiter, nil
	}

	tokenInfo, err := createLimiter(cfg.TokenInfoRateLimit, "tokeninfo")
	if err != nil {
		return rateLimitMiddlewares{}, err
	}
	admin, err := createLimiter(cfg.AdminRateLimit, "admin")
	if err != nil {
		return rateLimitMiddlewares{}, err
	}

	return rateLimitMiddlewares{tokenInfo: tokenInfo, admin: admin}, nil
}
