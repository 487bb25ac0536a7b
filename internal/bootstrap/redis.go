package bootstrap

import (
	"context"
	"fmt"

	"github.com/go-authgate/tokenstore/internal/config"
	"github.com/go-authgate/tokenstore/internal/logger"

	"github.com/redis/go-redis/v9"
)

// initializeRateLimitRedisClient initializes the go-redis client for rate limiting.
// Returns nil if rate limiting is disabled or using memory store.
func initializeRateLimitRedisClient(
	ctx context.Context,
	cfg *config.Config,
) (*redis.Client, error) {
	if !cfg.EnableRateLimit || cfg.RateLimitStore != config.RateLimitStoreRedis {
		return nil, nil //nolint:nilnil // redis client not needed in this configuration
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(ctx, cfg.RedisConnTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.RedisAddr, err)
	}

	logger.Info().
		Str("addr", cfg.RedisAddr).
		Int("db", cfg.RedisDB).
		Msg("rate limiting redis client initialized")
	return client, nil
}
