package bootstrap

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-authgate/tokenstore/internal/config"
	"github.com/go-authgate/tokenstore/internal/logger"
	"github.com/go-authgate/tokenstore/internal/services"
	"github.com/go-authgate/tokenstore/internal/store"

	"github.com/appleboy/graceful"
	"github.com/redis/go-redis/v9"
)

var errDatabaseCloseTimeout = errors.New("timed out closing database")

// createHTTPServer creates the HTTP server instance
func createHTTPServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// addServerRunningJob adds the HTTP server running job
func addServerRunningJob(m *graceful.Manager, srv *http.Server) {
	m.AddRunningJob(func(ctx context.Context) error {
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Fatal().Err(err).Msg("failed to start server")
			}
		}()
		<-ctx.Done()
		return nil
	})
}

// addServerShutdownJob adds HTTP server shutdown handler
func addServerShutdownJob(m *graceful.Manager, srv *http.Server, timeout time.Duration) {
	m.AddShutdownJob(func() error {
		logger.Info().Msg("shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error().Err(err).Msg("server forced to shutdown")
			return err
		}

		logger.Info().Msg("server exited")
		return nil
	})
}

// addDatabaseCloseJob closes the connection pool on shutdown, giving up after timeout
func addDatabaseCloseJob(m *graceful.Manager, db *store.Store, timeout time.Duration) {
	m.AddShutdownJob(func() error {
		return closeDatabase(db, timeout)
	})
}

func closeDatabase(db *store.Store, timeout time.Duration) error {
	done := make(chan error, 1)
	go func() { done <- db.Close() }()

	select {
	case err := <-done:
		if err != nil {
			logger.Error().Err(err).Msg("error closing database")
			return err
		}
		logger.Info().Msg("database connection closed")
		return nil
	case <-time.After(timeout):
		logger.Warn().Dur("timeout", timeout).Msg("timed out closing database")
		return errDatabaseCloseTimeout
	}
}

// addRedisClientShutdownJob adds Redis client shutdown handler
func addRedisClientShutdownJob(m *graceful.Manager, redisClient *redis.Client) {
	if redisClient == nil {
		return
	}

	m.AddShutdownJob(func() error {
		logger.Info().Msg("closing redis connection...")
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("error closing redis client")
			return err
		}
		logger.Info().Msg("redis connection closed")
		return nil
	})
}

// addMetricsGaugeUpdateJob adds periodic metrics gauge update job
func addMetricsGaugeUpdateJob(
	m *graceful.Manager,
	cfg *config.Config,
	tokenService *services.TokenService,
) {
	if !cfg.MetricsEnabled || !cfg.MetricsGaugeUpdateEnabled {
		return
	}

	m.AddRunningJob(func(ctx context.Context) error {
		ticker := time.NewTicker(cfg.MetricsGaugeUpdateInterval)
		defer ticker.Stop()

		// Update immediately on startup
		updateGaugeMetrics(ctx, tokenService)

		for {
			select {
			case <-ticker.C:
				updateGaugeMetrics(ctx, tokenService)
			case <-ctx.Done():
				return nil
			}
		}
	})
}

// errorLogger handles rate-limited error logging
type errorLogger struct {
	mu              sync.Mutex
	lastErrorTimes  map[string]time.Time
	rateLimitWindow time.Duration
}

// newErrorLogger creates a new error logger with rate limiting
func newErrorLogger(window time.Duration) *errorLogger {
	return &errorLogger{
		lastErrorTimes:  make(map[string]time.Time),
		rateLimitWindow: window,
	}
}

// logIfNeeded logs an error only if rate limit allows. Reports whether it logged.
func (e *errorLogger) logIfNeeded(operation string, err error) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := time.Now()
	lastTime, exists := e.lastErrorTimes[operation]
	if exists && now.Sub(lastTime) < e.rateLimitWindow {
		return false
	}

	logger.Error().
		Err(err).
		Str("operation", operation).
		Dur("suppress_for", e.rateLimitWindow).
		Msg("database query failed")
	e.lastErrorTimes[operation] = now
	return true
}

var gaugeErrorLogger = newErrorLogger(5 * time.Minute)

// updateGaugeMetrics refreshes the active tokens gauge
func updateGaugeMetrics(ctx context.Context, tokenService *services.TokenService) {
	if err := tokenService.RefreshActiveTokensGauge(ctx); err != nil {
		gaugeErrorLogger.logIfNeeded("count_active_tokens", err)
	}
}
