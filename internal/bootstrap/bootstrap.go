package bootstrap

import (
	"context"
	"net/http"

	"github.com/go-authgate/tokenstore/internal/config"
	"github.com/go-authgate/tokenstore/internal/metrics"
	"github.com/go-authgate/tokenstore/internal/services"
	"github.com/go-authgate/tokenstore/internal/store"

	"github.com/appleboy/graceful"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Application holds all initialized components
type Application struct {
	Config *config.Config

	// Core infrastructure
	DB                   *store.Store
	MetricsRecorder      metrics.Recorder
	RateLimitRedisClient *redis.Client

	// Services
	TokenService *services.TokenService

	// HTTP
	HandlerSet   handlerSet
	RateLimiters rateLimitMiddlewares
	Router       *gin.Engine
	Server       *http.Server
}

// Run initializes and starts the application
func Run(cfg *config.Config) error {
	app := &Application{Config: cfg}

	// Phase 1: Validate configuration
	if err := validateAllConfiguration(cfg); err != nil {
		return err
	}

	// Phase 2: Initialize infrastructure
	if err := app.initializeInfrastructure(context.Background()); err != nil {
		return err
	}

	// Phase 3: Initialize business layer
	app.initializeBusinessLayer()

	// Phase 4: Initialize HTTP layer
	if err := app.initializeHTTPLayer(); err != nil {
		return err
	}

	// Phase 5: Start server with graceful shutdown
	app.startWithGracefulShutdown()

	return nil
}

// initializeInfrastructure sets up the database, metrics and Redis
func (app *Application) initializeInfrastructure(ctx context.Context) error {
	var err error

	app.DB, err = initializeDatabase(ctx, app.Config)
	if err != nil {
		return err
	}

	app.MetricsRecorder = initializeMetrics(app.Config)

	// Redis (for rate limiting)
	app.RateLimitRedisClient, err = initializeRateLimitRedisClient(ctx, app.Config)
	if err != nil {
		_ = app.DB.Close()
		return err
	}

	return nil
}

// initializeBusinessLayer sets up services
func (app *Application) initializeBusinessLayer() {
	app.TokenService = initializeServices(app.Config, app.DB, app.MetricsRecorder)
}

// initializeHTTPLayer sets up handlers, router, and server
func (app *Application) initializeHTTPLayer() error {
	var err error

	app.HandlerSet = initializeHandlers(app.TokenService)
	app.RateLimiters, err = setupRateLimiting(app.Config, app.RateLimitRedisClient)
	if err != nil {
		return err
	}

	app.Router = setupRouter(
		app.Config,
		app.DB,
		app.HandlerSet,
		app.RateLimiters,
		app.MetricsRecorder,
	)
	app.Server = createHTTPServer(app.Config, app.Router)
	return nil
}

// startWithGracefulShutdown starts the server and handles graceful shutdown
func (app *Application) startWithGracefulShutdown() {
	m := graceful.NewManager()

	// Add jobs
	addServerRunningJob(m, app.Server)
	addServerShutdownJob(m, app.Server, app.Config.ServerShutdownTimeout)
	addRedisClientShutdownJob(m, app.RateLimitRedisClient)
	addMetricsGaugeUpdateJob(m, app.Config, app.TokenService)
	addDatabaseCloseJob(m, app.DB, app.Config.DBCloseTimeout)

	// Wait for graceful shutdown
	<-m.Done()
}
