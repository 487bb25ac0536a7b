package bootstrap

import (
	"github.com/go-authgate/tokenstore/internal/config"
	"github.com/go-authgate/tokenstore/internal/handlers"
	"github.com/go-authgate/tokenstore/internal/logger"
	"github.com/go-authgate/tokenstore/internal/metrics"
	"github.com/go-authgate/tokenstore/internal/middleware"
	"github.com/go-authgate/tokenstore/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// setupRouter configures the Gin router with all routes and middleware
func setupRouter(
	cfg *config.Config,
	db *store.Store,
	h handlerSet,
	rateLimiters rateLimitMiddlewares,
	prometheusMetrics metrics.Recorder,
) *gin.Engine {
	setupGinMode(cfg)
	r := gin.New()

	// Setup middleware
	r.Use(metrics.HTTPMetricsMiddleware(prometheusMetrics))
	r.Use(logger.GinLogger(), logger.GinRecovery())

	// Health check endpoint
	r.GET("/healthz", handlers.Health(db))

	setupMetricsEndpoint(r, cfg)
	setupAllRoutes(r, cfg, h, rateLimiters)

	logServerStartup(cfg)

	return r
}

// setupMetricsEndpoint configures the Prometheus metrics endpoint
func setupMetricsEndpoint(r *gin.Engine, cfg *config.Config) {
	switch {
	case !cfg.MetricsEnabled:
		logger.Info().Msg("prometheus metrics disabled")
	case cfg.MetricsToken != "":
		logger.Info().Msg("prometheus metrics enabled at /metrics with bearer token authentication")
		r.GET(
			"/metrics",
			middleware.MetricsAuthMiddleware(cfg.MetricsToken),
			gin.WrapH(promhttp.Handler()),
		)
	default:
		logger.Info().Msg("prometheus metrics enabled at /metrics (no authentication)")
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
}

// setupAllRoutes configures all application routes
func setupAllRoutes(
	r *gin.Engine,
	cfg *config.Config,
	h handlerSet,
	rateLimiters rateLimitMiddlewares,
) {
	// Bearer introspection (public, called by resource servers)
	r.GET("/oauth/tokeninfo", rateLimiters.tokenInfo, h.token.TokenInfo)

	if cfg.AdminToken == "" {
		logger.Warn().Msg("ADMIN_TOKEN is not set, /api/v1 is unauthenticated")
	}

	api := r.Group("/api/v1")
	api.Use(rateLimiters.admin, middleware.AdminAuthMiddleware(cfg.AdminToken))
	{
		api.GET("/grants/historical", h.token.HistoricalGrants)
		api.GET("/clients/:id/tokens", h.token.ClientTokens)
		api.POST("/clients/:id/tokens", h.token.IssueClientToken)
		api.POST("/clients/:id/grants", h.token.GrantIdentityToken)
		api.GET("/identities/:identity/tokens", h.token.IdentityTokens)
		api.POST("/tokens/revoke", h.token.Revoke)
	}
}

// setupGinMode runs gin in debug mode only when debug logging is requested
func setupGinMode(cfg *config.Config) {
	if cfg.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
		return
	}
	gin.SetMode(gin.ReleaseMode)
}

// logServerStartup logs server startup information
func logServerStartup(cfg *config.Config) {
	logger.Info().
		Str("addr", cfg.ServerAddr).
		Str("driver", cfg.DatabaseDriver).
		Int("historical_days", cfg.HistoricalDays).
		Msg("token store server starting")
}
