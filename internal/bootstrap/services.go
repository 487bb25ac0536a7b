package bootstrap

import (
	"github.com/go-authgate/tokenstore/internal/config"
	"github.com/go-authgate/tokenstore/internal/metrics"
	"github.com/go-authgate/tokenstore/internal/services"
	"github.com/go-authgate/tokenstore/internal/store"
)

// initializeMetrics returns a Prometheus recorder, or a noop one when metrics are disabled
func initializeMetrics(cfg *config.Config) metrics.Recorder {
	return metrics.Init(cfg.MetricsEnabled)
}

// initializeServices creates all business logic services
func initializeServices(
	cfg *config.Config,
	db *store.Store,
	prometheusMetrics metrics.Recorder,
) *services.TokenService {
	return services.NewTokenService(db, prometheusMetrics, cfg.HistoricalDays)
}
