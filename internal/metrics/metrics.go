package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder defines the interface for recording token store metrics.
// Implementations are Metrics (Prometheus-based) and NoopMetrics.
type Recorder interface {
	// Token Operations
	RecordTokenGranted(grantType string, duration time.Duration)
	RecordTokenRevoked()
	RecordTokenLookup(result string, duration time.Duration)
	RecordTokenAccess(written bool)

	// Gauge Setters (for periodic updates)
	SetActiveTokensCount(count int)

	// Database Operations
	RecordDatabaseQueryError(operation string)
}

// Ensure Metrics implements Recorder interface at compile time
var _ Recorder = (*Metrics)(nil)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// Token Metrics
	TokensGrantedTotal  *prometheus.CounterVec
	TokensRevokedTotal  prometheus.Counter
	TokenLookupsTotal   *prometheus.CounterVec
	TokenAccessTotal    *prometheus.CounterVec
	TokensActive        prometheus.Gauge
	TokenGrantDuration  *prometheus.HistogramVec
	TokenLookupDuration prometheus.Histogram

	// HTTP Request Metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Database Query Metrics
	DatabaseQueryErrorsTotal *prometheus.CounterVec
}

var (
	defaultMetrics *Metrics
	once           sync.Once
)

// Init initializes metrics based on enabled flag
// If enabled=true, returns Prometheus-based Metrics
// If enabled=false, returns NoopMetrics (zero overhead)
// Uses sync.Once to ensure Prometheus metrics are only registered once
func Init(enabled bool) Recorder {
	if !enabled {
		return NewNoopMetrics()
	}
	return GetMetrics()
}

// GetMetrics returns the global metrics instance
func GetMetrics() *Metrics {
	once.Do(func() {
		defaultMetrics = initMetrics()
	})
	return defaultMetrics
}

// initMetrics creates and registers all Prometheus metrics
func initMetrics() *Metrics {
	return &Metrics{
		TokensGrantedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oauth_tokens_granted_total",
				Help: "Total number of token grant requests served",
			},
			[]string{"grant_type"}, // client, identity
		),
		TokensRevokedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "oauth_tokens_revoked_total",
				Help: "Total number of tokens revoked",
			},
		),
		TokenLookupsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oauth_token_lookups_total",
				Help: "Total number of bearer token lookups",
			},
			[]string{"result"}, // valid, invalid, error
		),
		TokenAccessTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oauth_token_access_total",
				Help: "Total number of token access recordings",
			},
			[]string{"written"}, // true, false
		),
		TokensActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "oauth_tokens_active",
				Help: "Current number of non-revoked tokens",
			},
		),
		TokenGrantDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "oauth_token_grant_duration_seconds",
				Help:    "Time taken to issue or reuse a token",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"grant_type"},
		),
		TokenLookupDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "oauth_token_lookup_duration_seconds",
				Help:    "Time taken to look up a bearer token",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
		),

		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Current number of HTTP requests being processed",
			},
		),

		DatabaseQueryErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "database_query_errors_total",
				Help: "Total number of failed database queries",
			},
			[]string{"operation"},
		),
	}
}
