package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// HTTPMetricsMiddleware creates a Gin middleware that records HTTP metrics
func HTTPMetricsMiddleware(m Recorder) gin.HandlerFunc {
	// Type assert to concrete Metrics for Prometheus access
	metrics, ok := m.(*Metrics)
	if !ok {
		// NoopMetrics or unknown implementation
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		// Skip metrics endpoint to avoid self-recording
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()

		metrics.HTTPRequestsInFlight.Inc()
		defer metrics.HTTPRequestsInFlight.Dec()

		c.Next()

		duration := time.Since(start).Seconds()
		method := c.Request.Method
		path := normalizePath(c.FullPath()) // Use route pattern, not actual path
		status := strconv.Itoa(c.Writer.Status())

		metrics.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
	}
}

// normalizePath converts the actual request path to route pattern
// Returns the route pattern (e.g., "/api/v1/clients/:id/tokens") or "unknown" if no route matched
func normalizePath(fullPath string) string {
	if fullPath == "" {
		return "unknown"
	}
	return fullPath
}

// RecordTokenGranted records a served grant request
func (m *Metrics) RecordTokenGranted(grantType string, duration time.Duration) {
	m.TokensGrantedTotal.WithLabelValues(grantType).Inc()
	m.TokenGrantDuration.WithLabelValues(grantType).Observe(duration.Seconds())
}

// RecordTokenRevoked records a token revocation
func (m *Metrics) RecordTokenRevoked() {
	m.TokensRevokedTotal.Inc()
}

// RecordTokenLookup records a bearer token lookup
func (m *Metrics) RecordTokenLookup(result string, duration time.Duration) {
	m.TokenLookupsTotal.WithLabelValues(result).Inc()
	m.TokenLookupDuration.Observe(duration.Seconds())
}

// RecordTokenAccess records whether an access stamp caused a write
func (m *Metrics) RecordTokenAccess(written bool) {
	m.TokenAccessTotal.WithLabelValues(strconv.FormatBool(written)).Inc()
}

// SetActiveTokensCount sets the current number of active tokens
func (m *Metrics) SetActiveTokensCount(count int) {
	m.TokensActive.Set(float64(count))
}

// RecordDatabaseQueryError records a failed database query
func (m *Metrics) RecordDatabaseQueryError(operation string) {
	m.DatabaseQueryErrorsTotal.WithLabelValues(operation).Inc()
}
