package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// MetricsAuthMiddleware protects the metrics endpoint with a Bearer secret
func MetricsAuthMiddleware(token string) gin.HandlerFunc {
	return BearerSecretMiddleware(token, "Metrics")
}

// AdminAuthMiddleware protects the admin API with a Bearer secret
func AdminAuthMiddleware(token string) gin.HandlerFunc {
	return BearerSecretMiddleware(token, "Admin")
}

// BearerSecretMiddleware rejects requests whose Bearer token does not match secret.
// An empty secret disables the check.
func BearerSecretMiddleware(secret, realm string) gin.HandlerFunc {
	challenge := `Bearer realm="` + realm + `"`

	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.Header("WWW-Authenticate", challenge)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "Bearer token required",
			})
			return
		}

		providedToken := strings.TrimPrefix(authHeader, "Bearer ")

		// Constant-time comparison to prevent timing attacks
		if subtle.ConstantTimeCompare([]byte(providedToken), []byte(secret)) != 1 {
			c.Header("WWW-Authenticate", challenge)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "Invalid token",
			})
			return
		}

		c.Next()
	}
}
