package handlers

import (
	"net/http"

	"github.com/go-authgate/tokenstore/internal/store"

	"github.com/gin-gonic/gin"
)

// Health reports database connectivity
func Health(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.Health(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "disconnected",
				"error":    err.Error(),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"database": "connected",
		})
	}
}
