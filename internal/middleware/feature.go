package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// FeatureGate hides a route behind a configuration flag by answering 404 when disabled.
func FeatureGate(enabled bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !enabled {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}
		c.Next()
	}
}
