package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mentorhub/mentorhub-api/pkg/jwt"
	"github.com/mentorhub/mentorhub-api/pkg/logger"
	"go.uber.org/zap"
)

// InternalAPITokenHeader carries the operator token for internal endpoints
const InternalAPITokenHeader = "X-Internal-Api-Token"

// InternalAPIAuthMiddleware guards operator endpoints with a shared token.
// An empty validToken rejects every request.
func InternalAPIAuthMiddleware(validToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader(InternalAPITokenHeader)

		if validToken == "" || token == "" || !jwt.TimingSafeCompare(token, validToken) {
			logger.Warn("Invalid internal API token",
				zap.String("path", c.Request.URL.Path),
				zap.String("client_ip", c.ClientIP()),
			)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or missing internal API token"})
			c.Abort()
			return
		}

		c.Next()
	}
}
