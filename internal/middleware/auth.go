package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/unwindlabs/tranchegate/internal/config"
)

const (
	HeaderGatewayKey = "X-Gateway-Key"
	HeaderOwnerKey   = "X-Owner-Key"
	ContextCallerKey = "caller"
)

// AuthMiddleware gates the public v1 routes. With require_api_key unset it
// passes everyone through, keyed by client IP for rate limiting.
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := c.GetHeader(HeaderGatewayKey)
		if cfg.Auth.RequireAPIKey {
			if apiKey == "" {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "missing API key"})
				c.Abort()
				return
			}
			if apiKey != cfg.Auth.APIKey {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid API key"})
				c.Abort()
				return
			}
		}

		caller := apiKey
		if caller == "" {
			caller = c.ClientIP()
		}
		c.Set(ContextCallerKey, caller)
		c.Next()
	}
}

// OwnerAuthMiddleware gates administrative routes (policy init, deposits)
// behind the deployment owner's key. An empty configured key disables the
// gate for local development.
func OwnerAuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.Auth.OwnerKey == "" {
			c.Next()
			return
		}
		if c.GetHeader(HeaderOwnerKey) != cfg.Auth.OwnerKey {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid owner key"})
			c.Abort()
			return
		}
		c.Next()
	}
}
