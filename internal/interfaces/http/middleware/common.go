package middleware

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	"github.com/factory/backend/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
)

// RequestIDKey is the gin context key for the request ID
const RequestIDKey = "X-Request-ID"

// CORSConfig holds CORS middleware configuration
type CORSConfig struct {
	AllowOrigins     []string
	AllowMethods     []string
	AllowHeaders     []string
	ExposeHeaders    []string
	AllowCredentials bool
	MaxAge           time.Duration
}

// DefaultCORSConfig returns default CORS configuration.
// AllowOrigins is empty by default; cross-origin requests are rejected until
// origins are configured explicitly.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowOrigins:     []string{},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "X-Request-ID", "X-Actor", "X-Capabilities", "X-Idempotency-Key", "Accept", "Origin"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
}

// CORS returns a middleware that handles CORS with default configuration
func CORS() gin.HandlerFunc {
	return CORSWithConfig(DefaultCORSConfig())
}

// CORSWithConfig returns a CORS middleware with custom configuration
func CORSWithConfig(cfg CORSConfig) gin.HandlerFunc {
	allowWildcard := false
	for _, o := range cfg.AllowOrigins {
		if o == "*" {
			allowWildcard = true
			break
		}
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		if c.Request.Method == http.MethodOptions {
			if originAllowed(cfg, allowWildcard, origin) {
				setAllowOrigin(c, cfg, allowWildcard, origin)
				setCORSHeaders(c, cfg)
			}
			// Preflights get 204 even when the origin is rejected, just
			// without the allow headers.
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		if originAllowed(cfg, allowWildcard, origin) {
			setAllowOrigin(c, cfg, allowWildcard, origin)
			setCORSHeaders(c, cfg)
		}
		c.Next()
	}
}

func originAllowed(cfg CORSConfig, allowWildcard bool, origin string) bool {
	if len(cfg.AllowOrigins) == 0 || origin == "" {
		return false
	}
	if allowWildcard {
		return true
	}
	for _, o := range cfg.AllowOrigins {
		if o == origin {
			return true
		}
	}
	return false
}

func setAllowOrigin(c *gin.Context, cfg CORSConfig, allowWildcard bool, origin string) {
	if allowWildcard {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		return
	}
	c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
	if cfg.AllowCredentials {
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
	}
}

func setCORSHeaders(c *gin.Context, cfg CORSConfig) {
	c.Writer.Header().Set("Access-Control-Allow-Methods", joinHeaderValues(cfg.AllowMethods))
	c.Writer.Header().Set("Access-Control-Allow-Headers", joinHeaderValues(cfg.AllowHeaders))
	if len(cfg.ExposeHeaders) > 0 {
		c.Writer.Header().Set("Access-Control-Expose-Headers", joinHeaderValues(cfg.ExposeHeaders))
	}
	if cfg.MaxAge > 0 {
		c.Writer.Header().Set("Access-Control-Max-Age", fmt.Sprintf("%d", int(cfg.MaxAge.Seconds())))
	}
}

func joinHeaderValues(values []string) string {
	out := ""
	for i, v := range values {
		if i > 0 {
			out += ", "
		}
		out += v
	}
	return out
}

// RequestID assigns each request an ID, honoring one supplied by the caller.
// The ID is stored in the gin context, the request context and the response
// headers.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDKey)
		if requestID == "" {
			requestID = generateRequestID()
		}
		c.Set(RequestIDKey, requestID)
		c.Writer.Header().Set(RequestIDKey, requestID)
		ctx, _ := logger.WithRequestID(c.Request.Context(), logger.FromContext(c.Request.Context()), requestID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func generateRequestID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("req-%d", time.Now().UnixNano())
	}
	return "req-" + hex.EncodeToString(b)
}
