package middleware

import (
	"net/http"
	"strings"

	"github.com/factory/backend/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
)

// Header names carrying the actor identity. The dashboard in front of this
// service authenticates users; the factory core only needs to know who acted
// and what they may do.
const (
	ActorHeader        = "X-Actor"
	CapabilitiesHeader = "X-Capabilities"
)

// Gin context keys set by the Actor middleware
const (
	ActorKey        = "actor"
	CapabilitiesKey = "capabilities"
)

// CapabilityProductionAdmin allows destructive operations such as deleting a
// completed batch.
const CapabilityProductionAdmin = "production:admin"

// Actor extracts the acting user and their capabilities from the request
// headers. An absent actor falls back to "system" so audit fields are never
// empty.
func Actor() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := strings.TrimSpace(c.GetHeader(ActorHeader))
		if actor == "" {
			actor = "system"
		}
		c.Set(ActorKey, actor)
		c.Set(CapabilitiesKey, parseCapabilities(c.GetHeader(CapabilitiesHeader)))
		ctx, _ := logger.WithActor(c.Request.Context(), logger.FromContext(c.Request.Context()), actor)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func parseCapabilities(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	caps := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			caps = append(caps, trimmed)
		}
	}
	return caps
}

// GetActor returns the acting user set by the Actor middleware.
func GetActor(c *gin.Context) string {
	return c.GetString(ActorKey)
}

// HasCapability reports whether the actor carries the given capability.
func HasCapability(c *gin.Context, capability string) bool {
	caps, ok := c.Get(CapabilitiesKey)
	if !ok {
		return false
	}
	list, ok := caps.([]string)
	if !ok {
		return false
	}
	for _, have := range list {
		if have == capability {
			return true
		}
	}
	return false
}

// RequireCapability aborts with 403 when the actor lacks the capability.
func RequireCapability(capability string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !HasCapability(c, capability) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "ERR_FORBIDDEN",
					"message": "Missing required capability: " + capability,
				},
			})
			return
		}
		c.Next()
	}
}
