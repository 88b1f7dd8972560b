package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bizops-platform/inventory-service/pkg/logging"
)

// HTTP header carrying the acting user's identity
const HeaderUserID = "X-User-ID"

// Gin context key for the acting user
const ContextKeyUserID = "userId"

// ActorAuthConfig holds configuration for actor identity middleware
type ActorAuthConfig struct {
	// Required when true, requests without an actor identity will be rejected
	Required bool

	// DefaultActorID is used when no header is provided and Required is false
	DefaultActorID string
}

// DefaultActorAuthConfig returns a default configuration
func DefaultActorAuthConfig() *ActorAuthConfig {
	return &ActorAuthConfig{
		Required:       false,
		DefaultActorID: "system",
	}
}

// ActorAuth middleware extracts the acting user from the X-User-ID header and
// adds it to the request context. Mutating endpoints record the actor on every
// movement log entry, so the identity must be resolved before handlers run.
func ActorAuth(config *ActorAuthConfig) gin.HandlerFunc {
	if config == nil {
		config = DefaultActorAuthConfig()
	}

	return func(c *gin.Context) {
		actorID := SanitizeString(c.GetHeader(HeaderUserID))

		if actorID == "" {
			if config.Required {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"code":    "MISSING_ACTOR_IDENTITY",
					"message": "X-User-ID header is required",
				})
				return
			}
			actorID = config.DefaultActorID
		}

		ctx := logging.ContextWithUserID(c.Request.Context(), actorID)
		c.Request = c.Request.WithContext(ctx)

		// Also store in Gin context for easy access in handlers
		c.Set(ContextKeyUserID, actorID)

		c.Next()
	}
}

// GetActorID retrieves the acting user from Gin context
func GetActorID(c *gin.Context) string {
	if val, exists := c.Get(ContextKeyUserID); exists {
		if id, ok := val.(string); ok {
			return id
		}
	}
	return ""
}

// RequireActor is a middleware that ensures an actor identity is present.
// Use this for endpoints that mutate inventory state.
func RequireActor() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetActorID(c) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    "MISSING_ACTOR_IDENTITY",
				"message": "Actor identity is required for this endpoint",
			})
			return
		}
		c.Next()
	}
}
