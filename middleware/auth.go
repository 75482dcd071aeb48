package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"diwan-api/models"
	"diwan-api/services"

	"github.com/gin-gonic/gin"
)

const (
	actorKey = "actor"
	userKey  = "user"
)

// Authenticator resolves a bearer token to an account.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// AuthMiddleware validates the JWT and loads the active account behind it.
func AuthMiddleware(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Get token from header
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			c.Abort()
			return
		}

		// Check Bearer prefix
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader || strings.TrimSpace(tokenString) == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			c.Abort()
			return
		}

		user, err := auth.Authenticate(c.Request.Context(), tokenString)
		if err != nil {
			status := http.StatusUnauthorized
			switch {
			case errors.Is(err, services.ErrForbidden):
				status = http.StatusForbidden
			case errors.Is(err, services.ErrInternal):
				status = http.StatusInternalServerError
			}
			c.JSON(status, gin.H{"error": err.Error()})
			c.Abort()
			return
		}

		c.Set(userKey, user)
		c.Set(actorKey, services.ActorFromUser(user))
		c.Next()
	}
}

// RequireRole lets only the listed roles through.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		if !ok {
			c.JSON(http.StatusForbidden, gin.H{"error": "Role not found"})
			c.Abort()
			return
		}

		for _, role := range roles {
			if actor.Role == role {
				c.Next()
				return
			}
		}
		c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
		c.Abort()
	}
}

// ActorFrom returns the authenticated actor set by AuthMiddleware.
func ActorFrom(c *gin.Context) (services.Actor, bool) {
	value, exists := c.Get(actorKey)
	if !exists {
		return services.Actor{}, false
	}
	actor, ok := value.(services.Actor)
	return actor, ok
}

// SetActor stores an actor on the context; used by handlers' tests and by
// AuthMiddleware.
func SetActor(c *gin.Context, actor services.Actor) {
	c.Set(actorKey, actor)
}
