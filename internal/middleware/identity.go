package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"wallhub/internal/models"
	"wallhub/internal/security"
)

const identityKey = "identity"

// Identity is the resolved caller of a request.
type Identity struct {
	ActorID string
	Role    models.UserRole
}

// Authenticate resolves a bearer token into an Identity when one is present.
// Requests without a token continue anonymously; a bad token is rejected.
func Authenticate(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}
		if !strings.HasPrefix(authHeader, "Bearer ") {
			abortUnauthorized(c, "invalid_token")
			return
		}

		claims, err := security.ParseAccessToken(strings.TrimPrefix(authHeader, "Bearer "), secret)
		if err != nil {
			abortUnauthorized(c, "invalid_token")
			return
		}

		c.Set(identityKey, Identity{ActorID: claims.UserID, Role: models.UserRole(claims.Role)})
		c.Next()
	}
}

// RequireIdentity rejects anonymous requests.
func RequireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentIdentity(c); !ok {
			abortUnauthorized(c, "missing_token")
			return
		}
		c.Next()
	}
}

func CurrentIdentity(c *gin.Context) (Identity, bool) {
	val, exists := c.Get(identityKey)
	if !exists {
		return Identity{}, false
	}
	identity, ok := val.(Identity)
	return identity, ok
}

// ActorID is empty for anonymous callers.
func ActorID(c *gin.Context) string {
	identity, _ := CurrentIdentity(c)
	return identity.ActorID
}

func abortUnauthorized(c *gin.Context, code string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{"code": code, "message": "authentication required"},
	})
}
