package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"messenger-service/internal/auth"
)

// AuthMiddleware validates the Authorization header and aborts with 401 when
// no valid identity is present.
func AuthMiddleware(tokens *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := identityFromHeader(c, tokens)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set("userID", identity.UserID)
		c.Set("username", identity.Username)
		c.Next()
	}
}

// OptionalAuth resolves the identity when a valid token is present but never
// aborts; query endpoints answer unauthenticated requests with empty bodies.
func OptionalAuth(tokens *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if identity, ok := identityFromHeader(c, tokens); ok {
			c.Set("userID", identity.UserID)
			c.Set("username", identity.Username)
		}
		c.Next()
	}
}

func identityFromHeader(c *gin.Context, tokens *auth.TokenManager) (auth.Identity, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return auth.Identity{}, false
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return auth.Identity{}, false
	}

	identity, err := tokens.Verify(parts[1])
	if err != nil {
		return auth.Identity{}, false
	}
	return identity, true
}
