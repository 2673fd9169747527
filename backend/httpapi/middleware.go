package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/arbdesk/arbdesk/backend/service"
	"github.com/arbdesk/arbdesk/core"
)

const (
	ctxIdentity = "identity"
	ctxRawToken = "rawToken"
)

// AuthMiddleware validates the bearer token on protected routes and places
// the identity in the request context. Any token failure is a plain 401;
// the client reacts to it by invalidating its session.
func AuthMiddleware(auth *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header"})
			return
		}
		token := strings.TrimPrefix(header, "Bearer ")

		identity, err := auth.ValidateToken(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(ctxIdentity, identity)
		c.Set(ctxRawToken, token)
		c.Next()
	}
}

func identityFrom(c *gin.Context) core.Identity {
	if v, ok := c.Get(ctxIdentity); ok {
		if id, ok := v.(core.Identity); ok {
			return id
		}
	}
	return core.Identity{}
}

func rawTokenFrom(c *gin.Context) string {
	if v, ok := c.Get(ctxRawToken); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
