package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pageza/foodgram/backend/internal/types"
)

const principalKey = "principal"

// Authenticator resolves a bearer token to a principal.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*types.Principal, error)
}

// AuthMiddleware resolves the Authorization header, accepting both
// "Token <jwt>" and "Bearer <jwt>". Requests without the header continue
// anonymously; a malformed or invalid token is rejected with 401.
func AuthMiddleware(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		parts := strings.Fields(authHeader)
		if len(parts) != 2 || (parts[0] != "Token" && parts[0] != "Bearer") {
			abortJSON(c, http.StatusUnauthorized, "authentication_failed", "Invalid authorization header format.")
			return
		}

		principal, err := auth.Authenticate(c.Request.Context(), parts[1])
		if err != nil {
			abortJSON(c, http.StatusUnauthorized, "authentication_failed", "Invalid token.")
			return
		}

		c.Set(principalKey, principal)
		c.Set("user_id", principal.UserID)
		c.Next()
	}
}

// RequireAuth rejects anonymous requests.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !Principal(c).IsAuthenticated() {
			abortJSON(c, http.StatusUnauthorized, "not_authenticated", "Authentication credentials were not provided.")
			return
		}
		c.Next()
	}
}

// Principal returns the caller, or nil for anonymous requests.
func Principal(c *gin.Context) *types.Principal {
	if v, ok := c.Get(principalKey); ok {
		if p, ok := v.(*types.Principal); ok {
			return p
		}
	}
	return nil
}

func abortJSON(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: msg, Code: code})
}
