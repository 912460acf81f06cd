package auth

import (
	"errors"
	"net/http"
	"strings"

	"studioslot/internal/api"

	"github.com/gin-gonic/gin"
)

const (
	ctxUserID    = "user_id"
	ctxUserEmail = "user_email"
	ctxUserRole  = "user_role"
)

func unauthorized(c *gin.Context, msg, code string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, api.ErrorResponse{Error: msg, Code: code})
}

// AuthMiddleware accepts access tokens only. Check-in codes share the
// signing key but are rejected here.
func AuthMiddleware(accessTokenSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		scheme, token, found := strings.Cut(c.GetHeader("Authorization"), " ")
		switch {
		case scheme == "" && !found:
			unauthorized(c, "Authorization header required", "missing_token")
			return
		case !found || !strings.EqualFold(scheme, "Bearer"):
			unauthorized(c, "Invalid authorization header format", "invalid_token")
			return
		}

		token = strings.TrimSpace(token)
		if token == "" {
			unauthorized(c, "Token is empty", "missing_token")
			return
		}

		claims, err := ValidateToken(token, accessTokenSecret)
		switch {
		case errors.Is(err, ErrTokenExpired):
			unauthorized(c, "Token expired", "token_expired")
			return
		case err != nil:
			unauthorized(c, "Invalid or malformed token", "invalid_token")
			return
		case claims.TokenType != TokenTypeAccess:
			unauthorized(c, "Access token required", "invalid_token")
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxUserEmail, claims.Email)
		c.Set(ctxUserRole, claims.Role)

		c.Next()
	}
}

// RequireRole must run after AuthMiddleware.
func RequireRole(requiredRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := c.Get(ctxUserRole)
		if !ok {
			unauthorized(c, "User role not found", "invalid_token")
			return
		}

		if r, _ := role.(string); r != requiredRole {
			c.AbortWithStatusJSON(http.StatusForbidden, api.ErrorResponse{Error: "Insufficient permissions", Code: "forbidden"})
			return
		}

		c.Next()
	}
}

func GetUserID(c *gin.Context) (int, bool) {
	id, ok := c.Get(ctxUserID)
	if !ok {
		return 0, false
	}
	userID, ok := id.(int)
	return userID, ok
}
