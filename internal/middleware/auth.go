package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sonorastudio/backend/internal/utils"
	"github.com/sonorastudio/backend/pkg/response"
)

// Context keys populated by AuthRequired.
const (
	ContextUserID   = "user_id"
	ContextUsername = "username"
	ContextRole     = "role"
)

func abortUnauthorized(c *gin.Context, msg string) {
	response.Unauthorized(c, msg)
	c.Abort()
}

// AuthRequired validates the bearer token and loads its claims into the
// request context for the handlers downstream.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abortUnauthorized(c, "authorization header required")
			return
		}

		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			abortUnauthorized(c, "invalid authorization header format")
			return
		}

		claims, err := utils.ParseToken(token)
		if err != nil {
			abortUnauthorized(c, "invalid or expired token")
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUsername, claims.Username)
		c.Set(ContextRole, claims.Role)
		c.Next()
	}
}

// AdminRequired rejects non-admin accounts. Must run after AuthRequired.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetRole(c) != "admin" {
			response.Forbidden(c, "admin access required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetUserID returns the authenticated user ID, 0 when unauthenticated.
func GetUserID(c *gin.Context) uint {
	if id, ok := c.Get(ContextUserID); ok {
		return id.(uint)
	}
	return 0
}

func GetUsername(c *gin.Context) string {
	if name, ok := c.Get(ContextUsername); ok {
		return name.(string)
	}
	return ""
}

func GetRole(c *gin.Context) string {
	if role, ok := c.Get(ContextRole); ok {
		return role.(string)
	}
	return ""
}
