// internal/middleware/auth.go
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/alucqrd/license-for-all-smart-contract/internal/models"
	"github.com/alucqrd/license-for-all-smart-contract/internal/utils"
)

// AuthRequired validates the bearer token and exposes the caller's registry
// address and role to the handlers downstream.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.UnauthorizedResponse(c, "")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			utils.UnauthorizedResponse(c, "Invalid authorization header")
			c.Abort()
			return
		}

		claims, err := utils.ValidateJWT(parts[1])
		if err != nil {
			utils.UnauthorizedResponse(c, "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set("caller_address", claims.Address)
		c.Set("caller_username", claims.Username)
		c.Set("caller_role", claims.Role)
		c.Next()
	}
}

// AdminRequired gates routes on the admin role claim. The registry core
// independently verifies the caller's address on every admin operation, so
// this is a fast-fail, not the authority check.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("caller_role")
		if !exists || role != string(models.RoleAdmin) {
			utils.ForbiddenResponse(c, "")
			c.Abort()
			return
		}
		c.Next()
	}
}
