package middleware

import (
	"net/http"

	"gymbook/utils"

	"github.com/gin-gonic/gin"
)

// RequireRole lets the request through only when the authenticated role is one of roles.
// It must run after JWTAuthMiddleware.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		role := c.GetString(utils.ContextRoleKey)
		if _, ok := allowed[role]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, utils.ErrorResponse{
				Code:    "forbidden",
				Message: "Insufficient role for this operation",
			})
			return
		}
		c.Next()
	}
}

// IsStaff reports whether the authenticated role may act on behalf of other clients.
func IsStaff(c *gin.Context) bool {
	role := c.GetString(utils.ContextRoleKey)
	return role == utils.RoleTrainer || role == utils.RoleAdmin
}
