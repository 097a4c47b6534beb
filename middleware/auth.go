package middleware

import (
	"net/http"
	"strings"

	"gymbook/utils"

	"github.com/gin-gonic/gin"
)

// JWTAuthMiddleware validates the bearer token and stores the subject and role on the context.
func JWTAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, utils.ErrorResponse{
				Code:    "unauthorized",
				Message: "Missing or invalid Authorization header",
			})
			return
		}
		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))

		claims, err := utils.ExtractClaims(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, utils.ErrorResponse{
				Code:    "unauthorized",
				Message: "Invalid token",
			})
			return
		}

		c.Set(utils.ContextClientIDKey, claims.Subject)
		c.Set(utils.ContextRoleKey, claims.Role)
		c.Next()
	}
}
