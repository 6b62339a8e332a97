package middleware

import (
	"context"
	"strings"

	"lectureq_backend/internal/config"
	"lectureq_backend/internal/model"
	"lectureq_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// TokenChecker reports whether a token has been revoked by logout. A nil
// checker disables the check.
type TokenChecker interface {
	IsRevoked(ctx context.Context, token string) bool
}

// AuthMiddleware validates the bearer token and puts the claims and raw
// token on the context.
func AuthMiddleware(cfg *config.Config, checker TokenChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			util.Unauthorized(c)
			c.Abort()
			return
		}
		token := strings.TrimPrefix(header, "Bearer ")

		claims, err := util.ParseJWT(token, cfg.JWT.Secret)
		if err != nil {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		if checker != nil && checker.IsRevoked(c.Request.Context(), token) {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		c.Set("user", claims)
		c.Set("token", token)
		c.Next()
	}
}

// RoleMiddleware allows only the listed roles through. Admins pass
// regardless.
func RoleMiddleware(roles ...model.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := util.GetUserFromContext(c)
		if claims == nil {
			util.Unauthorized(c)
			c.Abort()
			return
		}
		if claims.Role == model.Admin {
			c.Next()
			return
		}
		for _, role := range roles {
			if claims.Role == role {
				c.Next()
				return
			}
		}
		util.Forbidden(c)
		c.Abort()
	}
}
