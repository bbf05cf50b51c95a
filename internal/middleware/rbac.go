package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/classpoint/cbt-backend/internal/response"
)

// RequirePermission gates a route on a permission code carried in the
// proctor JWT. The permission set is derived from the role at login, so
// a revoked role takes effect when the token expires.
func RequirePermission(permissionCode string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		for _, p := range claims.Permissions {
			if p == permissionCode {
				c.Next()
				return
			}
		}

		response.AbortFail(c, http.StatusForbidden, response.ErrPermissionDenied)
	}
}
