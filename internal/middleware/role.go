package middleware

import (
	"net/http"

	"lostfound/internal/domain/access"
	"lostfound/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// RequireAdmin ensures that the authenticated caller is an admin. It must run
// after JWTAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := access.SessionFrom(c)
		if !ok {
			response.CustomError(c, http.StatusUnauthorized, "UNAUTHORIZED", "User not authenticated")
			c.Abort()
			return
		}
		if !sess.Role().IsAdmin() {
			response.CustomError(c, http.StatusForbidden, "FORBIDDEN", "Access denied: insufficient permissions")
			c.Abort()
			return
		}
		c.Next()
	}
}
