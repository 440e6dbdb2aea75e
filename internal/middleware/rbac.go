package middleware

import (
	"net/http"

	"github.com/codepractice/codepractice-backend/internal/response"
	"github.com/gin-gonic/gin"
)

// RequireAdmin lets through sessions whose email is on the admin list.
// It must run after RequireAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := GetSession(c)
		if sess == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		if !sess.Admin {
			response.AbortFail(c, http.StatusForbidden, response.ErrAdminAccessOnly)
			return
		}

		c.Next()
	}
}
