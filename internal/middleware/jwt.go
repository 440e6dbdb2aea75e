package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/codepractice/codepractice-backend/internal/model"
	"github.com/codepractice/codepractice-backend/internal/response"
	"github.com/codepractice/codepractice-backend/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	// ContextKeySession is the Gin context key for the caller's model.Session.
	ContextKeySession = "session"
)

var errNoToken = errors.New("authorization header or token query required")

// RequireAuth validates the bearer JWT and its Redis session, then stores the
// caller's session in the context. The token may also come from ?token=...
// for WebSocket upgrades, which cannot send headers.
func RequireAuth(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := extractAndValidateClaims(c, authService)
		if err != nil {
			switch {
			case errors.Is(err, errNoToken):
				response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			case errors.Is(err, jwt.ErrTokenExpired):
				response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenExpired)
			default:
				response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
			}
			return
		}

		sess, err := authService.ValidateSession(c.Request.Context(), claims)
		if err != nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrSessionInvalidated)
			return
		}

		c.Set(ContextKeySession, sess)
		c.Next()
	}
}

// GuestOnly rejects callers that already hold a live session. Sign-up and
// sign-in are only offered to signed-out visitors.
func GuestOnly(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := extractAndValidateClaims(c, authService)
		if err != nil {
			c.Next()
			return
		}
		if _, err := authService.ValidateSession(c.Request.Context(), claims); err != nil {
			c.Next()
			return
		}
		response.AbortFail(c, http.StatusConflict, response.ErrAlreadyAuthenticated)
	}
}

// GetSession retrieves the caller's session from the Gin context.
func GetSession(c *gin.Context) *model.Session {
	val, exists := c.Get(ContextKeySession)
	if !exists {
		return nil
	}
	sess, ok := val.(*model.Session)
	if !ok {
		return nil
	}
	return sess
}

func extractAndValidateClaims(c *gin.Context, authService *service.AuthService) (*service.Claims, error) {
	tokenStr := ""

	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			tokenStr = parts[1]
		}
	}

	if tokenStr == "" {
		tokenStr = c.Query("token")
	}

	if tokenStr == "" {
		return nil, errNoToken
	}

	return authService.ValidateToken(tokenStr)
}
