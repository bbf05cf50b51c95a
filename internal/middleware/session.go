package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/classpoint/cbt-backend/internal/model"
	"github.com/classpoint/cbt-backend/internal/response"
	"github.com/classpoint/cbt-backend/internal/service"
)

const (
	// ContextKeySession is the Gin context key for the exam session snapshot.
	ContextKeySession = "exam_session"

	// SessionCookieName is the fallback cookie CBT stations may carry the
	// token in when the Authorization header is unavailable.
	SessionCookieName = "cbt_session"
)

// RequireExamSession resolves the opaque station token to its identity
// snapshot and aborts when the session is missing or expired. Handlers
// downstream read the identity with GetSession.
func RequireExamSession(sessions *service.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractSessionToken(c)
		if token == "" {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		session, err := sessions.ValidateSession(c.Request.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrSessionExpired):
				response.AbortFail(c, http.StatusUnauthorized, response.ErrSessionExpired)
			case errors.Is(err, service.ErrSessionNotFound):
				response.AbortFail(c, http.StatusUnauthorized, response.ErrSessionNotFound)
			default:
				response.AbortFail(c, http.StatusInternalServerError, response.ErrInternal)
			}
			return
		}

		c.Set(ContextKeySession, session)
		c.Next()
	}
}

// GetSession retrieves the validated session snapshot from the Gin context.
func GetSession(c *gin.Context) *model.SessionToken {
	val, exists := c.Get(ContextKeySession)
	if !exists {
		return nil
	}
	session, ok := val.(*model.SessionToken)
	if !ok {
		return nil
	}
	return session
}

func extractSessionToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
	}

	if cookie, err := c.Cookie(SessionCookieName); err == nil {
		return cookie
	}
	return ""
}
