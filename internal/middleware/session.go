package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/reprint-api/internal/models"
)

const (
	// SessionHeader carries the browser session id. Guest and logged-in
	// requests from one browser send the same value.
	SessionHeader = "X-Session-ID"

	sessionContextKey = "session_key"
	maxSessionIDLen   = 64
)

// Session resolves the key of the per-session state. A browser sending the
// session header keeps one key across logins and role switches; requests
// without it fall back to the token user. It must run after the JWT
// middleware.
func Session() gin.HandlerFunc {
	return func(c *gin.Context) {
		if key := resolveSessionKey(c); key != "" {
			c.Set(sessionContextKey, key)
		}
		c.Next()
	}
}

// SessionKey returns the resolved session key or an empty string.
func SessionKey(c *gin.Context) string {
	if c == nil {
		return ""
	}
	return c.GetString(sessionContextKey)
}

// BrowserSessionKey returns the key named by the session header.
func BrowserSessionKey(c *gin.Context) string {
	id := strings.TrimSpace(c.GetHeader(SessionHeader))
	if id == "" || len(id) > maxSessionIDLen {
		return ""
	}
	return "session:" + id
}

// UserSessionKey returns the session key of an authenticated user.
func UserSessionKey(userID string) string {
	return "user:" + userID
}

func resolveSessionKey(c *gin.Context) string {
	if key := BrowserSessionKey(c); key != "" {
		return key
	}
	if value, ok := c.Get(ContextUserKey); ok {
		if claims, ok := value.(*models.JWTClaims); ok && claims.UserID != "" {
			return UserSessionKey(claims.UserID)
		}
	}
	return ""
}
