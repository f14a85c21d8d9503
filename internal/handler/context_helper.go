package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/reprint-api/internal/middleware"
	"github.com/noah-isme/reprint-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// userFromContext returns the session user or nil for guests.
func userFromContext(c *gin.Context) *models.User {
	claims := claimsFromContext(c)
	if claims == nil {
		return nil
	}
	user := claims.User()
	return &user
}

// sessionKey returns the per-session state key, falling back to the client
// address for visitors that send no session header.
func sessionKey(c *gin.Context) string {
	if key := middleware.SessionKey(c); key != "" {
		return key
	}
	if key := middleware.BrowserSessionKey(c); key != "" {
		return key
	}
	if claims := claimsFromContext(c); claims != nil {
		return middleware.UserSessionKey(claims.UserID)
	}
	return "guest:" + c.ClientIP()
}
