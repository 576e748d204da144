// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides the authenticated-user gate. Session handling lives in
// an upstream collaborator (a reverse proxy or auth service) that injects the
// resolved user id as the X-User-ID header; requests without it never reach
// the application core.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// UserIDKey is the Gin context key under which the authenticated user id
	// is stored.
	UserIDKey = "userID"
	// userIDHeader carries the user id resolved by the auth collaborator.
	userIDHeader = "X-User-ID"
	// maxUserIDLen bounds the accepted identifier length.
	maxUserIDLen = 64
)

// RequireUser rejects requests without an authenticated user id and stores
// the id in the Gin context for handlers and the rate limiter.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := strings.TrimSpace(c.GetHeader(userIDHeader))
		if uid == "" || len(uid) > maxUserIDLen {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"request_id": c.Writer.Header().Get(requestIDHeader),
				"code":       "unauthorized",
				"message":    "authentication required",
			})
			return
		}
		c.Set(UserIDKey, uid)
		c.Next()
	}
}

// UserID returns the authenticated user id from the Gin context, or "" when
// RequireUser did not run.
func UserID(c *gin.Context) string {
	if v, ok := c.Get(UserIDKey); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
