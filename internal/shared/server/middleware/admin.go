package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"recruit-backend/internal/shared/auth"
	"recruit-backend/internal/shared/server/respond"
)

const (
	adminIDKey    = "adminId"
	adminEmailKey = "adminEmail"
)

// AdminAuth requires a bearer token carrying the admin role.
func AdminAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if !strings.HasPrefix(header, "Bearer ") {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer"))
		if token == "" {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}

		claims, err := auth.VerifyAdminToken(token)
		switch {
		case errors.Is(err, auth.ErrNotAdmin):
			respond.Error(c, http.StatusForbidden, "forbidden", "admin access required", nil)
			return
		case err != nil:
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}

		c.Set(adminIDKey, claims.Sub)
		if claims.Email != "" {
			c.Set(adminEmailKey, claims.Email)
		}
		c.Next()
	}
}

// AdminIDFromContext fetches the subject set by AdminAuth.
func AdminIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	return c.GetString(adminIDKey)
}

// AdminEmailFromContext fetches the admin email set by AdminAuth.
func AdminEmailFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	return c.GetString(adminEmailKey)
}
