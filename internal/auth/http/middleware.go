package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const ctxAdminID = "admin_id"

// RequireAdmin validates the acting admin passed as the admin_id query
// parameter (or X-Admin-Id header) and stores the id in the context.
func RequireAdmin(svc Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		adminID := strings.TrimSpace(c.GetHeader("X-Admin-Id"))
		if adminID == "" {
			adminID = strings.TrimSpace(c.Query("admin_id"))
		}

		admin, err := svc.ValidateAdmin(c.Request.Context(), adminID)
		if err != nil {
			fail(c, http.StatusForbidden, codeAdminRequired, "관리자 권한이 없습니다.")
			c.Abort()
			return
		}

		c.Set(ctxAdminID, admin.UserID)
		c.Next()
	}
}

// ActingAdmin returns the validated admin id set by RequireAdmin.
func ActingAdmin(c *gin.Context) string {
	return c.GetString(ctxAdminID)
}

// RateLimit rejects requests beyond the limiter's budget. Applied to the
// credential endpoints only.
func RateLimit(limiter *rate.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow() {
			fail(c, http.StatusTooManyRequests, "rate_limited", "요청이 너무 많습니다. 잠시 후 다시 시도해주세요.")
			c.Abort()
			return
		}
		c.Next()
	}
}
