package http

import (
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Register attaches the auth and admin routes to the given router group.
func (h *Handler) Register(rg *gin.RouterGroup) {
	limiter := rate.NewLimiter(rate.Limit(5), 10)

	rg.POST("/register", RateLimit(limiter), h.register)
	rg.POST("/login", RateLimit(limiter), h.login)

	admin := rg.Group("/admin")
	admin.Use(RequireAdmin(h.svc))

	admin.GET("/pending-users", h.listPending)
	admin.PATCH("/pending-users/:pending_id/approve", h.approvePending)
	admin.PATCH("/pending-users/:pending_id/reject", h.rejectPending)
	admin.DELETE("/pending-users/:pending_id", h.deletePending)
	admin.GET("/users", h.listUsers)
	admin.DELETE("/users/:user_id", h.deleteUser)
}
