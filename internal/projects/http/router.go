package http

import "github.com/gin-gonic/gin"

// Register attaches the project routes to the given router group. The :id
// segment is the owner's user id on the list and stats routes and the project
// id everywhere else, matching the paths the SPA has always called.
func (h *Handler) Register(rg *gin.RouterGroup) {
	projects := rg.Group("/projects")

	projects.POST("/create", h.create)
	projects.GET("/:id", h.list)
	projects.GET("/:id/stats", h.stats)
	projects.PATCH("/:id/update", h.updateStatus)
	projects.GET("/:id/ai-images", h.listImages)
	projects.POST("/:id/ai-images/:image_id/refine", h.refine)
}
