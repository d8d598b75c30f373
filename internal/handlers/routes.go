package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/middleware"
)

// RegisterRoutes mounts the API on r
func RegisterRoutes(r *gin.Engine, h *Handlers, jwtSecret []byte) {
	r.GET("/health", h.Health)

	api := r.Group("/api/v1")
	api.Use(middleware.RequireViewer(jwtSecret))
	{
		api.GET("/feed", h.GetFeed)
	}

	admin := api.Group("/admin")
	admin.Use(middleware.RequireAdmin())
	{
		admin.POST("/relevance/recompute", h.RecomputeRelevance)
	}
}
