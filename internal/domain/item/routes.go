package item

import "github.com/gin-gonic/gin"

func (h *Handler) RegisterRoutes(protected, admin *gin.RouterGroup) {
	if protected != nil {
		items := protected.Group("/items")
		{
			items.GET("/mine", h.ListMine)
			items.POST("/:kind", h.Create)
			items.GET("/:kind", h.List)
			items.GET("/:kind/:id", h.Get)
		}
	}

	if admin != nil {
		admin.PATCH("/items/:kind/:id/status", h.Review)
		admin.DELETE("/items/:kind/:id", h.Delete)
	}
}
