package activity

import (
	"net/http"
	"strconv"

	"lostfound/internal/domain/access"
	"lostfound/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(admin *gin.RouterGroup) {
	admin.GET("/activities", h.List)
	admin.DELETE("/activities", h.ClearAll)
}

func (h *Handler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	rows, err := h.service.List(c.Request.Context(), limit, offset)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"activities": rows})
}

func (h *Handler) ClearAll(c *gin.Context) {
	sess, _ := access.SessionFrom(c)
	n, err := h.service.ClearAll(c.Request.Context(), sess.UserID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": n})
}
