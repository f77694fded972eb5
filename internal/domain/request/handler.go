package request

import (
	"net/http"
	"strconv"

	"lostfound/internal/domain/access"
	"lostfound/internal/domain/item"
	"lostfound/internal/pkg/apperr"
	"lostfound/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(protected, admin *gin.RouterGroup) {
	if protected != nil {
		protected.POST("/items/:kind/:id/requests", h.Submit)
		protected.GET("/requests/mine", h.ListMine)
		protected.GET("/requests/:kind/:id", h.View)
	}
	if admin != nil {
		admin.GET("/requests/:kind", h.List)
		admin.GET("/history", h.History)
	}
}

func (h *Handler) Submit(c *gin.Context) {
	sess, ok := access.SessionFrom(c)
	if !ok {
		response.CustomError(c, http.StatusUnauthorized, "UNAUTHORIZED", "User not authenticated")
		return
	}
	itemKind, ok := item.ParseKind(c.Param("kind"))
	if !ok {
		response.FromError(c, item.ErrInvalidKind)
		return
	}

	var in SubmitRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		response.FromError(c, apperr.ErrValidation.WithDetails(map[string]any{"body": err.Error()}))
		return
	}

	req, err := h.service.Submit(c.Request.Context(), sess, itemKind, c.Param("id"), in)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"request": req})
}

func (h *Handler) View(c *gin.Context) {
	sess, ok := access.SessionFrom(c)
	if !ok {
		response.CustomError(c, http.StatusUnauthorized, "UNAUTHORIZED", "User not authenticated")
		return
	}
	kind, ok := ParseKind(c.Param("kind"))
	if !ok {
		response.FromError(c, ErrInvalidKind)
		return
	}

	v, err := h.service.View(c.Request.Context(), sess, kind, c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, v)
}

func (h *Handler) ListMine(c *gin.Context) {
	sess, ok := access.SessionFrom(c)
	if !ok {
		response.CustomError(c, http.StatusUnauthorized, "UNAUTHORIZED", "User not authenticated")
		return
	}
	rows, err := h.service.ListMine(c.Request.Context(), sess)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"requests": rows})
}

func (h *Handler) List(c *gin.Context) {
	kind, ok := ParseKind(c.Param("kind"))
	if !ok {
		response.FromError(c, ErrInvalidKind)
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	res, err := h.service.List(c.Request.Context(), ListFilter{
		Kind:        kind,
		Status:      Status(c.Query("status")),
		RequesterID: c.Query("requester_id"),
		ItemID:      c.Query("item_id"),
		Page:        page,
		Limit:       limit,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

func (h *Handler) History(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	res, err := h.service.History(c.Request.Context(), page, limit)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}
