package item

import (
	"net/http"
	"strconv"

	"lostfound/internal/domain/access"
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

func kindParam(c *gin.Context) (Kind, bool) {
	kind, ok := ParseKind(c.Param("kind"))
	if !ok {
		response.FromError(c, ErrInvalidKind)
	}
	return kind, ok
}

func sessionOrAbort(c *gin.Context) (access.Session, bool) {
	sess, ok := access.SessionFrom(c)
	if !ok {
		response.CustomError(c, http.StatusUnauthorized, "UNAUTHORIZED", "User not authenticated")
	}
	return sess, ok
}

func (h *Handler) Create(c *gin.Context) {
	sess, ok := sessionOrAbort(c)
	if !ok {
		return
	}
	kind, ok := kindParam(c)
	if !ok {
		return
	}

	var req CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FromError(c, apperr.ErrValidation.WithDetails(map[string]any{"body": err.Error()}))
		return
	}

	it, err := h.service.Create(c.Request.Context(), sess, kind, req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"item": it})
}

func (h *Handler) List(c *gin.Context) {
	sess, ok := sessionOrAbort(c)
	if !ok {
		return
	}
	kind, ok := kindParam(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	res, err := h.service.List(c.Request.Context(), sess, ListFilter{
		Kind:       kind,
		Status:     Status(c.Query("status")),
		ReporterID: c.Query("reporter_id"),
		Query:      c.Query("q"),
		Page:       page,
		Limit:      limit,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

func (h *Handler) Get(c *gin.Context) {
	kind, ok := kindParam(c)
	if !ok {
		return
	}
	it, err := h.service.Get(c.Request.Context(), kind, c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"item": it})
}

func (h *Handler) ListMine(c *gin.Context) {
	sess, ok := sessionOrAbort(c)
	if !ok {
		return
	}
	items, err := h.service.ListMine(c.Request.Context(), sess)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"items": items})
}

func (h *Handler) Review(c *gin.Context) {
	sess, ok := sessionOrAbort(c)
	if !ok {
		return
	}
	kind, ok := kindParam(c)
	if !ok {
		return
	}

	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FromError(c, ErrInvalidStatus)
		return
	}

	it, err := h.service.Review(c.Request.Context(), kind, c.Param("id"), req.Status, sess.UserID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"item": it})
}

func (h *Handler) Delete(c *gin.Context) {
	sess, ok := sessionOrAbort(c)
	if !ok {
		return
	}
	kind, ok := kindParam(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), kind, c.Param("id"), sess.UserID); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
