package media

import (
	"net/http"

	"lostfound/internal/domain/access"
	"lostfound/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// Handler handles HTTP requests for photo uploads.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(protected *gin.RouterGroup) {
	protected.POST("/media", h.Upload)
	protected.DELETE("/media/:id", h.Delete)
}

// RegisterStatic serves disk-stored media. S3 objects are served by the bucket.
func RegisterStatic(r gin.IRoutes, publicBase string, disk *DiskStorage) {
	if disk == nil {
		return
	}
	r.Static(publicBase, disk.Dir())
}

// Upload godoc
// @Summary Upload an item photo
// @Description Accepts a JPEG or PNG and returns full-size and thumbnail URLs.
// @Tags Media
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "Image to upload"
// @Success 201 {object} map[string]interface{}
// @Router /media [post]
func (h *Handler) Upload(c *gin.Context) {
	sess, ok := access.SessionFrom(c)
	if !ok {
		response.CustomError(c, http.StatusUnauthorized, "UNAUTHORIZED", "User not authenticated")
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		response.CustomError(c, http.StatusBadRequest, "VALIDATION_ERROR", "no file provided")
		return
	}

	m, err := h.service.Upload(c.Request.Context(), sess.UserID, fh)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{
		"media": m,
		"image": m.Image(),
	})
}

func (h *Handler) Delete(c *gin.Context) {
	sess, ok := access.SessionFrom(c)
	if !ok {
		response.CustomError(c, http.StatusUnauthorized, "UNAUTHORIZED", "User not authenticated")
		return
	}
	if err := h.service.DeleteOwned(c.Request.Context(), sess, c.Param("id")); err != nil {
		response.FromError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
