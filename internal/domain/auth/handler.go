package auth

import (
	"net/http"

	"lostfound/internal/domain/access"
	"lostfound/internal/pkg/apperr"
	"lostfound/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// Handler manages all HTTP interactions for authentication
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Register creates an account and signs it in.
// @Summary		Register
// @Tags		Auth
// @Accept		json
// @Produce		json
// @Param		body	body	RegisterRequest	true	"payload"
// @Success		201	{object}	SessionResult
// @Router		/auth/register [post]
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.CustomError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	result, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, result)
}

// Login signs a user in and returns a JWT with the resolved role.
// @Summary		Login
// @Tags		Auth
// @Accept		json
// @Produce		json
// @Param		body	body	LoginRequest	true	"credentials"
// @Success		200	{object}	SessionResult
// @Failure		401	{object}	map[string]interface{}
// @Router		/auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.CustomError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	result, err := h.service.SignIn(c.Request.Context(), req)
	if err != nil {
		if e, ok := apperr.As(err); ok && e.Kind == apperr.KindAuth {
			response.CustomError(c, http.StatusUnauthorized, e.Code, e.Message)
			return
		}
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

// Session restores the caller's session and returns the landing screen.
// @Summary		Restore session
// @Tags		Auth
// @Produce		json
// @Success		200	{object}	SessionResult
// @Router		/auth/session [get]
func (h *Handler) Session(c *gin.Context) {
	sess, ok := access.SessionFrom(c)
	if !ok {
		response.CustomError(c, http.StatusUnauthorized, "UNAUTHORIZED", "User not authenticated")
		return
	}

	result, err := h.service.Restore(c.Request.Context(), sess)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

// Logout revokes the current token.
// @Summary		Logout
// @Tags		Auth
// @Success		204	"No Content"
// @Router		/auth/logout [post]
func (h *Handler) Logout(c *gin.Context) {
	sess, ok := access.SessionFrom(c)
	if !ok {
		response.CustomError(c, http.StatusUnauthorized, "UNAUTHORIZED", "User not authenticated")
		return
	}
	if err := h.service.SignOut(c.Request.Context(), sess); err != nil {
		response.FromError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
