package lifecycle

import (
	"net/http"

	"lostfound/internal/domain/access"
	"lostfound/internal/domain/request"
	"lostfound/internal/pkg/apperr"
	"lostfound/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	engine *Engine
}

func NewHandler(engine *Engine) *Handler {
	return &Handler{engine: engine}
}

type RejectBody struct {
	Reason string `json:"reason"`
}

// RegisterRoutes mounts the rejection vocabulary on public and the
// transitions on admin.
func (h *Handler) RegisterRoutes(public, admin *gin.RouterGroup) {
	if public != nil {
		public.GET("/requests/rejection-reasons", h.RejectionReasons)
	}
	if admin != nil {
		admin.POST("/requests/:kind/:id/approve", h.Approve)
		admin.POST("/requests/:kind/:id/reject", h.Reject)
		admin.POST("/requests/:kind/:id/retrieve", h.MarkRetrieved)
	}
}

func (h *Handler) RejectionReasons(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{"reasons": RejectionReasons})
}

func (h *Handler) Approve(c *gin.Context) {
	h.run(c, func(sess access.Session, kind request.Kind, id string) (*request.Request, error) {
		return h.engine.Approve(c.Request.Context(), kind, id, sess.UserID)
	})
}

func (h *Handler) Reject(c *gin.Context) {
	var body RejectBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.FromError(c, apperr.Validation(map[string]string{"reason": "required"}))
		return
	}
	h.run(c, func(sess access.Session, kind request.Kind, id string) (*request.Request, error) {
		return h.engine.Reject(c.Request.Context(), kind, id, sess.UserID, body.Reason)
	})
}

func (h *Handler) MarkRetrieved(c *gin.Context) {
	h.run(c, func(sess access.Session, kind request.Kind, id string) (*request.Request, error) {
		return h.engine.MarkRetrieved(c.Request.Context(), kind, id, sess.UserID)
	})
}

func (h *Handler) run(c *gin.Context, fn func(access.Session, request.Kind, string) (*request.Request, error)) {
	sess, ok := access.SessionFrom(c)
	if !ok {
		response.CustomError(c, http.StatusUnauthorized, "UNAUTHORIZED", "User not authenticated")
		return
	}
	kind, ok := request.ParseKind(c.Param("kind"))
	if !ok {
		response.FromError(c, request.ErrInvalidKind)
		return
	}
	req, err := fn(sess, kind, c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"request": req})
}
