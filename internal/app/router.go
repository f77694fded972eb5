package app

import (
	"context"
	"net/http"
	"time"

	"lostfound/internal/domain/activity"
	"lostfound/internal/domain/admin"
	"lostfound/internal/domain/auth"
	"lostfound/internal/domain/item"
	"lostfound/internal/domain/lifecycle"
	"lostfound/internal/domain/media"
	"lostfound/internal/domain/notification"
	"lostfound/internal/domain/request"
	"lostfound/internal/live"
	"lostfound/internal/logger"
	"lostfound/internal/middleware"
	"lostfound/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type handlers struct {
	auth         *auth.Handler
	items        *item.Handler
	requests     *request.Handler
	lifecycle    *lifecycle.Handler
	notification *notification.Handler
	activity     *activity.Handler
	media        *media.Handler
	admin        *admin.Handler
	live         *live.Handler
}

func (a *App) newRouter(h handlers) *gin.Engine {
	if a.cfg.IsProdLike() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(logger.RequestID())
	r.Use(logger.GinMiddleware(a.log))
	r.Use(logger.Recovery(a.log))
	r.Use(middleware.CORS(a.cfg.App.CORSOrigins))
	r.Use(middleware.Timeout(a.cfg.App.RequestTimeout))

	r.GET("/healthz", a.healthz)

	if a.disk != nil {
		media.RegisterStatic(r, a.cfg.Media.PublicBase, a.disk)
	}

	requireAuth := middleware.JWTAuth(a.Tokens, a.store, a.log.Named("jwt"))

	v1 := r.Group("/api/v1")
	h.auth.RegisterPublicRoutes(v1)

	protected := v1.Group("")
	protected.Use(requireAuth)

	adminGroup := v1.Group("/admin")
	adminGroup.Use(requireAuth, middleware.RequireAdmin())

	h.auth.RegisterProtectedRoutes(protected)
	h.items.RegisterRoutes(protected, adminGroup)
	h.requests.RegisterRoutes(protected, adminGroup)
	h.lifecycle.RegisterRoutes(v1, adminGroup)
	h.notification.RegisterRoutes(protected)
	h.media.RegisterRoutes(protected)
	h.activity.RegisterRoutes(adminGroup)
	h.admin.RegisterRoutes(adminGroup)

	ws := r.Group("")
	ws.Use(requireAuth)
	h.live.RegisterRoutes(ws)

	return r
}

func (a *App) healthz(c *gin.Context) {
	log := logger.FromContext(c, a.log)

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	sqlDB, err := a.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		log.Warn("health check failed", zap.Error(err))
		response.CustomError(c, http.StatusServiceUnavailable, "UNAVAILABLE", "database unreachable")
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"status":      "ok",
		"subscribers": a.hub.Len(),
	})
}
