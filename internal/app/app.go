// Package app wires configuration, storage and domain services into one
// runnable server.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"lostfound/internal/cache"
	"lostfound/internal/config"
	"lostfound/internal/database"
	"lostfound/internal/domain/access"
	"lostfound/internal/domain/activity"
	"lostfound/internal/domain/admin"
	"lostfound/internal/domain/auth"
	"lostfound/internal/domain/fanout"
	"lostfound/internal/domain/item"
	"lostfound/internal/domain/lifecycle"
	"lostfound/internal/domain/media"
	"lostfound/internal/domain/notification"
	"lostfound/internal/domain/request"
	"lostfound/internal/live"
	"lostfound/internal/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App holds every long-lived component of one server instance.
type App struct {
	cfg    *config.Config
	log    *zap.Logger
	db     *gorm.DB
	redis  *redis.Client
	store  cache.Store
	hub    *live.Hub
	relay  *live.RedisRelay
	ws     *live.Handler
	router *gin.Engine

	Tokens    *jwt.Service
	Sessions  *access.SessionHub
	Auth      *auth.Service
	Items     *item.Service
	Requests  *request.Service
	Lifecycle *lifecycle.Engine
	Notices   *notification.Service
	Cleanup   *notification.CleanupService
	Media     *media.Service
	disk      *media.DiskStorage
}

// Options override pieces that tests supply directly.
type Options struct {
	DB      *gorm.DB
	Storage media.Storage
}

func New(ctx context.Context, cfg *config.Config, log *zap.Logger, opts Options) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}
	a := &App{cfg: cfg, log: log}

	db := opts.DB
	if db == nil {
		var err error
		db, err = database.Connect(cfg.Database.DSN, database.Options{
			MaxOpenConns: cfg.Database.MaxOpenConns,
			Logger:       log,
		})
		if err != nil {
			return nil, fmt.Errorf("database: %w", err)
		}
	}
	a.db = db
	if err := Migrate(db); err != nil {
		return nil, err
	}

	if err := a.initCache(); err != nil {
		return nil, err
	}

	storage := opts.Storage
	if storage == nil {
		var err error
		if storage, err = a.initStorage(ctx); err != nil {
			return nil, err
		}
	}

	a.hub = live.NewHub(log.Named("live"), 64)
	if a.redis != nil {
		a.relay = live.NewRedisRelay(a.redis, "", a.hub, log.Named("relay"))
	}

	a.build(storage)
	return a, nil
}

func (a *App) initCache() error {
	if !a.cfg.Redis.Enabled {
		a.store = cache.NewMemoryStore()
		return nil
	}
	client, err := cache.NewRedisClient(cache.RedisConfig{
		Addr:     a.cfg.Redis.Addr,
		Password: a.cfg.Redis.Password,
		DB:       a.cfg.Redis.DB,
	})
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	a.redis = client
	a.store = cache.NewRedisStore(client, "")
	a.log.Info("redis enabled", zap.String("addr", a.cfg.Redis.Addr))
	return nil
}

func (a *App) initStorage(ctx context.Context) (media.Storage, error) {
	mc := a.cfg.Media
	if mc.Driver == "s3" {
		st, err := media.NewS3Storage(ctx, media.S3Config{
			Endpoint:   mc.S3Endpoint,
			Bucket:     mc.S3Bucket,
			Region:     mc.S3Region,
			AccessKey:  mc.S3AccessKey,
			SecretKey:  mc.S3SecretKey,
			PathStyle:  mc.S3PathStyle,
			PublicBase: mc.S3PublicBase,
		}, media.WithS3Logger(a.log.Named("s3")))
		if err != nil {
			return nil, err
		}
		return st, nil
	}

	disk, err := media.NewDiskStorage(mc.Dir, mc.PublicBase)
	if err != nil {
		return nil, err
	}
	a.disk = disk
	return disk, nil
}

func (a *App) build(storage media.Storage) {
	log := a.log
	db := a.db

	a.Tokens = jwt.New(a.cfg.Auth.JWTSecret, a.cfg.Auth.TokenTTL)
	a.Sessions = access.NewSessionHub()

	users := auth.NewRepository(db)
	gate := access.NewGate(a.cfg.Auth.AdminEmail, users, log.Named("access"))
	a.Auth = auth.NewService(users, gate, a.Tokens, a.store, a.Sessions, log.Named("auth"))

	itemRepo := item.NewRepository(db)
	requestRepo := request.NewRepository(db)
	notificationRepo := notification.NewRepository(db)
	activityRepo := activity.NewRepository(db)

	a.Media = media.NewService(media.NewRepository(db), storage, a.cfg.Media.MaxSize, log.Named("media"))
	a.Items = item.NewService(itemRepo, notificationRepo, a.Media, a.hub, log.Named("item"))
	a.Requests = request.NewService(requestRepo, itemRepo, a.hub, log.Named("request"))
	a.Notices = notification.NewService(notificationRepo, a.hub, log.Named("notification"))
	a.Cleanup = notification.NewCleanupService(notificationRepo, log.Named("cleanup"))
	activities := activity.NewService(activityRepo, a.hub, log.Named("activity"))

	emitter := fanout.NewEmitter(notificationRepo, activityRepo, a.store, log.Named("fanout"))
	a.Lifecycle = lifecycle.NewEngine(db, requestRepo, itemRepo, emitter, a.hub, lifecycle.Config{
		AtomicFanout:     a.cfg.Lifecycle.AtomicFanout,
		OperationTimeout: a.cfg.App.OperationTimeout,
		OfficeLocation:   a.cfg.Lifecycle.OfficeLocation,
		OfficeHours:      a.cfg.Lifecycle.OfficeHours,
	}, log.Named("lifecycle"))

	snapshots := live.NewRegistry()
	snapshots.Register(live.CollectionLostItems, a.Items.Snapshot(item.KindLost))
	snapshots.Register(live.CollectionFoundItems, a.Items.Snapshot(item.KindFound))
	snapshots.Register(live.CollectionClaimRequests, a.Requests.Snapshot(request.KindClaim))
	snapshots.Register(live.CollectionFoundRequests, a.Requests.Snapshot(request.KindFound))
	snapshots.Register(live.CollectionNotifications, a.Notices.Snapshot)
	snapshots.Register(live.CollectionActivities, activities.Snapshot)

	a.ws = live.NewHandler(a.hub, snapshots, a.Sessions, log.Named("ws"))
	a.router = a.newRouter(handlers{
		auth:         auth.NewHandler(a.Auth),
		items:        item.NewHandler(a.Items),
		requests:     request.NewHandler(a.Requests),
		lifecycle:    lifecycle.NewHandler(a.Lifecycle),
		notification: notification.NewHandler(a.Notices),
		activity:     activity.NewHandler(activities),
		media:        media.NewHandler(a.Media),
		admin:        admin.NewHandler(admin.NewService(itemRepo, requestRepo, log.Named("admin"))),
		live:         a.ws,
	})
}

func (a *App) Router() http.Handler { return a.router }

func (a *App) DB() *gorm.DB { return a.db }

// Run serves HTTP until ctx ends, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if a.relay != nil {
		go func() {
			if err := a.relay.Run(ctx); err != nil {
				a.log.Error("live relay stopped", zap.Error(err))
			}
		}()
	}
	go a.Cleanup.Schedule(ctx, notification.DefaultCleanupConfig())

	srv := &http.Server{
		Addr:              ":" + a.cfg.App.Port,
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.log.Info("shutting down")
	a.ws.Close()
	shutdownCtx, stop := context.WithTimeout(context.Background(), 15*time.Second)
	defer stop()
	return srv.Shutdown(shutdownCtx)
}

func (a *App) Close() error {
	if a.ws != nil {
		a.ws.Close()
	}
	var errs []error
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	if sqlDB, err := a.db.DB(); err == nil {
		errs = append(errs, sqlDB.Close())
	}
	return errors.Join(errs...)
}
