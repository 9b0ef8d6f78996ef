package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/gramwave/gramwave/internal/activity"
	activitydomain "github.com/gramwave/gramwave/internal/activity/domain"
	"github.com/gramwave/gramwave/internal/auth"
	authdomain "github.com/gramwave/gramwave/internal/auth/domain"
	"github.com/gramwave/gramwave/internal/billing"
	billingdomain "github.com/gramwave/gramwave/internal/billing/domain"
	collectiondomain "github.com/gramwave/gramwave/internal/collection/domain"
	"github.com/gramwave/gramwave/internal/config"
	followdomain "github.com/gramwave/gramwave/internal/follow/domain"
	notificationdomain "github.com/gramwave/gramwave/internal/notification/domain"
	"github.com/gramwave/gramwave/internal/observability/metrics"
	postdomain "github.com/gramwave/gramwave/internal/post/domain"
	"github.com/gramwave/gramwave/internal/ratelimit"
	storydomain "github.com/gramwave/gramwave/internal/story/domain"
	"github.com/gramwave/gramwave/internal/user"
	userdomain "github.com/gramwave/gramwave/internal/user/domain"
	"github.com/gramwave/gramwave/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	metrics.Module,
	ratelimit.Module,
	auth.Module,
	user.Module,
	activity.Module,
	billing.Module,
	fx.Provide(repository.ProvideStore[postdomain.Post]),
	fx.Provide(repository.ProvideStore[storydomain.Story]),
	fx.Provide(repository.ProvideStore[collectiondomain.Collection]),
	fx.Provide(repository.ProvideStore[followdomain.Follow]),
	fx.Provide(repository.ProvideStore[notificationdomain.Notification]),
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(func(s *Server) { s.RegisterAPIRoutes() }),
	fx.Invoke(run),
)

type Server struct {
	engine        *gin.Engine
	cfg           config.Config
	log           *zap.Logger
	db            *gorm.DB
	authsvc       authdomain.Service
	usersvc       userdomain.Service
	activitysvc   activitydomain.Service
	billingsvc    billingdomain.Service
	limiter       *ratelimit.RequestLimiter
	posts         repository.Repository[postdomain.Post, *postdomain.Post]
	stories       repository.Repository[storydomain.Story, *storydomain.Story]
	collections   repository.Repository[collectiondomain.Collection, *collectiondomain.Collection]
	follows       repository.Repository[followdomain.Follow, *followdomain.Follow]
	notifications repository.Repository[notificationdomain.Notification, *notificationdomain.Notification]
}

type ServerParams struct {
	fx.In

	Gin           *gin.Engine
	Cfg           config.Config
	Log           *zap.Logger
	DB            *gorm.DB
	Authsvc       authdomain.Service
	Usersvc       userdomain.Service
	Activitysvc   activitydomain.Service
	Billingsvc    billingdomain.Service
	Limiter       *ratelimit.RequestLimiter `optional:"true"`
	Posts         repository.Repository[postdomain.Post, *postdomain.Post]
	Stories       repository.Repository[storydomain.Story, *storydomain.Story]
	Collections   repository.Repository[collectiondomain.Collection, *collectiondomain.Collection]
	Follows       repository.Repository[followdomain.Follow, *followdomain.Follow]
	Notifications repository.Repository[notificationdomain.Notification, *notificationdomain.Notification]
}

func NewServer(p ServerParams) *Server {
	return &Server{
		engine:        p.Gin,
		cfg:           p.Cfg,
		log:           p.Log.Named("http.server"),
		db:            p.DB,
		authsvc:       p.Authsvc,
		usersvc:       p.Usersvc,
		activitysvc:   p.Activitysvc,
		billingsvc:    p.Billingsvc,
		limiter:       p.Limiter,
		posts:         p.Posts,
		stories:       p.Stories,
		collections:   p.Collections,
		follows:       p.Follows,
		notifications: p.Notifications,
	}
}

func NewEngine(m *metrics.Metrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(metrics.GinMiddleware(m))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}
