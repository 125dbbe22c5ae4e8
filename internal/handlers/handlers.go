package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"wallhub/internal/config"
	"wallhub/internal/middleware"
	"wallhub/internal/models"
	"wallhub/internal/service"
)

// Services bundles what the HTTP layer calls into.
type Services struct {
	Aggregate  *service.AggregationService
	Engagement *service.EngagementService
	Moderation *service.ModerationService
	Upload     *service.UploadService
	Auth       *service.AuthService
}

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) error

type HandlerSet struct {
	log      zerolog.Logger
	cfg      *config.AppConfig
	services Services
	checks   map[string]HealthCheck
}

func NewHandlerSet(log zerolog.Logger, cfg *config.AppConfig, services Services, checks map[string]HealthCheck) HandlerSet {
	return HandlerSet{
		log:      log,
		cfg:      cfg,
		services: services,
		checks:   checks,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	v1 := router.Group("/v1")
	v1.Use(middleware.Authenticate(h.cfg.Security.JWTAccessSecret))

	wallpapers := v1.Group("/wallpapers")
	{
		wallpapers.GET("", h.ListWallpapers)
		wallpapers.GET("/search", h.SearchWallpapers)
		wallpapers.GET("/:id", h.GetWallpaper)
		wallpapers.GET("/:id/related", h.RelatedWallpapers)
		wallpapers.POST("/:id/download", h.DownloadWallpaper)

		member := wallpapers.Group("")
		member.Use(middleware.RequireIdentity())
		member.POST("", h.UploadWallpaper)
		member.POST("/:id/view", h.ViewWallpaper)
		member.POST("/:id/like", h.LikeWallpaper)
		member.PATCH("/:id", h.EditWallpaper)
		member.DELETE("/:id", h.DeleteWallpaper)
	}

	me := v1.Group("/me")
	me.Use(middleware.RequireIdentity())
	me.GET("/wallpapers", h.MyWallpapers)
	me.GET("/wallpapers/:id", h.MyWallpaper)
	me.GET("/likes", h.MyLikes)

	auth := v1.Group("/auth")
	auth.POST("/register", h.RegisterUser)
	auth.POST("/login", h.Login)
	auth.GET("/me", middleware.RequireIdentity(), h.Me)

	v1.POST("/admin/login", h.AdminLogin)
	admin := v1.Group("/admin")
	admin.Use(middleware.RequireRoles(models.UserRoleAdmin))
	admin.POST("/wallpapers", h.AdminUploadWallpaper)
	admin.GET("/wallpapers/pending", h.AdminPendingWallpapers)
	admin.PUT("/wallpapers/:id/approve", h.AdminApproveWallpaper)
	admin.DELETE("/wallpapers/:id/reject", h.AdminRejectWallpaper)
}
