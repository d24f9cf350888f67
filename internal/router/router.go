package router

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"saferoute/config"
	"saferoute/internal/admin"
	"saferoute/internal/handler"
	"saferoute/internal/middleware"
	"saferoute/internal/observability"
	"saferoute/internal/repository"
	"saferoute/internal/service"
	"saferoute/internal/templates"
	"saferoute/internal/ws"
	"saferoute/pkg/mediastore"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"
)

// Setup wires repositories, services and handlers onto a gin engine.
// limiter may be nil to disable rate limiting.
func Setup(cfg *config.Config, db *gorm.DB, media mediastore.Store, limiter middleware.Limiter, metrics *observability.Metrics) (*gin.Engine, error) {
	if cfg.Server.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	renderer, err := templates.New(media.URL)
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	incidentRepo := repository.NewIncidentRepository(db)
	helpfulRepo := repository.NewHelpfulRepository(db)
	discussionRepo := repository.NewDiscussionRepository(db)
	zoneRepo := repository.NewZoneRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)
	adminRepo := repository.NewAdminRepository(db)

	// Services
	feedSvc := service.NewFeedService(incidentRepo, zoneRepo, discussionRepo, nil)
	mapHub := ws.NewMapHub(feedSvc.Export, metrics)
	authSvc := service.NewAuthService(userRepo, media)
	incidentSvc := service.NewIncidentService(incidentRepo, helpfulRepo, media, metrics)
	zoneSvc := service.NewZoneService(zoneRepo)
	discussionSvc := service.NewDiscussionService(discussionRepo)
	moderationSvc := service.NewModerationService(incidentRepo, userRepo, helpfulRepo, discussionRepo, zoneRepo, auditRepo, media, mapHub, metrics)
	console := admin.NewConsole(adminRepo, moderationSvc, media, nil)

	// Handlers
	googleHandler := handler.NewGoogleOAuthHandler(cfg, authSvc, auditRepo)
	authHandler := handler.NewAuthHandler(authSvc, feedSvc, auditRepo, &cfg.JWT, googleHandler.Enabled())
	pageHandler := handler.NewPageHandler(feedSvc, pinger(db))
	reportHandler := handler.NewReportHandler(incidentSvc, feedSvc, auditRepo, cfg.Server.Location(), true)
	zoneHandler := handler.NewZoneHandler(zoneSvc)
	communityHandler := handler.NewCommunityHandler(discussionSvc, feedSvc)
	adminHandler := handler.NewAdminHandler(console, moderationSvc, incidentSvc, authSvc)

	r := gin.New()
	r.HTMLRender = renderer
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(metrics.Middleware())
	if cfg.Telemetry.TraceExporter != "" && cfg.Telemetry.TraceExporter != "none" {
		r.Use(otelgin.Middleware(cfg.Telemetry.ServiceName))
	}
	if limiter != nil {
		r.Use(middleware.RateLimit(limiter, metrics))
	}
	r.Use(middleware.Messages(&cfg.JWT))
	r.Use(middleware.Session(&cfg.JWT, userRepo))

	r.StaticFS("/static", http.FS(templates.Static()))
	if local, ok := media.(*mediastore.LocalStore); ok && strings.HasPrefix(cfg.Media.URL, "/") {
		r.Static(strings.TrimSuffix(cfg.Media.URL, "/"), local.Root())
	}
	r.NoRoute(pageHandler.NotFound)

	login := middleware.LoginRequired()

	r.GET("/", pageHandler.Home)
	r.GET("/dashboard/", login, pageHandler.Dashboard)
	r.GET("/safety-tips/", pageHandler.Static("pages/safety_tips.html"))
	r.GET("/privacy-policy/", pageHandler.Static("pages/privacy_policy.html"))
	r.GET("/terms/", pageHandler.Static("pages/terms.html"))
	r.GET("/about/", pageHandler.Static("pages/about.html"))

	r.GET("/submit/", login, reportHandler.SubmitPage)
	r.POST("/submit/", login, reportHandler.Submit)
	r.GET("/heatmap/", reportHandler.Heatmap)
	r.GET("/gallery/", reportHandler.Gallery)
	r.GET("/reports/:id/", reportHandler.Detail)
	r.POST("/reports/:id/helpful/", login, reportHandler.MarkHelpful)
	r.GET("/api/incidents/", reportHandler.Incidents)

	r.GET("/save-zone/", login, zoneHandler.Page)
	r.POST("/save-zone/", login, zoneHandler.Save)

	community := r.Group("/community", login)
	{
		community.GET("/", communityHandler.List)
		community.POST("/", communityHandler.Create)
		community.GET("/new/", func(c *gin.Context) { c.Redirect(http.StatusFound, "/community/") })
		community.POST("/new/", communityHandler.Create)
		community.GET("/:id/", communityHandler.Detail)
		community.POST("/:id/", communityHandler.Reply)
	}

	accounts := r.Group("/accounts")
	{
		accounts.GET("/register/", authHandler.RegisterPage)
		accounts.POST("/register/", authHandler.Register)
		accounts.GET("/login/", authHandler.LoginPage)
		accounts.POST("/login/", authHandler.Login)
		accounts.GET("/logout/", authHandler.Logout)
		accounts.POST("/logout/", authHandler.Logout)
		accounts.GET("/profile/", login, authHandler.Profile)
		accounts.POST("/profile/", login, authHandler.UpdateProfile)
		accounts.GET("/google/", googleHandler.Redirect)
		accounts.GET("/google/callback/", googleHandler.Callback)
	}

	adminGroup := r.Group("/admin", middleware.StaffRequired())
	{
		adminGroup.GET("/", adminHandler.Dashboard)
		adminGroup.GET("/:resource/", adminHandler.List)
		adminGroup.POST("/:resource/action/", adminHandler.Action)
		adminGroup.GET("/:resource/:id/", adminHandler.Detail)
		adminGroup.POST("/:resource/:id/", adminHandler.Update)
	}

	r.GET("/ws/map", ws.UpgradeMapWS(mapHub))
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.GET("/healthz", pageHandler.Healthz)

	return r, nil
}

func pinger(db *gorm.DB) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}
