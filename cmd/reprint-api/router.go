package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/reprint-api/internal/handler"
	"github.com/noah-isme/reprint-api/internal/middleware"
	"github.com/noah-isme/reprint-api/internal/models"
	"github.com/noah-isme/reprint-api/internal/service"
	"github.com/noah-isme/reprint-api/pkg/config"
	"github.com/noah-isme/reprint-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/reprint-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/reprint-api/pkg/middleware/requestid"
)

type handlers struct {
	auth     *handler.AuthHandler
	pricing  *handler.PricingHandler
	chat     *handler.ChatHandler
	proofing *handler.ProofingHandler
	orders   *handler.OrderHandler
	files    *handler.FileHandler
	metrics  *handler.MetricsHandler
}

type routeDeps struct {
	auth     middleware.TokenValidator
	metrics  *service.MetricsService
	handlers handlers
}

func newRouter(cfg *config.Config, logr *zap.Logger, deps routeDeps) *gin.Engine {
	h := deps.handlers

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.metrics))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", h.metrics.Health)
	r.GET("/ready", h.metrics.Ready)
	r.GET("/metrics", h.metrics.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	requireAuth := middleware.JWT(deps.auth)
	optionalAuth := middleware.OptionalJWT(deps.auth)
	session := middleware.Session()

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/login", h.auth.Login)
	auth.GET("/me", requireAuth, h.auth.Me)

	pricing := api.Group("/pricing")
	pricing.GET("/options", h.pricing.Options)
	pricing.POST("/estimate", h.pricing.Estimate)

	chat := api.Group("/chat", optionalAuth, session)
	chat.GET("/presets", h.chat.Presets)
	chat.GET("/messages", h.chat.History)
	chat.POST("/messages", h.chat.Send)
	chat.DELETE("/messages", h.chat.Reset)

	api.GET("/files/preview", h.files.Preview)

	// Guests may look at the workspace and raise the login prompt; everything
	// else needs a session token.
	api.GET("/proofing", optionalAuth, session, h.proofing.State)
	api.POST("/proofing/open", optionalAuth, session, h.proofing.Open)

	proofing := api.Group("/proofing", requireAuth, session)
	proofing.POST("/close", h.proofing.Close)
	proofing.POST("/uploads", h.proofing.Upload)
	proofing.PUT("/tab", h.proofing.SetTab)
	proofing.PUT("/zoom", h.proofing.Zoom)
	proofing.PUT("/tool", h.proofing.SelectTool)
	proofing.POST("/layers/:layer/toggle", h.proofing.ToggleLayer)
	proofing.PUT("/plan", h.proofing.SetPlan)
	proofing.POST("/issues/:index/fix", h.proofing.FixIssue)
	proofing.POST("/marker", h.proofing.PlaceMarker)
	proofing.DELETE("/marker", h.proofing.ClearMarker)
	proofing.POST("/comments", h.proofing.SendComment)
	proofing.POST("/approve", middleware.RequireRoles(models.RoleTeacher), middleware.Audit(logr, "approve", "version"), h.proofing.Approve)
	proofing.POST("/reject", middleware.RequireRoles(models.RoleTeacher), middleware.Audit(logr, "reject", "version"), h.proofing.Reject)
	proofing.POST("/submit", middleware.RequireRoles(models.RoleStudent), middleware.Audit(logr, "submit", "project"), h.proofing.Submit)
	proofing.POST("/force-print", h.proofing.ForcePrint)
	proofing.POST("/force-print/confirm", h.proofing.ConfirmForcePrint)
	proofing.DELETE("/force-print", h.proofing.CancelForcePrint)
	proofing.POST("/estimate", h.proofing.Estimate)
	proofing.GET("/projects", h.proofing.Projects)
	proofing.POST("/projects/:id/switch", h.proofing.SwitchProject)
	proofing.POST("/save", h.proofing.Save)
	proofing.POST("/chat", h.proofing.Chat)

	api.POST("/orders", optionalAuth, h.orders.Create)
	orders := api.Group("/orders", requireAuth)
	orders.GET("", h.orders.List)
	orders.GET("/stats", h.orders.Stats)
	orders.GET("/export", h.orders.Export)
	orders.GET("/:id", h.orders.Get)
	orders.GET("/:id/receipt", h.orders.Receipt)

	api.GET("/system/metrics", requireAuth, middleware.RequireRoles(models.RoleTeacher), h.metrics.Summary)

	return r
}
