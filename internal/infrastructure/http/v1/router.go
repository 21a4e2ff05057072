// Package v1 provides HTTP API version 1.
package v1

import (
	"time"

	"github.com/gin-gonic/gin"

	"stockroom/internal/core/i18n"
	"stockroom/internal/domain/auth"
	"stockroom/internal/domain/backup"
	"stockroom/internal/domain/importer"
	"stockroom/internal/domain/inventory"
	"stockroom/internal/domain/reports"
	"stockroom/internal/domain/settings"
	"stockroom/internal/infrastructure/cache"
	"stockroom/internal/infrastructure/http/v1/handlers"
	"stockroom/internal/infrastructure/http/v1/middleware"
	"stockroom/internal/infrastructure/print"
	"stockroom/pkg/logger"
)

// RouterConfig holds everything the API needs.
type RouterConfig struct {
	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	// Bundle localizes labels and error messages
	Bundle *i18n.Bundle

	// Database is checked by the readiness probe
	Database handlers.Database

	AuthService      *auth.Service
	InventoryService *inventory.Service
	ReportsService   *reports.Service
	SettingsService  *settings.Service
	Importer         *importer.Service
	Backup           *backup.Service

	// Drafts holds report builder drafts between requests
	Drafts *cache.DraftCache

	// Renderer prints sales invoices
	Renderer *print.HTMLRenderer

	// Location is the timezone of date filters
	Location *time.Location

	// MaxUploadBytes bounds spreadsheet and backup uploads
	MaxUploadBytes int64

	// Debug switches gin to debug mode
	Debug bool
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}
	if cfg.Bundle == nil {
		cfg.Bundle = i18n.Default()
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	if cfg.Database != nil {
		healthHandler := handlers.NewHealthHandler(cfg.Database)
		health := router.Group("/health")
		{
			health.GET("/live", healthHandler.Live)
			health.GET("/ready", healthHandler.Ready)
		}
	}

	base := handlers.NewBaseHandler(cfg.Bundle)

	v1 := router.Group("/api/v1")
	{
		public := v1.Group("")
		public.Use(middleware.Locale(cfg.Bundle))
		registerPublicAuthRoutes(public, base, cfg)

		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.JWTValidator)) // 1. Validate JWT
		protected.Use(middleware.UserContext())          // 2. Enrich request logger
		protected.Use(middleware.Locale(cfg.Bundle))     // 3. Token locale is known now

		registerAuthRoutes(protected, base, cfg)
		registerInventoryRoutes(protected, base, cfg)
		registerReportRoutes(protected, base, cfg)
		registerSettingsRoutes(protected, base, cfg)
		registerTransferRoutes(protected, base, cfg)
	}

	return router
}

// registerPublicAuthRoutes registers endpoints reachable without a token.
func registerPublicAuthRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	if cfg.AuthService == nil {
		return
	}
	h := handlers.NewAuthHandler(base, cfg.AuthService)
	rg.POST("/auth/login", h.Login)
}

// registerAuthRoutes registers the current-user and user administration endpoints.
func registerAuthRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	if cfg.AuthService == nil {
		return
	}
	h := handlers.NewAuthHandler(base, cfg.AuthService)
	rg.GET("/auth/me", h.Me)

	users := rg.Group("/users", middleware.RequirePermission(auth.PermUsersManage))
	{
		users.GET("", h.ListUsers)
		users.POST("", h.CreateUser)
		users.GET("/:id", h.GetUser)
		users.PUT("/:id", h.UpdateUser)
		users.DELETE("/:id", h.DeleteUser)
	}
}

// registerInventoryRoutes registers products and warehouse documents.
func registerInventoryRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	svc := cfg.InventoryService
	if svc == nil {
		return
	}

	products := handlers.NewProductHandler(base, svc, cfg.Location)
	RegisterDocumentRoutes(rg.Group("/products"), products, auth.PermInventoryView, auth.PermInventoryManage)

	sales := handlers.NewSaleHandler(base, svc, cfg.SettingsService, cfg.Renderer, cfg.Location)
	salesGroup := rg.Group("/sales")
	RegisterDocumentRoutes(salesGroup, sales, auth.PermInventoryView, auth.PermSalesCreate)
	salesGroup.GET("/:id/print", middleware.RequirePermission(auth.PermInventoryView), sales.Print)

	purchases := handlers.NewPurchaseHandler(base, svc, cfg.Location)
	purchasesGroup := rg.Group("/purchases")
	RegisterDocumentRoutes(purchasesGroup, purchases, auth.PermInventoryView, auth.PermPurchasesManage)
	purchasesGroup.POST("/:id/receive", middleware.RequirePermission(auth.PermPurchasesManage), purchases.Receive)

	movements := handlers.NewMovementHandler(base, svc, cfg.Location)
	RegisterDocumentRoutes(rg.Group("/movements"), movements, auth.PermInventoryView, auth.PermInventoryManage)

	requests := handlers.NewPurchaseRequestHandler(base, svc, cfg.Location)
	requestsGroup := rg.Group("/purchase-requests")
	RegisterDocumentRoutes(requestsGroup, requests, auth.PermInventoryView, auth.PermRequestsManage)
	requestsGroup.PUT("/:id/status", middleware.RequirePermission(auth.PermRequestsManage), requests.SetStatus)
}

// registerReportRoutes registers the report schema, saved reports and the
// builder wizard.
func registerReportRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	if cfg.ReportsService == nil {
		return
	}
	view := middleware.RequirePermission(auth.PermReportsView)
	manage := middleware.RequirePermission(auth.PermReportsManage)

	h := handlers.NewReportsHandler(base, cfg.ReportsService)
	r := rg.Group("/reports")
	{
		r.GET("/sources", view, h.Sources)
		r.GET("/sources/:source/fields", view, h.Fields)
		r.GET("/sources/:source/subsources", view, h.SubSources)

		r.GET("/custom", view, h.List)
		r.GET("/custom/:id", view, h.Get)
		r.DELETE("/custom/:id", manage, h.Delete)
		r.POST("/custom/:id/run", view, h.Run)
		r.GET("/custom/:id/print", view, h.Print)
	}

	if cfg.Drafts == nil || cfg.SettingsService == nil {
		return
	}
	d := handlers.NewDraftsHandler(base, cfg.ReportsService, cfg.Drafts, cfg.SettingsService)
	drafts := r.Group("/drafts", manage)
	{
		drafts.POST("", d.Create)
		drafts.GET("/:id", d.Get)
		drafts.DELETE("/:id", d.Discard)
		drafts.PUT("/:id/basic", d.SetBasicInfo)
		drafts.POST("/:id/next", d.Next)
		drafts.POST("/:id/back", d.Back)
		drafts.POST("/:id/columns", d.AddColumn)
		drafts.PATCH("/:id/columns/:columnId", d.UpdateColumn)
		drafts.DELETE("/:id/columns/:columnId", d.RemoveColumn)
		drafts.PUT("/:id/options", d.SetOptions)
		drafts.POST("/:id/logo/:side", d.UploadLogo)
		drafts.DELETE("/:id/logo/:side", d.ClearLogo)
		drafts.POST("/:id/preview", d.Preview)
		drafts.POST("/:id/save", d.Save)
	}
}

// registerSettingsRoutes registers the settings document. Every signed-in
// user may read it since forms need its lists.
func registerSettingsRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	if cfg.SettingsService == nil {
		return
	}
	h := handlers.NewSettingsHandler(base, cfg.SettingsService)
	rg.GET("/settings", h.Get)
	rg.PUT("/settings", middleware.RequirePermission(auth.PermSettingsManage), h.Replace)
}

// registerTransferRoutes registers spreadsheet and backup transfer.
func registerTransferRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	if cfg.Importer == nil && cfg.Backup == nil {
		return
	}
	h := handlers.NewTransferHandler(base, cfg.Importer, cfg.Backup, cfg.MaxUploadBytes)

	if cfg.Importer != nil {
		rg.POST("/products/import", middleware.RequirePermission(auth.PermInventoryManage), h.ImportProducts)
		rg.GET("/products/export", middleware.RequirePermission(auth.PermInventoryView), h.ExportProducts)
	}
	if cfg.Backup != nil {
		b := rg.Group("/backup", middleware.RequirePermission(auth.PermBackupManage))
		b.GET("/export", h.ExportBackup)
		b.POST("/import", h.ImportBackup)
	}
}
