package handlers

import (
	"github.com/Lelcaren/mwangaza-rentals/internal/auth"
	"github.com/Lelcaren/mwangaza-rentals/internal/config"
	"github.com/Lelcaren/mwangaza-rentals/internal/logger"
	"github.com/Lelcaren/mwangaza-rentals/internal/middleware"
	"github.com/gin-gonic/gin"
)

// RouterConfig carries everything the HTTP surface is built from.
type RouterConfig struct {
	Log      *logger.Logger
	CORS     config.CORSConfig
	Verifier auth.Verifier
	// AuthRequired rejects unauthenticated requests to /api/v1 (except /info).
	AuthRequired bool

	Health        *HealthHandler
	Me            *MeHandler
	Properties    PropertyHandler
	Tenants       TenantHandler
	Bills         *BillHandler
	Payments      PaymentHandler
	Notifications *NotificationHandler
	Profiles      ProfileHandler
	Reports       *ReportHandler
}

// NewRouter builds the gin engine with the middleware stack and every route.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()

	// Middleware order: RequestID -> Logger -> Recovery -> CORS -> Authenticate
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(cfg.Log))
	router.Use(middleware.Recovery(cfg.Log))
	router.Use(middleware.CORS(cfg.CORS))

	router.GET("/health", cfg.Health.Health)
	router.GET("/health/ready", cfg.Health.Ready)

	v1 := router.Group("/api/v1")
	v1.GET("/info", cfg.Health.Info)

	api := v1.Group("")
	api.Use(middleware.Authenticate(cfg.Verifier, cfg.AuthRequired))
	{
		api.GET("/me", middleware.RequireUser(), cfg.Me.Me)
		api.GET("/templates", cfg.Notifications.Templates)

		cfg.Properties.register(api.Group("/properties"))
		cfg.Tenants.register(api.Group("/tenants"))
		cfg.Payments.register(api.Group("/payments"))
		cfg.Profiles.register(api.Group("/profiles"))

		bills := api.Group("/bills")
		bills.POST("/generate", cfg.Bills.Generate)
		bills.POST("/mark-overdue", cfg.Bills.MarkOverdue)
		cfg.Bills.register(bills)

		notifications := api.Group("/notifications")
		notifications.POST("/send", cfg.Notifications.Send)
		notifications.POST("/reminders", cfg.Notifications.Reminders)
		cfg.Notifications.register(notifications)

		reports := api.Group("/reports")
		reports.GET("/dashboard", cfg.Reports.Dashboard)
		reports.GET("/billing", cfg.Reports.Billing)
		reports.GET("/billing/export", cfg.Reports.ExportBilling)
	}

	return router
}
