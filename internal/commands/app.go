package commands

import (
	"context"
	"fmt"

	"github.com/Lelcaren/mwangaza-rentals/internal/auth"
	"github.com/Lelcaren/mwangaza-rentals/internal/config"
	"github.com/Lelcaren/mwangaza-rentals/internal/database"
	"github.com/Lelcaren/mwangaza-rentals/internal/format"
	"github.com/Lelcaren/mwangaza-rentals/internal/handlers"
	"github.com/Lelcaren/mwangaza-rentals/internal/logger"
	"github.com/Lelcaren/mwangaza-rentals/internal/messaging"
	"github.com/Lelcaren/mwangaza-rentals/internal/repository"
	"github.com/Lelcaren/mwangaza-rentals/internal/services"
	"github.com/gin-gonic/gin"
)

// app holds what every command needs: configuration, a logger and an open database.
type app struct {
	cfg *config.Config
	log *logger.Logger
	db  *database.Database
}

// serviceSet is the service layer built over one database.
type serviceSet struct {
	properties    services.PropertyService
	tenants       services.TenantService
	billing       services.BillingService
	payments      services.PaymentService
	notifications services.NotificationService
	profiles      services.ProfileService
	reports       services.ReportService
}

// openApp loads configuration and connects to the database.
func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log := logger.NewWithOptions(logger.Options{Env: cfg.Server.Env, Level: cfg.Server.LogLevel})

	db, err := database.Open(ctx, cfg.Database, log)
	if err != nil {
		log.Error("Failed to connect to database", err, map[string]interface{}{
			"driver": cfg.Database.Driver,
			"host":   cfg.Database.Host,
			"name":   cfg.Database.Name,
		})
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Info("Database connection established", map[string]interface{}{
		"dialect":  db.Dialect(),
		"pool_min": cfg.Database.PoolMin,
		"pool_max": cfg.Database.PoolMax,
	})
	return &app{cfg: cfg, log: log, db: db}, nil
}

func (a *app) Close() {
	a.db.Close()
}

func (a *app) settings() services.Settings {
	s := services.DefaultSettings()
	s.VATRate = a.cfg.Billing.VATRate
	s.WHTRate = a.cfg.Billing.WHTRate
	s.DueDay = a.cfg.Billing.DueDay
	if len(a.cfg.Billing.VATBase) > 0 {
		s.VATBase = a.cfg.Billing.VATBase
	}
	return s
}

func (a *app) formatter() format.Formatter {
	return format.New(a.cfg.Locale.Language, a.cfg.Locale.Region)
}

// sender posts to the configured webhook, or logs messages when none is set.
func (a *app) sender() messaging.Sender {
	if a.cfg.Messaging.WebhookURL == "" {
		return messaging.NewLogSender(a.log)
	}
	return messaging.NewWebhookSender(a.cfg.Messaging.WebhookURL, nil)
}

func (a *app) services() *serviceSet {
	settings := a.settings()

	propertyRepo := repository.NewPropertyRepository(a.db)
	tenantRepo := repository.NewTenantRepository(a.db)
	billRepo := repository.NewBillRepository(a.db)
	paymentRepo := repository.NewPaymentRepository(a.db)
	tx := repository.NewTransactor(a.db)

	return &serviceSet{
		properties:    services.NewPropertyService(propertyRepo, a.log),
		tenants:       services.NewTenantService(tenantRepo, a.log),
		billing:       services.NewBillingService(billRepo, tenantRepo, propertyRepo, tx, settings, a.log),
		payments:      services.NewPaymentService(paymentRepo, billRepo, tx, settings, a.log),
		notifications: services.NewNotificationService(repository.NewNotificationRepository(a.db), tenantRepo, billRepo, a.sender(), a.formatter(), a.log),
		profiles:      services.NewProfileService(repository.NewProfileRepository(a.db), a.log),
		reports:       services.NewReportService(propertyRepo, tenantRepo, billRepo, paymentRepo, settings, a.log),
	}
}

// router builds the HTTP surface over svc.
func (a *app) router(svc *serviceSet) *gin.Engine {
	if a.cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	var verifier auth.Verifier
	if a.cfg.Auth.JWTSecret != "" {
		verifier = auth.NewVerifier(a.cfg.Auth.JWTSecret)
	} else {
		a.log.Warn("AUTH_JWT_SECRET is not set; every request is served anonymously", nil)
	}

	return handlers.NewRouter(handlers.RouterConfig{
		Log:           a.log,
		CORS:          a.cfg.CORS,
		Verifier:      verifier,
		AuthRequired:  a.cfg.Auth.Required,
		Health:        handlers.NewHealthHandler(a.db, a.cfg.Server.Env, a.db.Dialect()),
		Me:            handlers.NewMeHandler(svc.profiles),
		Properties:    handlers.NewPropertyHandler(svc.properties),
		Tenants:       handlers.NewTenantHandler(svc.tenants),
		Bills:         handlers.NewBillHandler(svc.billing, nil),
		Payments:      handlers.NewPaymentHandler(svc.payments),
		Notifications: handlers.NewNotificationHandler(svc.notifications, svc.profiles, nil),
		Profiles:      handlers.NewProfileHandler(svc.profiles),
		Reports:       handlers.NewReportHandler(svc.reports, a.formatter(), nil),
	})
}
