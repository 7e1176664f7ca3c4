package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
	_ "time/tzdata"

	"apmc-backend/internal/admin"
	"apmc-backend/internal/apperror"
	"apmc-backend/internal/audit"
	"apmc-backend/internal/auth"
	"apmc-backend/internal/config"
	"apmc-backend/internal/dashboard"
	"apmc-backend/internal/database"
	"apmc-backend/internal/logger"
	"apmc-backend/internal/metrics"
	"apmc-backend/internal/models"
	"apmc-backend/internal/report"
	"apmc-backend/internal/tenant"
	"apmc-backend/internal/trading"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// logger is not configured yet
		zap.NewExample().Fatal("config", zap.Error(err))
	}

	log, err := logger.Init(cfg.LogLevel, cfg.Env)
	if err != nil {
		zap.NewExample().Fatal("logger", zap.Error(err))
	}
	defer log.Sync()

	for _, w := range cfg.Warnings {
		log.Warn(w)
	}

	if err := database.Init(cfg, log); err != nil {
		log.Fatal("database init failed", zap.Error(err))
	}
	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		log.Fatal("metrics registration failed", zap.Error(err))
	}

	// amounts go out as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true

	manager := tenant.NewManager(database.DB, log)
	reports := report.NewService(cfg.Location, log)

	app := fiber.New(fiber.Config{
		AppName:      "apmc-backend",
		ErrorHandler: apperror.ErrorHandler(log),
	})

	app.Use(recover.New())
	app.Use(logger.Middleware(log))
	app.Use(metrics.Middleware())
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.CORSOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, " + tenant.HeaderTenantID + ", " + logger.HeaderRequestID,
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	app.Get("/metrics", metrics.Handler())
	app.Get("/healthz", healthHandler())

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register-super-admin", auth.RegisterSuperAdminHandler(cfg))
	api.Post("/auth/login", auth.LoginHandler(cfg))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler())

	// Super admin: tenant lifecycle
	adminRoutes := protected.Group("/admin")
	adminRoutes.Use(auth.RequireRole(models.RoleSuperAdmin))

	adminRoutes.Post("/tenants", admin.CreateTenantHandler(manager))
	adminRoutes.Get("/tenants", admin.ListTenantsHandler(manager))
	adminRoutes.Get("/tenants/:id", admin.GetTenantHandler(manager))
	adminRoutes.Put("/tenants/:id/settings", admin.UpdateTenantSettingsHandler(manager))
	adminRoutes.Post("/tenants/:id/deactivate", admin.DeactivateTenantHandler(manager))
	adminRoutes.Delete("/tenants/:id", admin.DropTenantHandler(manager))
	adminRoutes.Post("/tenants/:id/users", admin.CreateTenantUserHandler(manager))
	adminRoutes.Get("/tenants/:id/users", admin.ListTenantUsersHandler())

	// Tenant-scoped routes
	scoped := protected.Group("")
	scoped.Use(tenant.Middleware(manager))
	managers := auth.RequireRole(models.RoleSuperAdmin, models.RoleTenantAdmin)

	scoped.Get("/settings", trading.SettingsHandler())

	// Farmers & buyers
	scoped.Get("/farmers", trading.ListFarmersHandler())
	scoped.Post("/farmers", trading.CreateFarmerHandler())
	scoped.Get("/farmers/:id", trading.GetFarmerHandler())
	scoped.Put("/farmers/:id", trading.UpdateFarmerHandler())

	scoped.Get("/buyers", trading.ListBuyersHandler())
	scoped.Post("/buyers", trading.CreateBuyerHandler())
	scoped.Get("/buyers/:id", trading.GetBuyerHandler())

	// Lots & bags
	scoped.Get("/lots", trading.ListLotsHandler(reports))
	scoped.Post("/lots", trading.CreateLotHandler())
	scoped.Get("/lots/:id", trading.GetLotHandler())
	scoped.Put("/lots/:id", trading.UpdateLotHandler())
	scoped.Post("/lots/:id/cancel", managers, trading.CancelLotHandler())
	scoped.Post("/lots/:id/complete", trading.CompleteLotHandler())
	scoped.Get("/lots/:id/amounts", trading.LotAmountsHandler(reports))
	scoped.Get("/lots/:id/bags", trading.ListBagsHandler())
	scoped.Post("/lots/:id/bags", trading.CreateBagHandler())
	scoped.Put("/bags/:id", trading.UpdateBagHandler())
	scoped.Delete("/bags/:id", managers, trading.DeleteBagHandler())

	// Dashboard
	scoped.Get("/dashboard/stats", dashboard.StatsHandler(reports))
	scoped.Get("/dashboard/trade-chart", dashboard.TradeChartHandler(reports))

	// Reports & bills
	scoped.Get("/reports/tax", report.TaxReportHandler(reports))
	scoped.Get("/reports/tax/export", report.TaxReportExportHandler(reports))
	scoped.Get("/reports/missing-bags", report.MissingBagsHandler(reports))
	scoped.Post("/bills/farmer-day", report.FarmerDayBillHandler(reports))

	// Audit log
	scoped.Get("/audit-logs", managers, audit.ListAuditLogsHandler())

	go func() {
		log.Info("server listening", zap.String("port", cfg.HTTPPort), zap.String("env", cfg.Env))
		if err := app.Listen(":" + cfg.HTTPPort); err != nil {
			log.Fatal("server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error("shutdown", zap.Error(err))
	}
	if sqlDB, err := database.DB.DB(); err == nil {
		sqlDB.Close()
	}
}

func healthHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		sqlDB, err := database.DB.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	}
}
