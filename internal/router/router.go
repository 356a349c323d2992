// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/alucqrd/license-for-all-smart-contract/internal/config"
	"github.com/alucqrd/license-for-all-smart-contract/internal/handlers"
	"github.com/alucqrd/license-for-all-smart-contract/internal/middleware"
	"github.com/alucqrd/license-for-all-smart-contract/internal/services"
	"github.com/alucqrd/license-for-all-smart-contract/internal/utils"
)

func Initialize(db *gorm.DB, cfg *config.Config) (*gin.Engine, error) {
	// Set JWT secret before any token is issued or checked
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize services. The bank settles payments, so it must exist
	// before the registry that calls into it.
	notificationService := services.NewNotificationService(db, cfg)
	bankService := services.NewBankService(db, cfg)
	registryService, err := services.NewRegistryService(db, cfg, bankService, notificationService)
	if err != nil {
		return nil, err
	}
	authService := services.NewAuthService(db, cfg)
	adminService := services.NewAdminService(db, registryService)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	licenseTypeHandler := handlers.NewLicenseTypeHandler(registryService)
	licenseHandler := handlers.NewLicenseHandler(registryService)
	adminHandler := handlers.NewAdminHandler(registryService, adminService)
	bankHandler := handlers.NewBankHandler(bankService)
	eventHandler := handlers.NewEventHandler(registryService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.GeneralRateLimit())
	r.Use(middleware.AuditLogMiddleware(db))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Authentication routes
		auth := v1.Group("/auth")
		auth.Use(middleware.AuthRateLimit())
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
			auth.GET("/me", middleware.AuthRequired(), authHandler.GetProfile)
		}

		// License type catalog
		licenseTypes := v1.Group("/license-types")
		{
			licenseTypes.GET("/count", licenseTypeHandler.Count)
			licenseTypes.GET("/:id", licenseTypeHandler.Get)
			licenseTypes.POST("", middleware.AuthRequired(), middleware.AdminRequired(), licenseTypeHandler.Create)
		}

		// Licenses: public reads, authenticated trades
		licenses := v1.Group("/licenses")
		{
			licenses.GET("/count", licenseHandler.Count)
			licenses.GET("/:id", licenseHandler.Get)
			licenses.GET("/:id/owner", licenseHandler.Owner)
			licenses.GET("/:id/approval", licenseHandler.PendingApproval)

			protected := licenses.Group("")
			protected.Use(middleware.AuthRequired())
			{
				protected.POST("", licenseHandler.Create)
				protected.POST("/:id/approval", middleware.TradeRateLimit(), licenseHandler.Approve)
				protected.POST("/:id/transfer", middleware.TradeRateLimit(), licenseHandler.Transfer)
				protected.POST("/:id/purchase", middleware.TradeRateLimit(), licenseHandler.Purchase)
			}
		}

		// Ownership reads
		v1.GET("/owners/:address/balance", licenseHandler.BalanceOf)

		// Event journal readback
		v1.GET("/events", eventHandler.List)

		// Bank routes
		bank := v1.Group("/bank")
		bank.Use(middleware.AuthRequired())
		{
			bank.GET("/balance", bankHandler.Balance)
			bank.GET("/deposits", bankHandler.GetDeposits)
			bank.POST("/deposits", middleware.DepositRateLimit(), bankHandler.CreateDeposit)
			bank.POST("/deposits/confirm", middleware.DepositRateLimit(), bankHandler.ConfirmDeposit)
		}

		// Notification routes
		notifications := v1.Group("/notifications")
		notifications.Use(middleware.AuthRequired())
		{
			notifications.GET("", notificationHandler.List)
			notifications.PATCH("/:id/read", notificationHandler.MarkRead)
			notifications.POST("/read-all", notificationHandler.MarkAllRead)
		}

		// Admin routes. The role gate short-circuits obvious misuse; the
		// registry core still checks the caller address itself.
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
		{
			admin.GET("/status", adminHandler.Status)
			admin.GET("/dashboard", adminHandler.Dashboard)
			admin.POST("/pause", adminHandler.Pause)
			admin.POST("/unpause", adminHandler.Unpause)
			admin.POST("/upgrade", adminHandler.Upgrade)
			admin.POST("/transfer-admin", adminHandler.TransferAdmin)
			admin.GET("/participants", adminHandler.GetParticipants)
			admin.PATCH("/participants/:id/status", adminHandler.UpdateParticipantStatus)
			admin.GET("/audit-logs", adminHandler.GetAuditLogs)
		}
	}

	return r, nil
}
