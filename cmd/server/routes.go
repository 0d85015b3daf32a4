package main

import (
	"github.com/gin-gonic/gin"
	"github.com/sonorastudio/backend/internal/handlers"
	"github.com/sonorastudio/backend/internal/middleware"
	"github.com/sonorastudio/backend/internal/models"
	"github.com/sonorastudio/backend/pkg/logger"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, svc *appServices) {
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS())

	// Rate limiter for the unauthenticated surfaces
	publicLimiter := middleware.NewRateLimiter(10, 20)

	healthHandler := handlers.NewHealthHandler()
	r.GET("/health", healthHandler.CheckHealth)

	// Client preview surface: the link token is the only credential
	reviewHandler := handlers.NewReviewHandler(svc.workflow)
	preview := r.Group("/p", publicLimiter.Middleware())
	{
		preview.GET("/:token", reviewHandler.GetPreview)
		preview.POST("/:token/feedback", reviewHandler.SubmitFeedback)
		preview.POST("/:token/approve", reviewHandler.Approve)
	}

	projectHandler := handlers.NewProjectHandler(models.GetDB(), svc.workflow, svc.cache, svc.cfg)
	versionHandler := handlers.NewVersionHandler(svc.workflow)
	portfolioHandler := handlers.NewPortfolioHandler(models.GetDB())
	invoiceHandler := handlers.NewInvoiceHandler(models.GetDB(), svc.cfg)
	channelHandler := handlers.NewChannelHandler(models.GetDB())
	auditLogHandler := handlers.NewAuditLogHandler(models.GetDB())

	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/login", svc.authHandler.Login)
			auth.POST("/refresh", svc.authHandler.Refresh)
			auth.GET("/config", svc.authHandler.GetAuthConfig)
		}

		// Public showcase for the marketing site
		api.GET("/portfolio", portfolioHandler.ListPublished)

		// Payment gateway webhook (signature verified, rate limited)
		api.POST("/payments/webhook", publicLimiter.Middleware(), invoiceHandler.HandlePaymentWebhook)

		// Staff routes
		protected := api.Group("")
		protected.Use(middleware.AuthRequired(), middleware.AuditLog())
		{
			protected.GET("/auth/me", svc.authHandler.GetCurrentUser)
			protected.POST("/auth/logout", svc.authHandler.Logout)
			protected.POST("/auth/change-password", svc.authHandler.ChangePassword)

			// Projects
			protected.GET("/projects", projectHandler.List)
			protected.GET("/projects/stats", projectHandler.Stats)
			protected.GET("/projects/:id", projectHandler.GetByID)
			protected.POST("/projects", projectHandler.Create)
			protected.GET("/projects/:id/link", projectHandler.PreviewLink)
			protected.POST("/projects/:id/extend", projectHandler.ExtendDeadline)

			// Versions
			protected.POST("/projects/:id/versions", versionHandler.Add)
			protected.POST("/projects/:id/versions/batch", versionHandler.AddBatch)
			protected.DELETE("/projects/:id/versions/:versionId", versionHandler.Delete)

			// Invoices
			protected.POST("/invoices", invoiceHandler.Create)
			protected.POST("/invoices/:id/cancel", invoiceHandler.Cancel)
			protected.GET("/projects/:id/invoices", invoiceHandler.ListByProject)
		}

		// Admin only routes
		admin := api.Group("")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired(), middleware.AuditLog())
		{
			admin.DELETE("/projects/:id", projectHandler.Delete)

			// Portfolio management
			admin.GET("/admin/portfolio", portfolioHandler.ListAll)
			admin.POST("/admin/portfolio", portfolioHandler.Create)
			admin.PUT("/admin/portfolio/:id", portfolioHandler.Update)
			admin.DELETE("/admin/portfolio/:id", portfolioHandler.Delete)

			// Notification channels
			admin.GET("/channels", channelHandler.List)
			admin.POST("/channels", channelHandler.Create)
			admin.PUT("/channels/:id", channelHandler.Update)
			admin.DELETE("/channels/:id", channelHandler.Delete)

			// Audit trail
			admin.GET("/logs", auditLogHandler.List)
			admin.GET("/logs/modules", auditLogHandler.GetModules)
			admin.GET("/logs/retention", auditLogHandler.GetRetention)
			admin.PUT("/logs/retention", auditLogHandler.SetRetention)
		}
	}
}
