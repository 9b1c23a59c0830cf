package main

import (
	"github.com/bkadkota/simpa-bend/backend/internal/middleware"
	"github.com/bkadkota/simpa-bend/backend/internal/models"
	"github.com/bkadkota/simpa-bend/backend/pkg/logger"
	"github.com/gin-gonic/gin"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, svc *appServices) {
	// Middleware
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS())

	// Tight limits on credential endpoints
	loginLimiter := middleware.NewRateLimiter(1, 5)
	otpLimiter := middleware.NewRateLimiter(0.2, 3)

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "service": "simpa-bend"})
	})

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/login", loginLimiter.Middleware(), svc.authHandler.Login)
			auth.POST("/refresh", svc.authHandler.Refresh)
			auth.GET("/config", svc.authHandler.GetAuthConfig)
		}

		// Protected routes
		protected := api.Group("")
		protected.Use(middleware.AuthRequired(), middleware.AuditLog())
		{
			// Auth
			protected.GET("/auth/me", svc.authHandler.GetCurrentUser)
			protected.POST("/auth/logout", svc.authHandler.Logout)
			protected.POST("/auth/change-password", svc.authHandler.ChangePassword)

			// Dashboard (all users)
			protected.GET("/dashboard/stats", svc.dashboardHandler.GetStats)

			// Emergency mode status (all users; toggling is admin-only below)
			protected.GET("/emergency", svc.emergencyHandler.Status)

			// SPM lifecycle. Stage authorization is enforced in the
			// workflow service against the database role.
			protected.GET("/spm", svc.spmHandler.List)
			protected.GET("/spm/:id", svc.spmHandler.Get)
			protected.POST("/spm", svc.spmHandler.Create)
			protected.PUT("/spm/:id", svc.spmHandler.Update)
			protected.POST("/spm/:id/submit", svc.spmHandler.Submit)
			protected.POST("/spm/:id/advance", svc.spmHandler.Advance)
			protected.POST("/spm/:id/request-otp", otpLimiter.Middleware(), svc.spmHandler.RequestOTP)
			protected.POST("/spm/:id/approve", svc.spmHandler.Approve)
			protected.POST("/spm/:id/request-revision", svc.spmHandler.RequestRevision)
			protected.POST("/spm/:id/reject", svc.spmHandler.Reject)
			protected.POST("/spm/:id/resubmit", svc.spmHandler.Resubmit)

			// SP2D lifecycle
			sp2d := protected.Group("/sp2d", middleware.RoleRequired(
				models.RolePerbendaharaan, models.RoleKepalaBKAD, models.RoleAkuntansi))
			{
				sp2d.GET("", svc.sp2dHandler.List)
				sp2d.GET("/:id", svc.sp2dHandler.Get)
				sp2d.POST("", svc.sp2dHandler.Issue)
				sp2d.POST("/:id/request-otp", otpLimiter.Middleware(), svc.sp2dHandler.RequestOTP)
				sp2d.POST("/:id/verify", svc.sp2dHandler.Verify)
				sp2d.POST("/:id/advance", svc.sp2dHandler.Advance)
			}

			// Notifications (own inbox)
			protected.GET("/notifications", svc.notificationHandler.List)
			protected.POST("/notifications/:id/read", svc.notificationHandler.MarkRead)
			protected.POST("/notifications/read-all", svc.notificationHandler.MarkAllRead)

			// Master data reads (all users)
			protected.GET("/opds", svc.opdHandler.List)
			protected.GET("/opds/:id", svc.opdHandler.Get)
		}

		// Admin only routes
		admin := api.Group("")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired(), middleware.AuditLog())
		{
			// Emergency mode
			admin.POST("/emergency/toggle", svc.emergencyHandler.Toggle)

			// Users
			admin.GET("/users", svc.userHandler.List)
			admin.GET("/users/:id", svc.userHandler.Get)
			admin.POST("/users", svc.userHandler.Create)
			admin.PUT("/users/:id", svc.userHandler.Update)
			admin.POST("/users/:id/reset-password", svc.userHandler.ResetPassword)
			admin.DELETE("/users/:id", svc.userHandler.Delete)

			// OPD master data (writes)
			admin.POST("/opds", svc.opdHandler.Create)
			admin.PUT("/opds/:id", svc.opdHandler.Update)
			admin.DELETE("/opds/:id", svc.opdHandler.Delete)

			// Archives
			admin.GET("/archives", svc.archiveHandler.List)
			admin.POST("/archives/run", svc.archiveHandler.Run)

			// System configuration groups
			admin.GET("/system-configs/general", svc.systemConfigHandler.GetGeneral)
			admin.PUT("/system-configs/general", svc.systemConfigHandler.UpdateGeneral)
			admin.GET("/system-configs/email", svc.systemConfigHandler.GetEmail)
			admin.PUT("/system-configs/email", svc.systemConfigHandler.UpdateEmail)
			admin.GET("/system-configs/whatsapp", svc.systemConfigHandler.GetWhatsApp)
			admin.PUT("/system-configs/whatsapp", svc.systemConfigHandler.UpdateWhatsApp)
			admin.GET("/system-configs/ldap", svc.systemConfigHandler.GetLDAP)
			admin.PUT("/system-configs/ldap", svc.systemConfigHandler.UpdateLDAP)

			// Delivery probes
			admin.POST("/notifications/test-email", svc.notificationHandler.TestEmail)
			admin.POST("/notifications/test-whatsapp", svc.notificationHandler.TestWhatsApp)

			// System logs
			admin.GET("/system-logs", svc.systemLogHandler.List)
			admin.GET("/system-logs/modules", svc.systemLogHandler.GetModules)
			admin.GET("/system-logs/retention", svc.systemLogHandler.GetRetentionDays)
			admin.PUT("/system-logs/retention", svc.systemLogHandler.SetRetentionDays)
			admin.POST("/system-logs/cleanup", svc.systemLogHandler.Cleanup)
		}
	}
}
