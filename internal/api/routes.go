package api

import (
	"context"
	"net/http"
	"time"

	"alcyxob/gym-app/internal/domain"
	"alcyxob/gym-app/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Services bundles what the handlers depend on.
type Services struct {
	Auth         service.AuthService
	Applications service.ApplicationService
	Bookings     service.BookingService
	Training     service.TrainingService
	Catalog      service.CatalogService
	Uploads      service.UploadService
	Stats        service.StatsService
	Contact      service.ContactService

	// Ping reports database health for /api/health; nil means always up.
	Ping func(ctx context.Context) error
}

func SetupRoutes(router *gin.Engine, svc Services, secureCookies bool) {
	authHandler := NewAuthHandler(svc.Auth, secureCookies)
	applicationHandler := NewApplicationHandler(svc.Applications)
	bookingHandler := NewBookingHandler(svc.Bookings)
	trainingHandler := NewTrainingHandler(svc.Training)
	catalogHandler := NewCatalogHandler(svc.Catalog)
	uploadHandler := NewUploadHandler(svc.Uploads)
	adminHandler := NewAdminHandler(svc.Stats)
	contactHandler := NewContactHandler(svc.Contact)

	authMiddleware := AuthMiddleware(svc.Auth)
	optionalAuth := OptionalAuthMiddleware(svc.Auth)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")

	// --- Public ---
	api.GET("/health", healthHandler(svc.Ping))
	api.GET("/coaches", optionalAuth, catalogHandler.ListCoaches)
	api.GET("/coaches/:id", catalogHandler.GetCoach)
	api.GET("/packages", catalogHandler.ListPackages)
	api.GET("/packages/:id", catalogHandler.GetPackage)
	api.POST("/contact", contactHandler.SubmitContact)
	api.GET("/bookings/availability", optionalAuth, bookingHandler.GetAvailability)

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/signup/request-otp", authHandler.RequestSignupOTP)
		authGroup.POST("/signup/verify", authHandler.VerifySignupOTP)
		authGroup.POST("/forgot-password/request-otp", authHandler.RequestPasswordReset)
		authGroup.POST("/forgot-password/reset", authHandler.ResetPassword)
		authGroup.POST("/logout", authHandler.Logout)
		authGroup.GET("/session", authMiddleware, authHandler.Session)
	}

	protected := api.Group("")
	protected.Use(authMiddleware)
	{
		// --- Member ---
		member := RoleMiddleware(domain.RoleMember)
		protected.POST("/applications", member, applicationHandler.SubmitApplication)
		protected.GET("/applications/me", member, applicationHandler.GetMyApplication)
		protected.POST("/applications/:id/cancel", member, applicationHandler.CancelApplication)
		protected.POST("/bookings/holds", member, bookingHandler.HoldSlot)
		protected.POST("/bookings", member, bookingHandler.CreateBooking)
		protected.GET("/bookings/me", member, bookingHandler.ListMyBookings)

		// Shared; the services check ownership.
		protected.GET("/applications/:id", applicationHandler.GetApplication)
		protected.GET("/applications/:id/sessions", trainingHandler.GetHistory)
		protected.GET("/applications/:id/progress", trainingHandler.GetProgress)
		protected.POST("/bookings/:id/cancel", bookingHandler.CancelBooking)
		protected.POST("/bookings/:id/complete", RoleMiddleware(domain.RoleCoach, domain.RoleAdmin), bookingHandler.CompleteBooking)
		protected.POST("/uploads/:kind", uploadHandler.UploadImage)
		protected.POST("/uploads/:kind/presign", uploadHandler.PresignUpload)

		// --- Coach ---
		coachGroup := protected.Group("/coach")
		coachGroup.Use(RoleMiddleware(domain.RoleCoach))
		{
			coachGroup.GET("/clients", applicationHandler.ListCoachClients)
			coachGroup.POST("/applications/:id/sessions", trainingHandler.LogSession)
			coachGroup.PUT("/sessions/:id", trainingHandler.UpdateSession)
			coachGroup.GET("/bookings", bookingHandler.ListCoachBookings)
		}

		// --- Admin ---
		adminGroup := protected.Group("/admin")
		adminGroup.Use(RoleMiddleware(domain.RoleAdmin))
		{
			adminGroup.GET("/applications", applicationHandler.ListApplications)
			adminGroup.POST("/applications/:id/approve", applicationHandler.ApproveApplication)
			adminGroup.POST("/applications/:id/decline", applicationHandler.DeclineApplication)
			adminGroup.POST("/applications/:id/archive", applicationHandler.ArchiveApplication)
			adminGroup.PATCH("/applications/:id/payment", applicationHandler.UpdatePaymentStatus)
			adminGroup.DELETE("/applications/archived/:id", applicationHandler.DeleteArchived)
			adminGroup.POST("/applications/archived/delete", applicationHandler.DeleteArchivedSelected)
			adminGroup.DELETE("/applications/archived", applicationHandler.DeleteAllArchived)

			adminGroup.POST("/coaches", catalogHandler.CreateCoach)
			adminGroup.PUT("/coaches/:id", catalogHandler.UpdateCoach)
			adminGroup.DELETE("/coaches/:id", catalogHandler.DeleteCoach)
			adminGroup.POST("/packages", catalogHandler.CreatePackage)
			adminGroup.PUT("/packages/:id", catalogHandler.UpdatePackage)
			adminGroup.DELETE("/packages/:id", catalogHandler.DeletePackage)

			adminGroup.GET("/users", authHandler.ListUsers)
			adminGroup.DELETE("/users/:id", authHandler.DeleteUser)
			adminGroup.GET("/stats", adminHandler.GetStats)
			adminGroup.GET("/revenue", adminHandler.GetRevenue)
		}
	}
}

func healthHandler(ping func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if ping != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
