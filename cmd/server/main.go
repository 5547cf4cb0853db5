package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"alcyxob/gym-app/internal/api"
	"alcyxob/gym-app/internal/config"
	"alcyxob/gym-app/internal/events"
	"alcyxob/gym-app/internal/logging"
	"alcyxob/gym-app/internal/mailer"
	"alcyxob/gym-app/internal/payment"
	"alcyxob/gym-app/internal/repository/mongo"
	"alcyxob/gym-app/internal/service"
	"alcyxob/gym-app/internal/storage"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// @title Gym Membership API
// @version 1.0
// @description Membership applications, coach bookings and training progress.
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Session cookie, or "Bearer" followed by a space and the JWT.
func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("FATAL: Could not build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("Starting Gym App Server...", zap.String("env", cfg.Env))

	if cfg.JWT.Secret == "" {
		logger.Fatal("JWT_SECRET must be set")
	}

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		logger.Fatal("Could not connect to MongoDB", zap.Error(err))
	}
	defer func() {
		logger.Info("Disconnecting MongoDB...")
		if err := mongo.DisconnectDB(dbClient); err != nil {
			logger.Error("Failed to disconnect MongoDB", zap.Error(err))
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	logger.Info("Database connection established", zap.String("database", cfg.Database.Name))

	// --- Ensure Indexes ---
	// The unique indexes enforce booking and application invariants, so
	// the server does not start without them.
	indexCtx, cancelIndex := context.WithTimeout(context.Background(), time.Minute)
	if err := mongo.EnsureIndexes(indexCtx, appDB, logger); err != nil {
		cancelIndex()
		logger.Fatal("Could not ensure indexes", zap.Error(err))
	}
	cancelIndex()

	// --- Collaborators ---
	fileStorage := storage.NewDisabledStorage()
	if cfg.S3.Enabled() {
		fileStorage, err = storage.NewS3Storage(context.Background(), cfg.S3, logger)
		if err != nil {
			logger.Fatal("Failed to initialize S3 storage", zap.Error(err))
		}
	} else {
		logger.Warn("S3 not configured, uploads are disabled")
	}

	var mail mailer.Mailer = mailer.NewDisabled()
	if cfg.Mail.Enabled() {
		mail = mailer.NewResendMailer(cfg.Mail.APIKey, cfg.Mail.From, logger)
	} else {
		logger.Warn("Mail not configured, OTP and contact delivery are disabled")
	}

	var publisher events.Publisher = events.NewLogPublisher(logger)
	if cfg.NATS.URL != "" {
		natsPublisher, err := events.NewNatsPublisher(cfg.NATS.URL, logger)
		if err != nil {
			logger.Fatal("Failed to connect to NATS", zap.Error(err))
		}
		defer natsPublisher.Close()
		publisher = natsPublisher
	}
	payments := payment.NewEventGateway(publisher)

	// --- Initialize Repositories ---
	userRepo := mongo.NewMongoUserRepository(appDB)
	appRepo := mongo.NewMongoApplicationRepository(appDB)
	coachRepo := mongo.NewMongoCoachRepository(appDB)
	packageRepo := mongo.NewMongoPackageRepository(appDB)
	sessionRepo := mongo.NewMongoTrainingSessionRepository(appDB)
	bookingRepo := mongo.NewMongoBookingRepository(appDB)
	holdRepo := mongo.NewMongoSlotHoldRepository(appDB)
	otpRepo := mongo.NewMongoOTPRepository(appDB)

	// --- Initialize Services ---
	authService := service.NewAuthService(userRepo, otpRepo, mail, cfg.JWT, cfg.OTP, logger)
	services := api.Services{
		Auth:         authService,
		Applications: service.NewApplicationService(appRepo, coachRepo, packageRepo, sessionRepo, bookingRepo, payments, publisher, logger),
		Bookings:     service.NewBookingService(bookingRepo, holdRepo, appRepo, coachRepo, publisher, cfg.Booking.HoldTTL, logger),
		Training:     service.NewTrainingService(sessionRepo, appRepo, logger),
		Catalog:      service.NewCatalogService(coachRepo, packageRepo, appRepo, userRepo, fileStorage, logger),
		Uploads:      service.NewUploadService(fileStorage, cfg.S3.MaxUploadBytes, logger),
		Stats:        service.NewStatsService(appRepo, userRepo, coachRepo, packageRepo, bookingRepo),
		Contact:      service.NewContactService(mail, cfg.Mail.ContactInbox, logger),
		Ping: func(ctx context.Context) error {
			return dbClient.Ping(ctx, readpref.Primary())
		},
	}

	seedCtx, cancelSeed := context.WithTimeout(context.Background(), 10*time.Second)
	if err := authService.EnsureAdmin(seedCtx, cfg.Admin); err != nil {
		logger.Error("Failed to seed admin account", zap.Error(err))
	}
	cancelSeed()

	// --- Initialize Gin Engine ---
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := api.RegisterValidators(); err != nil {
		logger.Fatal("Failed to register validators", zap.Error(err))
	}
	router := gin.New()
	router.Use(
		gin.Recovery(),
		api.RequestLogger(logger),
		api.PrometheusMiddleware(),
		api.CORSMiddleware(cfg.Server.AllowedOrigin),
	)
	api.SetupRoutes(router, services, cfg.Server.SecureCookies)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("Server starting", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("ListenAndServe Error", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exiting.")
}
