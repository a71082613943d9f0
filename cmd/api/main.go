package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"github.com/finchsocial/finch/internal/auth"
	"github.com/finchsocial/finch/internal/background"
	"github.com/finchsocial/finch/internal/config"
	"github.com/finchsocial/finch/internal/database"
	"github.com/finchsocial/finch/internal/fingerprint"
	"github.com/finchsocial/finch/internal/handlers"
	middlewareCustom "github.com/finchsocial/finch/internal/middleware"
	"github.com/finchsocial/finch/internal/policy"
	"github.com/finchsocial/finch/internal/repositories"
	"github.com/finchsocial/finch/internal/routes"
	"github.com/finchsocial/finch/internal/services"
	pkglogger "github.com/finchsocial/finch/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	// Run migrations before opening the pool
	if err := database.Migrate(&cfg.Database, logger); err != nil {
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	// Initialize database
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	historyRepo := repositories.NewLoginHistoryRepository(db)
	sessionRepo := repositories.NewSessionRepository(db)
	trustedRepo := repositories.NewTrustedDeviceRepository(db)
	subscriptionRepo := repositories.NewSubscriptionRepository(db)
	paymentRepo := repositories.NewPaymentRepository(db)
	otpRepo := repositories.NewOTPRepository(db)
	resetRepo := repositories.NewPasswordResetRepository(db)
	tweetRepo := repositories.NewTweetRepository(db)
	followRepo := repositories.NewFollowRepository(db)

	// Initialize cleanup manager
	cleanupManager := background.NewCleanupManager(
		userRepo, otpRepo, resetRepo, subscriptionRepo, trustedRepo,
		logger, cfg.Auth.CleanupInterval,
	)

	// Token manager and audit log
	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiry)
	auditLogger := pkglogger.NewAuditLogger(logger)

	// Policy windows, evaluated in the configured timezone
	loc := cfg.Windows.Location()
	evaluator := policy.NewEvaluator(loc)
	paymentWindow := policy.NewWindow(cfg.Windows.PaymentHour, cfg.Windows.PaymentHour+1, loc)
	uploadWindow := policy.NewWindow(cfg.Windows.AudioUploadStart, cfg.Windows.AudioUploadEnd, loc)

	// GeoIP resolver; lookups degrade to Unknown without a database file
	geo, err := fingerprint.NewGeoResolver(cfg.Geo.MMDBPath, logger)
	if err != nil {
		logger.Error("failed to initialize geoip resolver", slog.Any("error", err))
		os.Exit(1)
	}

	// AWS SES email service
	emailService, err := services.NewAWSSESEmailService(cfg.Email.AWSRegion, cfg.Email.FromAddress, logger)
	if err != nil {
		logger.Error("failed to initialize email service", slog.Any("error", err))
		os.Exit(1)
	}

	// Twilio SMS service
	smsService := services.NewTwilioSMSService(
		cfg.SMS.TwilioAccountSID, cfg.SMS.TwilioAuthToken, cfg.SMS.FromNumber, logger)

	// S3 media storage
	storageService, err := services.NewS3StorageService(cfg.Storage.AWSRegion, cfg.Storage.Bucket, logger)
	if err != nil {
		logger.Error("failed to initialize storage service", slog.Any("error", err))
		os.Exit(1)
	}

	// Razorpay order gateway
	gateway := services.NewRazorpayGateway(cfg.Payment.RazorpayKeyID, cfg.Payment.RazorpayKeySecret)

	// Initialize services
	authService := services.NewAuthService(
		userRepo, historyRepo, sessionRepo, trustedRepo,
		evaluator, geo, emailService, tokenManager,
		cfg.Auth.OTPExpiry, logger, auditLogger,
	)
	userService := services.NewUserService(userRepo, followRepo, logger)
	subscriptionService := services.NewSubscriptionService(subscriptionRepo, logger)
	paymentService := services.NewPaymentService(
		paymentRepo, subscriptionService, userRepo, emailService, gateway,
		paymentWindow, cfg.Payment.RazorpayKeyID, cfg.Payment.RazorpayKeySecret,
		cfg.Payment.Currency, cfg.Payment.ValidityDays, logger,
	)
	languageService := services.NewLanguageService(userRepo, emailService, smsService, cfg.Auth.OTPExpiry, logger)
	resetService := services.NewPasswordResetService(
		userRepo, resetRepo, emailService,
		cfg.Auth.ResetExpiry, cfg.Email.ResetURLBase, loc, logger, auditLogger,
	)
	otpService := services.NewOTPService(otpRepo, userRepo, emailService, cfg.Auth.OTPExpiry, logger)
	tweetService := services.NewTweetService(tweetRepo, subscriptionService, logger)
	uploadService := services.NewUploadService(storageService, otpService, uploadWindow, logger)

	// Initialize handlers
	h := routes.Handlers{
		Auth:          handlers.NewAuthHandler(authService, nil),
		Users:         handlers.NewUserHandler(userService, tweetService),
		Tweets:        handlers.NewTweetHandler(tweetService),
		Subscriptions: handlers.NewSubscriptionHandler(subscriptionService, paymentService),
		Language:      handlers.NewLanguageHandler(languageService, authService),
		PasswordReset: handlers.NewPasswordResetHandler(resetService),
		OTP:           handlers.NewOTPHandler(otpService),
		Uploads:       handlers.NewUploadHandler(uploadService),
	}

	// Setup CORS middleware
	corsConfig := middlewareCustom.DefaultCORSConfig(cfg.Server.AllowedOrigins)

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(corsConfig))
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(middlewareCustom.Metrics)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	// Register routes
	routes.RegisterRoutes(router, h, tokenManager)

	// Health check with database
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.HealthCheck(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unhealthy","database":"down"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","database":"up"}`))
	})

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start cleanup task
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()

	go cleanupManager.Start(cleanupCtx)

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	cleanupCancel()
	cleanupManager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
	}

	geo.Close()
	logger.Info("server stopped")
}
