package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"diwan-api/config"
	"diwan-api/controllers"
	"diwan-api/middleware"
	"diwan-api/monitor"
	"diwan-api/routes"
	"diwan-api/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const shutdownTimeout = 15 * time.Second

func main() {
	settings, err := config.Load()
	if err != nil {
		bootLogger := zerolog.New(os.Stderr)
		bootLogger.Fatal().Err(err).Msg("failed to load settings")
	}

	logFile, logger := config.InitLogging(settings)
	if logFile != nil {
		defer logFile.Close()
	}
	if err := settings.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	startedAt := time.Now()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := config.SetupTracing(ctx, settings)
	if err != nil {
		logger.Warn().Err(err).Msg("tracing disabled: exporter setup failed")
	}

	db, err := config.OpenDB(settings)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to obtain database handle")
	}
	logger.Info().Str("host", settings.DBHost).Str("database", settings.DBDatabase).Msg("database connected")

	submissionRepo := services.NewSubmissionRepository(db)
	userRepo := services.NewUserRepository(db)
	categoryRepo := services.NewCategoryRepository(db)
	notificationRepo := services.NewNotificationRepository(db)

	notifiers := services.MultiNotifier{services.NewInboxNotifier(notificationRepo)}
	if mailer := config.NewMailer(settings); mailer.Configured() {
		notifiers = append(notifiers, services.NewEmailNotifier(mailer, settings.FrontendURL))
	} else {
		logger.Warn().Msg("SMTP not configured; workflow email notifications disabled")
	}
	dispatcher := services.NewDispatcher(userRepo, notifiers, logger)

	views := services.NewViewCounter(submissionRepo, settings.ViewWriteAttempts, settings.ViewRetryBackoff, logger)

	workflow := services.WorkflowOptions{
		Rules:            services.WorkflowRules{AllowResubmission: settings.AllowResubmission},
		CommentMaxLength: settings.CommentMaxLength,
		Dispatcher:       dispatcher,
		Logger:           logger.With().Str("component", "workflow").Logger(),
	}
	submissionService := services.NewSubmissionService(submissionRepo, views, workflow)
	reviewService := services.NewReviewService(submissionRepo, workflow)
	userService := services.NewUserService(userRepo, services.NewTokenIssuer(settings.JWTSecret, settings.JWTExpireHours), logger)

	// Set Gin mode
	if settings.GinMode == gin.ReleaseMode || settings.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.AccessLog(logger))
	router.Use(gin.Recovery())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CORSMiddleware(settings.AllowedOrigins))

	routes.SetupRoutes(router, routes.Handlers{
		Auth:          controllers.NewAuthController(userService),
		Submissions:   controllers.NewSubmissionController(submissionService),
		Reviews:       controllers.NewReviewController(reviewService, submissionService),
		Categories:    controllers.NewCategoryController(services.NewCategoryService(categoryRepo, logger)),
		Notifications: controllers.NewNotificationController(services.NewNotificationService(notificationRepo)),
		Authenticator: userService,
		Health:        monitor.Health(sqlDB, startedAt),
		Logs:          monitor.LogTail(settings.LogFile),
	})

	server := &http.Server{
		Addr:              ":" + settings.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().
			Str("port", settings.ServerPort).
			Str("environment", settings.Environment).
			Bool("resubmission", settings.AllowResubmission).
			Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http server shutdown")
	}
	dispatcher.Wait()
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("tracer shutdown")
	}
}
