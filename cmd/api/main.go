package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/summitcrm/pipeline-api/docs"
	"github.com/summitcrm/pipeline-api/internal/auth"
	"github.com/summitcrm/pipeline-api/internal/config"
	"github.com/summitcrm/pipeline-api/internal/conversion"
	"github.com/summitcrm/pipeline-api/internal/database"
	"github.com/summitcrm/pipeline-api/internal/http/handler"
	"github.com/summitcrm/pipeline-api/internal/http/middleware"
	"github.com/summitcrm/pipeline-api/internal/http/router"
	"github.com/summitcrm/pipeline-api/internal/jobs"
	"github.com/summitcrm/pipeline-api/internal/logger"
	"github.com/summitcrm/pipeline-api/internal/realtime"
	"github.com/summitcrm/pipeline-api/internal/repository"
	"github.com/summitcrm/pipeline-api/internal/service"
)

// @title Summit Pipeline API
// @version 1.0
// @description Sales pipeline API for prospect, account, and opportunity management

// @contact.name API Support
// @contact.email support@summitcrm.io

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name x-api-key
// @description API Key for system operations
// @Security BearerAuth
// @Security ApiKeyAuth

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewLogger(&cfg.Logging, &cfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Environment),
		zap.Int("port", cfg.App.Port),
	)

	docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%d", cfg.App.Port)

	db, err := database.NewDatabase(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Initialize repositories
	prospectRepo := repository.NewProspectRepository(db)
	accountRepo := repository.NewAccountRepository(db)
	opportunityRepo := repository.NewOpportunityRepository(db)
	stageHistoryRepo := repository.NewStageHistoryRepository(db)
	propertyRepo := repository.NewPropertyRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	userRepo := repository.NewUserRepository(db)

	// Realtime hub for the websocket notification stream
	hub := realtime.NewHub(&cfg.Realtime, log)

	// Initialize services
	notificationService := service.NewNotificationService(notificationRepo, hub, log)
	prospectService := service.NewProspectService(prospectRepo, activityRepo, userRepo, log)
	accountService := service.NewAccountService(accountRepo, opportunityRepo, propertyRepo, activityRepo, userRepo, log)
	opportunityService := service.NewOpportunityService(opportunityRepo, stageHistoryRepo, accountRepo, propertyRepo, activityRepo, userRepo, notificationService, log)
	propertyService := service.NewPropertyService(propertyRepo, accountRepo, opportunityRepo, log)
	taskService := service.NewTaskService(taskRepo, userRepo, notificationService, log)
	activityService := service.NewActivityService(activityRepo, prospectRepo, log)
	conversionStore := conversion.NewStore(conversion.DefaultSessionTTL)
	conversionService := service.NewConversionService(
		conversionStore, prospectRepo, accountRepo, opportunityRepo,
		stageHistoryRepo, propertyRepo, activityRepo, notificationService, log,
	)
	metricsService := service.NewMetricsService(opportunityRepo, prospectRepo, log)
	referenceService := service.NewReferenceService(accountRepo, propertyRepo, userRepo, log)
	exportService := service.NewExportService(prospectRepo, accountRepo, opportunityRepo, cfg.Export.MaxRows, log)
	userService := service.NewUserService(userRepo, log)

	// Initialize middleware
	authMiddleware := auth.NewMiddleware(cfg, log)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)

	// Initialize handlers
	prospectHandler := handler.NewProspectHandler(prospectService, log)
	accountHandler := handler.NewAccountHandler(accountService, propertyService, log)
	opportunityHandler := handler.NewOpportunityHandler(opportunityService, log)
	propertyHandler := handler.NewPropertyHandler(propertyService, log)
	taskHandler := handler.NewTaskHandler(taskService, log)
	activityHandler := handler.NewActivityHandler(activityService, log)
	notificationHandler := handler.NewNotificationHandler(notificationService, log)
	conversionHandler := handler.NewConversionHandler(conversionService, log)
	metricsHandler := handler.NewMetricsHandler(metricsService, log)
	referenceHandler := handler.NewReferenceHandler(referenceService, log)
	exportHandler := handler.NewExportHandler(exportService, log)
	userHandler := handler.NewUserHandler(userService, log)

	// Setup router
	rt := router.NewRouter(
		cfg,
		log,
		db,
		authMiddleware,
		rateLimiter,
		hub,
		prospectHandler,
		accountHandler,
		opportunityHandler,
		propertyHandler,
		taskHandler,
		activityHandler,
		notificationHandler,
		conversionHandler,
		metricsHandler,
		referenceHandler,
		exportHandler,
		userHandler,
	)

	// Background sweeps
	var scheduler *jobs.Scheduler
	if cfg.Jobs.Enabled {
		scheduler = jobs.NewScheduler(log)

		staleJob := jobs.NewStaleProspectJob(prospectRepo, notificationRepo, notificationService, cfg.Jobs.StaleProspectDays, log)
		if err := scheduler.AddJob("stale-prospects", cfg.Jobs.StaleProspectCron, func() {
			staleJob.Run(context.Background())
		}); err != nil {
			log.Error("Failed to register stale prospect job", zap.Error(err))
		}

		overdueJob := jobs.NewOverdueTaskJob(taskRepo, notificationRepo, notificationService, log)
		if err := scheduler.AddJob("overdue-tasks", cfg.Jobs.OverdueTaskCron, func() {
			overdueJob.Run(context.Background())
		}); err != nil {
			log.Error("Failed to register overdue task job", zap.Error(err))
		}

		if err := scheduler.AddJob("conversion-sessions", cfg.Jobs.ConversionSweepCron, func() {
			if removed := conversionStore.Sweep(); removed > 0 {
				log.Info("Swept expired conversion sessions", zap.Int("removed", removed))
			}
		}); err != nil {
			log.Error("Failed to register conversion sweep job", zap.Error(err))
		}

		scheduler.Start()
	} else {
		log.Info("Background jobs disabled")
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      rt.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	// Start server in goroutine
	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	// Wait for interrupt signal
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		if scheduler != nil {
			ctx := scheduler.Stop()
			<-ctx.Done()
			log.Info("Scheduler stopped")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		hub.Shutdown(ctx)

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}

		log.Info("Server stopped gracefully")
	}

	return nil
}
