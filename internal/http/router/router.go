package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/summitcrm/pipeline-api/internal/auth"
	"github.com/summitcrm/pipeline-api/internal/config"
	"github.com/summitcrm/pipeline-api/internal/database"
	"github.com/summitcrm/pipeline-api/internal/domain"
	"github.com/summitcrm/pipeline-api/internal/http/handler"
	"github.com/summitcrm/pipeline-api/internal/http/middleware"
	"github.com/summitcrm/pipeline-api/internal/realtime"

	_ "github.com/summitcrm/pipeline-api/docs" // Import generated swagger docs
)

type Router struct {
	cfg                 *config.Config
	logger              *zap.Logger
	db                  *gorm.DB
	authMiddleware      *auth.Middleware
	rateLimiter         *middleware.RateLimiter
	hub                 *realtime.Hub
	prospectHandler     *handler.ProspectHandler
	accountHandler      *handler.AccountHandler
	opportunityHandler  *handler.OpportunityHandler
	propertyHandler     *handler.PropertyHandler
	taskHandler         *handler.TaskHandler
	activityHandler     *handler.ActivityHandler
	notificationHandler *handler.NotificationHandler
	conversionHandler   *handler.ConversionHandler
	metricsHandler      *handler.MetricsHandler
	referenceHandler    *handler.ReferenceHandler
	exportHandler       *handler.ExportHandler
	userHandler         *handler.UserHandler
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	authMiddleware *auth.Middleware,
	rateLimiter *middleware.RateLimiter,
	hub *realtime.Hub,
	prospectHandler *handler.ProspectHandler,
	accountHandler *handler.AccountHandler,
	opportunityHandler *handler.OpportunityHandler,
	propertyHandler *handler.PropertyHandler,
	taskHandler *handler.TaskHandler,
	activityHandler *handler.ActivityHandler,
	notificationHandler *handler.NotificationHandler,
	conversionHandler *handler.ConversionHandler,
	metricsHandler *handler.MetricsHandler,
	referenceHandler *handler.ReferenceHandler,
	exportHandler *handler.ExportHandler,
	userHandler *handler.UserHandler,
) *Router {
	return &Router{
		cfg:                 cfg,
		logger:              logger,
		db:                  db,
		authMiddleware:      authMiddleware,
		rateLimiter:         rateLimiter,
		hub:                 hub,
		prospectHandler:     prospectHandler,
		accountHandler:      accountHandler,
		opportunityHandler:  opportunityHandler,
		propertyHandler:     propertyHandler,
		taskHandler:         taskHandler,
		activityHandler:     activityHandler,
		notificationHandler: notificationHandler,
		conversionHandler:   conversionHandler,
		metricsHandler:      metricsHandler,
		referenceHandler:    referenceHandler,
		exportHandler:       exportHandler,
		userHandler:         userHandler,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(rt.rateLimiter.LimitByIP) // Apply IP-based rate limiting globally

	// Health check (basic liveness probe)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Database health check (readiness probe with detailed stats)
	r.Get("/health/db", func(w http.ResponseWriter, r *http.Request) {
		stats, err := database.HealthCheckWithStats(rt.db)
		if err != nil {
			rt.logger.Error("Database health check failed", zap.Error(err))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status":  "unhealthy",
				"error":   err.Error(),
				"service": "database",
			})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  "healthy",
			"service": "database",
			"stats": map[string]interface{}{
				"max_open_connections": stats.MaxOpenConnections,
				"open_connections":     stats.OpenConnections,
				"in_use":               stats.InUse,
				"idle":                 stats.Idle,
				"wait_count":           stats.WaitCount,
				"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
			},
		})
	})

	// Combined readiness check
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		checks := make(map[string]interface{})
		allHealthy := true

		if err := database.HealthCheck(rt.db); err != nil {
			rt.logger.Error("Database health check failed", zap.Error(err))
			checks["database"] = map[string]interface{}{
				"status": "unhealthy",
				"error":  err.Error(),
			}
			allHealthy = false
		} else {
			checks["database"] = map[string]interface{}{
				"status": "healthy",
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if allHealthy {
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status": "healthy",
				"checks": checks,
			})
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status": "unhealthy",
				"checks": checks,
			})
		}
	})

	// Swagger documentation
	if rt.cfg.Server.EnableSwagger {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(rt.authMiddleware.Authenticate)

			// Users
			r.Get("/users/me", rt.userHandler.GetMe)
			r.Get("/users", rt.userHandler.List)
			r.Get("/users/{id}", rt.userHandler.GetByID)
			r.With(rt.authMiddleware.RequirePermission(domain.PermissionUsersManageRoles)).
				Put("/users/{id}/roles", rt.userHandler.UpdateRoles)

			// Prospects
			r.Route("/prospects", func(r chi.Router) {
				r.Get("/", rt.prospectHandler.List)
				r.Get("/search", rt.prospectHandler.Search)
				r.With(rt.authMiddleware.RequirePermission(domain.PermissionProspectsWrite)).Group(func(r chi.Router) {
					r.Post("/", rt.prospectHandler.Create)
					r.Patch("/{id}", rt.prospectHandler.Update)
					r.Put("/{id}/status", rt.prospectHandler.UpdateStatus)
					r.Post("/bulk/status", rt.prospectHandler.BulkUpdateStatus)
					r.Post("/bulk/assign", rt.prospectHandler.BulkAssign)
				})
				r.With(rt.authMiddleware.RequirePermission(domain.PermissionProspectsDelete)).
					Delete("/{id}", rt.prospectHandler.Delete)
				r.Get("/{id}", rt.prospectHandler.GetByID)

				// Conversion wizard
				r.With(rt.authMiddleware.RequirePermission(domain.PermissionProspectsConvert)).Group(func(r chi.Router) {
					r.Post("/{id}/conversion", rt.conversionHandler.Start)
					r.Get("/{id}/conversion", rt.conversionHandler.GetState)
					r.Delete("/{id}/conversion", rt.conversionHandler.Cancel)
					r.Post("/{id}/conversion/form", rt.conversionHandler.SubmitForm)
					r.Post("/{id}/conversion/duplicate", rt.conversionHandler.ChooseDuplicate)
					r.Post("/{id}/conversion/back", rt.conversionHandler.Back)
					r.Post("/{id}/conversion/confirm", rt.conversionHandler.Confirm)
					r.Post("/{id}/convert", rt.conversionHandler.Convert)
				})
			})

			// Accounts
			r.Route("/accounts", func(r chi.Router) {
				r.Get("/", rt.accountHandler.List)
				r.Get("/search", rt.accountHandler.Search)
				r.Post("/find-duplicates", rt.accountHandler.FindDuplicates)
				r.Get("/{id}", rt.accountHandler.GetByID)
				r.Get("/{id}/properties", rt.accountHandler.GetProperties)
				r.With(rt.authMiddleware.RequirePermission(domain.PermissionAccountsWrite)).Group(func(r chi.Router) {
					r.Post("/", rt.accountHandler.Create)
					r.Patch("/{id}", rt.accountHandler.Update)
					r.Post("/{id}/assignments", rt.accountHandler.AddAssignment)
					r.Delete("/{id}/assignments/{userId}", rt.accountHandler.RemoveAssignment)
				})
				r.With(rt.authMiddleware.RequirePermission(domain.PermissionAccountsDelete)).
					Delete("/{id}", rt.accountHandler.Delete)
			})

			// Opportunities
			r.Route("/opportunities", func(r chi.Router) {
				r.Get("/", rt.opportunityHandler.List)
				r.Get("/{id}", rt.opportunityHandler.GetByID)
				r.Get("/{id}/history", rt.opportunityHandler.GetStageHistory)
				r.With(rt.authMiddleware.RequirePermission(domain.PermissionOpportunitiesWrite)).Group(func(r chi.Router) {
					r.Post("/", rt.opportunityHandler.Create)
					r.Patch("/{id}", rt.opportunityHandler.Update)
					r.Put("/{id}/stage", rt.opportunityHandler.UpdateStage)
					r.Post("/bulk/stage", rt.opportunityHandler.BulkUpdateStage)
				})
				r.With(rt.authMiddleware.RequirePermission(domain.PermissionOpportunitiesDelete)).
					Delete("/{id}", rt.opportunityHandler.Delete)
			})

			// Properties
			r.Route("/properties", func(r chi.Router) {
				r.Get("/", rt.propertyHandler.List)
				r.Get("/{id}", rt.propertyHandler.GetByID)
				r.With(rt.authMiddleware.RequirePermission(domain.PermissionPropertiesWrite)).Group(func(r chi.Router) {
					r.Post("/", rt.propertyHandler.Create)
					r.Patch("/{id}", rt.propertyHandler.Update)
					r.Delete("/{id}", rt.propertyHandler.Delete)
				})
			})

			// Tasks
			r.Route("/tasks", func(r chi.Router) {
				r.Get("/", rt.taskHandler.List)
				r.Get("/{id}", rt.taskHandler.GetByID)
				r.With(rt.authMiddleware.RequirePermission(domain.PermissionTasksWrite)).Group(func(r chi.Router) {
					r.Post("/", rt.taskHandler.Create)
					r.Patch("/{id}", rt.taskHandler.Update)
					r.Delete("/{id}", rt.taskHandler.Delete)
				})
			})

			// Activities
			r.Route("/activities", func(r chi.Router) {
				r.Get("/", rt.activityHandler.List)
				r.With(rt.authMiddleware.RequirePermission(domain.PermissionActivitiesWrite)).Group(func(r chi.Router) {
					r.Post("/", rt.activityHandler.Create)
					r.Delete("/{id}", rt.activityHandler.Delete)
				})
				r.Get("/{targetType}/{targetId}", rt.activityHandler.ListByTarget)
			})

			// Notifications
			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", rt.notificationHandler.List)
				r.Get("/unread-count", rt.notificationHandler.UnreadCount)
				r.Post("/read-all", rt.notificationHandler.MarkAllAsRead)
				r.Post("/{id}/read", rt.notificationHandler.MarkAsRead)
				r.With(rt.authMiddleware.RequireAdmin).Post("/", rt.notificationHandler.Create)
			})

			// Realtime notification stream
			r.Get("/notifications/stream", rt.hub.ServeHTTP)

			// Metrics & reference data
			r.Get("/metrics/pipeline", rt.metricsHandler.GetPipelineMetrics)
			r.Get("/reference", rt.referenceHandler.GetReferenceData)

			// CSV exports
			r.Route("/export", func(r chi.Router) {
				r.Use(rt.authMiddleware.RequirePermission(domain.PermissionExportsRun))
				r.Get("/prospects", rt.exportHandler.ExportProspects)
				r.Get("/accounts", rt.exportHandler.ExportAccounts)
				r.Get("/opportunities", rt.exportHandler.ExportOpportunities)
			})
		})
	})

	return r
}
