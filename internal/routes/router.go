package routes

import (
	"context"
	"net/http"
	"os"
	"time"

	"roomworks/channelsync/internal/api"
	"roomworks/channelsync/internal/db"
	"roomworks/channelsync/internal/jobs"
	"roomworks/channelsync/internal/logging"
	"roomworks/channelsync/internal/metrics"
	"roomworks/channelsync/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

func RegisterRoutes(upSince time.Time) http.Handler {

	// initialize Chi router
	r := chi.NewRouter()

	// Initialize metrics registry
	metricsReg := metrics.NewMetricsRegistry()

	// global middleware
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.MetricsMiddleware(metricsReg))
	r.Use(middleware.RateLimitMiddleware)
	if os.Getenv("APP_ENV") == "development" {
		r.Use(middleware.Logging)
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://localhost:8081"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Key", "X-Hotel-Id", "X-Request-ID"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	logging.Info("Router initialized with metrics and logging middleware")
	// health check
	r.Get("/healthCheck", api.HealthCheckHandler(db.DB, upSince))

	// Initialize dependencies using DI pattern
	deps, err := api.InitDependencies(metricsReg)
	if err != nil {
		panic("Failed to initialize dependencies: " + err.Error())
	}

	// Setup scheduled jobs (delta sync fan-out and recovery sweep)
	deltaSyncJob := jobs.InitializeJobs(
		context.Background(),
		deps.Repo.SyncStates,
		deps.Services.DeltaSync,
		deps.Services.Recovery,
		deps.Services.Audit,
	)

	// Initialize handlers with dependencies
	syncHandler := api.NewSyncHandler(deltaSyncJob, deps.Services.DeltaSync)
	bootstrapHandler := api.NewBootstrapHandler(deps.Services.Bootstrap)
	ratePushHandler := api.NewRatePushHandler(deps.Services.RatePush)
	recoveryHandler := api.NewRecoveryHandler(deps.Services.Recovery)
	monitoringHandler := api.NewMonitoringHandler(deps.Services.Monitoring)
	connectionsHandler := api.NewConnectionsHandler(deps.Repo.Connections, deps.Services.Vault)

	// Register API routes
	RegisterAPIRoutes(r, deps,
		syncHandler, bootstrapHandler, ratePushHandler,
		recoveryHandler, monitoringHandler, connectionsHandler)

	return r
}
