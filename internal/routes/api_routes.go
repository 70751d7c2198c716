package routes

import (
	"roomworks/channelsync/internal/api"
	"roomworks/channelsync/internal/middleware"

	"github.com/go-chi/chi/v5"
)

// RegisterAPIRoutes registers all API v1 routes and handlers
// This keeps API route registration separate from the main router setup
func RegisterAPIRoutes(r chi.Router, deps *api.Dependencies,
	syncHandler *api.SyncHandler, bootstrapHandler *api.BootstrapHandler, ratePushHandler *api.RatePushHandler,
	recoveryHandler *api.RecoveryHandler, monitoringHandler *api.MonitoringHandler, connectionsHandler *api.ConnectionsHandler) {

	// API v1 routes
	r.Route("/api/v1", func(v1 chi.Router) {
		v1.Use(middleware.AuthMiddleware(deps.Repo.Keys)) // global: all routes must be authenticated

		v1.Post("/sync/trigger", syncHandler.TriggerSync())
		v1.Post("/rates/push", ratePushHandler.PushRates())

		v1.Get("/monitoring/health", monitoringHandler.HealthOverview())
		v1.Get("/monitoring/performance", monitoringHandler.Performance())
		v1.Get("/monitoring/sync-status", monitoringHandler.SyncStatus())
		v1.Get("/monitoring/activity", monitoringHandler.RecentActivity())

		// Admin-only group
		v1.Group(func(admin chi.Router) {
			admin.Use(middleware.IsAdminMiddleware())

			admin.Post("/sync/bootstrap", bootstrapHandler.TriggerBootstrap())
			admin.Post("/recovery", recoveryHandler.RunRecovery())
			admin.Post("/connections", connectionsHandler.Connect())
		})
	})
}
