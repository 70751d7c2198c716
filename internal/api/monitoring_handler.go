package api

import (
	"net/http"
	"strconv"

	"roomworks/channelsync/internal/services"
)

// MonitoringHandler serves the read-only operational endpoints
type MonitoringHandler struct {
	monitoring *services.MonitoringService
}

// NewMonitoringHandler creates a new monitoring handler
func NewMonitoringHandler(monitoring *services.MonitoringService) *MonitoringHandler {
	return &MonitoringHandler{monitoring: monitoring}
}

// HealthOverview returns the aggregate pipeline health
//
// @Summary Sync health overview
// @Tags monitoring
// @Produce json
// @Success 200 {object} services.HealthReport
// @Router /api/v1/monitoring/health [get]
func (h *MonitoringHandler) HealthOverview() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := h.monitoring.HealthOverview(r.Context(), r.URL.Query().Get("hotelId"))
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondWithSuccess(w, http.StatusOK, report)
	}
}

// Performance returns windowed per-operation metrics
//
// @Summary Sync performance metrics
// @Tags monitoring
// @Produce json
// @Success 200 {object} services.PerformanceReport
// @Router /api/v1/monitoring/performance [get]
func (h *MonitoringHandler) Performance() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		windowHours := 24
		if v := r.URL.Query().Get("windowHours"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				respondWithError(w, http.StatusBadRequest, "Invalid windowHours")
				return
			}
			windowHours = n
		}

		report, err := h.monitoring.Performance(r.Context(), windowHours)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondWithSuccess(w, http.StatusOK, report)
	}
}

// SyncStatus returns per-hotel sync detail plus fleet summary
//
// @Summary Per-hotel sync status
// @Tags monitoring
// @Produce json
// @Success 200 {object} services.SyncStatusReport
// @Router /api/v1/monitoring/sync-status [get]
func (h *MonitoringHandler) SyncStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := h.monitoring.SyncStatus(r.Context())
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondWithSuccess(w, http.StatusOK, report)
	}
}

// RecentActivity returns the newest audit entries for one hotel
//
// @Summary Recent sync activity
// @Tags monitoring
// @Produce json
// @Router /api/v1/monitoring/activity [get]
func (h *MonitoringHandler) RecentActivity() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hotelID := r.URL.Query().Get("hotelId")
		if hotelID == "" {
			respondWithError(w, http.StatusBadRequest, "hotelId is required")
			return
		}
		limit := 0
		if v := r.URL.Query().Get("limit"); v != "" {
			limit, _ = strconv.Atoi(v)
		}

		entries, err := h.monitoring.RecentActivity(r.Context(), hotelID, limit)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondWithSuccess(w, http.StatusOK, &entries)
	}
}
