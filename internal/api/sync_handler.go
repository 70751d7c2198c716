package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"roomworks/channelsync/internal/auth"
	"roomworks/channelsync/internal/constants"
	"roomworks/channelsync/internal/jobs"
	"roomworks/channelsync/internal/models/dtos"
	"roomworks/channelsync/internal/services"
)

// SyncHandler handles manual sync triggering endpoints
type SyncHandler struct {
	deltaSyncJob *jobs.DeltaSyncJob
	deltaSync    *services.DeltaSyncService
}

// NewSyncHandler creates a new sync handler
func NewSyncHandler(deltaSyncJob *jobs.DeltaSyncJob, deltaSync *services.DeltaSyncService) *SyncHandler {
	return &SyncHandler{
		deltaSyncJob: deltaSyncJob,
		deltaSync:    deltaSync,
	}
}

// TriggerSync manually triggers a delta sync pass
//
// @Summary Trigger delta sync
// @Description Runs a delta sync for one hotel or a fan-out pass over all enabled properties
// @Tags sync
// @Accept json
// @Produce json
// @Success 200 {object} jobs.TickResult
// @Router /api/v1/sync/trigger [post]
func (h *SyncHandler) TriggerSync() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req dtos.SyncTriggerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if req.Action != "manual_trigger" {
			respondWithError(w, http.StatusBadRequest, "Unknown action")
			return
		}

		scope := req.SyncType
		switch scope {
		case "", constants.ScopeAll:
			scope = constants.ScopeAll
		case constants.ScopeBookings, constants.ScopeCalendar:
		default:
			respondWithError(w, http.StatusBadRequest, "Unknown syncType")
			return
		}

		claims := auth.GetUserClaims(r.Context())
		log.Printf("[SyncHandler] Sync manually triggered by %s (scope %s, hotel %q)",
			claims.UserID(), scope, req.HotelID)

		if req.HotelID != "" {
			result, err := h.deltaSync.DeltaSync(r.Context(), req.HotelID, scope)
			if err != nil {
				respondSyncError(w, err)
				return
			}
			respondWithSuccess(w, http.StatusOK, result)
			return
		}

		tick, err := h.deltaSyncJob.Run(r.Context(), scope)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "Failed to run sync pass: "+err.Error())
			return
		}
		respondWithSuccess(w, http.StatusOK, tick)
	}
}

// respondSyncError maps service sentinels onto HTTP statuses.
func respondSyncError(w http.ResponseWriter, err error) {
	var alreadyErr *services.AlreadyBootstrappedError
	switch {
	case errors.Is(err, services.ErrNotBootstrapped):
		respondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrSyncDisabled):
		respondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrSyncInProgress):
		respondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrConnectionNotFound):
		respondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrConnectionDisabled):
		respondWithError(w, http.StatusConflict, err.Error())
	case errors.As(err, &alreadyErr):
		respondWithError(w, http.StatusConflict, err.Error())
	default:
		respondWithError(w, http.StatusInternalServerError, err.Error())
	}
}
