package api

import (
	"encoding/json"
	"log"
	"net/http"

	"roomworks/channelsync/internal/auth"
	"roomworks/channelsync/internal/models/dtos"
	"roomworks/channelsync/internal/services"
)

// RecoveryHandler handles the admin-only recovery endpoint
type RecoveryHandler struct {
	recovery *services.RecoveryService
}

// NewRecoveryHandler creates a new recovery handler
func NewRecoveryHandler(recovery *services.RecoveryService) *RecoveryHandler {
	return &RecoveryHandler{recovery: recovery}
}

// RunRecovery runs auto or manual recovery
//
// @Summary Run recovery
// @Description Auto recovery inspects health and repairs issues least-disruptive first; manual recovery runs the requested primitives. Admin only.
// @Tags admin,recovery
// @Accept json
// @Produce json
// @Success 200 {object} services.RecoveryReport
// @Router /api/v1/recovery [post]
func (h *RecoveryHandler) RunRecovery() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req dtos.RecoveryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		claims := auth.GetUserClaims(r.Context())
		log.Printf("[RecoveryHandler] Recovery %q triggered by %s (hotel %q)", req.Action, claims.UserID(), req.HotelID)

		switch req.Action {
		case "auto_recovery":
			report, err := h.recovery.AutoRecovery(r.Context(), req.HotelID)
			if err != nil {
				respondWithError(w, http.StatusInternalServerError, err.Error())
				return
			}
			respondWithSuccess(w, http.StatusOK, report)

		case "manual_recovery":
			if req.RecoveryOptions == nil {
				respondWithError(w, http.StatusBadRequest, "recovery_options is required for manual_recovery")
				return
			}
			opts := services.RecoveryOptions{
				HotelID:             req.HotelID,
				ResetTokens:         req.RecoveryOptions.ResetTokens,
				ClearErrors:         req.RecoveryOptions.ClearErrors,
				ResetSyncState:      req.RecoveryOptions.ResetSyncState,
				RepairDataIntegrity: req.RecoveryOptions.RepairDataIntegrity,
			}
			report, err := h.recovery.ManualRecovery(r.Context(), opts)
			if err != nil {
				respondWithError(w, http.StatusInternalServerError, err.Error())
				return
			}
			respondWithSuccess(w, http.StatusOK, report)

		default:
			respondWithError(w, http.StatusBadRequest, "Unknown action")
		}
	}
}
