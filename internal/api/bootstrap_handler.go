package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/google/uuid"

	"roomworks/channelsync/internal/auth"
	"roomworks/channelsync/internal/models/dtos"
	"roomworks/channelsync/internal/services"
)

// BootstrapHandler handles the admin-only initial import endpoint
type BootstrapHandler struct {
	bootstrap *services.BootstrapService
}

// NewBootstrapHandler creates a new bootstrap handler
func NewBootstrapHandler(bootstrap *services.BootstrapService) *BootstrapHandler {
	return &BootstrapHandler{bootstrap: bootstrap}
}

// BootstrapResponse is the trigger acknowledgement.
type BootstrapResponse struct {
	Success    bool                      `json:"success"`
	HotelID    string                    `json:"hotelId"`
	PropertyID string                    `json:"propertyId"`
	TraceID    string                    `json:"traceId"`
	Status     string                    `json:"status"`
	Result     *services.BootstrapResult `json:"result,omitempty"`
}

// TriggerBootstrap runs the initial import for a property
//
// @Summary Trigger initial import
// @Description Imports room types, bookings, and guests for a newly connected property. Admin only.
// @Tags admin,sync
// @Accept json
// @Produce json
// @Success 200 {object} BootstrapResponse
// @Router /api/v1/sync/bootstrap [post]
func (h *BootstrapHandler) TriggerBootstrap() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req dtos.BootstrapRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if req.HotelID == "" || req.PropertyID == "" {
			respondWithError(w, http.StatusBadRequest, "hotelId and propertyId are required")
			return
		}
		if req.TraceID == "" {
			req.TraceID = uuid.NewString()
		}

		claims := auth.GetUserClaims(r.Context())
		log.Printf("[BootstrapHandler] Bootstrap triggered by %s for hotel %s property %s",
			claims.UserID(), req.HotelID, req.PropertyID)

		result, err := h.bootstrap.Bootstrap(r.Context(), req.HotelID, req.PropertyID, req.TraceID)
		if err != nil {
			respondSyncError(w, err)
			return
		}

		resp := &BootstrapResponse{
			Success:    true,
			HotelID:    req.HotelID,
			PropertyID: req.PropertyID,
			TraceID:    req.TraceID,
			Status:     result.Status,
			Result:     result,
		}
		respondWithSuccess(w, http.StatusOK, resp)
	}
}
