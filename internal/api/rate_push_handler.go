package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"roomworks/channelsync/internal/models/dtos"
	"roomworks/channelsync/internal/providers"
	"roomworks/channelsync/internal/services"
)

// RatePushHandler handles outbound rate/availability pushes
type RatePushHandler struct {
	ratePush *services.RatePushService
}

// NewRatePushHandler creates a new rate push handler
func NewRatePushHandler(ratePush *services.RatePushService) *RatePushHandler {
	return &RatePushHandler{ratePush: ratePush}
}

// PushRates pushes a rate/availability change to the channel
//
// @Summary Push rates and availability
// @Description Applies one update to every date in the range, split into bounded batches
// @Tags rates
// @Accept json
// @Produce json
// @Success 200 {object} services.PushResult
// @Router /api/v1/rates/push [post]
func (h *RatePushHandler) PushRates() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req dtos.RatePushRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if req.HotelID == "" || req.RoomTypeID == "" {
			respondWithError(w, http.StatusBadRequest, "hotelId and roomTypeId are required")
			return
		}

		startDate, err := time.Parse("2006-01-02", req.DateRange.StartDate)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid startDate")
			return
		}
		endDate, err := time.Parse("2006-01-02", req.DateRange.EndDate)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid endDate")
			return
		}

		update := services.RateUpdate{
			Rate:          req.Updates.Rate,
			Availability:  req.Updates.Availability,
			StopSell:      req.Updates.StopSell,
			ClosedArrival: req.Updates.ClosedArrival,
		}

		result, err := h.ratePush.PushRates(r.Context(), req.HotelID, req.RoomTypeID, startDate, endDate, update)
		if err != nil {
			var provErr *providers.ProviderError
			if errors.As(err, &provErr) {
				respondWithError(w, http.StatusBadRequest, provErr.Message)
				return
			}
			respondSyncError(w, err)
			return
		}
		respondWithSuccess(w, http.StatusOK, result)
	}
}
