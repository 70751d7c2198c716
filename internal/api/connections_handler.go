package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/google/uuid"

	"roomworks/channelsync/internal/auth"
	"roomworks/channelsync/internal/db/repositories"
	"roomworks/channelsync/internal/models/dtos"
	gormModels "roomworks/channelsync/internal/models/gorm"
	"roomworks/channelsync/internal/vault"
)

// ConnectionsHandler handles the channel connection lifecycle
type ConnectionsHandler struct {
	connRepo *repositories.ConnectionRepo
	vault    *vault.Vault
}

// NewConnectionsHandler creates a new connections handler
func NewConnectionsHandler(connRepo *repositories.ConnectionRepo, v *vault.Vault) *ConnectionsHandler {
	return &ConnectionsHandler{connRepo: connRepo, vault: v}
}

// ConnectResponse acknowledges a new connection.
type ConnectResponse struct {
	ConnectionID string `json:"connectionId"`
	HotelID      string `json:"hotelId"`
	PropertyID   string `json:"propertyId"`
	Status       string `json:"status"`
}

// Connect exchanges a Beds24 invite code for refresh tokens and stores the
// connection
//
// @Summary Connect a hotel to Beds24
// @Description Exchanges the one-time invite code for refresh tokens. Admin only.
// @Tags admin,connections
// @Accept json
// @Produce json
// @Success 201 {object} ConnectResponse
// @Router /api/v1/connections [post]
func (h *ConnectionsHandler) Connect() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req dtos.ConnectRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if req.HotelID == "" || req.InviteCode == "" || req.PropertyID == "" {
			respondWithError(w, http.StatusBadRequest, "hotelId, inviteCode, and propertyId are required")
			return
		}

		existing, err := h.connRepo.GetByHotelProperty(r.Context(), req.HotelID, req.PropertyID)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if existing != nil {
			respondWithError(w, http.StatusConflict, "Connection already exists for this hotel and property")
			return
		}

		readToken, writeToken, err := h.vault.ExchangeInviteCode(r.Context(), req.InviteCode)
		if err != nil {
			respondWithError(w, http.StatusBadGateway, "Invite code exchange failed: "+err.Error())
			return
		}

		scopes := req.Scopes
		if scopes == "" {
			scopes = "bookings,inventory,properties"
		}
		conn := &gormModels.ChannelConnection{
			ID:                uuid.NewString(),
			HotelID:           req.HotelID,
			RemotePropertyID:  req.PropertyID,
			Scopes:            scopes,
			ReadRefreshToken:  readToken,
			WriteRefreshToken: writeToken,
			Status:            gormModels.ConnStatusActive,
		}
		if err := h.connRepo.Create(r.Context(), conn); err != nil {
			respondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}

		claims := auth.GetUserClaims(r.Context())
		log.Printf("[ConnectionsHandler] Hotel %s connected to property %s by %s",
			req.HotelID, req.PropertyID, claims.UserID())

		resp := &ConnectResponse{
			ConnectionID: conn.ID,
			HotelID:      conn.HotelID,
			PropertyID:   conn.RemotePropertyID,
			Status:       conn.Status,
		}
		respondWithSuccess(w, http.StatusCreated, resp)
	}
}
