package dtos

// DateRange bounds a rate push, inclusive on both ends.
type DateRange struct {
	StartDate string `json:"startDate" validate:"required"`
	EndDate   string `json:"endDate" validate:"required"`
}

type SyncTriggerRequest struct {
	Action   string `json:"action"`
	SyncType string `json:"syncType"` // all|bookings|calendar
	HotelID  string `json:"hotelId"`
}

type BootstrapRequest struct {
	HotelID    string `json:"hotelId" validate:"required"`
	PropertyID string `json:"propertyId" validate:"required"`
	TraceID    string `json:"traceId"`
}

type RatePushRequest struct {
	HotelID    string             `json:"hotelId" validate:"required"`
	RoomTypeID string             `json:"roomTypeId" validate:"required"`
	DateRange  DateRange          `json:"dateRange"`
	Updates    RatePushUpdateBody `json:"updates"`
}

type RatePushUpdateBody struct {
	Rate          *float64 `json:"rate,omitempty"`
	Availability  *int     `json:"availability,omitempty"`
	StopSell      *bool    `json:"stopSell,omitempty"`
	ClosedArrival *bool    `json:"closedArrival,omitempty"`
}

type RecoveryRequest struct {
	Action          string               `json:"action"` // auto_recovery|manual_recovery
	HotelID         string               `json:"hotel_id"`
	RecoveryOptions *RecoveryOptionsBody `json:"recovery_options,omitempty"`
}

type RecoveryOptionsBody struct {
	ResetTokens         bool `json:"resetTokens"`
	ClearErrors         bool `json:"clearErrors"`
	ResetSyncState      bool `json:"resetSyncState"`
	RepairDataIntegrity bool `json:"repairDataIntegrity"`
}

type ConnectRequest struct {
	HotelID    string `json:"hotelId" validate:"required"`
	InviteCode string `json:"inviteCode" validate:"required"`
	PropertyID string `json:"propertyId" validate:"required"`
	Scopes     string `json:"scopes"`
}
