package constants

// Provider identifier used throughout the audit log
const ProviderBeds24 = "beds24"

// Audit log operation names
const (
	OpBootstrap       = "bootstrap"
	OpDeltaBookings   = "delta_sync_bookings"
	OpDeltaCalendar   = "delta_sync_calendar"
	OpRatePush        = "rate_push"
	OpTokenRefresh    = "token_refresh"
	OpAutoRecovery    = "auto_recovery"
	OpManualRecovery  = "manual_recovery"
	OpScheduledFanOut = "scheduled_fan_out"
)

// Sync scopes accepted by the delta sync orchestrator and trigger endpoint
const (
	ScopeBookings = "bookings"
	ScopeCalendar = "calendar"
	ScopeAll      = "all"
)
