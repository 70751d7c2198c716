package entities

import "time"

// SyncState tracks per-property sync progress for a channel connection.
// One row per (hotel_id, remote_property_id).
type SyncState struct {
	ID                   string     `db:"id"`                     // UUID
	HotelID              string     `db:"hotel_id"`               // UUID
	RemotePropertyID     string     `db:"remote_property_id"`     // Beds24 property id
	BootstrapCompleted   bool       `db:"bootstrap_completed"`    // delta sync gated on this
	BootstrapCompletedAt *time.Time `db:"bootstrap_completed_at"` // nullable
	BookingsModifiedFrom *time.Time `db:"bookings_modified_from"` // delta cursor, nullable until first run
	CalendarStart        *time.Time `db:"calendar_start"`         // last refreshed window
	CalendarEnd          *time.Time `db:"calendar_end"`
	SyncEnabled          bool       `db:"sync_enabled"`
	Settings             string     `db:"settings"` // free-form JSON
	UpdatedAt            time.Time  `db:"updated_at"`
}
