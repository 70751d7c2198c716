package entities

import "time"

// Booking is the local PMS reservation record. The sync core only reads and
// upserts these; deletion follows the remote cancellation signal.
type Booking struct {
	ID             string     `db:"id"`       // UUID
	HotelID        string     `db:"hotel_id"` // UUID
	RoomTypeID     *string    `db:"room_type_id"`
	GuestID        *string    `db:"guest_id"`
	Status         string     `db:"status"` // confirmed|request|cancelled|black|inquiry
	ArrivalDate    time.Time  `db:"arrival_date"`
	DepartureDate  time.Time  `db:"departure_date"`
	NumAdults      int        `db:"num_adults"`
	NumChildren    int        `db:"num_children"`
	TotalPrice     float64    `db:"total_price"`
	Channel        string     `db:"channel"` // originating channel reported by Beds24
	Notes          string     `db:"notes"`
	RemoteModified *time.Time `db:"remote_modified"` // modification timestamp on the remote side
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
}
