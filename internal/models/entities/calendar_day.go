package entities

import "time"

// CalendarDay holds daily rate and inventory for a room type.
// Unique on (room_type_id, date); refreshed wholesale by the calendar sync.
type CalendarDay struct {
	ID            string    `db:"id"`       // UUID
	HotelID       string    `db:"hotel_id"` // UUID
	RoomTypeID    string    `db:"room_type_id"`
	Date          time.Time `db:"date"`
	Rate          float64   `db:"rate"`
	Available     int       `db:"available"`
	StopSell      bool      `db:"stop_sell"`
	ClosedArrival bool      `db:"closed_arrival"`
	UpdatedAt     time.Time `db:"updated_at"`
}
