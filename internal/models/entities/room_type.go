package entities

import "time"

// RoomType is the local room category record, optionally linked to a remote
// room id via id_mappings.
type RoomType struct {
	ID        string    `db:"id"`       // UUID
	HotelID   string    `db:"hotel_id"` // UUID
	Name      string    `db:"name"`
	Units     int       `db:"units"` // number of physical rooms of this type
	MaxGuests int       `db:"max_guests"`
	BaseRate  float64   `db:"base_rate"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}
