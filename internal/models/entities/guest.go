package entities

import "time"

// Guest is the local CRM guest record created during booking import.
type Guest struct {
	ID        string    `db:"id"`       // UUID
	HotelID   string    `db:"hotel_id"` // UUID
	FirstName string    `db:"first_name"`
	LastName  string    `db:"last_name"`
	Email     string    `db:"email"`
	Phone     string    `db:"phone"`
	Country   string    `db:"country"`
	CreatedAt time.Time `db:"created_at"`
}
