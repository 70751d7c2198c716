package entities

import "time"

// Entity kinds tracked in id_mappings
const (
	KindRoom      = "room"
	KindBooking   = "booking"
	KindInvoice   = "invoice"
	KindMessage   = "message"
	KindRateOffer = "rate_offer"
)

// IdMapping links a remote Beds24 entity id to a local primary key.
// Insert-only: a mapping is never updated for the lifetime of the remote id.
type IdMapping struct {
	ID         string    `db:"id"`          // UUID
	HotelID    string    `db:"hotel_id"`    // UUID
	EntityKind string    `db:"entity_kind"` // room|booking|invoice|message|rate_offer
	RemoteID   string    `db:"remote_id"`
	LocalID    string    `db:"local_id"` // UUID of the local row
	CreatedAt  time.Time `db:"created_at"`
}
