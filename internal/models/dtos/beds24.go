package dtos

import "time"

// Typed views of the Beds24 v2 payloads the sync core consumes. Raw JSON is
// validated and mapped into these at the provider boundary; orchestrators
// never see untyped maps.

// Beds24 timestamp layout for modifiedFrom filters and booking timestamps
const Beds24TimeLayout = "2006-01-02 15:04:05"

// RemoteProperty is the subset of GET /properties the bootstrap needs.
type RemoteProperty struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Currency string           `json:"currency"`
	Rooms    []RemoteRoomType `json:"roomTypes"`
}

// RemoteRoomType is one bookable room category on the remote side.
type RemoteRoomType struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Qty       int     `json:"qty"`
	MaxPeople int     `json:"maxPeople"`
	RackRate  float64 `json:"rackRate"`
}

// RemoteBooking is one reservation as reported by GET /bookings.
type RemoteBooking struct {
	ID           string  `json:"id"`
	RoomID       string  `json:"roomId"`
	Status       string  `json:"status"` // confirmed|request|cancelled|black|inquiry
	Arrival      string  `json:"arrival"`   // 2006-01-02
	Departure    string  `json:"departure"` // 2006-01-02
	NumAdult     int     `json:"numAdult"`
	NumChild     int     `json:"numChild"`
	Price        float64 `json:"price"`
	Channel      string  `json:"referer"`
	Notes        string  `json:"comments"`
	ModifiedTime string  `json:"modifiedTime"` // Beds24TimeLayout
	GuestFirst   string  `json:"guestFirstName"`
	GuestName    string  `json:"guestName"`
	GuestEmail   string  `json:"guestEmail"`
	GuestPhone   string  `json:"guestPhone"`
	GuestCountry string  `json:"guestCountry2"`
	InvoiceID    string  `json:"invoiceId"`
}

// ModifiedAt parses the remote modification timestamp, or zero time when the
// payload omits it.
func (b *RemoteBooking) ModifiedAt() time.Time {
	if b.ModifiedTime == "" {
		return time.Time{}
	}
	t, err := time.Parse(Beds24TimeLayout, b.ModifiedTime)
	if err != nil {
		return time.Time{}
	}
	return t
}

// RemoteCalendarCell is one (room, date) availability/rate cell, flattened
// from the remote calendar response.
type RemoteCalendarCell struct {
	RoomID        string  `json:"roomId"`
	Date          string  `json:"date"` // 2006-01-02
	Rate          float64 `json:"price1"`
	Available     int     `json:"numAvail"`
	StopSell      bool    `json:"stopSell"`
	ClosedArrival bool    `json:"closedArrival"`
}

// CalendarUpdate is one outbound (room, date-range) change pushed to the
// remote calendar.
type CalendarUpdate struct {
	RoomID        string   `json:"roomId"`
	From          string   `json:"from"` // 2006-01-02
	To            string   `json:"to"`
	Rate          *float64 `json:"price1,omitempty"`
	Available     *int     `json:"numAvail,omitempty"`
	StopSell      *bool    `json:"stopSell,omitempty"`
	ClosedArrival *bool    `json:"closedArrival,omitempty"`
}
