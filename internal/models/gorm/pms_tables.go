package gorm

import "time"

// GORM mirrors of the local PMS domain tables the sync core upserts into.

type Booking struct {
	ID             string     `gorm:"column:id;primaryKey;type:uuid"`
	HotelID        string     `gorm:"column:hotel_id;type:uuid;index;not null"`
	RoomTypeID     *string    `gorm:"column:room_type_id;type:uuid"`
	GuestID        *string    `gorm:"column:guest_id;type:uuid"`
	Status         string     `gorm:"column:status;type:varchar(12)"`
	ArrivalDate    time.Time  `gorm:"column:arrival_date"`
	DepartureDate  time.Time  `gorm:"column:departure_date"`
	NumAdults      int        `gorm:"column:num_adults;default:1"`
	NumChildren    int        `gorm:"column:num_children;default:0"`
	TotalPrice     float64    `gorm:"column:total_price;default:0"`
	Channel        string     `gorm:"column:channel;type:varchar(30)"`
	Notes          string     `gorm:"column:notes"`
	RemoteModified *time.Time `gorm:"column:remote_modified"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Booking) TableName() string { return "bookings" }

type RoomType struct {
	ID        string    `gorm:"column:id;primaryKey;type:uuid"`
	HotelID   string    `gorm:"column:hotel_id;type:uuid;index;not null"`
	Name      string    `gorm:"column:name;type:varchar(100)"`
	Units     int       `gorm:"column:units;default:1"`
	MaxGuests int       `gorm:"column:max_guests;default:2"`
	BaseRate  float64   `gorm:"column:base_rate;default:0"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (RoomType) TableName() string { return "room_types" }

type Guest struct {
	ID        string    `gorm:"column:id;primaryKey;type:uuid"`
	HotelID   string    `gorm:"column:hotel_id;type:uuid;index;not null"`
	FirstName string    `gorm:"column:first_name;type:varchar(100)"`
	LastName  string    `gorm:"column:last_name;type:varchar(100)"`
	Email     string    `gorm:"column:email;type:varchar(255)"`
	Phone     string    `gorm:"column:phone;type:varchar(40)"`
	Country   string    `gorm:"column:country;type:varchar(2)"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Guest) TableName() string { return "guests" }

type CalendarDay struct {
	ID            string    `gorm:"column:id;primaryKey;type:uuid"`
	HotelID       string    `gorm:"column:hotel_id;type:uuid;index;not null"`
	RoomTypeID    string    `gorm:"column:room_type_id;type:uuid;uniqueIndex:idx_cal_room_date;not null"`
	Date          time.Time `gorm:"column:date;uniqueIndex:idx_cal_room_date;not null"`
	Rate          float64   `gorm:"column:rate;default:0"`
	Available     int       `gorm:"column:available;default:0"`
	StopSell      bool      `gorm:"column:stop_sell;default:false"`
	ClosedArrival bool      `gorm:"column:closed_arrival;default:false"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (CalendarDay) TableName() string { return "calendar_days" }

type ApiKey struct {
	ID     string `gorm:"column:id;primaryKey"`
	Status bool   `gorm:"column:status;default:true"`
	Label  string `gorm:"column:label;type:varchar(60)"`
}

func (ApiKey) TableName() string { return "api_keys" }
