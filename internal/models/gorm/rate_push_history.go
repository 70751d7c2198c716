package gorm

import "time"

// Rate push statuses
const (
	RatePushSuccess = "success"
	RatePushPartial = "partial"
	RatePushFailed  = "failed"
)

// RatePushHistory records one rate/availability push batch. Never mutated
// after completion.
type RatePushHistory struct {
	ID              string    `gorm:"column:id;primaryKey;type:uuid"`
	HotelID         string    `gorm:"column:hotel_id;type:uuid;index;not null"`
	RoomTypeID      string    `gorm:"column:room_type_id;type:uuid;not null"`
	StartDate       time.Time `gorm:"column:start_date"`
	EndDate         time.Time `gorm:"column:end_date"`
	LinesTotal      int       `gorm:"column:lines_total"`
	LinesSuccessful int       `gorm:"column:lines_successful"`
	Status          string    `gorm:"column:status;type:varchar(10)"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName specifies the table name for GORM
func (RatePushHistory) TableName() string {
	return "rate_push_history"
}
