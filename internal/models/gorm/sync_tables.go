package gorm

import "time"

// GORM mirrors of the sqlx-managed sync tables. Used for schema migration
// and in-memory test databases; the hot-path repositories go through sqlx.

type SyncState struct {
	ID                   string     `gorm:"column:id;primaryKey;type:uuid"`
	HotelID              string     `gorm:"column:hotel_id;type:uuid;uniqueIndex:idx_sync_hotel_property;not null"`
	RemotePropertyID     string     `gorm:"column:remote_property_id;type:varchar(20);uniqueIndex:idx_sync_hotel_property;not null"`
	BootstrapCompleted   bool       `gorm:"column:bootstrap_completed;default:false"`
	BootstrapCompletedAt *time.Time `gorm:"column:bootstrap_completed_at"`
	BookingsModifiedFrom *time.Time `gorm:"column:bookings_modified_from"`
	CalendarStart        *time.Time `gorm:"column:calendar_start"`
	CalendarEnd          *time.Time `gorm:"column:calendar_end"`
	SyncEnabled          bool       `gorm:"column:sync_enabled;default:false"`
	Settings             string     `gorm:"column:settings;default:'{}'"`
	UpdatedAt            time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (SyncState) TableName() string { return "sync_states" }

type IdMapping struct {
	ID         string    `gorm:"column:id;primaryKey;type:uuid"`
	HotelID    string    `gorm:"column:hotel_id;type:uuid;uniqueIndex:idx_map_hotel_kind_remote;not null"`
	EntityKind string    `gorm:"column:entity_kind;type:varchar(20);uniqueIndex:idx_map_hotel_kind_remote;not null"`
	RemoteID   string    `gorm:"column:remote_id;type:varchar(40);uniqueIndex:idx_map_hotel_kind_remote;not null"`
	LocalID    string    `gorm:"column:local_id;type:uuid;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (IdMapping) TableName() string { return "id_mappings" }

type AuditLogEntry struct {
	ID               string    `gorm:"column:id;primaryKey;type:uuid"`
	Provider         string    `gorm:"column:provider;type:varchar(20)"`
	Operation        string    `gorm:"column:operation;type:varchar(40);index"`
	Status           string    `gorm:"column:status;type:varchar(10)"`
	HotelID          *string   `gorm:"column:hotel_id;type:uuid;index"`
	RequestCost      int       `gorm:"column:request_cost;default:0"`
	CreditRemaining  int       `gorm:"column:credit_remaining;default:0"`
	DurationMs       int       `gorm:"column:duration_ms;default:0"`
	RecordsProcessed int       `gorm:"column:records_processed;default:0"`
	ErrorMessage     *string   `gorm:"column:error_message"`
	Metadata         string    `gorm:"column:metadata;default:'{}'"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime;index"`
}

func (AuditLogEntry) TableName() string { return "audit_logs" }
