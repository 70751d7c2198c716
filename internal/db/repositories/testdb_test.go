package repositories

import (
	"fmt"
	"testing"

	gormModels "roomworks/channelsync/internal/models/gorm"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// newTestDB opens a private in-memory database with the full schema and
// returns it wrapped for sqlx. The gorm handle keeps the shared-cache
// database alive for the lifetime of the test.
func newTestDB(t *testing.T) (*sqlx.DB, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:repo_%s?mode=memory&cache=shared", uuid.NewString())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	err = gdb.AutoMigrate(
		&gormModels.ChannelConnection{},
		&gormModels.SyncState{},
		&gormModels.IdMapping{},
		&gormModels.AuditLogEntry{},
		&gormModels.RatePushHistory{},
		&gormModels.RoomType{},
		&gormModels.Guest{},
		&gormModels.Booking{},
		&gormModels.CalendarDay{},
	)
	if err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("Failed to unwrap sql.DB: %v", err)
	}
	return sqlx.NewDb(sqlDB, "sqlite3"), gdb
}
