package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"roomworks/channelsync/internal/db/repositories"
	"roomworks/channelsync/internal/models/dtos"
	gormModels "roomworks/channelsync/internal/models/gorm"
	"roomworks/channelsync/internal/providers"
	"roomworks/channelsync/internal/vault"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// testEnv wires every repository against a private in-memory database.
type testEnv struct {
	gdb       *gorm.DB
	sdb       *sqlx.DB
	conns     *repositories.ConnectionRepo
	states    *repositories.SyncStateRepo
	mappings  *repositories.IdMappingRepo
	roomTypes *repositories.RoomTypeRepo
	bookings  *repositories.BookingRepo
	guests    *repositories.GuestRepo
	calendar  *repositories.CalendarRepo
	history   *repositories.RatePushHistoryRepo
	auditRepo *repositories.AuditLogRepo
	audit     *AuditService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", uuid.NewString())
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
	sdb := sqlx.NewDb(sqlDB, "sqlite3")

	auditRepo := repositories.NewAuditLogRepo(sdb)
	return &testEnv{
		gdb:       gdb,
		sdb:       sdb,
		conns:     repositories.NewConnectionRepo(gdb),
		states:    repositories.NewSyncStateRepo(sdb),
		mappings:  repositories.NewIdMappingRepo(sdb),
		roomTypes: repositories.NewRoomTypeRepo(sdb),
		bookings:  repositories.NewBookingRepo(sdb),
		guests:    repositories.NewGuestRepo(sdb),
		calendar:  repositories.NewCalendarRepo(sdb),
		history:   repositories.NewRatePushHistoryRepo(gdb),
		auditRepo: auditRepo,
		audit:     NewAuditService(auditRepo),
	}
}

func (e *testEnv) seedConnection(t *testing.T, hotelID, propertyID string) *gormModels.ChannelConnection {
	t.Helper()
	conn := &gormModels.ChannelConnection{
		HotelID:          hotelID,
		Provider:         "beds24",
		RemotePropertyID: propertyID,
		Scopes:           "bookings,inventory,properties",
		ReadRefreshToken: "refresh-secret",
		Status:           gormModels.ConnStatusActive,
	}
	if err := e.conns.Create(context.Background(), conn); err != nil {
		t.Fatalf("Failed to seed connection: %v", err)
	}
	return conn
}

// seedBootstrapped sets up a connection with a completed initial import.
func (e *testEnv) seedBootstrapped(t *testing.T, hotelID, propertyID string) *gormModels.ChannelConnection {
	t.Helper()
	conn := e.seedConnection(t, hotelID, propertyID)
	if _, err := e.states.Ensure(context.Background(), hotelID, propertyID); err != nil {
		t.Fatalf("Failed to seed sync state: %v", err)
	}
	if err := e.states.MarkBootstrapCompleted(context.Background(), hotelID); err != nil {
		t.Fatalf("Failed to mark bootstrap completed: %v", err)
	}
	return conn
}

// mockClient is a canned ChannelClient. Booking pages are served in order;
// push outcomes follow pushErrs by call index.
type mockClient struct {
	property      *dtos.RemoteProperty
	bookingPages  []providers.BookingsPage
	calendarCells []dtos.RemoteCalendarCell
	bookingsErr   error
	pushErrs      []error

	propertyCalls int
	bookingCalls  int
	calendarCalls int
	pushCalls     int
}

func (m *mockClient) remoteCalls() int {
	return m.propertyCalls + m.bookingCalls + m.calendarCalls + m.pushCalls
}

func (m *mockClient) FetchProperty(ctx context.Context, conn *gormModels.ChannelConnection, propertyID string) (*dtos.RemoteProperty, *providers.CallMeta, error) {
	m.propertyCalls++
	if m.property == nil {
		return nil, nil, fmt.Errorf("no property configured")
	}
	return m.property, &providers.CallMeta{RequestCost: 1}, nil
}

func (m *mockClient) FetchBookings(ctx context.Context, conn *gormModels.ChannelConnection, propertyID string, modifiedFrom *time.Time, offset int) (*providers.BookingsPage, *providers.CallMeta, error) {
	i := m.bookingCalls
	m.bookingCalls++
	if m.bookingsErr != nil {
		return nil, nil, m.bookingsErr
	}
	if i >= len(m.bookingPages) {
		return &providers.BookingsPage{NextOffset: offset}, &providers.CallMeta{RequestCost: 1}, nil
	}
	page := m.bookingPages[i]
	return &page, &providers.CallMeta{RequestCost: 1}, nil
}

func (m *mockClient) FetchCalendar(ctx context.Context, conn *gormModels.ChannelConnection, propertyID string, start, end time.Time) ([]dtos.RemoteCalendarCell, *providers.CallMeta, error) {
	m.calendarCalls++
	return m.calendarCells, &providers.CallMeta{RequestCost: 1}, nil
}

func (m *mockClient) PushCalendar(ctx context.Context, conn *gormModels.ChannelConnection, updates []dtos.CalendarUpdate) (*providers.CallMeta, error) {
	i := m.pushCalls
	m.pushCalls++
	if i < len(m.pushErrs) && m.pushErrs[i] != nil {
		return nil, m.pushErrs[i]
	}
	return &providers.CallMeta{RequestCost: 2}, nil
}

// mockLock grants or denies every acquire.
type mockLock struct {
	deny     bool
	acquires int
	releases int
}

func (m *mockLock) Acquire(ctx context.Context, hotelID string) (bool, error) {
	m.acquires++
	return !m.deny, nil
}

func (m *mockLock) Release(ctx context.Context, hotelID string) error {
	m.releases++
	return nil
}

// mockTokens is a canned TokenManager for recovery tests.
type mockTokens struct {
	refreshErr  error
	refreshes   int
	invalidated []string
}

func (m *mockTokens) Refresh(ctx context.Context, conn *gormModels.ChannelConnection, tokenType string) (*vault.Token, error) {
	m.refreshes++
	if m.refreshErr != nil {
		return nil, m.refreshErr
	}
	return &vault.Token{Value: "refreshed", ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (m *mockTokens) Invalidate(connID string) {
	m.invalidated = append(m.invalidated, connID)
}

func remoteBooking(id, roomID string, modified time.Time) dtos.RemoteBooking {
	return dtos.RemoteBooking{
		ID:           id,
		RoomID:       roomID,
		Status:       "confirmed",
		Arrival:      "2026-09-01",
		Departure:    "2026-09-04",
		NumAdult:     2,
		Price:        300,
		ModifiedTime: modified.Format(dtos.Beds24TimeLayout),
	}
}
