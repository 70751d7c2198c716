package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"roomworks/channelsync/internal/constants"
	"roomworks/channelsync/internal/models/dtos"
	"roomworks/channelsync/internal/models/entities"
	"roomworks/channelsync/internal/providers"
)

func newDeltaService(env *testEnv, client ChannelClient, lock SyncLocker) *DeltaSyncService {
	return NewDeltaSyncService(env.conns, env.states, env.mappings, env.bookings,
		env.guests, env.calendar, client, env.audit, lock, nil)
}

func TestDeltaSync_NotBootstrapped(t *testing.T) {
	env := newTestEnv(t)
	env.seedConnection(t, "hotel-1", "12345")
	client := &mockClient{}
	lock := &mockLock{}
	svc := newDeltaService(env, client, lock)

	_, err := svc.DeltaSync(context.Background(), "hotel-1", constants.ScopeAll)
	if !errors.Is(err, ErrNotBootstrapped) {
		t.Fatalf("Expected ErrNotBootstrapped, got %v", err)
	}
	if client.remoteCalls() != 0 {
		t.Errorf("Expected zero remote calls, got %d", client.remoteCalls())
	}
	if lock.acquires != 0 {
		t.Errorf("Expected the lock untouched, got %d acquires", lock.acquires)
	}
}

func TestDeltaSync_SyncDisabled(t *testing.T) {
	env := newTestEnv(t)
	env.seedBootstrapped(t, "hotel-1", "12345")
	if err := env.states.SetEnabled(context.Background(), "hotel-1", false); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	client := &mockClient{}
	svc := newDeltaService(env, client, &mockLock{})

	_, err := svc.DeltaSync(context.Background(), "hotel-1", constants.ScopeAll)
	if !errors.Is(err, ErrSyncDisabled) {
		t.Fatalf("Expected ErrSyncDisabled, got %v", err)
	}
	if client.remoteCalls() != 0 {
		t.Errorf("Expected zero remote calls, got %d", client.remoteCalls())
	}
}

func TestDeltaSync_LockHeld(t *testing.T) {
	env := newTestEnv(t)
	env.seedBootstrapped(t, "hotel-1", "12345")

	client := &mockClient{}
	lock := &mockLock{deny: true}
	svc := newDeltaService(env, client, lock)

	_, err := svc.DeltaSync(context.Background(), "hotel-1", constants.ScopeAll)
	if !errors.Is(err, ErrSyncInProgress) {
		t.Fatalf("Expected ErrSyncInProgress, got %v", err)
	}
	if client.remoteCalls() != 0 {
		t.Errorf("Expected zero remote calls, got %d", client.remoteCalls())
	}
	if lock.releases != 0 {
		t.Errorf("Expected no release of a lock we never held, got %d", lock.releases)
	}
}

func TestDeltaSync_BookingsAdvanceCursor(t *testing.T) {
	env := newTestEnv(t)
	env.seedBootstrapped(t, "hotel-1", "12345")
	ctx := context.Background()

	t1 := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	t2 := time.Date(2026, 8, 21, 15, 30, 0, 0, time.UTC)
	client := &mockClient{
		bookingPages: []providers.BookingsPage{
			{Bookings: []dtos.RemoteBooking{remoteBooking("b1", "", t1)}, HasMore: true, NextOffset: 1},
			{Bookings: []dtos.RemoteBooking{remoteBooking("b2", "", t2)}},
		},
	}
	lock := &mockLock{}
	svc := newDeltaService(env, client, lock)

	result, err := svc.DeltaSync(ctx, "hotel-1", constants.ScopeBookings)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if result.BookingsSynced != 2 || result.Status != entities.AuditSuccess {
		t.Errorf("Expected 2 bookings synced successfully, got %+v", result)
	}
	if client.bookingCalls != 2 {
		t.Errorf("Expected 2 page fetches, got %d", client.bookingCalls)
	}
	if lock.acquires != 1 || lock.releases != 1 {
		t.Errorf("Expected the lock acquired and released once, got %d/%d", lock.acquires, lock.releases)
	}

	state, _ := env.states.Get(ctx, "hotel-1")
	if state.BookingsModifiedFrom == nil || !state.BookingsModifiedFrom.Equal(t2) {
		t.Errorf("Expected cursor at %s, got %v", t2, state.BookingsModifiedFrom)
	}

	// A later run seeing only older modifications must not regress the cursor,
	// and re-importing the same remote booking lands on the same local row.
	replay := &mockClient{
		bookingPages: []providers.BookingsPage{
			{Bookings: []dtos.RemoteBooking{remoteBooking("b1", "", t1)}},
		},
	}
	svc = newDeltaService(env, replay, &mockLock{})
	if _, err := svc.DeltaSync(ctx, "hotel-1", constants.ScopeBookings); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	state, _ = env.states.Get(ctx, "hotel-1")
	if !state.BookingsModifiedFrom.Equal(t2) {
		t.Errorf("Expected cursor to stay at %s, got %v", t2, state.BookingsModifiedFrom)
	}
	count, _ := env.bookings.CountByHotel(ctx, "hotel-1")
	if count != 2 {
		t.Errorf("Expected re-import to be idempotent, got %d bookings", count)
	}
}

func TestDeltaSync_CalendarScope(t *testing.T) {
	env := newTestEnv(t)
	env.seedBootstrapped(t, "hotel-1", "12345")
	ctx := context.Background()

	rt := &entities.RoomType{ID: "local-room", HotelID: "hotel-1", Name: "Double", Units: 4}
	if err := env.roomTypes.Insert(ctx, rt); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if err := env.mappings.Create(ctx, "hotel-1", entities.KindRoom, "r1", "local-room"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	today := time.Now().UTC().Format("2006-01-02")
	client := &mockClient{
		calendarCells: []dtos.RemoteCalendarCell{
			{RoomID: "r1", Date: today, Rate: 135, Available: 3},
			{RoomID: "r9", Date: today, Rate: 99, Available: 1}, // never imported
		},
	}
	svc := newDeltaService(env, client, &mockLock{})

	result, err := svc.DeltaSync(ctx, "hotel-1", constants.ScopeCalendar)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if result.CalendarSynced != 1 {
		t.Errorf("Expected 1 cell synced, got %d", result.CalendarSynced)
	}
	if result.Status != entities.AuditPartial || len(result.Errors) != 1 {
		t.Errorf("Expected partial status for the unknown room, got %s / %d errors",
			result.Status, len(result.Errors))
	}

	day := time.Now().UTC().Truncate(24 * time.Hour)
	days, err := env.calendar.ListRange(ctx, "local-room", day, day)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(days) != 1 || days[0].Rate != 135 || days[0].Available != 3 {
		t.Errorf("Expected the cell mirrored locally, got %+v", days)
	}

	state, _ := env.states.Get(ctx, "hotel-1")
	if state.CalendarStart == nil || state.CalendarEnd == nil {
		t.Error("Expected the refreshed calendar window recorded")
	}
}

func TestDeltaSync_SystemicErrorReleasesLock(t *testing.T) {
	env := newTestEnv(t)
	env.seedBootstrapped(t, "hotel-1", "12345")

	client := &mockClient{
		bookingsErr: &providers.ProviderError{
			Code:    constants.ErrCodeRateLimited,
			Message: "credit limit exceeded",
		},
	}
	lock := &mockLock{}
	svc := newDeltaService(env, client, lock)

	result, err := svc.DeltaSync(context.Background(), "hotel-1", constants.ScopeBookings)
	if err == nil {
		t.Fatal("Expected the systemic error to propagate")
	}
	if result == nil || result.Status != entities.AuditError {
		t.Errorf("Expected an error-status result, got %+v", result)
	}
	if lock.releases != 1 {
		t.Errorf("Expected the lock released despite the failure, got %d", lock.releases)
	}
}
