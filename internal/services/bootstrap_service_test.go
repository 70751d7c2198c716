package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"roomworks/channelsync/internal/models/dtos"
	"roomworks/channelsync/internal/models/entities"
	"roomworks/channelsync/internal/providers"
)

func newBootstrapService(env *testEnv, client ChannelClient) *BootstrapService {
	return NewBootstrapService(env.conns, env.states, env.mappings, env.roomTypes,
		env.bookings, env.guests, client, env.audit)
}

func twoRoomProperty() *dtos.RemoteProperty {
	return &dtos.RemoteProperty{
		ID:       "12345",
		Name:     "Seaside Hotel",
		Currency: "EUR",
		Rooms: []dtos.RemoteRoomType{
			{ID: "r1", Name: "Double", Qty: 6, MaxPeople: 2, RackRate: 120},
			{ID: "r2", Name: "Suite", Qty: 2, MaxPeople: 4, RackRate: 240},
		},
	}
}

func TestBootstrap_ImportsPropertyAndBookings(t *testing.T) {
	env := newTestEnv(t)
	env.seedConnection(t, "hotel-1", "12345")
	ctx := context.Background()

	withGuest := remoteBooking("b1", "r1", time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC))
	withGuest.GuestFirst = "Ana"
	withGuest.GuestName = "Silva"
	withGuest.GuestEmail = "ana@example.com"
	anonymous := remoteBooking("b2", "r2", time.Date(2026, 8, 21, 10, 0, 0, 0, time.UTC))

	client := &mockClient{
		property: twoRoomProperty(),
		bookingPages: []providers.BookingsPage{
			{Bookings: []dtos.RemoteBooking{withGuest, anonymous}},
		},
	}
	svc := newBootstrapService(env, client)

	result, err := svc.Bootstrap(ctx, "hotel-1", "12345", "trace-1")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if result.RoomTypes != 2 || result.Bookings != 2 || result.Guests != 1 {
		t.Errorf("Unexpected counts: %d room types, %d bookings, %d guests",
			result.RoomTypes, result.Bookings, result.Guests)
	}
	if result.Status != entities.AuditSuccess {
		t.Errorf("Expected status success, got %s", result.Status)
	}

	state, err := env.states.Get(ctx, "hotel-1")
	if err != nil || state == nil {
		t.Fatalf("Failed to reload sync state: %v", err)
	}
	if !state.BootstrapCompleted || !state.SyncEnabled {
		t.Error("Expected bootstrap completed and sync enabled")
	}

	localRoom, _ := env.mappings.GetLocalID(ctx, "hotel-1", entities.KindRoom, "r1")
	if localRoom == "" {
		t.Error("Expected a room mapping for r1")
	}
	localBooking, _ := env.mappings.GetLocalID(ctx, "hotel-1", entities.KindBooking, "b1")
	if localBooking == "" {
		t.Fatal("Expected a booking mapping for b1")
	}

	booking, err := env.bookings.GetByID(ctx, localBooking)
	if err != nil || booking == nil {
		t.Fatalf("Failed to load imported booking: %v", err)
	}
	if booking.GuestID == nil {
		t.Error("Expected the booking linked to its guest")
	}
	if booking.RoomTypeID == nil || *booking.RoomTypeID != localRoom {
		t.Error("Expected the booking linked to the imported room type")
	}
}

func TestBootstrap_SecondRunFailsFastWithoutRemoteCalls(t *testing.T) {
	env := newTestEnv(t)
	env.seedBootstrapped(t, "hotel-1", "12345")

	client := &mockClient{property: twoRoomProperty()}
	svc := newBootstrapService(env, client)

	_, err := svc.Bootstrap(context.Background(), "hotel-1", "12345", "trace-2")

	var already *AlreadyBootstrappedError
	if !errors.As(err, &already) {
		t.Fatalf("Expected AlreadyBootstrappedError, got %v", err)
	}
	if already.CompletedAt.IsZero() {
		t.Error("Expected the original completion time to be reported")
	}
	if client.remoteCalls() != 0 {
		t.Errorf("Expected zero remote calls, got %d", client.remoteCalls())
	}
}

func TestBootstrap_MissingConnection(t *testing.T) {
	env := newTestEnv(t)
	client := &mockClient{property: twoRoomProperty()}
	svc := newBootstrapService(env, client)

	_, err := svc.Bootstrap(context.Background(), "hotel-1", "12345", "trace-3")
	if !errors.Is(err, ErrConnectionNotFound) {
		t.Fatalf("Expected ErrConnectionNotFound, got %v", err)
	}
	if client.remoteCalls() != 0 {
		t.Errorf("Expected zero remote calls, got %d", client.remoteCalls())
	}
}

func TestBootstrap_PartialImportAllowsRetry(t *testing.T) {
	env := newTestEnv(t)
	env.seedConnection(t, "hotel-1", "12345")
	ctx := context.Background()

	broken := remoteBooking("b1", "r1", time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC))
	broken.Arrival = "not-a-date"
	client := &mockClient{
		property: twoRoomProperty(),
		bookingPages: []providers.BookingsPage{
			{Bookings: []dtos.RemoteBooking{broken}},
		},
	}
	svc := newBootstrapService(env, client)

	result, err := svc.Bootstrap(ctx, "hotel-1", "12345", "trace-4")
	if err != nil {
		t.Fatalf("Expected partial result without error, got %v", err)
	}
	if result.Status != entities.AuditPartial || len(result.Errors) != 1 {
		t.Fatalf("Expected partial status with 1 error, got %s / %d", result.Status, len(result.Errors))
	}

	state, _ := env.states.Get(ctx, "hotel-1")
	if state.BootstrapCompleted {
		t.Fatal("Expected the completion flag to stay unset after a partial import")
	}

	// The retry re-fetches, reuses the existing room mappings, and completes.
	retryClient := &mockClient{
		property: twoRoomProperty(),
		bookingPages: []providers.BookingsPage{
			{Bookings: []dtos.RemoteBooking{remoteBooking("b1", "r1", time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC))}},
		},
	}
	retry := newBootstrapService(env, retryClient)
	result, err = retry.Bootstrap(ctx, "hotel-1", "12345", "trace-5")
	if err != nil {
		t.Fatalf("Expected retry to succeed, got %v", err)
	}
	if result.Status != entities.AuditSuccess || result.RoomTypes != 2 {
		t.Errorf("Expected a clean retry over existing mappings, got %+v", result)
	}

	rooms, _ := env.roomTypes.ListByHotel(ctx, "hotel-1")
	if len(rooms) != 2 {
		t.Errorf("Expected no duplicate room types after retry, got %d", len(rooms))
	}

	state, _ = env.states.Get(ctx, "hotel-1")
	if !state.BootstrapCompleted {
		t.Error("Expected bootstrap completed after the retry")
	}
}

func TestBootstrap_RejectedInvocationWritesAudit(t *testing.T) {
	env := newTestEnv(t)
	env.seedBootstrapped(t, "hotel-1", "12345")
	ctx := context.Background()

	client := &mockClient{property: twoRoomProperty()}
	svc := newBootstrapService(env, client)

	_, err := svc.Bootstrap(ctx, "hotel-1", "12345", "trace-7")
	var already *AlreadyBootstrappedError
	if !errors.As(err, &already) {
		t.Fatalf("Expected AlreadyBootstrappedError, got %v", err)
	}
	if client.remoteCalls() != 0 {
		t.Errorf("Expected zero remote calls, got %d", client.remoteCalls())
	}

	entries, err := env.auditRepo.RecentByHotel(ctx, "hotel-1", 10)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected a started and a terminal audit row for the rejection, got %d", len(entries))
	}
	terminal := 0
	for _, e := range entries {
		if e.Status != entities.AuditStarted {
			terminal++
			if e.Status != entities.AuditError {
				t.Errorf("Expected terminal status error, got %s", e.Status)
			}
			if e.ErrorMessage == nil || *e.ErrorMessage == "" {
				t.Error("Expected the rejection reason recorded on the terminal row")
			}
		}
	}
	if terminal != 1 {
		t.Errorf("Expected exactly one terminal audit row, got %d", terminal)
	}

	// A missing connection is audited the same way.
	if _, err := svc.Bootstrap(ctx, "hotel-2", "99999", "trace-8"); !errors.Is(err, ErrConnectionNotFound) {
		t.Fatalf("Expected ErrConnectionNotFound, got %v", err)
	}
	entries, err = env.auditRepo.RecentByHotel(ctx, "hotel-2", 10)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("Expected the missing-connection rejection audited, got %d rows", len(entries))
	}
}

func TestBootstrap_WritesAuditTrail(t *testing.T) {
	env := newTestEnv(t)
	env.seedConnection(t, "hotel-1", "12345")

	client := &mockClient{property: twoRoomProperty()}
	svc := newBootstrapService(env, client)

	if _, err := svc.Bootstrap(context.Background(), "hotel-1", "12345", "trace-6"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	entries, err := env.auditRepo.RecentByHotel(context.Background(), "hotel-1", 10)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected a started and a terminal audit row, got %d", len(entries))
	}
	terminal := 0
	for _, e := range entries {
		if e.Status != entities.AuditStarted {
			terminal++
			if e.Status != entities.AuditSuccess {
				t.Errorf("Expected terminal status success, got %s", e.Status)
			}
		}
	}
	if terminal != 1 {
		t.Errorf("Expected exactly one terminal audit row, got %d", terminal)
	}
}
