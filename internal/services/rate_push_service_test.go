package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"roomworks/channelsync/internal/constants"
	"roomworks/channelsync/internal/models/entities"
	gormModels "roomworks/channelsync/internal/models/gorm"
	"roomworks/channelsync/internal/providers"
)

func newRatePushService(env *testEnv, client ChannelClient) *RatePushService {
	return NewRatePushService(env.conns, env.mappings, env.roomTypes, env.calendar,
		env.history, client, env.audit, nil)
}

// seedMappedRoom creates a room type with its remote mapping.
func seedMappedRoom(t *testing.T, env *testEnv, hotelID, localID, remoteID string) {
	t.Helper()
	ctx := context.Background()
	rt := &entities.RoomType{ID: localID, HotelID: hotelID, Name: "Double", Units: 4}
	if err := env.roomTypes.Insert(ctx, rt); err != nil {
		t.Fatalf("Failed to seed room type: %v", err)
	}
	if err := env.mappings.Create(ctx, hotelID, entities.KindRoom, remoteID, localID); err != nil {
		t.Fatalf("Failed to seed mapping: %v", err)
	}
}

func floatPtr(f float64) *float64 { return &f }
func intPtr(n int) *int           { return &n }

func TestPushRates_InvalidDateRange(t *testing.T) {
	env := newTestEnv(t)
	client := &mockClient{}
	svc := newRatePushService(env, client)

	start := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	_, err := svc.PushRates(context.Background(), "hotel-1", "room-1",
		start, start.AddDate(0, 0, -1), RateUpdate{Rate: floatPtr(100)})

	var provErr *providers.ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("Expected ProviderError, got %v", err)
	}
	if provErr.Code != constants.ErrCodeInvalidDateRange {
		t.Errorf("Expected code %s, got %s", constants.ErrCodeInvalidDateRange, provErr.Code)
	}
	if client.pushCalls != 0 {
		t.Errorf("Expected no push calls, got %d", client.pushCalls)
	}
}

func TestPushRates_EmptyUpdate(t *testing.T) {
	env := newTestEnv(t)
	svc := newRatePushService(env, &mockClient{})

	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	_, err := svc.PushRates(context.Background(), "hotel-1", "room-1",
		start, start.AddDate(0, 0, 5), RateUpdate{})

	var provErr *providers.ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("Expected ProviderError, got %v", err)
	}
	if provErr.Code != constants.ErrCodeInvalidPayload {
		t.Errorf("Expected code %s, got %s", constants.ErrCodeInvalidPayload, provErr.Code)
	}
}

func TestPushRates_UnmappedRoom(t *testing.T) {
	env := newTestEnv(t)
	env.seedConnection(t, "hotel-1", "12345")
	rt := &entities.RoomType{ID: "room-1", HotelID: "hotel-1", Name: "Double"}
	if err := env.roomTypes.Insert(context.Background(), rt); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	client := &mockClient{}
	svc := newRatePushService(env, client)

	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	_, err := svc.PushRates(context.Background(), "hotel-1", "room-1",
		start, start.AddDate(0, 0, 5), RateUpdate{Rate: floatPtr(100)})
	if err == nil {
		t.Fatal("Expected an error for a room without a remote mapping")
	}
	if client.pushCalls != 0 {
		t.Errorf("Expected no push calls, got %d", client.pushCalls)
	}
}

func TestPushRates_SingleBatchMirrorsLocally(t *testing.T) {
	env := newTestEnv(t)
	env.seedConnection(t, "hotel-1", "12345")
	seedMappedRoom(t, env, "hotel-1", "room-1", "r1")
	ctx := context.Background()

	client := &mockClient{}
	svc := newRatePushService(env, client)

	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 4)
	result, err := svc.PushRates(ctx, "hotel-1", "room-1", start, end,
		RateUpdate{Rate: floatPtr(120), Availability: intPtr(3)})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if result.Batches != 1 || result.SuccessfulBatches != 1 {
		t.Errorf("Expected a single successful batch, got %d/%d", result.SuccessfulBatches, result.Batches)
	}
	if result.LinesTotal != 5 || result.LinesSuccessful != 5 {
		t.Errorf("Expected 5 lines, got %d/%d", result.LinesSuccessful, result.LinesTotal)
	}
	if result.Status != gormModels.RatePushSuccess {
		t.Errorf("Expected status success, got %s", result.Status)
	}

	days, err := env.calendar.ListRange(ctx, "room-1", start, end)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(days) != 5 {
		t.Fatalf("Expected 5 mirrored calendar days, got %d", len(days))
	}
	for _, d := range days {
		if d.Rate != 120 || d.Available != 3 {
			t.Errorf("Expected rate 120 avail 3 on %s, got %v/%v", d.Date, d.Rate, d.Available)
		}
	}

	recs, err := env.history.RecentByHotel(ctx, "hotel-1", 10)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(recs) != 1 || recs[0].Status != gormModels.RatePushSuccess {
		t.Errorf("Expected one successful history row, got %+v", recs)
	}
}

func TestPushRates_FailedBatchDoesNotStopTheRest(t *testing.T) {
	env := newTestEnv(t)
	env.seedConnection(t, "hotel-1", "12345")
	seedMappedRoom(t, env, "hotel-1", "room-1", "r1")
	ctx := context.Background()

	// 75 days split into 30+30+15; the middle batch is rejected.
	client := &mockClient{
		pushErrs: []error{nil, &providers.ProviderError{
			Code:    constants.ErrCodeRetryableError,
			Message: "server error",
		}, nil},
	}
	svc := newRatePushService(env, client)

	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 74)
	result, err := svc.PushRates(ctx, "hotel-1", "room-1", start, end, RateUpdate{Rate: floatPtr(99)})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if client.pushCalls != 3 {
		t.Fatalf("Expected all 3 batches attempted, got %d", client.pushCalls)
	}
	if result.Batches != 3 || result.SuccessfulBatches != 2 {
		t.Errorf("Expected 2 of 3 batches successful, got %d/%d", result.SuccessfulBatches, result.Batches)
	}
	if result.Status != gormModels.RatePushPartial {
		t.Errorf("Expected status partial, got %s", result.Status)
	}
	if result.LinesTotal != 75 || result.LinesSuccessful != 45 {
		t.Errorf("Expected 45 of 75 lines, got %d/%d", result.LinesSuccessful, result.LinesTotal)
	}

	// Only accepted batches are mirrored locally.
	days, err := env.calendar.ListRange(ctx, "room-1", start, end)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(days) != 45 {
		t.Errorf("Expected 45 mirrored days, got %d", len(days))
	}

	recs, err := env.history.RecentByHotel(ctx, "hotel-1", 10)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("Expected 3 history rows, got %d", len(recs))
	}
	failed := 0
	for _, rec := range recs {
		if rec.Status == gormModels.RatePushFailed {
			failed++
		}
	}
	if failed != 1 {
		t.Errorf("Expected 1 failed history row, got %d", failed)
	}
}

func TestPushRates_AllBatchesFailed(t *testing.T) {
	env := newTestEnv(t)
	env.seedConnection(t, "hotel-1", "12345")
	seedMappedRoom(t, env, "hotel-1", "room-1", "r1")

	pushErr := &providers.ProviderError{Code: constants.ErrCodeRateLimited, Message: "throttled"}
	client := &mockClient{pushErrs: []error{pushErr, pushErr}}
	svc := newRatePushService(env, client)

	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	result, err := svc.PushRates(context.Background(), "hotel-1", "room-1",
		start, start.AddDate(0, 0, 44), RateUpdate{StopSell: boolPtr(true)})
	if err != nil {
		t.Fatalf("Expected a failed result without error, got %v", err)
	}
	if result.Status != gormModels.RatePushFailed {
		t.Errorf("Expected status failed, got %s", result.Status)
	}
	if result.LinesSuccessful != 0 {
		t.Errorf("Expected no successful lines, got %d", result.LinesSuccessful)
	}

	days, _ := env.calendar.ListRange(context.Background(), "room-1", start, start.AddDate(0, 0, 44))
	if len(days) != 0 {
		t.Errorf("Expected nothing mirrored after a full failure, got %d days", len(days))
	}
}

func boolPtr(b bool) *bool { return &b }
