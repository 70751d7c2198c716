package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"roomworks/channelsync/internal/constants"
	"roomworks/channelsync/internal/models/entities"
	gormModels "roomworks/channelsync/internal/models/gorm"
)

func newRecoveryService(env *testEnv, tokens TokenManager) *RecoveryService {
	return NewRecoveryService(env.conns, env.states, env.mappings, env.auditRepo, tokens, env.audit)
}

func insertAudit(t *testing.T, env *testEnv, hotelID, operation, status string, createdAt time.Time) {
	t.Helper()
	h := hotelID
	entry := &entities.AuditLogEntry{
		Provider:  constants.ProviderBeds24,
		Operation: operation,
		Status:    status,
		HotelID:   &h,
		CreatedAt: createdAt,
	}
	if err := env.auditRepo.Insert(context.Background(), entry); err != nil {
		t.Fatalf("Failed to insert audit entry: %v", err)
	}
}

func TestEvaluateHealth_Healthy(t *testing.T) {
	env := newTestEnv(t)
	env.seedBootstrapped(t, "hotel-1", "12345")
	insertAudit(t, env, "hotel-1", constants.OpDeltaBookings, entities.AuditSuccess, time.Now().UTC())

	svc := newRecoveryService(env, &mockTokens{})
	report, err := svc.EvaluateHealth(context.Background(), "")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if report.Status != HealthHealthy {
		t.Errorf("Expected healthy, got %s", report.Status)
	}
	if len(report.Issues) != 0 {
		t.Errorf("Expected no issues, got %+v", report.Issues)
	}
	if report.Connections != 1 {
		t.Errorf("Expected 1 connection counted, got %d", report.Connections)
	}
}

func TestEvaluateHealth_ErroredConnectionIsCritical(t *testing.T) {
	env := newTestEnv(t)
	conn := env.seedBootstrapped(t, "hotel-1", "12345")
	if err := env.conns.SetStatus(context.Background(), conn.ID, gormModels.ConnStatusError); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	svc := newRecoveryService(env, &mockTokens{})
	report, err := svc.EvaluateHealth(context.Background(), "hotel-1")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if report.Status != HealthCritical {
		t.Errorf("Expected critical, got %s", report.Status)
	}
	if len(report.Issues) != 1 || report.Issues[0].Code != constants.ErrCodeAuthExpired {
		t.Errorf("Expected one AUTH_EXPIRED issue, got %+v", report.Issues)
	}
}

func TestEvaluateHealth_StaleSyncWarning(t *testing.T) {
	env := newTestEnv(t)
	env.seedBootstrapped(t, "hotel-1", "12345")
	// Interval defaults to 15 minutes; twice that makes 2 hours stale.
	insertAudit(t, env, "hotel-1", constants.OpDeltaBookings, entities.AuditSuccess,
		time.Now().UTC().Add(-2*time.Hour))

	svc := newRecoveryService(env, &mockTokens{})
	report, err := svc.EvaluateHealth(context.Background(), "")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if report.Status != HealthWarning {
		t.Errorf("Expected warning, got %s", report.Status)
	}
	if len(report.Issues) != 1 || report.Issues[0].Code != constants.ErrCodeSyncStale {
		t.Errorf("Expected one SYNC_STALE issue, got %+v", report.Issues)
	}
}

func TestEvaluateHealth_StuckBootstrapIsCritical(t *testing.T) {
	env := newTestEnv(t)
	env.seedConnection(t, "hotel-1", "12345")
	ctx := context.Background()
	if _, err := env.states.Ensure(ctx, "hotel-1", "12345"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	// Backdate the state past the grace period.
	old := time.Now().UTC().Add(-48 * time.Hour)
	err := env.gdb.Model(&gormModels.SyncState{}).
		Where("hotel_id = ?", "hotel-1").
		UpdateColumn("updated_at", old).Error
	if err != nil {
		t.Fatalf("Failed to backdate sync state: %v", err)
	}

	svc := newRecoveryService(env, &mockTokens{})
	report, err := svc.EvaluateHealth(ctx, "hotel-1")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if report.Status != HealthCritical {
		t.Errorf("Expected critical, got %s", report.Status)
	}
	if len(report.Issues) != 1 || report.Issues[0].Code != constants.ErrCodeNotBootstrapped {
		t.Errorf("Expected one NOT_BOOTSTRAPPED issue, got %+v", report.Issues)
	}
}

func TestEvaluateHealth_HighErrorRateIsCritical(t *testing.T) {
	env := newTestEnv(t)
	env.seedBootstrapped(t, "hotel-1", "12345")
	now := time.Now().UTC()
	insertAudit(t, env, "hotel-1", constants.OpDeltaBookings, entities.AuditSuccess, now)
	for i := 0; i < 3; i++ {
		insertAudit(t, env, "hotel-1", constants.OpDeltaBookings, entities.AuditError,
			now.Add(-time.Duration(i+1)*time.Minute))
	}

	svc := newRecoveryService(env, &mockTokens{})
	report, err := svc.EvaluateHealth(context.Background(), "hotel-1")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if report.Status != HealthCritical {
		t.Errorf("Expected critical, got %s", report.Status)
	}
	if report.ErrorRate != 0.75 {
		t.Errorf("Expected error rate 0.75, got %f", report.ErrorRate)
	}
}

func TestAutoRecovery_HealthyTouchesNothing(t *testing.T) {
	env := newTestEnv(t)
	env.seedBootstrapped(t, "hotel-1", "12345")
	insertAudit(t, env, "hotel-1", constants.OpDeltaBookings, entities.AuditSuccess, time.Now().UTC())

	tokens := &mockTokens{}
	svc := newRecoveryService(env, tokens)

	report, err := svc.AutoRecovery(context.Background(), "")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(report.Actions) != 0 {
		t.Errorf("Expected no actions on a healthy fleet, got %+v", report.Actions)
	}
	if tokens.refreshes != 0 || len(tokens.invalidated) != 0 {
		t.Error("Expected the token vault untouched")
	}
}

func TestAutoRecovery_ExpiredTokenRefreshes(t *testing.T) {
	env := newTestEnv(t)
	conn := env.seedBootstrapped(t, "hotel-1", "12345")
	ctx := context.Background()
	expired := time.Now().UTC().Add(-time.Hour)
	if err := env.conns.UpdateTokens(ctx, conn.ID, "stale-token", expired); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	tokens := &mockTokens{}
	svc := newRecoveryService(env, tokens)

	report, err := svc.AutoRecovery(ctx, "hotel-1")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if tokens.refreshes != 1 {
		t.Errorf("Expected 1 refresh, got %d", tokens.refreshes)
	}
	if len(report.Actions) != 1 {
		t.Fatalf("Expected 1 action, got %+v", report.Actions)
	}
	if report.Actions[0].Action != "token_refresh" || !report.Actions[0].Success {
		t.Errorf("Expected a successful token_refresh, got %+v", report.Actions[0])
	}

	entries, err := env.auditRepo.RecentByHotel(ctx, "hotel-1", 20)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	refreshRows := 0
	for _, e := range entries {
		if e.Operation == constants.OpTokenRefresh {
			refreshRows++
		}
	}
	if refreshRows != 2 {
		t.Errorf("Expected the token refresh audited (started + terminal), got %d rows", refreshRows)
	}
}

func TestAutoRecovery_RefreshFailureEscalatesToReset(t *testing.T) {
	env := newTestEnv(t)
	conn := env.seedBootstrapped(t, "hotel-1", "12345")
	ctx := context.Background()
	expired := time.Now().UTC().Add(-time.Hour)
	if err := env.conns.UpdateTokens(ctx, conn.ID, "stale-token", expired); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	tokens := &mockTokens{refreshErr: fmt.Errorf("token endpoint unreachable")}
	svc := newRecoveryService(env, tokens)

	report, err := svc.AutoRecovery(ctx, "hotel-1")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(report.Actions) != 2 {
		t.Fatalf("Expected refresh then reset, got %+v", report.Actions)
	}
	if report.Actions[0].Action != "token_refresh" || report.Actions[0].Success {
		t.Errorf("Expected a failed token_refresh first, got %+v", report.Actions[0])
	}
	if report.Actions[1].Action != "token_reset" || !report.Actions[1].Success {
		t.Errorf("Expected a successful token_reset, got %+v", report.Actions[1])
	}
	if len(tokens.invalidated) != 1 || tokens.invalidated[0] != conn.ID {
		t.Errorf("Expected cached tokens invalidated for %s, got %v", conn.ID, tokens.invalidated)
	}

	stored, _ := env.conns.GetByHotel(ctx, "hotel-1")
	if stored.AccessToken != "" || stored.TokenExpiresAt != nil {
		t.Error("Expected the stale access token cleared")
	}
}

func TestManualRecovery_ResetSyncState(t *testing.T) {
	env := newTestEnv(t)
	env.seedBootstrapped(t, "hotel-1", "12345")
	ctx := context.Background()
	cursor := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	if err := env.states.AdvanceBookingsCursor(ctx, "hotel-1", cursor); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	svc := newRecoveryService(env, &mockTokens{})
	report, err := svc.ManualRecovery(ctx, RecoveryOptions{HotelID: "hotel-1", ResetSyncState: true})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(report.Actions) != 1 || report.Actions[0].Action != "sync_state_reset" || !report.Actions[0].Success {
		t.Fatalf("Expected a successful sync_state_reset, got %+v", report.Actions)
	}

	state, _ := env.states.Get(ctx, "hotel-1")
	if state.BookingsModifiedFrom != nil {
		t.Error("Expected the cursor cleared")
	}
	if !state.BootstrapCompleted {
		t.Error("Expected the bootstrap flag preserved")
	}
}

func TestManualRecovery_RepairDataIntegrity(t *testing.T) {
	env := newTestEnv(t)
	env.seedBootstrapped(t, "hotel-1", "12345")
	ctx := context.Background()

	rt := &entities.RoomType{ID: "local-room", HotelID: "hotel-1", Name: "Double"}
	if err := env.roomTypes.Insert(ctx, rt); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if err := env.mappings.Create(ctx, "hotel-1", entities.KindRoom, "r1", "local-room"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if err := env.mappings.Create(ctx, "hotel-1", entities.KindBooking, "b9", "vanished-booking"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	svc := newRecoveryService(env, &mockTokens{})
	report, err := svc.ManualRecovery(ctx, RecoveryOptions{HotelID: "hotel-1", RepairDataIntegrity: true})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(report.Actions) != 1 || !report.Actions[0].Success {
		t.Fatalf("Expected a successful repair action, got %+v", report.Actions)
	}

	kept, _ := env.mappings.GetLocalID(ctx, "hotel-1", entities.KindRoom, "r1")
	if kept != "local-room" {
		t.Error("Expected the valid mapping to survive")
	}
	gone, _ := env.mappings.GetLocalID(ctx, "hotel-1", entities.KindBooking, "b9")
	if gone != "" {
		t.Error("Expected the orphaned booking mapping removed")
	}
}

func TestManualRecovery_ClearErrorsReactivatesConnection(t *testing.T) {
	env := newTestEnv(t)
	conn := env.seedBootstrapped(t, "hotel-1", "12345")
	ctx := context.Background()
	if err := env.conns.SetStatus(ctx, conn.ID, gormModels.ConnStatusError); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	svc := newRecoveryService(env, &mockTokens{})
	report, err := svc.ManualRecovery(ctx, RecoveryOptions{HotelID: "hotel-1", ClearErrors: true})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(report.Actions) != 1 || !report.Actions[0].Success {
		t.Fatalf("Expected a successful clear_errors action, got %+v", report.Actions)
	}

	stored, _ := env.conns.GetByHotel(ctx, "hotel-1")
	if stored.Status != gormModels.ConnStatusActive {
		t.Errorf("Expected the connection reactivated, got %s", stored.Status)
	}
}
