package services

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"roomworks/channelsync/internal/constants"
	"roomworks/channelsync/internal/db/repositories"
	"roomworks/channelsync/internal/models/entities"
	gormModels "roomworks/channelsync/internal/models/gorm"
	"roomworks/channelsync/internal/vault"
)

// Health states
const (
	HealthHealthy  = "healthy"
	HealthWarning  = "warning"
	HealthCritical = "critical"
)

// HealthIssue describes one detected problem.
type HealthIssue struct {
	Severity string `json:"severity"` // warning|critical
	Code     string `json:"code"`
	Message  string `json:"message"`
	HotelID  string `json:"hotel_id,omitempty"`
}

// HealthReport is the aggregate health of the sync pipeline.
type HealthReport struct {
	Status      string        `json:"status"`
	Issues      []HealthIssue `json:"issues"`
	Connections int           `json:"connections"`
	ErrorRate   float64       `json:"error_rate"`
	CheckedAt   time.Time     `json:"checked_at"`
}

// RecoveryAction is one step the recovery manager took.
type RecoveryAction struct {
	Action  string `json:"action"`
	HotelID string `json:"hotel_id,omitempty"`
	Detail  string `json:"detail,omitempty"`
	Success bool   `json:"success"`
}

// RecoveryReport lists every action a recovery run performed. An empty
// Actions slice means nothing was wrong and nothing was touched.
type RecoveryReport struct {
	Actions   []RecoveryAction `json:"actions"`
	StartedAt time.Time        `json:"started_at"`
}

// RecoveryOptions selects the primitive actions a manual recovery runs.
type RecoveryOptions struct {
	HotelID             string `json:"hotel_id"`
	ResetTokens         bool   `json:"resetTokens"`
	ClearErrors         bool   `json:"clearErrors"`
	ResetSyncState      bool   `json:"resetSyncState"`
	RepairDataIntegrity bool   `json:"repairDataIntegrity"`
}

// TokenManager is the slice of the credential vault recovery consumes.
// Satisfied by *vault.Vault.
type TokenManager interface {
	Refresh(ctx context.Context, conn *gormModels.ChannelConnection, tokenType string) (*vault.Token, error)
	Invalidate(connID string)
}

// RecoveryService detects unhealthy sync state and repairs it, trying the
// least disruptive action first.
type RecoveryService struct {
	connRepo        *repositories.ConnectionRepo
	syncStateRepo   *repositories.SyncStateRepo
	mappingRepo     *repositories.IdMappingRepo
	auditRepo       *repositories.AuditLogRepo
	tokens          TokenManager
	audit           *AuditService
	intervalMinutes int
}

// NewRecoveryService creates a new recovery manager.
func NewRecoveryService(
	connRepo *repositories.ConnectionRepo,
	syncStateRepo *repositories.SyncStateRepo,
	mappingRepo *repositories.IdMappingRepo,
	auditRepo *repositories.AuditLogRepo,
	tokens TokenManager,
	audit *AuditService,
) *RecoveryService {
	interval := 15
	if v := os.Getenv("SYNC_INTERVAL_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			interval = n
		}
	}
	return &RecoveryService{
		connRepo:        connRepo,
		syncStateRepo:   syncStateRepo,
		mappingRepo:     mappingRepo,
		auditRepo:       auditRepo,
		tokens:          tokens,
		audit:           audit,
		intervalMinutes: interval,
	}
}

// EvaluateHealth computes the current health state. hotelID scopes the check
// to one hotel; empty means fleet-wide.
func (s *RecoveryService) EvaluateHealth(ctx context.Context, hotelID string) (*HealthReport, error) {
	report := &HealthReport{
		Status:    HealthHealthy,
		Issues:    []HealthIssue{},
		CheckedAt: time.Now().UTC(),
	}

	states, err := s.statesInScope(ctx, hotelID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sync states: %w", err)
	}

	now := time.Now().UTC()
	staleAfter := time.Duration(s.intervalMinutes*constants.StaleSyncMultiplier) * time.Minute

	for i := range states {
		state := &states[i]
		conn, err := s.connRepo.GetByHotel(ctx, state.HotelID)
		if err != nil {
			return nil, fmt.Errorf("failed to load connection for hotel %s: %w", state.HotelID, err)
		}
		if conn != nil {
			report.Connections++
			if conn.Status == gormModels.ConnStatusError {
				report.addIssue(HealthCritical, constants.ErrCodeAuthExpired,
					"connection is in error state and needs re-authorization", state.HotelID)
			} else if conn.Status == gormModels.ConnStatusActive &&
				conn.TokenExpiresAt != nil && conn.TokenExpiresAt.Before(now) {
				report.addIssue(HealthWarning, constants.ErrCodeInvalidToken,
					"access token on active connection has expired", state.HotelID)
			}
		}

		if !state.BootstrapCompleted {
			if now.Sub(state.UpdatedAt) > constants.BootstrapGraceHours*time.Hour {
				report.addIssue(HealthCritical, constants.ErrCodeNotBootstrapped,
					"bootstrap has not completed within the grace period", state.HotelID)
			}
			continue
		}

		lastSuccess, err := s.auditRepo.LastSuccessAt(ctx, state.HotelID, constants.OpDeltaBookings)
		if err != nil {
			return nil, fmt.Errorf("failed to query last sync for hotel %s: %w", state.HotelID, err)
		}
		if state.SyncEnabled && lastSuccess != nil && now.Sub(*lastSuccess) > staleAfter {
			report.addIssue(HealthWarning, constants.ErrCodeSyncStale,
				fmt.Sprintf("last successful sync was %s ago", now.Sub(*lastSuccess).Truncate(time.Minute)),
				state.HotelID)
		}
	}

	stats, err := s.auditRepo.ErrorStatsSince(ctx, now.Add(-24*time.Hour), hotelID)
	if err != nil {
		return nil, fmt.Errorf("failed to compute error stats: %w", err)
	}
	if stats.Total > 0 {
		report.ErrorRate = float64(stats.Errors) / float64(stats.Total)
		if report.ErrorRate >= constants.CriticalErrorRate {
			report.addIssue(HealthCritical, constants.ErrCodePartialFailure,
				fmt.Sprintf("error rate %.0f%% over the last 24h", report.ErrorRate*100), hotelID)
		} else if report.ErrorRate >= constants.WarningErrorRate {
			report.addIssue(HealthWarning, constants.ErrCodePartialFailure,
				fmt.Sprintf("error rate %.0f%% over the last 24h", report.ErrorRate*100), hotelID)
		}
	}

	return report, nil
}

// AutoRecovery inspects health and repairs what it can, least disruptive
// action first: token refresh, token reset, cursor nudge, state reset. With
// no issues it returns an empty action list and touches nothing.
func (s *RecoveryService) AutoRecovery(ctx context.Context, hotelID string) (*RecoveryReport, error) {
	report := &RecoveryReport{Actions: []RecoveryAction{}, StartedAt: time.Now().UTC()}

	health, err := s.EvaluateHealth(ctx, hotelID)
	if err != nil {
		return nil, err
	}
	if len(health.Issues) == 0 {
		return report, nil
	}

	s.audit.Started(ctx, constants.OpAutoRecovery, hotelID, map[string]interface{}{
		"issues": len(health.Issues),
	})

	for _, issue := range health.Issues {
		switch issue.Code {
		case constants.ErrCodeInvalidToken:
			s.recoverToken(ctx, issue.HotelID, report)
		case constants.ErrCodeAuthExpired:
			// A dead refresh token cannot be repaired in-process; clear the
			// stale access token so the next successful re-auth starts clean.
			s.resetToken(ctx, issue.HotelID, report)
		case constants.ErrCodeSyncStale:
			s.nudgeCursor(ctx, issue.HotelID, report)
		case constants.ErrCodePartialFailure:
			if issue.Severity == HealthCritical && issue.HotelID != "" {
				s.resetState(ctx, issue.HotelID, report)
			}
		}
	}

	status := entities.AuditSuccess
	for _, a := range report.Actions {
		if !a.Success {
			status = entities.AuditPartial
			break
		}
	}
	s.audit.Finish(ctx, constants.OpAutoRecovery, hotelID, status, nil, time.Since(report.StartedAt),
		len(report.Actions), "", map[string]interface{}{"actions": len(report.Actions)})

	log.Printf("[Recovery] Auto recovery took %d action(s) for %d issue(s)", len(report.Actions), len(health.Issues))
	return report, nil
}

// ManualRecovery runs the explicitly requested primitives. Each one is
// idempotent, so repeating a recovery is always safe.
func (s *RecoveryService) ManualRecovery(ctx context.Context, opts RecoveryOptions) (*RecoveryReport, error) {
	report := &RecoveryReport{Actions: []RecoveryAction{}, StartedAt: time.Now().UTC()}

	s.audit.Started(ctx, constants.OpManualRecovery, opts.HotelID, map[string]interface{}{
		"reset_tokens":          opts.ResetTokens,
		"clear_errors":          opts.ClearErrors,
		"reset_sync_state":      opts.ResetSyncState,
		"repair_data_integrity": opts.RepairDataIntegrity,
	})

	if opts.ResetTokens {
		s.resetToken(ctx, opts.HotelID, report)
	}
	if opts.ClearErrors {
		s.clearErrors(ctx, opts.HotelID, report)
	}
	if opts.ResetSyncState {
		s.resetState(ctx, opts.HotelID, report)
	}
	if opts.RepairDataIntegrity {
		s.repairIntegrity(ctx, opts.HotelID, report)
	}

	status := entities.AuditSuccess
	for _, a := range report.Actions {
		if !a.Success {
			status = entities.AuditPartial
			break
		}
	}
	s.audit.Finish(ctx, constants.OpManualRecovery, opts.HotelID, status, nil, time.Since(report.StartedAt),
		len(report.Actions), "", map[string]interface{}{"actions": len(report.Actions)})
	return report, nil
}

func (s *RecoveryService) statesInScope(ctx context.Context, hotelID string) ([]entities.SyncState, error) {
	if hotelID == "" {
		return s.syncStateRepo.ListEnabled(ctx)
	}
	state, err := s.syncStateRepo.Get(ctx, hotelID)
	if err != nil || state == nil {
		return nil, err
	}
	return []entities.SyncState{*state}, nil
}

func (s *RecoveryService) recoverToken(ctx context.Context, hotelID string, report *RecoveryReport) {
	action := RecoveryAction{Action: "token_refresh", HotelID: hotelID}
	refreshStart := time.Now()
	s.audit.Started(ctx, constants.OpTokenRefresh, hotelID, nil)

	conn, err := s.connRepo.GetByHotel(ctx, hotelID)
	if err == nil && conn != nil {
		_, err = s.tokens.Refresh(ctx, conn, vault.TokenRead)
	}
	if err != nil {
		s.audit.Finish(ctx, constants.OpTokenRefresh, hotelID, entities.AuditError, nil,
			time.Since(refreshStart), 0, err.Error(), nil)
		action.Detail = err.Error()
		report.Actions = append(report.Actions, action)
		// Refresh failed; escalate to a full token reset.
		s.resetToken(ctx, hotelID, report)
		return
	}
	s.audit.Finish(ctx, constants.OpTokenRefresh, hotelID, entities.AuditSuccess, nil,
		time.Since(refreshStart), 1, "", nil)
	action.Success = true
	report.Actions = append(report.Actions, action)
}

func (s *RecoveryService) resetToken(ctx context.Context, hotelID string, report *RecoveryReport) {
	action := RecoveryAction{Action: "token_reset", HotelID: hotelID}
	conn, err := s.connRepo.GetByHotel(ctx, hotelID)
	if err == nil && conn != nil {
		s.tokens.Invalidate(conn.ID)
		err = s.connRepo.ClearAccessToken(ctx, conn.ID)
	}
	if err != nil {
		action.Detail = err.Error()
	} else {
		action.Success = true
	}
	report.Actions = append(report.Actions, action)
}

func (s *RecoveryService) clearErrors(ctx context.Context, hotelID string, report *RecoveryReport) {
	action := RecoveryAction{Action: "clear_errors", HotelID: hotelID}
	conn, err := s.connRepo.GetByHotel(ctx, hotelID)
	if err == nil && conn != nil && conn.Status == gormModels.ConnStatusError {
		err = s.connRepo.SetStatus(ctx, conn.ID, gormModels.ConnStatusActive)
		action.Detail = "connection status error -> active"
	}
	if err != nil {
		action.Detail = err.Error()
	} else {
		action.Success = true
	}
	report.Actions = append(report.Actions, action)
}

// nudgeCursor moves the bookings cursor back a bounded distance so the next
// delta re-fetches a window that may have been missed.
func (s *RecoveryService) nudgeCursor(ctx context.Context, hotelID string, report *RecoveryReport) {
	action := RecoveryAction{Action: "cursor_nudge", HotelID: hotelID}
	state, err := s.syncStateRepo.Get(ctx, hotelID)
	if err == nil && state != nil && state.BookingsModifiedFrom != nil {
		nudged := state.BookingsModifiedFrom.Add(-constants.CursorNudgeHours * time.Hour)
		err = s.syncStateRepo.SetBookingsCursor(ctx, hotelID, &nudged)
		action.Detail = fmt.Sprintf("cursor moved back to %s", nudged.Format(time.RFC3339))
	}
	if err != nil {
		action.Detail = err.Error()
	} else {
		action.Success = true
	}
	report.Actions = append(report.Actions, action)
}

func (s *RecoveryService) resetState(ctx context.Context, hotelID string, report *RecoveryReport) {
	action := RecoveryAction{Action: "sync_state_reset", HotelID: hotelID}
	if err := s.syncStateRepo.Reset(ctx, hotelID); err != nil {
		action.Detail = err.Error()
	} else {
		action.Success = true
		action.Detail = "cursors cleared, bootstrap flag preserved"
	}
	report.Actions = append(report.Actions, action)
}

func (s *RecoveryService) repairIntegrity(ctx context.Context, hotelID string, report *RecoveryReport) {
	tables := map[string]string{
		entities.KindRoom:    "room_types",
		entities.KindBooking: "bookings",
		entities.KindInvoice: "bookings",
	}
	var removed int64
	action := RecoveryAction{Action: "repair_data_integrity", HotelID: hotelID}
	for kind, table := range tables {
		n, err := s.mappingRepo.DeleteOrphans(ctx, hotelID, kind, table)
		if err != nil {
			action.Detail = err.Error()
			report.Actions = append(report.Actions, action)
			return
		}
		removed += n
	}
	action.Success = true
	action.Detail = fmt.Sprintf("%d orphaned mapping(s) removed", removed)
	report.Actions = append(report.Actions, action)
}

func (r *HealthReport) addIssue(severity, code, message, hotelID string) {
	r.Issues = append(r.Issues, HealthIssue{
		Severity: severity,
		Code:     code,
		Message:  message,
		HotelID:  hotelID,
	})
	if severity == HealthCritical {
		r.Status = HealthCritical
	} else if r.Status == HealthHealthy {
		r.Status = HealthWarning
	}
}
