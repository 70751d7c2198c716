package services

import (
	"context"
	"fmt"
	"time"

	"roomworks/channelsync/internal/constants"
	"roomworks/channelsync/internal/db/repositories"
	"roomworks/channelsync/internal/models/entities"
	gormModels "roomworks/channelsync/internal/models/gorm"
)

// OperationMetrics is one operation's windowed performance summary.
type OperationMetrics struct {
	Operation     string  `json:"operation"`
	Runs          int     `json:"runs"`
	SuccessRate   float64 `json:"success_rate"`
	AvgDurationMs float64 `json:"avg_duration_ms"`
	APICost       int     `json:"api_cost"`
	Records       int     `json:"records_processed"`
}

// PerformanceReport covers all operations over a window.
type PerformanceReport struct {
	WindowHours int                `json:"window_hours"`
	Operations  []OperationMetrics `json:"operations"`
	TotalCost   int                `json:"total_api_cost"`
}

// HotelSyncStatus is the per-hotel line of the sync-status endpoint.
type HotelSyncStatus struct {
	HotelID            string     `json:"hotel_id"`
	PropertyID         string     `json:"property_id"`
	ConnectionStatus   string     `json:"connection_status"`
	BootstrapCompleted bool       `json:"bootstrap_completed"`
	SyncEnabled        bool       `json:"sync_enabled"`
	BookingsCursor     *time.Time `json:"bookings_cursor,omitempty"`
	CalendarStart      *time.Time `json:"calendar_start,omitempty"`
	CalendarEnd        *time.Time `json:"calendar_end,omitempty"`
	LastSuccessAt      *time.Time `json:"last_success_at,omitempty"`
}

// SyncStatusReport is the fleet view plus summary counts.
type SyncStatusReport struct {
	Hotels  []HotelSyncStatus `json:"hotels"`
	Summary SyncStatusSummary `json:"summary"`
}

// SyncStatusSummary aggregates the fleet.
type SyncStatusSummary struct {
	Total        int `json:"total"`
	Active       int `json:"active"`
	Errored      int `json:"errored"`
	Bootstrapped int `json:"bootstrapped"`
	Enabled      int `json:"enabled"`
}

// MonitoringService serves the operational read-only endpoints: health,
// performance, and per-hotel sync status.
type MonitoringService struct {
	connRepo      *repositories.ConnectionRepo
	syncStateRepo *repositories.SyncStateRepo
	auditRepo     *repositories.AuditLogRepo
	recovery      *RecoveryService
}

// NewMonitoringService creates a new monitoring facade.
func NewMonitoringService(
	connRepo *repositories.ConnectionRepo,
	syncStateRepo *repositories.SyncStateRepo,
	auditRepo *repositories.AuditLogRepo,
	recovery *RecoveryService,
) *MonitoringService {
	return &MonitoringService{
		connRepo:      connRepo,
		syncStateRepo: syncStateRepo,
		auditRepo:     auditRepo,
		recovery:      recovery,
	}
}

// HealthOverview reuses the recovery manager's health evaluation so the
// monitoring endpoint and auto recovery always agree on what unhealthy means.
func (s *MonitoringService) HealthOverview(ctx context.Context, hotelID string) (*HealthReport, error) {
	return s.recovery.EvaluateHealth(ctx, hotelID)
}

// Performance aggregates audit-log accounting over the given window.
func (s *MonitoringService) Performance(ctx context.Context, windowHours int) (*PerformanceReport, error) {
	if windowHours <= 0 {
		windowHours = 24
	}
	since := time.Now().UTC().Add(-time.Duration(windowHours) * time.Hour)
	stats, err := s.auditRepo.OperationStatsSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query operation stats: %w", err)
	}

	report := &PerformanceReport{WindowHours: windowHours, Operations: []OperationMetrics{}}
	for _, st := range stats {
		m := OperationMetrics{
			Operation:     st.Operation,
			Runs:          st.Runs,
			AvgDurationMs: st.AvgDurationMs,
			APICost:       st.TotalCost,
			Records:       st.RecordsProcessed,
		}
		if st.Runs > 0 {
			m.SuccessRate = float64(st.Successes) / float64(st.Runs)
		}
		report.Operations = append(report.Operations, m)
		report.TotalCost += st.TotalCost
	}
	return report, nil
}

// SyncStatus returns the per-hotel cursor and connection detail plus fleet
// summary counts.
func (s *MonitoringService) SyncStatus(ctx context.Context) (*SyncStatusReport, error) {
	states, err := s.syncStateRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sync states: %w", err)
	}

	report := &SyncStatusReport{Hotels: []HotelSyncStatus{}}
	for i := range states {
		state := &states[i]
		line := HotelSyncStatus{
			HotelID:            state.HotelID,
			PropertyID:         state.RemotePropertyID,
			BootstrapCompleted: state.BootstrapCompleted,
			SyncEnabled:        state.SyncEnabled,
			BookingsCursor:     state.BookingsModifiedFrom,
			CalendarStart:      state.CalendarStart,
			CalendarEnd:        state.CalendarEnd,
		}

		conn, err := s.connRepo.GetByHotel(ctx, state.HotelID)
		if err != nil {
			return nil, fmt.Errorf("failed to load connection for hotel %s: %w", state.HotelID, err)
		}
		if conn != nil {
			line.ConnectionStatus = conn.Status
		}

		lastSuccess, err := s.auditRepo.LastSuccessAt(ctx, state.HotelID, constants.OpDeltaBookings)
		if err != nil {
			return nil, fmt.Errorf("failed to query last sync for hotel %s: %w", state.HotelID, err)
		}
		line.LastSuccessAt = lastSuccess

		report.Hotels = append(report.Hotels, line)
		report.Summary.Total++
		if line.ConnectionStatus == gormModels.ConnStatusActive {
			report.Summary.Active++
		}
		if line.ConnectionStatus == gormModels.ConnStatusError {
			report.Summary.Errored++
		}
		if state.BootstrapCompleted {
			report.Summary.Bootstrapped++
		}
		if state.SyncEnabled {
			report.Summary.Enabled++
		}
	}
	return report, nil
}

// RecentActivity returns the newest audit entries for a hotel.
func (s *MonitoringService) RecentActivity(ctx context.Context, hotelID string, limit int) ([]entities.AuditLogEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.auditRepo.RecentByHotel(ctx, hotelID, limit)
}
