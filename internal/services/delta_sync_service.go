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
	"roomworks/channelsync/internal/logging"
	"roomworks/channelsync/internal/metrics"
	"roomworks/channelsync/internal/models/entities"
	gormModels "roomworks/channelsync/internal/models/gorm"
	"roomworks/channelsync/internal/providers"
)

// SyncResult summarizes one delta sync run.
type SyncResult struct {
	HotelID        string   `json:"hotel_id"`
	Scope          string   `json:"scope"`
	BookingsSynced int      `json:"bookings_synced"`
	CalendarSynced int      `json:"calendar_synced"`
	Status         string   `json:"status"`
	Errors         []string `json:"errors,omitempty"`
	DurationMs     int      `json:"duration_ms"`
}

// DeltaSyncService runs the recurring incremental pull: bookings modified
// since the stored cursor plus a rolling full-window calendar refresh.
type DeltaSyncService struct {
	connRepo      *repositories.ConnectionRepo
	syncStateRepo *repositories.SyncStateRepo
	mappingRepo   *repositories.IdMappingRepo
	bookingRepo   *repositories.BookingRepo
	guestRepo     *repositories.GuestRepo
	calendarRepo  *repositories.CalendarRepo
	client        ChannelClient
	audit         *AuditService
	lock          SyncLocker
	metricsReg    *metrics.MetricsRegistry
	importer      bookingImporter
	windowDays    int
}

// NewDeltaSyncService creates a new delta sync orchestrator. metricsReg may
// be nil.
func NewDeltaSyncService(
	connRepo *repositories.ConnectionRepo,
	syncStateRepo *repositories.SyncStateRepo,
	mappingRepo *repositories.IdMappingRepo,
	bookingRepo *repositories.BookingRepo,
	guestRepo *repositories.GuestRepo,
	calendarRepo *repositories.CalendarRepo,
	client ChannelClient,
	audit *AuditService,
	lock SyncLocker,
	metricsReg *metrics.MetricsRegistry,
) *DeltaSyncService {
	windowDays := constants.DefaultCalendarWindowDays
	if v := os.Getenv("CALENDAR_WINDOW_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			windowDays = n
		}
	}
	return &DeltaSyncService{
		connRepo:      connRepo,
		syncStateRepo: syncStateRepo,
		mappingRepo:   mappingRepo,
		bookingRepo:   bookingRepo,
		guestRepo:     guestRepo,
		calendarRepo:  calendarRepo,
		client:        client,
		audit:         audit,
		lock:          lock,
		metricsReg:    metricsReg,
		importer: bookingImporter{
			mappingRepo: mappingRepo,
			bookingRepo: bookingRepo,
			guestRepo:   guestRepo,
		},
		windowDays: windowDays,
	}
}

// DeltaSync runs one incremental sync for a hotel. Preconditions are checked
// before any remote call: bootstrap completed, sync enabled, and no other
// sync currently running for the same hotel.
func (s *DeltaSyncService) DeltaSync(ctx context.Context, hotelID, scope string) (*SyncResult, error) {
	start := time.Now()

	state, err := s.syncStateRepo.Get(ctx, hotelID)
	if err != nil {
		return nil, fmt.Errorf("failed to load sync state: %w", err)
	}
	if state == nil || !state.BootstrapCompleted {
		return nil, ErrNotBootstrapped
	}
	if !state.SyncEnabled {
		return nil, ErrSyncDisabled
	}

	conn, err := s.connRepo.GetByHotel(ctx, hotelID)
	if err != nil {
		return nil, fmt.Errorf("failed to load connection: %w", err)
	}
	if conn == nil {
		return nil, ErrConnectionNotFound
	}
	if conn.Status == gormModels.ConnStatusDisabled {
		return nil, ErrConnectionDisabled
	}

	acquired, err := s.lock.Acquire(ctx, hotelID)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire sync lock: %w", err)
	}
	if !acquired {
		return nil, ErrSyncInProgress
	}
	defer func() {
		if err := s.lock.Release(ctx, hotelID); err != nil {
			logging.Warn("Failed to release sync lock", "hotel_id", hotelID, "error", err.Error())
		}
	}()

	result := &SyncResult{HotelID: hotelID, Scope: scope}
	totalMeta := &providers.CallMeta{}
	operation := operationForScope(scope)

	s.audit.Started(ctx, operation, hotelID, map[string]interface{}{"scope": scope})

	var systemicErr error
	if scope == constants.ScopeBookings || scope == constants.ScopeAll {
		systemicErr = s.syncBookings(ctx, conn, state, result, totalMeta)
	}
	if systemicErr == nil && (scope == constants.ScopeCalendar || scope == constants.ScopeAll) {
		systemicErr = s.syncCalendar(ctx, conn, state, result, totalMeta)
	}

	duration := time.Since(start)
	result.DurationMs = int(duration.Milliseconds())

	switch {
	case systemicErr != nil:
		result.Status = entities.AuditError
		s.audit.Finish(ctx, operation, hotelID, entities.AuditError, totalMeta, duration,
			result.BookingsSynced+result.CalendarSynced, systemicErr.Error(), s.summary(result))
	case len(result.Errors) > 0:
		result.Status = entities.AuditPartial
		s.audit.Finish(ctx, operation, hotelID, entities.AuditPartial, totalMeta, duration,
			result.BookingsSynced+result.CalendarSynced,
			fmt.Sprintf("%d records failed", len(result.Errors)), s.summary(result))
	default:
		result.Status = entities.AuditSuccess
		s.audit.Finish(ctx, operation, hotelID, entities.AuditSuccess, totalMeta, duration,
			result.BookingsSynced+result.CalendarSynced, "", s.summary(result))
	}

	s.observe(scope, result.Status, duration, result)

	if systemicErr != nil {
		return result, systemicErr
	}
	log.Printf("[DeltaSync] Hotel %s (%s): %d bookings, %d calendar cells, %d errors in %s",
		hotelID, scope, result.BookingsSynced, result.CalendarSynced, len(result.Errors),
		duration.Truncate(time.Millisecond))
	return result, nil
}

// syncBookings pulls bookings modified since the cursor and advances it only
// after the whole batch is durably written. A crash mid-batch re-fetches the
// same window; upsert through id mappings keeps re-processing idempotent.
func (s *DeltaSyncService) syncBookings(ctx context.Context, conn *gormModels.ChannelConnection, state *entities.SyncState, result *SyncResult, totalMeta *providers.CallMeta) error {
	modifiedFrom := state.BookingsModifiedFrom
	if modifiedFrom == nil {
		// First delta after bootstrap: resume from the completion time.
		modifiedFrom = state.BootstrapCompletedAt
	}

	var maxModified time.Time
	offset := 0
	for {
		page, meta, err := s.client.FetchBookings(ctx, conn, state.RemotePropertyID, modifiedFrom, offset)
		totalMeta.Add(meta)
		if err != nil {
			return fmt.Errorf("failed to fetch bookings (offset %d): %w", offset, err)
		}

		for i := range page.Bookings {
			rb := &page.Bookings[i]
			if _, _, err := s.importer.importBooking(ctx, result.HotelID, rb); err != nil {
				result.Errors = append(result.Errors, err.Error())
				continue
			}
			result.BookingsSynced++
			if mod := rb.ModifiedAt(); mod.After(maxModified) {
				maxModified = mod
			}
		}

		if !page.HasMore {
			break
		}
		offset = page.NextOffset
	}

	// Cursor advance is last, and monotonic: a retried window can only move
	// it forward.
	if !maxModified.IsZero() {
		if err := s.syncStateRepo.AdvanceBookingsCursor(ctx, result.HotelID, maxModified); err != nil {
			return fmt.Errorf("failed to advance bookings cursor: %w", err)
		}
	}
	return nil
}

// syncCalendar refreshes the rolling availability window in full. Calendar
// data is dense and cheap to refresh wholesale, so no cursor is kept beyond
// the window bounds.
func (s *DeltaSyncService) syncCalendar(ctx context.Context, conn *gormModels.ChannelConnection, state *entities.SyncState, result *SyncResult, totalMeta *providers.CallMeta) error {
	start := time.Now().UTC().Truncate(24 * time.Hour)
	end := start.AddDate(0, 0, s.windowDays)

	cells, meta, err := s.client.FetchCalendar(ctx, conn, state.RemotePropertyID, start, end)
	totalMeta.Add(meta)
	if err != nil {
		return fmt.Errorf("failed to fetch calendar: %w", err)
	}

	for i := range cells {
		cell := &cells[i]
		localRoomID, err := s.mappingRepo.GetLocalID(ctx, result.HotelID, entities.KindRoom, cell.RoomID)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("calendar %s/%s: %v", cell.RoomID, cell.Date, err))
			continue
		}
		if localRoomID == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("calendar %s/%s: unknown remote room", cell.RoomID, cell.Date))
			continue
		}
		date, err := time.Parse("2006-01-02", cell.Date)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("calendar %s/%s: bad date", cell.RoomID, cell.Date))
			continue
		}

		day := &entities.CalendarDay{
			HotelID:       result.HotelID,
			RoomTypeID:    localRoomID,
			Date:          date,
			Rate:          cell.Rate,
			Available:     cell.Available,
			StopSell:      cell.StopSell,
			ClosedArrival: cell.ClosedArrival,
		}
		if err := s.calendarRepo.UpsertDay(ctx, day); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("calendar %s/%s: %v", cell.RoomID, cell.Date, err))
			continue
		}
		result.CalendarSynced++
	}

	if err := s.syncStateRepo.SetCalendarWindow(ctx, result.HotelID, start, end); err != nil {
		return fmt.Errorf("failed to record calendar window: %w", err)
	}
	return nil
}

func (s *DeltaSyncService) summary(result *SyncResult) map[string]interface{} {
	return map[string]interface{}{
		"bookings_synced": result.BookingsSynced,
		"calendar_synced": result.CalendarSynced,
		"errors":          len(result.Errors),
	}
}

func (s *DeltaSyncService) observe(scope, status string, duration time.Duration, result *SyncResult) {
	if s.metricsReg == nil {
		return
	}
	s.metricsReg.SyncRunsTotal.WithLabelValues(scope, status).Inc()
	s.metricsReg.SyncJobDuration.WithLabelValues("delta_sync").Observe(duration.Seconds())
	s.metricsReg.SyncRecordsProcessed.WithLabelValues("booking").Add(float64(result.BookingsSynced))
	s.metricsReg.SyncRecordsProcessed.WithLabelValues("calendar_day").Add(float64(result.CalendarSynced))
}

func operationForScope(scope string) string {
	switch scope {
	case constants.ScopeCalendar:
		return constants.OpDeltaCalendar
	default:
		return constants.OpDeltaBookings
	}
}
