package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"roomworks/channelsync/internal/constants"
	"roomworks/channelsync/internal/db/repositories"
	"roomworks/channelsync/internal/metrics"
	"roomworks/channelsync/internal/models/dtos"
	"roomworks/channelsync/internal/models/entities"
	gormModels "roomworks/channelsync/internal/models/gorm"
	"roomworks/channelsync/internal/providers"
)

// RateUpdate carries the values a push applies to every date in its range.
// Nil fields are left untouched on the remote side.
type RateUpdate struct {
	Rate          *float64 `json:"rate,omitempty"`
	Availability  *int     `json:"availability,omitempty"`
	StopSell      *bool    `json:"stopSell,omitempty"`
	ClosedArrival *bool    `json:"closedArrival,omitempty"`
}

// PushBatchResult describes the outcome of one date-range batch.
type PushBatchResult struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Lines     int    `json:"lines"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
}

// PushResult summarizes one rate/availability push.
type PushResult struct {
	HotelID           string            `json:"hotel_id"`
	RoomTypeID        string            `json:"room_type_id"`
	Batches           int               `json:"batches"`
	SuccessfulBatches int               `json:"successful_batches"`
	LinesTotal        int               `json:"lines_total"`
	LinesSuccessful   int               `json:"lines_successful"`
	Status            string            `json:"status"`
	BatchResults      []PushBatchResult `json:"batch_results"`
}

// RatePushService pushes rate and availability changes out to Beds24 in
// bounded date-range batches and mirrors accepted values locally.
type RatePushService struct {
	connRepo     *repositories.ConnectionRepo
	mappingRepo  *repositories.IdMappingRepo
	roomTypeRepo *repositories.RoomTypeRepo
	calendarRepo *repositories.CalendarRepo
	historyRepo  *repositories.RatePushHistoryRepo
	client       ChannelClient
	audit        *AuditService
	metricsReg   *metrics.MetricsRegistry
	batchDays    int
}

// NewRatePushService creates a new rate push pipeline. metricsReg may be nil.
func NewRatePushService(
	connRepo *repositories.ConnectionRepo,
	mappingRepo *repositories.IdMappingRepo,
	roomTypeRepo *repositories.RoomTypeRepo,
	calendarRepo *repositories.CalendarRepo,
	historyRepo *repositories.RatePushHistoryRepo,
	client ChannelClient,
	audit *AuditService,
	metricsReg *metrics.MetricsRegistry,
) *RatePushService {
	return &RatePushService{
		connRepo:     connRepo,
		mappingRepo:  mappingRepo,
		roomTypeRepo: roomTypeRepo,
		calendarRepo: calendarRepo,
		historyRepo:  historyRepo,
		client:       client,
		audit:        audit,
		metricsReg:   metricsReg,
		batchDays:    constants.DefaultRatePushBatchDays,
	}
}

// PushRates applies one update to every date in [startDate, endDate] for a
// room type. The range is split into bounded batches; each batch is attempted
// regardless of earlier failures and gets its own history row. Values the
// remote accepted are mirrored into local calendar_days.
func (s *RatePushService) PushRates(ctx context.Context, hotelID, roomTypeID string, startDate, endDate time.Time, update RateUpdate) (*PushResult, error) {
	runStart := time.Now()

	if endDate.Before(startDate) {
		return nil, &providers.ProviderError{
			Code:    constants.ErrCodeInvalidDateRange,
			Message: constants.GetErrorMessage(constants.ErrCodeInvalidDateRange),
		}
	}
	if update.Rate == nil && update.Availability == nil && update.StopSell == nil && update.ClosedArrival == nil {
		return nil, &providers.ProviderError{
			Code:    constants.ErrCodeInvalidPayload,
			Message: "push update carries no fields",
		}
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

	rt, err := s.roomTypeRepo.GetByID(ctx, roomTypeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load room type: %w", err)
	}
	if rt == nil || rt.HotelID != hotelID {
		return nil, fmt.Errorf("room type %s not found for hotel %s", roomTypeID, hotelID)
	}

	remoteRoomID, err := s.mappingRepo.GetRemoteID(ctx, hotelID, entities.KindRoom, roomTypeID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve remote room: %w", err)
	}
	if remoteRoomID == "" {
		return nil, fmt.Errorf("room type %s has no remote mapping", roomTypeID)
	}

	result := &PushResult{HotelID: hotelID, RoomTypeID: roomTypeID}
	totalMeta := &providers.CallMeta{}

	s.audit.Started(ctx, constants.OpRatePush, hotelID, map[string]interface{}{
		"room_type_id": roomTypeID,
		"start_date":   startDate.Format("2006-01-02"),
		"end_date":     endDate.Format("2006-01-02"),
	})

	for batchStart := startDate; !batchStart.After(endDate); batchStart = batchStart.AddDate(0, 0, s.batchDays) {
		batchEnd := batchStart.AddDate(0, 0, s.batchDays-1)
		if batchEnd.After(endDate) {
			batchEnd = endDate
		}
		s.pushBatch(ctx, conn, remoteRoomID, roomTypeID, batchStart, batchEnd, update, result, totalMeta)
	}

	switch {
	case result.SuccessfulBatches == result.Batches:
		result.Status = gormModels.RatePushSuccess
	case result.SuccessfulBatches > 0:
		result.Status = gormModels.RatePushPartial
	default:
		result.Status = gormModels.RatePushFailed
	}

	auditStatus := entities.AuditSuccess
	errMsg := ""
	switch result.Status {
	case gormModels.RatePushPartial:
		auditStatus = entities.AuditPartial
		errMsg = fmt.Sprintf("%d of %d batches failed", result.Batches-result.SuccessfulBatches, result.Batches)
	case gormModels.RatePushFailed:
		auditStatus = entities.AuditError
		errMsg = "all batches failed"
	}
	s.audit.Finish(ctx, constants.OpRatePush, hotelID, auditStatus, totalMeta, time.Since(runStart),
		result.LinesSuccessful, errMsg, map[string]interface{}{
			"batches":            result.Batches,
			"successful_batches": result.SuccessfulBatches,
			"lines_total":        result.LinesTotal,
			"lines_successful":   result.LinesSuccessful,
		})

	if s.metricsReg != nil {
		s.metricsReg.SyncRunsTotal.WithLabelValues("rate_push", auditStatus).Inc()
		s.metricsReg.SyncJobDuration.WithLabelValues("rate_push").Observe(time.Since(runStart).Seconds())
		s.metricsReg.SyncRecordsProcessed.WithLabelValues("calendar_day").Add(float64(result.LinesSuccessful))
	}

	log.Printf("[RatePush] Hotel %s room %s: %d/%d batches ok, %d/%d lines in %s",
		hotelID, roomTypeID, result.SuccessfulBatches, result.Batches,
		result.LinesSuccessful, result.LinesTotal, time.Since(runStart).Truncate(time.Millisecond))
	return result, nil
}

// pushBatch sends one contiguous date range and records its history row. A
// failed batch never stops the ones after it.
func (s *RatePushService) pushBatch(ctx context.Context, conn *gormModels.ChannelConnection, remoteRoomID, roomTypeID string, batchStart, batchEnd time.Time, update RateUpdate, result *PushResult, totalMeta *providers.CallMeta) {
	lines := int(batchEnd.Sub(batchStart).Hours()/24) + 1
	result.Batches++
	result.LinesTotal += lines

	batch := PushBatchResult{
		StartDate: batchStart.Format("2006-01-02"),
		EndDate:   batchEnd.Format("2006-01-02"),
		Lines:     lines,
	}

	payload := []dtos.CalendarUpdate{{
		RoomID:        remoteRoomID,
		From:          batch.StartDate,
		To:            batch.EndDate,
		Rate:          update.Rate,
		Available:     update.Availability,
		StopSell:      update.StopSell,
		ClosedArrival: update.ClosedArrival,
	}}

	meta, err := s.client.PushCalendar(ctx, conn, payload)
	totalMeta.Add(meta)

	rec := &gormModels.RatePushHistory{
		HotelID:    result.HotelID,
		RoomTypeID: roomTypeID,
		StartDate:  batchStart,
		EndDate:    batchEnd,
		LinesTotal: lines,
	}

	if err != nil {
		batch.Status = gormModels.RatePushFailed
		batch.Error = err.Error()
		rec.Status = gormModels.RatePushFailed
	} else {
		batch.Status = gormModels.RatePushSuccess
		rec.Status = gormModels.RatePushSuccess
		rec.LinesSuccessful = lines
		result.SuccessfulBatches++
		result.LinesSuccessful += lines
		if mirrorErr := s.mirrorBatch(ctx, result.HotelID, roomTypeID, batchStart, batchEnd, update); mirrorErr != nil {
			// Remote accepted the batch; a local mirror failure is logged but
			// does not fail the push.
			log.Printf("[RatePush] Failed to mirror batch %s..%s locally: %v", batch.StartDate, batch.EndDate, mirrorErr)
		}
	}

	if histErr := s.historyRepo.Create(ctx, rec); histErr != nil {
		log.Printf("[RatePush] Failed to record push history: %v", histErr)
	}

	result.BatchResults = append(result.BatchResults, batch)
}

// mirrorBatch writes the pushed values into local calendar_days so reads stay
// consistent with what the remote now holds. Existing cells keep fields the
// update did not touch.
func (s *RatePushService) mirrorBatch(ctx context.Context, hotelID, roomTypeID string, batchStart, batchEnd time.Time, update RateUpdate) error {
	existing, err := s.calendarRepo.ListRange(ctx, roomTypeID, batchStart, batchEnd)
	if err != nil {
		return err
	}
	byDate := make(map[string]*entities.CalendarDay, len(existing))
	for i := range existing {
		byDate[existing[i].Date.Format("2006-01-02")] = &existing[i]
	}

	for d := batchStart; !d.After(batchEnd); d = d.AddDate(0, 0, 1) {
		day, ok := byDate[d.Format("2006-01-02")]
		if !ok {
			day = &entities.CalendarDay{
				HotelID:    hotelID,
				RoomTypeID: roomTypeID,
				Date:       d,
			}
		}
		if update.Rate != nil {
			day.Rate = *update.Rate
		}
		if update.Availability != nil {
			day.Available = *update.Availability
		}
		if update.StopSell != nil {
			day.StopSell = *update.StopSell
		}
		if update.ClosedArrival != nil {
			day.ClosedArrival = *update.ClosedArrival
		}
		if err := s.calendarRepo.UpsertDay(ctx, day); err != nil {
			return err
		}
	}
	return nil
}
