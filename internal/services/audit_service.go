package services

import (
	"context"
	"encoding/json"
	"time"

	"roomworks/channelsync/internal/constants"
	"roomworks/channelsync/internal/db/repositories"
	"roomworks/channelsync/internal/logging"
	"roomworks/channelsync/internal/models/entities"
	"roomworks/channelsync/internal/providers"
)

// AuditService appends one record per remote call or sync operation to the
// append-only audit log. Every invocation writes a started row and exactly
// one terminal row, so no outcome is ever silently lost.
type AuditService struct {
	repo *repositories.AuditLogRepo
}

func NewAuditService(repo *repositories.AuditLogRepo) *AuditService {
	return &AuditService{repo: repo}
}

func nullableHotel(hotelID string) *string {
	if hotelID == "" {
		return nil
	}
	return &hotelID
}

func encodeMetadata(metadata map[string]interface{}) string {
	if len(metadata) == 0 {
		return "{}"
	}
	raw, err := json.Marshal(metadata)
	if err != nil {
		return "{}"
	}
	return string(raw)
}

// Started records the beginning of an operation. Audit failures are logged
// and swallowed: the sync itself must not fail because observability did.
func (s *AuditService) Started(ctx context.Context, operation, hotelID string, metadata map[string]interface{}) {
	entry := &entities.AuditLogEntry{
		Provider:  constants.ProviderBeds24,
		Operation: operation,
		Status:    entities.AuditStarted,
		HotelID:   nullableHotel(hotelID),
		Metadata:  encodeMetadata(metadata),
	}
	if err := s.repo.Insert(ctx, entry); err != nil {
		logging.Error("Failed to write audit entry", "operation", operation, "error", err.Error())
	}
}

// Finish records the terminal outcome of an operation with its accounting.
func (s *AuditService) Finish(ctx context.Context, operation, hotelID, status string, meta *providers.CallMeta, duration time.Duration, records int, errMsg string, metadata map[string]interface{}) {
	entry := &entities.AuditLogEntry{
		Provider:         constants.ProviderBeds24,
		Operation:        operation,
		Status:           status,
		HotelID:          nullableHotel(hotelID),
		DurationMs:       int(duration.Milliseconds()),
		RecordsProcessed: records,
		Metadata:         encodeMetadata(metadata),
	}
	if meta != nil {
		entry.RequestCost = meta.RequestCost
		entry.CreditRemaining = meta.CreditRemaining
	}
	if errMsg != "" {
		entry.ErrorMessage = &errMsg
	}
	if err := s.repo.Insert(ctx, entry); err != nil {
		logging.Error("Failed to write audit entry", "operation", operation, "error", err.Error())
	}
}
