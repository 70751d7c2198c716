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
	"roomworks/channelsync/internal/providers"

	"github.com/google/uuid"
)

// BootstrapResult summarizes one initial import.
type BootstrapResult struct {
	HotelID    string   `json:"hotel_id"`
	PropertyID string   `json:"property_id"`
	RoomTypes  int      `json:"room_types"`
	Bookings   int      `json:"bookings"`
	Guests     int      `json:"guests"`
	Status     string   `json:"status"`
	Errors     []string `json:"errors,omitempty"`
}

// BootstrapService performs the one-time initial import of a property's room
// types, historical bookings, and guests from Beds24.
type BootstrapService struct {
	connRepo      *repositories.ConnectionRepo
	syncStateRepo *repositories.SyncStateRepo
	mappingRepo   *repositories.IdMappingRepo
	roomTypeRepo  *repositories.RoomTypeRepo
	bookingRepo   *repositories.BookingRepo
	guestRepo     *repositories.GuestRepo
	client        ChannelClient
	audit         *AuditService
	importer      bookingImporter
	lookbackDays  int
}

// NewBootstrapService creates a new bootstrap orchestrator.
func NewBootstrapService(
	connRepo *repositories.ConnectionRepo,
	syncStateRepo *repositories.SyncStateRepo,
	mappingRepo *repositories.IdMappingRepo,
	roomTypeRepo *repositories.RoomTypeRepo,
	bookingRepo *repositories.BookingRepo,
	guestRepo *repositories.GuestRepo,
	client ChannelClient,
	audit *AuditService,
) *BootstrapService {
	lookback := constants.DefaultBootstrapLookbackDays
	if v := os.Getenv("BOOTSTRAP_LOOKBACK_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			lookback = n
		}
	}
	return &BootstrapService{
		connRepo:      connRepo,
		syncStateRepo: syncStateRepo,
		mappingRepo:   mappingRepo,
		roomTypeRepo:  roomTypeRepo,
		bookingRepo:   bookingRepo,
		guestRepo:     guestRepo,
		client:        client,
		audit:         audit,
		importer: bookingImporter{
			mappingRepo: mappingRepo,
			bookingRepo: bookingRepo,
			guestRepo:   guestRepo,
		},
		lookbackDays: lookback,
	}
}

// Bootstrap runs the initial import for a (hotel, property) pair. A second
// invocation fails fast with AlreadyBootstrappedError before any remote call.
// Partial failures leave imported entities in place with the completion flag
// unset, so a retry picks up where this run left off.
func (s *BootstrapService) Bootstrap(ctx context.Context, hotelID, propertyID, traceID string) (*BootstrapResult, error) {
	start := time.Now()
	s.audit.Started(ctx, constants.OpBootstrap, hotelID, map[string]interface{}{
		"property_id": propertyID,
		"trace_id":    traceID,
	})

	conn, err := s.connRepo.GetByHotelProperty(ctx, hotelID, propertyID)
	if err != nil {
		err = fmt.Errorf("failed to load connection: %w", err)
		s.rejected(ctx, hotelID, start, err)
		return nil, err
	}
	if conn == nil {
		s.rejected(ctx, hotelID, start, ErrConnectionNotFound)
		return nil, ErrConnectionNotFound
	}
	if conn.Status == gormModels.ConnStatusDisabled {
		s.rejected(ctx, hotelID, start, ErrConnectionDisabled)
		return nil, ErrConnectionDisabled
	}

	state, err := s.syncStateRepo.Ensure(ctx, hotelID, propertyID)
	if err != nil {
		err = fmt.Errorf("failed to ensure sync state: %w", err)
		s.rejected(ctx, hotelID, start, err)
		return nil, err
	}
	if state.BootstrapCompleted {
		completedAt := time.Now()
		if state.BootstrapCompletedAt != nil {
			completedAt = *state.BootstrapCompletedAt
		}
		rejErr := &AlreadyBootstrappedError{CompletedAt: completedAt}
		s.rejected(ctx, hotelID, start, rejErr)
		return nil, rejErr
	}

	log.Printf("[Bootstrap] Starting initial import for hotel %s property %s (trace %s)", hotelID, propertyID, traceID)

	result := &BootstrapResult{HotelID: hotelID, PropertyID: propertyID}
	totalMeta := &providers.CallMeta{}

	if err := s.importRoomTypes(ctx, conn, propertyID, result, totalMeta); err != nil {
		s.finish(ctx, hotelID, entities.AuditError, totalMeta, start, result, err.Error())
		return result, err
	}

	if err := s.importBookings(ctx, conn, propertyID, result, totalMeta); err != nil {
		s.finish(ctx, hotelID, entities.AuditError, totalMeta, start, result, err.Error())
		return result, err
	}

	if len(result.Errors) > 0 {
		// Recoverable partial import: flag stays false so a retry is allowed.
		result.Status = entities.AuditPartial
		s.finish(ctx, hotelID, entities.AuditPartial, totalMeta, start, result,
			fmt.Sprintf("%d records failed", len(result.Errors)))
		log.Printf("[Bootstrap] Partial import for hotel %s: %d room types, %d bookings, %d errors",
			hotelID, result.RoomTypes, result.Bookings, len(result.Errors))
		return result, nil
	}

	if err := s.syncStateRepo.MarkBootstrapCompleted(ctx, hotelID); err != nil {
		s.finish(ctx, hotelID, entities.AuditError, totalMeta, start, result, err.Error())
		return result, fmt.Errorf("failed to mark bootstrap completed: %w", err)
	}

	result.Status = entities.AuditSuccess
	s.finish(ctx, hotelID, entities.AuditSuccess, totalMeta, start, result, "")
	log.Printf("[Bootstrap] Completed for hotel %s in %s: %d room types, %d bookings, %d guests",
		hotelID, time.Since(start).Truncate(time.Millisecond), result.RoomTypes, result.Bookings, result.Guests)
	return result, nil
}

func (s *BootstrapService) importRoomTypes(ctx context.Context, conn *gormModels.ChannelConnection, propertyID string, result *BootstrapResult, totalMeta *providers.CallMeta) error {
	prop, meta, err := s.client.FetchProperty(ctx, conn, propertyID)
	totalMeta.Add(meta)
	if err != nil {
		return fmt.Errorf("failed to fetch property: %w", err)
	}

	for _, room := range prop.Rooms {
		localID, err := s.mappingRepo.GetLocalID(ctx, result.HotelID, entities.KindRoom, room.ID)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("room %s: %v", room.ID, err))
			continue
		}
		if localID != "" {
			// Already imported; local record stays untouched.
			result.RoomTypes++
			continue
		}

		rt := &entities.RoomType{
			ID:        uuid.NewString(),
			HotelID:   result.HotelID,
			Name:      room.Name,
			Units:     room.Qty,
			MaxGuests: room.MaxPeople,
			BaseRate:  room.RackRate,
		}
		if err := s.roomTypeRepo.Insert(ctx, rt); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("room %s: %v", room.ID, err))
			continue
		}
		if err := s.mappingRepo.Create(ctx, result.HotelID, entities.KindRoom, room.ID, rt.ID); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("room %s: %v", room.ID, err))
			continue
		}
		result.RoomTypes++
	}
	return nil
}

func (s *BootstrapService) importBookings(ctx context.Context, conn *gormModels.ChannelConnection, propertyID string, result *BootstrapResult, totalMeta *providers.CallMeta) error {
	lookback := time.Now().UTC().AddDate(0, 0, -s.lookbackDays)
	offset := 0
	for {
		page, meta, err := s.client.FetchBookings(ctx, conn, propertyID, &lookback, offset)
		totalMeta.Add(meta)
		if err != nil {
			return fmt.Errorf("failed to fetch bookings (offset %d): %w", offset, err)
		}

		for i := range page.Bookings {
			rb := &page.Bookings[i]
			_, guestCreated, err := s.importer.importBooking(ctx, result.HotelID, rb)
			if err != nil {
				result.Errors = append(result.Errors, err.Error())
				continue
			}
			result.Bookings++
			if guestCreated {
				result.Guests++
			}
		}

		if !page.HasMore {
			return nil
		}
		offset = page.NextOffset
	}
}

// rejected writes the terminal audit row for an invocation turned away on a
// precondition, with no remote calls made.
func (s *BootstrapService) rejected(ctx context.Context, hotelID string, start time.Time, err error) {
	s.audit.Finish(ctx, constants.OpBootstrap, hotelID, entities.AuditError, nil,
		time.Since(start), 0, err.Error(), nil)
}

func (s *BootstrapService) finish(ctx context.Context, hotelID, status string, meta *providers.CallMeta, start time.Time, result *BootstrapResult, errMsg string) {
	s.audit.Finish(ctx, constants.OpBootstrap, hotelID, status, meta, time.Since(start),
		result.RoomTypes+result.Bookings, errMsg, map[string]interface{}{
			"room_types": result.RoomTypes,
			"bookings":   result.Bookings,
			"guests":     result.Guests,
			"errors":     len(result.Errors),
		})
}
