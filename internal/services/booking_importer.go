package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"roomworks/channelsync/internal/db/repositories"
	"roomworks/channelsync/internal/models/dtos"
	"roomworks/channelsync/internal/models/entities"

	"github.com/google/uuid"
)

// bookingImporter upserts remote bookings into local storage through the id
// mapping table. Shared by the bootstrap and delta sync orchestrators so
// re-processing the same remote booking is idempotent on both paths.
type bookingImporter struct {
	mappingRepo *repositories.IdMappingRepo
	bookingRepo *repositories.BookingRepo
	guestRepo   *repositories.GuestRepo
}

// importBooking writes one remote booking. An existing mapping routes to the
// same local row; a missing one creates local row + mapping. Returns the
// local booking id and whether a new guest record was created.
func (imp *bookingImporter) importBooking(ctx context.Context, hotelID string, rb *dtos.RemoteBooking) (string, bool, error) {
	if rb.ID == "" {
		return "", false, fmt.Errorf("remote booking without id")
	}

	arrival, err := time.Parse("2006-01-02", rb.Arrival)
	if err != nil {
		return "", false, fmt.Errorf("booking %s: bad arrival date %q: %w", rb.ID, rb.Arrival, err)
	}
	departure, err := time.Parse("2006-01-02", rb.Departure)
	if err != nil {
		return "", false, fmt.Errorf("booking %s: bad departure date %q: %w", rb.ID, rb.Departure, err)
	}

	localID, err := imp.mappingRepo.GetLocalID(ctx, hotelID, entities.KindBooking, rb.ID)
	if err != nil {
		return "", false, fmt.Errorf("booking %s: mapping lookup: %w", rb.ID, err)
	}
	isNew := localID == ""
	if isNew {
		localID = uuid.NewString()
	}

	roomTypeID, err := imp.resolveRoomType(ctx, hotelID, rb.RoomID)
	if err != nil {
		return "", false, fmt.Errorf("booking %s: %w", rb.ID, err)
	}

	guestID, guestCreated, err := imp.resolveGuest(ctx, hotelID, rb, isNew, localID)
	if err != nil {
		return "", false, fmt.Errorf("booking %s: %w", rb.ID, err)
	}

	booking := &entities.Booking{
		ID:            localID,
		HotelID:       hotelID,
		RoomTypeID:    roomTypeID,
		GuestID:       guestID,
		Status:        rb.Status,
		ArrivalDate:   arrival,
		DepartureDate: departure,
		NumAdults:     rb.NumAdult,
		NumChildren:   rb.NumChild,
		TotalPrice:    rb.Price,
		Channel:       rb.Channel,
		Notes:         rb.Notes,
	}
	if mod := rb.ModifiedAt(); !mod.IsZero() {
		booking.RemoteModified = &mod
	}

	if err := imp.bookingRepo.Upsert(ctx, booking); err != nil {
		return "", false, fmt.Errorf("booking %s: upsert: %w", rb.ID, err)
	}

	if isNew {
		if err := imp.mappingRepo.Create(ctx, hotelID, entities.KindBooking, rb.ID, localID); err != nil {
			return "", false, fmt.Errorf("booking %s: mapping create: %w", rb.ID, err)
		}
	}

	// Invoices are tracked against the booking they belong to.
	if rb.InvoiceID != "" {
		if err := imp.mappingRepo.Create(ctx, hotelID, entities.KindInvoice, rb.InvoiceID, localID); err != nil {
			return "", false, fmt.Errorf("booking %s: invoice mapping: %w", rb.ID, err)
		}
	}

	return localID, guestCreated, nil
}

func (imp *bookingImporter) resolveRoomType(ctx context.Context, hotelID, remoteRoomID string) (*string, error) {
	if remoteRoomID == "" {
		return nil, nil
	}
	localID, err := imp.mappingRepo.GetLocalID(ctx, hotelID, entities.KindRoom, remoteRoomID)
	if err != nil {
		return nil, fmt.Errorf("room mapping lookup: %w", err)
	}
	if localID == "" {
		// Unknown room on the remote side; the booking still imports.
		return nil, nil
	}
	return &localID, nil
}

// resolveGuest finds or creates the guest for a booking. Dedupe is keyed on
// email; an emailless guest is created once, on first import of the booking.
func (imp *bookingImporter) resolveGuest(ctx context.Context, hotelID string, rb *dtos.RemoteBooking, isNew bool, localBookingID string) (*string, bool, error) {
	if rb.GuestEmail != "" {
		existing, err := imp.guestRepo.FindByEmail(ctx, hotelID, rb.GuestEmail)
		if err != nil {
			return nil, false, fmt.Errorf("guest lookup: %w", err)
		}
		if existing != nil {
			return &existing.ID, false, nil
		}
		id, err := imp.createGuest(ctx, hotelID, rb)
		return id, err == nil, err
	}

	if !isNew {
		// Keep whatever guest the prior import resolved.
		prior, err := imp.bookingRepo.GetByID(ctx, localBookingID)
		if err != nil {
			return nil, false, fmt.Errorf("prior booking lookup: %w", err)
		}
		if prior != nil {
			return prior.GuestID, false, nil
		}
	}

	if strings.TrimSpace(rb.GuestFirst+rb.GuestName) == "" {
		return nil, false, nil
	}
	id, err := imp.createGuest(ctx, hotelID, rb)
	return id, err == nil, err
}

func (imp *bookingImporter) createGuest(ctx context.Context, hotelID string, rb *dtos.RemoteBooking) (*string, error) {
	guest := &entities.Guest{
		ID:        uuid.NewString(),
		HotelID:   hotelID,
		FirstName: rb.GuestFirst,
		LastName:  rb.GuestName,
		Email:     rb.GuestEmail,
		Phone:     rb.GuestPhone,
		Country:   rb.GuestCountry,
	}
	if err := imp.guestRepo.Insert(ctx, guest); err != nil {
		return nil, fmt.Errorf("guest insert: %w", err)
	}
	return &guest.ID, nil
}
