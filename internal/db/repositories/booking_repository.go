package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"roomworks/channelsync/internal/models/entities"

	"github.com/jmoiron/sqlx"
)

// BookingRepo upserts local reservations imported from the channel manager
type BookingRepo struct {
	db *sqlx.DB
}

func NewBookingRepo(db *sqlx.DB) *BookingRepo {
	return &BookingRepo{db: db}
}

// Upsert inserts or replaces a booking by primary key. Re-processing the
// same remote booking through its id mapping lands on the same row.
func (r *BookingRepo) Upsert(ctx context.Context, b *entities.Booking) error {
	const query = `
		INSERT INTO bookings (id, hotel_id, room_type_id, guest_id, status, arrival_date,
			departure_date, num_adults, num_children, total_price, channel, notes,
			remote_modified, created_at, updated_at)
		VALUES (:id, :hotel_id, :room_type_id, :guest_id, :status, :arrival_date,
			:departure_date, :num_adults, :num_children, :total_price, :channel, :notes,
			:remote_modified, :created_at, :updated_at)
		ON CONFLICT (id) DO UPDATE
		SET room_type_id = EXCLUDED.room_type_id,
		    guest_id = EXCLUDED.guest_id,
		    status = EXCLUDED.status,
		    arrival_date = EXCLUDED.arrival_date,
		    departure_date = EXCLUDED.departure_date,
		    num_adults = EXCLUDED.num_adults,
		    num_children = EXCLUDED.num_children,
		    total_price = EXCLUDED.total_price,
		    channel = EXCLUDED.channel,
		    notes = EXCLUDED.notes,
		    remote_modified = EXCLUDED.remote_modified,
		    updated_at = EXCLUDED.updated_at
	`
	now := time.Now().UTC()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
	_, err := r.db.NamedExecContext(ctx, query, b)
	return err
}

// GetByID fetches one booking, or nil when absent.
func (r *BookingRepo) GetByID(ctx context.Context, id string) (*entities.Booking, error) {
	var b entities.Booking
	query := r.db.Rebind(`SELECT * FROM bookings WHERE id = ?`)
	err := r.db.GetContext(ctx, &b, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}

// CountByHotel reports how many bookings a hotel has locally.
func (r *BookingRepo) CountByHotel(ctx context.Context, hotelID string) (int, error) {
	var count int
	query := r.db.Rebind(`SELECT COUNT(*) FROM bookings WHERE hotel_id = ?`)
	err := r.db.GetContext(ctx, &count, query, hotelID)
	return count, err
}
