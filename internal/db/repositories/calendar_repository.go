package repositories

import (
	"context"
	"time"

	"roomworks/channelsync/internal/models/entities"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// CalendarRepo manages daily rate/availability rows
type CalendarRepo struct {
	db *sqlx.DB
}

func NewCalendarRepo(db *sqlx.DB) *CalendarRepo {
	return &CalendarRepo{db: db}
}

// UpsertDay inserts or refreshes one calendar cell, keyed on
// (room_type_id, date). Calendar sync rewrites the whole rolling window.
func (r *CalendarRepo) UpsertDay(ctx context.Context, day *entities.CalendarDay) error {
	const query = `
		INSERT INTO calendar_days (id, hotel_id, room_type_id, date, rate, available,
			stop_sell, closed_arrival, updated_at)
		VALUES (:id, :hotel_id, :room_type_id, :date, :rate, :available,
			:stop_sell, :closed_arrival, :updated_at)
		ON CONFLICT (room_type_id, date) DO UPDATE
		SET rate = EXCLUDED.rate,
		    available = EXCLUDED.available,
		    stop_sell = EXCLUDED.stop_sell,
		    closed_arrival = EXCLUDED.closed_arrival,
		    updated_at = EXCLUDED.updated_at
	`
	if day.ID == "" {
		day.ID = uuid.NewString()
	}
	day.UpdatedAt = time.Now().UTC()
	_, err := r.db.NamedExecContext(ctx, query, day)
	return err
}

// ListRange returns the calendar cells for a room type between two dates
// inclusive.
func (r *CalendarRepo) ListRange(ctx context.Context, roomTypeID string, start, end time.Time) ([]entities.CalendarDay, error) {
	var days []entities.CalendarDay
	query := r.db.Rebind(`
		SELECT * FROM calendar_days
		WHERE room_type_id = ? AND date >= ? AND date <= ?
		ORDER BY date
	`)
	err := r.db.SelectContext(ctx, &days, query, roomTypeID, start, end)
	return days, err
}
