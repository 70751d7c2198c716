package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"roomworks/channelsync/internal/models/entities"

	"github.com/jmoiron/sqlx"
)

// RoomTypeRepo manages local room categories
type RoomTypeRepo struct {
	db *sqlx.DB
}

func NewRoomTypeRepo(db *sqlx.DB) *RoomTypeRepo {
	return &RoomTypeRepo{db: db}
}

// Insert creates a new local room type. Bootstrap only inserts when no id
// mapping exists for the remote room, so existing local records stay untouched.
func (r *RoomTypeRepo) Insert(ctx context.Context, rt *entities.RoomType) error {
	const query = `
		INSERT INTO room_types (id, hotel_id, name, units, max_guests, base_rate, created_at, updated_at)
		VALUES (:id, :hotel_id, :name, :units, :max_guests, :base_rate, :created_at, :updated_at)
	`
	now := time.Now().UTC()
	rt.CreatedAt = now
	rt.UpdatedAt = now
	_, err := r.db.NamedExecContext(ctx, query, rt)
	return err
}

// GetByID fetches one room type, or nil when absent.
func (r *RoomTypeRepo) GetByID(ctx context.Context, id string) (*entities.RoomType, error) {
	var rt entities.RoomType
	query := r.db.Rebind(`SELECT * FROM room_types WHERE id = ?`)
	err := r.db.GetContext(ctx, &rt, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rt, nil
}

// ListByHotel returns a hotel's room types.
func (r *RoomTypeRepo) ListByHotel(ctx context.Context, hotelID string) ([]entities.RoomType, error) {
	var rts []entities.RoomType
	query := r.db.Rebind(`SELECT * FROM room_types WHERE hotel_id = ? ORDER BY name`)
	err := r.db.SelectContext(ctx, &rts, query, hotelID)
	return rts, err
}
