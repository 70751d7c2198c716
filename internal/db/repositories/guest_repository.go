package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"roomworks/channelsync/internal/models/entities"

	"github.com/jmoiron/sqlx"
)

// GuestRepo manages guest records created during booking import
type GuestRepo struct {
	db *sqlx.DB
}

func NewGuestRepo(db *sqlx.DB) *GuestRepo {
	return &GuestRepo{db: db}
}

// Insert creates a new guest.
func (r *GuestRepo) Insert(ctx context.Context, g *entities.Guest) error {
	const query = `
		INSERT INTO guests (id, hotel_id, first_name, last_name, email, phone, country, created_at)
		VALUES (:id, :hotel_id, :first_name, :last_name, :email, :phone, :country, :created_at)
	`
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.NamedExecContext(ctx, query, g)
	return err
}

// FindByEmail looks a guest up for dedupe during import, or nil when unknown.
func (r *GuestRepo) FindByEmail(ctx context.Context, hotelID, email string) (*entities.Guest, error) {
	var g entities.Guest
	query := r.db.Rebind(`SELECT * FROM guests WHERE hotel_id = ? AND email = ? LIMIT 1`)
	err := r.db.GetContext(ctx, &g, query, hotelID, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &g, nil
}
