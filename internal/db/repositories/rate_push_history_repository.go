package repositories

import (
	"context"

	gormModels "roomworks/channelsync/internal/models/gorm"

	"github.com/google/uuid"
	gormlib "gorm.io/gorm"
)

// RatePushHistoryRepo records rate/availability push batches
type RatePushHistoryRepo struct {
	db *gormlib.DB
}

func NewRatePushHistoryRepo(db *gormlib.DB) *RatePushHistoryRepo {
	return &RatePushHistoryRepo{db: db}
}

// Create writes one history row per push batch. Rows are immutable after
// creation.
func (r *RatePushHistoryRepo) Create(ctx context.Context, rec *gormModels.RatePushHistory) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	return r.db.WithContext(ctx).Create(rec).Error
}

// RecentByHotel returns the newest push batches for a hotel.
func (r *RatePushHistoryRepo) RecentByHotel(ctx context.Context, hotelID string, limit int) ([]gormModels.RatePushHistory, error) {
	var recs []gormModels.RatePushHistory
	err := r.db.WithContext(ctx).
		Where("hotel_id = ?", hotelID).
		Order("created_at DESC").
		Limit(limit).
		Find(&recs).Error
	return recs, err
}
