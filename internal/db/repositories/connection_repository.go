package repositories

import (
	"context"
	"errors"
	"time"

	gormModels "roomworks/channelsync/internal/models/gorm"

	"github.com/google/uuid"
	gormlib "gorm.io/gorm"
)

// ConnectionRepo handles channel connection persistence
type ConnectionRepo struct {
	db *gormlib.DB
}

// NewConnectionRepo creates a new connection repository
func NewConnectionRepo(db *gormlib.DB) *ConnectionRepo {
	return &ConnectionRepo{db: db}
}

// GetByHotel returns the connection for a hotel, or nil when none exists.
func (r *ConnectionRepo) GetByHotel(ctx context.Context, hotelID string) (*gormModels.ChannelConnection, error) {
	var conn gormModels.ChannelConnection
	err := r.db.WithContext(ctx).
		Where("hotel_id = ?", hotelID).
		First(&conn).Error
	if err != nil {
		if errors.Is(err, gormlib.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &conn, nil
}

// GetByHotelProperty returns the connection for a (hotel, remote property) pair.
func (r *ConnectionRepo) GetByHotelProperty(ctx context.Context, hotelID, propertyID string) (*gormModels.ChannelConnection, error) {
	var conn gormModels.ChannelConnection
	err := r.db.WithContext(ctx).
		Where("hotel_id = ? AND remote_property_id = ?", hotelID, propertyID).
		First(&conn).Error
	if err != nil {
		if errors.Is(err, gormlib.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &conn, nil
}

// Create inserts a new connection. Uniqueness on (hotel, remote property) is
// enforced by the database.
func (r *ConnectionRepo) Create(ctx context.Context, conn *gormModels.ChannelConnection) error {
	if conn.ID == "" {
		conn.ID = uuid.NewString()
	}
	return r.db.WithContext(ctx).Create(conn).Error
}

// UpdateTokens persists a freshly refreshed access token and bumps last_used_at.
func (r *ConnectionRepo) UpdateTokens(ctx context.Context, connID, accessToken string, expiresAt time.Time) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).
		Model(&gormModels.ChannelConnection{}).
		Where("id = ?", connID).
		Updates(map[string]interface{}{
			"access_token":     accessToken,
			"token_expires_at": expiresAt,
			"last_used_at":     now,
		}).Error
}

// ClearAccessToken drops the cached access token so the next call must refresh.
func (r *ConnectionRepo) ClearAccessToken(ctx context.Context, connID string) error {
	return r.db.WithContext(ctx).
		Model(&gormModels.ChannelConnection{}).
		Where("id = ?", connID).
		Updates(map[string]interface{}{
			"access_token":     "",
			"token_expires_at": nil,
		}).Error
}

// SetStatus transitions a connection between active/error/disabled.
func (r *ConnectionRepo) SetStatus(ctx context.Context, connID, status string) error {
	return r.db.WithContext(ctx).
		Model(&gormModels.ChannelConnection{}).
		Where("id = ?", connID).
		Update("status", status).Error
}

// ListByStatus returns all connections in the given status.
func (r *ConnectionRepo) ListByStatus(ctx context.Context, status string) ([]gormModels.ChannelConnection, error) {
	var conns []gormModels.ChannelConnection
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Find(&conns).Error
	return conns, err
}
