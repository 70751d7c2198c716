package gorm

import (
	"strings"
	"time"
)

// Connection statuses
const (
	ConnStatusActive   = "active"
	ConnStatusError    = "error"
	ConnStatusDisabled = "disabled"
)

// ChannelConnection represents one Beds24 property connection for a hotel.
// Created on the initial OAuth handshake, updated on every token refresh,
// disabled (never deleted) on persistent auth failure.
type ChannelConnection struct {
	ID                string     `gorm:"column:id;primaryKey;type:uuid"`
	HotelID           string     `gorm:"column:hotel_id;type:uuid;uniqueIndex:idx_conn_hotel_property;not null"`
	Provider          string     `gorm:"column:provider;type:varchar(20);default:beds24"`
	RemotePropertyID  string     `gorm:"column:remote_property_id;type:varchar(20);uniqueIndex:idx_conn_hotel_property;not null"`
	Scopes            string     `gorm:"column:scopes"` // comma-separated capability strings
	ReadRefreshToken  string     `gorm:"column:read_refresh_token"`
	WriteRefreshToken string     `gorm:"column:write_refresh_token"`
	AccessToken       string     `gorm:"column:access_token"`
	TokenExpiresAt    *time.Time `gorm:"column:token_expires_at"`
	LastUsedAt        *time.Time `gorm:"column:last_used_at"`
	Status            string     `gorm:"column:status;type:varchar(10);default:active"`
	CreatedAt         time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (ChannelConnection) TableName() string {
	return "channel_connections"
}

// HasScope reports whether the connection was granted the given capability.
func (c *ChannelConnection) HasScope(scope string) bool {
	if c.Scopes == "" {
		return false
	}
	for _, s := range strings.Split(c.Scopes, ",") {
		if strings.TrimSpace(s) == scope {
			return true
		}
	}
	return false
}
