package services

import (
	"context"
	"time"

	"roomworks/channelsync/internal/models/dtos"
	gormModels "roomworks/channelsync/internal/models/gorm"
	"roomworks/channelsync/internal/providers"
)

// ChannelClient is the slice of the remote API the orchestrators consume.
// Satisfied by *providers.Beds24Provider.
type ChannelClient interface {
	FetchProperty(ctx context.Context, conn *gormModels.ChannelConnection, propertyID string) (*dtos.RemoteProperty, *providers.CallMeta, error)
	FetchBookings(ctx context.Context, conn *gormModels.ChannelConnection, propertyID string, modifiedFrom *time.Time, offset int) (*providers.BookingsPage, *providers.CallMeta, error)
	FetchCalendar(ctx context.Context, conn *gormModels.ChannelConnection, propertyID string, start, end time.Time) ([]dtos.RemoteCalendarCell, *providers.CallMeta, error)
	PushCalendar(ctx context.Context, conn *gormModels.ChannelConnection, updates []dtos.CalendarUpdate) (*providers.CallMeta, error)
}

// SyncLocker serializes concurrent syncs for the same hotel. Satisfied by
// *common.RedisSyncLock.
type SyncLocker interface {
	Acquire(ctx context.Context, hotelID string) (bool, error)
	Release(ctx context.Context, hotelID string) error
}
