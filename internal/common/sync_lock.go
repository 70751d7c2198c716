package common

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"roomworks/channelsync/internal/constants"
)

// RedisSyncLock serializes sync runs per hotel with a Redis SET NX lease.
// The TTL bounds how long a crashed run can block the next one.
type RedisSyncLock struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSyncLock(client *redis.Client) *RedisSyncLock {
	return &RedisSyncLock{
		client: client,
		ttl:    constants.SyncLockTTLSeconds * time.Second,
	}
}

func lockKey(hotelID string) string {
	return string(constants.CachePrefixSyncLock) + hotelID
}

// Acquire takes the per-hotel lock. Returns false when another run holds it.
func (l *RedisSyncLock) Acquire(ctx context.Context, hotelID string) (bool, error) {
	return l.client.SetNX(ctx, lockKey(hotelID), "1", l.ttl).Result()
}

// Release drops the lock. Deleting an already-expired key is a no-op.
func (l *RedisSyncLock) Release(ctx context.Context, hotelID string) error {
	return l.client.Del(ctx, lockKey(hotelID)).Err()
}
