package jobs

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"roomworks/channelsync/internal/db/repositories"
	"roomworks/channelsync/internal/services"
)

// InitializeJobs initializes and starts all background jobs
func InitializeJobs(
	ctx context.Context,
	syncStateRepo *repositories.SyncStateRepo,
	deltaSync *services.DeltaSyncService,
	recovery *services.RecoveryService,
	audit *services.AuditService,
) *DeltaSyncJob {
	deltaSyncJob := NewDeltaSyncJob(syncStateRepo, deltaSync, audit)

	// SYNC_INTERVAL_MINUTES <= 0 disables the in-process ticker; an external
	// scheduler can drive the same pass through the trigger endpoint.
	if interval := intervalFromEnv("SYNC_INTERVAL_MINUTES", 15); interval > 0 {
		go deltaSyncJob.RunScheduled(ctx, interval)
	} else {
		log.Printf("[Jobs] In-process sync scheduler disabled")
	}

	recoveryJob := NewRecoveryJob(recovery)
	if interval := intervalFromEnv("RECOVERY_INTERVAL_MINUTES", 60); interval > 0 {
		go recoveryJob.RunScheduled(ctx, interval)
	}

	return deltaSyncJob
}

func intervalFromEnv(key string, defaultMinutes int) time.Duration {
	minutes := defaultMinutes
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			minutes = n
		}
	}
	if minutes <= 0 {
		return 0
	}
	return time.Duration(minutes) * time.Minute
}
