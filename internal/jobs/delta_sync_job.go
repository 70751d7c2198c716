package jobs

import (
	"context"
	"errors"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"roomworks/channelsync/internal/constants"
	"roomworks/channelsync/internal/db/repositories"
	"roomworks/channelsync/internal/models/entities"
	"roomworks/channelsync/internal/services"
)

// DeltaSyncJob fans delta syncs out over every sync-enabled property. The
// same Run path serves the in-process ticker and the manual trigger endpoint.
type DeltaSyncJob struct {
	syncStateRepo *repositories.SyncStateRepo
	deltaSync     *services.DeltaSyncService
	audit         *services.AuditService
	fanOutLimit   int
}

// TickResult summarizes one fan-out pass.
type TickResult struct {
	Properties int                             `json:"properties"`
	Succeeded  int                             `json:"succeeded"`
	Skipped    int                             `json:"skipped"`
	Failed     int                             `json:"failed"`
	Results    map[string]*services.SyncResult `json:"results,omitempty"`
}

// NewDeltaSyncJob creates a new scheduled delta sync job instance
func NewDeltaSyncJob(syncStateRepo *repositories.SyncStateRepo, deltaSync *services.DeltaSyncService, audit *services.AuditService) *DeltaSyncJob {
	return &DeltaSyncJob{
		syncStateRepo: syncStateRepo,
		deltaSync:     deltaSync,
		audit:         audit,
		fanOutLimit:   constants.DefaultSyncFanOutLimit,
	}
}

// Run executes one sync pass over all enabled properties. Per-property
// failures are logged and counted, never abort the pass.
func (j *DeltaSyncJob) Run(ctx context.Context, scope string) (*TickResult, error) {
	start := time.Now()
	if scope == "" {
		scope = constants.ScopeAll
	}
	// Fleet-level entry with no hotel scope; the per-property runs write
	// their own rows.
	j.audit.Started(ctx, constants.OpScheduledFanOut, "", map[string]interface{}{"scope": scope})

	states, err := j.syncStateRepo.ListEnabled(ctx)
	if err != nil {
		j.audit.Finish(ctx, constants.OpScheduledFanOut, "", entities.AuditError, nil,
			time.Since(start), 0, err.Error(), nil)
		return nil, err
	}

	result := &TickResult{
		Properties: len(states),
		Results:    make(map[string]*services.SyncResult, len(states)),
	}
	if len(states) == 0 {
		j.audit.Finish(ctx, constants.OpScheduledFanOut, "", entities.AuditSuccess, nil,
			time.Since(start), 0, "", nil)
		return result, nil
	}

	log.Printf("[DeltaSyncJob] Starting sync pass for %d properties (scope %s)", len(states), scope)

	type outcome struct {
		hotelID string
		res     *services.SyncResult
		err     error
	}
	outcomes := make([]outcome, len(states))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(j.fanOutLimit)
	for i := range states {
		i := i
		hotelID := states[i].HotelID
		g.Go(func() error {
			res, err := j.deltaSync.DeltaSync(gctx, hotelID, scope)
			outcomes[i] = outcome{hotelID: hotelID, res: res, err: err}
			return nil
		})
	}
	// Goroutines never return errors, so this only waits.
	_ = g.Wait()

	for _, o := range outcomes {
		if o.res != nil {
			result.Results[o.hotelID] = o.res
		}
		switch {
		case o.err == nil:
			result.Succeeded++
		case errors.Is(o.err, services.ErrSyncInProgress),
			errors.Is(o.err, services.ErrSyncDisabled),
			errors.Is(o.err, services.ErrNotBootstrapped):
			result.Skipped++
			log.Printf("[DeltaSyncJob] Skipped hotel %s: %v", o.hotelID, o.err)
		default:
			result.Failed++
			log.Printf("[DeltaSyncJob] Sync failed for hotel %s: %v", o.hotelID, o.err)
		}
	}

	status := entities.AuditSuccess
	if result.Failed > 0 {
		status = entities.AuditPartial
	}
	j.audit.Finish(ctx, constants.OpScheduledFanOut, "", status, nil, time.Since(start),
		result.Succeeded, "", map[string]interface{}{
			"properties": result.Properties,
			"succeeded":  result.Succeeded,
			"skipped":    result.Skipped,
			"failed":     result.Failed,
		})

	log.Printf("[DeltaSyncJob] Completed sync pass in %s: %d ok, %d skipped, %d failed",
		time.Since(start).Truncate(time.Millisecond), result.Succeeded, result.Skipped, result.Failed)
	return result, nil
}

// RunScheduled runs the sync pass on a fixed interval until the context is
// cancelled.
func (j *DeltaSyncJob) RunScheduled(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := j.Run(ctx, constants.ScopeAll); err != nil {
				log.Printf("[DeltaSyncJob] Error in scheduled run: %v", err)
			}
		case <-ctx.Done():
			log.Printf("[DeltaSyncJob] Shutting down scheduled sync")
			return
		}
	}
}
