package jobs

import (
	"context"
	"log"
	"time"

	"roomworks/channelsync/internal/services"
)

// RecoveryJob periodically sweeps the fleet with auto recovery so transient
// token and cursor problems heal without operator action.
type RecoveryJob struct {
	recovery *services.RecoveryService
}

// NewRecoveryJob creates a new scheduled recovery job instance
func NewRecoveryJob(recovery *services.RecoveryService) *RecoveryJob {
	return &RecoveryJob{recovery: recovery}
}

// Run executes one fleet-wide auto recovery sweep.
func (j *RecoveryJob) Run(ctx context.Context) error {
	report, err := j.recovery.AutoRecovery(ctx, "")
	if err != nil {
		return err
	}
	if len(report.Actions) > 0 {
		log.Printf("[RecoveryJob] Auto recovery performed %d action(s)", len(report.Actions))
	}
	return nil
}

// RunScheduled runs the recovery sweep on a fixed interval until the context
// is cancelled.
func (j *RecoveryJob) RunScheduled(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := j.Run(ctx); err != nil {
				log.Printf("[RecoveryJob] Error in scheduled run: %v", err)
			}
		case <-ctx.Done():
			log.Printf("[RecoveryJob] Shutting down scheduled recovery")
			return
		}
	}
}
