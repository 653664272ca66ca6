package tasks

import (
	"context"
	"fmt"
	"time"
)

// newIndexMaintenanceTask creates the scheduled task that compacts the
// message index database. Sweeps delete rows in bulk, so the index
// benefits from periodic reclamation.
func newIndexMaintenanceTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "index_maintenance")

	return func(ctx context.Context) error {
		log.InfoContext(ctx, "Starting index maintenance...")
		startTime := time.Now()

		err := deps.Store.RunMaintenance(ctx)

		duration := time.Since(startTime)
		if err != nil {
			log.ErrorContext(ctx, "Index maintenance failed", "error", err, "duration", duration)
			return fmt.Errorf("index maintenance failed: %w", err)
		}

		log.InfoContext(ctx, "Index maintenance completed", "duration", duration)
		return nil
	}
}
