package tasks

import (
	"context"
	"fmt"
)

// newReportRefreshTask creates the scheduled task that re-renders the
// status reports of all running sweeps. Long backoff sleeps produce no
// batch activity, so without this the reports would sit stale.
func newReportRefreshTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "report_refresh")

	return func(ctx context.Context) error {
		if err := deps.Controller.RefreshReports(ctx); err != nil {
			log.ErrorContext(ctx, "Report refresh failed", "error", err)
			return fmt.Errorf("report refresh failed: %w", err)
		}
		return nil
	}
}
