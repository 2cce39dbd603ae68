package workflow

import (
	"context"

	"bitbucket.org/datafokus/bizplan_backend/config"
)

// RegenerateFilter narrows a batch regeneration. Zero-valued fields match
// everything, so the zero filter regenerates every summary in the system.
type RegenerateFilter struct {
	UserId     int
	BusinessId string
	Year       int
}

// RegenerateReport is what a regeneration run hands back to its operator.
type RegenerateReport struct {
	PeriodsFound int
	Succeeded    int
	Failed       int
}

// RegenerateAll deletes every summary matching the filter and rebuilds the lot
// from simulation data. Periods are processed chronologically per
// (user, business) so each month's cash_beginning reads a predecessor that was
// already rebuilt. One failing period does not abort the batch; it is logged
// and counted and the run moves on.
//
// This is the repair path for drift, heuristic changes, and historical bugs.
// It must not overlap a live recompute for the same business; callers hold the
// rollup lock or run during a quiet window.
func (e *RollupEngine) RegenerateAll(ctx context.Context, filter RegenerateFilter) (RegenerateReport, error) {
	report := RegenerateReport{}

	if err := e.Summaries.DeleteSummaries(ctx, filter); err != nil {
		return report, err
	}

	periods, err := e.Simulations.DistinctPeriods(ctx, filter)
	if err != nil {
		return report, err
	}
	report.PeriodsFound = len(periods)

	for _, key := range periods {
		if err := e.RecomputePeriod(ctx, key); err != nil {
			report.Failed++
			config.LogError(e.logger(), "Regenerate.go", "RegenerateAll", "RecomputePeriod", key.String(), err)
			continue
		}
		report.Succeeded++
	}
	return report, nil
}
