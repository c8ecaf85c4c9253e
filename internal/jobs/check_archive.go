package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/cyclonewatch/stormtrack/internal/lifecycle"
	"github.com/cyclonewatch/stormtrack/pkg/schedule"
)

// CheckArchiveJob transitions storms past the archive staleness threshold
// from dormant to archived, computing their archival statistics pack.
type CheckArchiveJob struct {
	deps *Deps
}

// NewCheckArchiveJob constructs the check_archive job.
func NewCheckArchiveJob(deps *Deps) *CheckArchiveJob {
	return &CheckArchiveJob{deps: deps}
}

// Name implements schedule.StormJob.
func (j *CheckArchiveJob) Name() string { return NameCheckArchive }

// Queue implements schedule.StormJob.
func (j *CheckArchiveJob) Queue() schedule.Queue { return schedule.QueueDefault }

// Period implements schedule.StormJob.
func (j *CheckArchiveJob) Period() time.Duration { return 6 * time.Hour }

// TriggersNext implements schedule.StormJob: archival has no downstream
// dependency edge.
func (j *CheckArchiveJob) TriggersNext() string { return "" }

// Storms implements schedule.StormJob: only dormant storms are eligible
// to be archived.
func (j *CheckArchiveJob) Storms(ctx context.Context) ([]int64, error) {
	return dormantStormIDs(ctx, j.deps.Store)
}

// Run implements schedule.StormJob. A dormant storm with no persisted
// advisories violates CheckArchive's precondition; that is logged and
// treated as a no-op rather than escalated, since the storm will simply be
// reconsidered on the next tick.
func (j *CheckArchiveJob) Run(ctx context.Context, stormID int64) schedule.Result {
	storm, err := j.deps.Store.GetStormByID(ctx, stormID)
	if err != nil {
		return schedule.Permanent(err)
	}

	now := time.Now().UTC()

	if err := j.deps.Lifecycle.CheckArchive(ctx, storm, now); err != nil {
		if errors.Is(err, lifecycle.ErrNoAdvisories) {
			if j.deps.Logger != nil {
				j.deps.Logger.Warn("dormant storm has no advisories to archive", "storm", storm.Code)
			}

			return schedule.Ok()
		}

		return schedule.Retryable(err)
	}

	return schedule.Ok()
}
