package jobs

import (
	"context"
	"time"

	"github.com/cyclonewatch/stormtrack/pkg/schedule"
)

// CheckDormantJob transitions storms past the dormancy staleness threshold
// from active to dormant.
type CheckDormantJob struct {
	deps *Deps
}

// NewCheckDormantJob constructs the check_dormant job.
func NewCheckDormantJob(deps *Deps) *CheckDormantJob {
	return &CheckDormantJob{deps: deps}
}

// Name implements schedule.StormJob.
func (j *CheckDormantJob) Name() string { return NameCheckDormant }

// Queue implements schedule.StormJob.
func (j *CheckDormantJob) Queue() schedule.Queue { return schedule.QueueDefault }

// Period implements schedule.StormJob.
func (j *CheckDormantJob) Period() time.Duration { return time.Hour }

// TriggersNext implements schedule.StormJob: dormancy checks have no
// downstream dependency edge.
func (j *CheckDormantJob) TriggersNext() string { return "" }

// Storms implements schedule.StormJob: only active storms are eligible to
// become dormant.
func (j *CheckDormantJob) Storms(ctx context.Context) ([]int64, error) {
	return activeStormIDs(ctx, j.deps.Store)
}

// Run implements schedule.StormJob.
func (j *CheckDormantJob) Run(ctx context.Context, stormID int64) schedule.Result {
	storm, err := j.deps.Store.GetStormByID(ctx, stormID)
	if err != nil {
		return schedule.Permanent(err)
	}

	if err := j.deps.Lifecycle.CheckDormant(ctx, storm, time.Now().UTC()); err != nil {
		return schedule.Retryable(err)
	}

	return schedule.Ok()
}
