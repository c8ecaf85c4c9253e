package jobs

import (
	"context"
	"time"

	"github.com/cyclonewatch/stormtrack/internal/fetch"
	"github.com/cyclonewatch/stormtrack/internal/radii"
	"github.com/cyclonewatch/stormtrack/pkg/schedule"
)

// IngestRadiiJob refetches a storm's wind-radii companion file, matching
// each parsed record to its advisory and upserting the attached radii.
type IngestRadiiJob struct {
	deps *Deps
}

// NewIngestRadiiJob constructs the ingest_radii job.
func NewIngestRadiiJob(deps *Deps) *IngestRadiiJob {
	return &IngestRadiiJob{deps: deps}
}

// Name implements schedule.StormJob.
func (j *IngestRadiiJob) Name() string { return NameIngestRadii }

// Queue implements schedule.StormJob.
func (j *IngestRadiiJob) Queue() schedule.Queue { return schedule.QueueIngest }

// Period implements schedule.StormJob.
func (j *IngestRadiiJob) Period() time.Duration { return 15 * time.Minute }

// TriggersNext implements schedule.StormJob: radii ingest has no
// downstream dependency edge.
func (j *IngestRadiiJob) TriggersNext() string { return "" }

// Storms implements schedule.StormJob.
func (j *IngestRadiiJob) Storms(ctx context.Context) ([]int64, error) {
	return activeStormIDs(ctx, j.deps.Store)
}

// Run implements schedule.StormJob.
func (j *IngestRadiiJob) Run(ctx context.Context, stormID int64) schedule.Result {
	storm, err := j.deps.Store.GetStormByID(ctx, stormID)
	if err != nil {
		return schedule.Permanent(err)
	}

	url := radiiURL(j.deps.Config.Upstream.BaseDiscovery, storm.Code)

	result := j.deps.Fetcher.Get(ctx, url, j.deps.fetchConfig())

	if result.Outcome != fetch.OutcomeFetched {
		if res, handled := outcomeToResult(j.deps.Logger, j.Name(), result); handled {
			return res
		}
	}

	records := radii.Parse(string(result.Body))

	advisories, err := j.deps.Store.ListAdvisories(ctx, storm.ID)
	if err != nil {
		return schedule.Retryable(err)
	}

	for _, rec := range records {
		idx := radii.MatchToAdvisory(rec, advisories)
		if idx == -1 {
			continue
		}

		if err := j.deps.Store.UpdateRadii(ctx, storm.ID, advisories[idx].ID, rec.Quadrants[:]); err != nil {
			return schedule.Retryable(err)
		}
	}

	return schedule.Ok()
}
